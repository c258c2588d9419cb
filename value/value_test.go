package value

import (
	"math"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKey(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), "null"},
		{"int", Int(42), "i:42"},
		{"integral float shares int key", Float(42), "i:42"},
		{"string", String("PG-13"), "s:PG-13"},
		{"bool", Bool(true), "b:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Key())
		})
	}

	assert.NotEqual(t, Float(1.5).Key(), Float(2.5).Key())
}

func TestValueZeroIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	assert.True(t, Float(math.NaN()).IsNull())
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Int(3).Equal(Float(3)))
	assert.True(t, String("a").Equal(String("a")))
	assert.False(t, String("a").Equal(String("b")))
	assert.True(t, Null().Equal(Null()))
	assert.False(t, Null().Equal(Int(0)))
	assert.False(t, Bool(true).Equal(Int(1)))
}

func TestValueNumber(t *testing.T) {
	n, ok := Int(7).Number()
	require.True(t, ok)
	assert.Equal(t, 7.0, n)

	_, ok = String("7").Number()
	assert.False(t, ok)

	_, ok = Null().Number()
	assert.False(t, ok)
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	v, err = FromAny(uint32(9))
	require.NoError(t, err)
	assert.Equal(t, Int(9), v)

	v, err = FromAny(json.Number("1.25"))
	require.NoError(t, err)
	assert.Equal(t, KindFloat, v.Kind)

	ts := time.UnixMilli(1_700_000_000_000)
	v, err = FromAny(ts)
	require.NoError(t, err)
	f, _ := v.Number()
	assert.Equal(t, float64(1_700_000_000_000), f)

	_, err = FromAny(uint64(math.MaxUint64))
	assert.Error(t, err)

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}

func TestValueJSON(t *testing.T) {
	row := Row{"title": String("Avatar"), "gross": Int(760507625), "rating": Null()}
	data, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded Row
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Avatar", decoded["title"].StringValue())
	assert.True(t, decoded["rating"].IsNull())
	n, ok := decoded["gross"].Number()
	require.True(t, ok)
	assert.Equal(t, 760507625.0, n)
}
