package prometheus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/falcon"
	"github.com/hupe1980/falcon/backend/columnar"
	"github.com/hupe1980/falcon/dimension"
	"github.com/hupe1980/falcon/filter"
	ftestutil "github.com/hupe1980/falcon/testutil"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prom.NewRegistry()
	c := NewCollector(reg)

	c.RecordActivate(3, 10*time.Millisecond, nil)
	c.RecordActivate(2, time.Millisecond, errors.New("boom"))
	c.RecordSelect(time.Microsecond, nil)
	c.RecordStale()
	c.RecordBackendFailure()
	c.RecordBackendFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ops.WithLabelValues("activate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errors.WithLabelValues("activate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("select")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.passiveIndexed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stale))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.backendFailures))

	n, err := testutil.GatherAndCount(reg, "falcon_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "activate and select series")
}

func TestCollectorWiredIntoFalcon(t *testing.T) {
	ctx := context.Background()
	reg := prom.NewRegistry()
	c := NewCollector(reg)

	db := columnar.New(ftestutil.MoviesTable(ftestutil.NewRNG(42)))
	f := falcon.New(db, falcon.WithMetricsCollector(c))
	_, err := f.View0D(ctx)
	require.NoError(t, err)
	gross, err := f.View1D(ctx, dimension.Continuous("US_Gross"))
	require.NoError(t, err)
	require.NoError(t, f.Link(ctx))

	require.NoError(t, gross.Activate(ctx))
	require.NoError(t, gross.Select(ctx, filter.Range(0, 2e8)))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("activate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("select")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.passiveIndexed))
	assert.Positive(t, testutil.ToFloat64(c.ops.WithLabelValues("histogram")))
}
