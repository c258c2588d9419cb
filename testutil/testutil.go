package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/falcon/table"
	"github.com/hupe1980/falcon/value"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Shuffle pseudo-randomizes the order of n elements.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(n, swap)
}

// Nulls returns a mask of length n where each entry is true with
// probability rate.
func (r *RNG) Nulls(n int, rate float64) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, n)
	for i := range out {
		out[i] = r.rand.Float64() < rate
	}
	return out
}

// Movie row counts.
const (
	MoviesRows         = 3201
	MoviesUnder200M    = 2559
	MoviesUnder200MPGR = 1977
	MoviesMaxGross     = 760507625
)

// Movies returns the movies dataset in shuffled order.
func Movies(r *RNG) []value.Row {
	rows := make([]value.Row, 0, MoviesRows)
	add := func(gross float64, rating value.Value) {
		imdb := value.Null()
		if r.Intn(10) > 0 {
			imdb = value.Float(float64(10+r.Intn(81)) / 10)
		}
		rows = append(rows, value.Row{
			"Title":            value.String(fmt.Sprintf("Movie %04d", len(rows))),
			"US_Gross":         value.Float(gross),
			"MPAA_Rating":      rating,
			"IMDB_Rating":      imdb,
			"Running_Time_min": value.Int(int64(80 + r.Intn(100))),
		})
	}

	// Under 200M and rated PG-13 or R.
	pgr := value.Strings("PG-13", "R")
	for i := 0; i < MoviesUnder200MPGR; i++ {
		gross := float64(r.Intn(200))*1e6 + 5e5
		add(gross, pgr[r.Intn(len(pgr))])
	}

	// Under 200M with any other rating, including one gross of exactly 0.
	others := []value.Value{value.String("G"), value.String("PG"), value.String("NC-17"), value.Null()}
	add(0, others[0])
	for i := 1; i < MoviesUnder200M-MoviesUnder200MPGR; i++ {
		gross := float64(r.Intn(200))*1e6 + 5e5
		add(gross, others[r.Intn(len(others))])
	}

	// 200M and above, including the maximum.
	all := append(value.Strings("G", "PG", "PG-13", "R", "NC-17"), value.Null())
	add(MoviesMaxGross, value.String("PG-13"))
	for i := 1; i < MoviesRows-MoviesUnder200M; i++ {
		gross := 2e8 + float64(r.Intn(560))*1e6
		add(gross, all[r.Intn(len(all))])
	}

	r.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
	return rows
}

// MoviesTable returns Movies as an in-memory table.
func MoviesTable(r *RNG) *table.Memory {
	return table.FromRows(Movies(r))
}

// RandomTable returns n rows with x in [0, 100), y in [-50, 50) and c in
// {a, b, c, d, e}; each column has the given fraction of nulls.
func (r *RNG) RandomTable(n int, nullRate float64) *table.Memory {
	xs := make(table.Values, n)
	ys := make(table.Values, n)
	cs := make(table.Values, n)
	cats := value.Strings("a", "b", "c", "d", "e")
	xn, yn, cn := r.Nulls(n, nullRate), r.Nulls(n, nullRate), r.Nulls(n, nullRate)
	for i := 0; i < n; i++ {
		if !xn[i] {
			xs[i] = value.Float(r.Float64() * 100)
		}
		if !yn[i] {
			ys[i] = value.Float(r.Float64()*100 - 50)
		}
		if !cn[i] {
			cs[i] = cats[r.Intn(len(cats))]
		}
	}
	m := table.NewMemory(n)
	_ = m.AddColumn("x", xs)
	_ = m.AddColumn("y", ys)
	_ = m.AddColumn("c", cs)
	return m
}
