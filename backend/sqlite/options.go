package sqlite

import "github.com/hupe1980/falcon/internal/resource"

// DefaultTable is the table queried when WithTable is not given.
const DefaultTable = "data"

type options struct {
	table          string
	maxConcurrency int64
	queryRate      float64
}

// Option configures a DB.
type Option func(*options)

// WithTable sets the queried table or view.
func WithTable(name string) Option {
	return func(o *options) {
		o.table = name
	}
}

// WithMaxConcurrency bounds the number of queries in flight. Default 4.
func WithMaxConcurrency(n int) Option {
	return func(o *options) {
		o.maxConcurrency = int64(n)
	}
}

// WithQueryRate throttles query starts to qps per second. 0 (the default)
// is unlimited.
func WithQueryRate(qps float64) Option {
	return func(o *options) {
		o.queryRate = qps
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		table:          DefaultTable,
		maxConcurrency: 4,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o options) controller() *resource.Controller {
	return resource.NewController(resource.Config{
		MaxConcurrentQueries: o.maxConcurrency,
		QueriesPerSecond:     o.queryRate,
	})
}
