package arrowdb

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/hupe1980/falcon/backend/columnar"
)

type options struct {
	mem      memory.Allocator
	columnar []columnar.Option
}

// Option configures a DB.
type Option func(*options)

// WithAllocator sets the allocator used to decode IPC data.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) {
		o.mem = mem
	}
}

// WithMaskCacheSize bounds the mask cache in bytes. 0 keeps every mask.
func WithMaskCacheSize(bytes int64) Option {
	return func(o *options) {
		o.columnar = append(o.columnar, columnar.WithMaskCacheSize(bytes))
	}
}

// WithMemoryLimit caps the memory charged by cached masks.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.columnar = append(o.columnar, columnar.WithMemoryLimit(bytes))
	}
}

func applyOptions(optFns []Option) options {
	o := options{mem: memory.DefaultAllocator}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
