package columnar

import "github.com/hupe1980/falcon/internal/resource"

type options struct {
	maskCacheBytes int64
	memoryLimit    int64
}

// Option configures a DB.
type Option func(*options)

// WithMaskCacheSize bounds the mask cache in bytes. 0 (the default) keeps
// every mask.
func WithMaskCacheSize(bytes int64) Option {
	return func(o *options) {
		o.maskCacheBytes = bytes
	}
}

// WithMemoryLimit caps the memory charged by cached masks. Masks beyond the
// limit are computed but not cached.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

func applyOptions(optFns []Option) options {
	var o options
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o options) controller() *resource.Controller {
	return resource.NewController(resource.Config{MemoryLimitBytes: o.memoryLimit})
}
