package dimension

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/hupe1980/falcon/value"
)

// DefaultResolution is the pixel count used when a continuous dimension does
// not set one.
const DefaultResolution = 400

// ErrUnresolved is returned when a dimension is used before its extent or
// categories are known.
var ErrUnresolved = errors.New("dimension: extent not resolved")

// Kind distinguishes continuous from categorical dimensions.
type Kind uint8

const (
	// KindContinuous is a numeric dimension binned by a BinConfig.
	KindContinuous Kind = iota
	// KindCategorical is a dimension over an ordered list of categories.
	KindCategorical
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindContinuous:
		return "continuous"
	case KindCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Dimension describes a column and its discretization.
//
// The exported fields are plain descriptor data. Extent, BinConfig and
// Categories may be left empty; they are filled in once by Resolve and are
// immutable afterwards. A Dimension must not be copied after first use.
type Dimension struct {
	Name string
	Kind Kind

	// Extent is the [min, max] of a continuous column.
	Extent *Interval
	// MaxBins bounds the number of bins chosen by nice binning.
	MaxBins int
	// Bins overrides nice binning when set.
	Bins *BinConfig
	// Resolution is the number of pixels used when this dimension is active.
	Resolution int
	// Time selects calendar-like steps; values are Unix milliseconds.
	Time bool

	// Categories fixes the bin order of a categorical dimension.
	Categories []value.Value

	mu       sync.Mutex
	resolved bool
	binCfg   BinConfig
	catIndex map[string]int
}

// Option configures a continuous dimension.
type Option func(*Dimension)

// WithExtent fixes the [lo, hi] extent instead of asking the backend.
func WithExtent(lo, hi float64) Option {
	return func(d *Dimension) {
		d.Extent = &Interval{Lo: lo, Hi: hi}
	}
}

// WithMaxBins sets the bin budget for nice binning.
func WithMaxBins(n int) Option {
	return func(d *Dimension) {
		d.MaxBins = n
	}
}

// WithBinConfig sets an explicit bin configuration.
func WithBinConfig(b BinConfig) Option {
	return func(d *Dimension) {
		d.Bins = &b
	}
}

// WithResolution sets the pixel resolution used when the dimension is active.
func WithResolution(px int) Option {
	return func(d *Dimension) {
		d.Resolution = px
	}
}

// WithTime marks the dimension as a time dimension (Unix milliseconds).
func WithTime() Option {
	return func(d *Dimension) {
		d.Time = true
	}
}

// Continuous creates a continuous dimension.
func Continuous(name string, optFns ...Option) *Dimension {
	d := &Dimension{
		Name:       name,
		Kind:       KindContinuous,
		MaxBins:    DefaultMaxBins,
		Resolution: DefaultResolution,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(d)
		}
	}
	return d
}

// Categorical creates a categorical dimension. When no categories are given
// they are resolved from the backend.
func Categorical(name string, categories ...value.Value) *Dimension {
	d := &Dimension{
		Name: name,
		Kind: KindCategorical,
	}
	if len(categories) > 0 {
		d.Categories = append([]value.Value(nil), categories...)
	}
	return d
}

// IsContinuous reports whether d is continuous.
func (d *Dimension) IsContinuous() bool { return d.Kind == KindContinuous }

// NeedsExtent reports whether the backend must be asked for the extent
// (continuous) or distinct values (categorical).
func (d *Dimension) NeedsExtent() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.resolved {
		return false
	}
	if d.Kind == KindContinuous {
		return d.Extent == nil && d.Bins == nil
	}
	return len(d.Categories) == 0
}

// SetExtent stores a continuous extent unless one is already present.
func (d *Dimension) SetExtent(iv Interval) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Extent == nil && !d.resolved {
		d.Extent = &iv
	}
}

// SetCategories stores categories unless some are already present.
func (d *Dimension) SetCategories(categories []value.Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Categories) == 0 && !d.resolved {
		d.Categories = append([]value.Value(nil), categories...)
	}
}

// Resolve finalizes the binning. It is idempotent; after the first success
// the bins never change.
func (d *Dimension) Resolve() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolveLocked()
}

func (d *Dimension) resolveLocked() error {
	if d.resolved {
		return nil
	}
	switch d.Kind {
	case KindContinuous:
		var cfg BinConfig
		switch {
		case d.Bins != nil:
			cfg = *d.Bins
		case d.Extent != nil:
			if d.Time {
				cfg = TimeBins(d.MaxBins, *d.Extent)
			} else {
				cfg = NiceBins(d.MaxBins, *d.Extent)
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnresolved, d.Name)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("dimension %s: %w", d.Name, err)
		}
		if d.Resolution <= 0 {
			d.Resolution = DefaultResolution
		}
		d.binCfg = cfg
	case KindCategorical:
		if len(d.Categories) == 0 {
			return fmt.Errorf("%w: %s", ErrUnresolved, d.Name)
		}
		// Duplicates would be bins no row can reach.
		d.catIndex = make(map[string]int, len(d.Categories))
		uniq := d.Categories[:0:0]
		for _, c := range d.Categories {
			if _, dup := d.catIndex[c.Key()]; !dup {
				d.catIndex[c.Key()] = len(uniq)
				uniq = append(uniq, c)
			}
		}
		d.Categories = uniq
	default:
		return fmt.Errorf("dimension %s: unknown kind %d", d.Name, d.Kind)
	}
	d.resolved = true
	return nil
}

// Resolved reports whether Resolve has succeeded.
func (d *Dimension) Resolved() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolved
}

// BinConfig returns the resolved bin configuration of a continuous dimension.
func (d *Dimension) BinConfig() BinConfig {
	return d.binCfg
}

// NumBins returns the number of bins.
func (d *Dimension) NumBins() int {
	if d.Kind == KindCategorical {
		return len(d.Categories)
	}
	return d.binCfg.NumBins()
}

// BinIndex maps a continuous value to its bin, clamped to [0, NumBins-1] so
// that Stop lands in the last bin.
func (d *Dimension) BinIndex(v float64) int {
	n := d.binCfg.NumBins()
	i := int(math.Floor((v - d.binCfg.Start) / d.binCfg.Step))
	return clamp(i, 0, n-1)
}

// InRange reports whether v lies within [Start, Stop].
func (d *Dimension) InRange(v float64) bool {
	return v >= d.binCfg.Start && v <= d.binCfg.Stop
}

// CategoryIndex returns the bin of a category.
func (d *Dimension) CategoryIndex(v value.Value) (int, bool) {
	i, ok := d.catIndex[v.Key()]
	return i, ok
}

// BinOf maps a cell to its bin. ok is false for nulls (unless null is one of
// the categories), non-numeric continuous values and values outside the
// binned range.
func (d *Dimension) BinOf(v value.Value) (int, bool) {
	if d.Kind == KindCategorical {
		return d.CategoryIndex(v)
	}
	f, ok := v.Number()
	if !ok || !d.InRange(f) {
		return 0, false
	}
	return d.BinIndex(f), true
}

// NumPixels returns the number of active-axis keys: Resolution for
// continuous dimensions, the category count for categorical ones.
func (d *Dimension) NumPixels() int {
	if d.Kind == KindCategorical {
		return len(d.Categories)
	}
	return d.Resolution
}

// PixelStep is the width of one pixel in data units.
func (d *Dimension) PixelStep() float64 {
	return (d.binCfg.Stop - d.binCfg.Start) / float64(d.Resolution)
}

// PixelIndex maps a continuous value to its pixel, clamped to
// [0, Resolution-1].
func (d *Dimension) PixelIndex(v float64) int {
	return min(PixelFloor(d.binCfg, d.Resolution, v), d.Resolution-1)
}

// PixelOf maps a cell to its active pixel. ok is false for nulls,
// non-numeric values and values outside the binned range.
func (d *Dimension) PixelOf(v value.Value) (int, bool) {
	f, ok := v.Number()
	if !ok || !d.InRange(f) {
		return 0, false
	}
	return d.PixelIndex(f), true
}

// PixelToValue returns the data value at pixel boundary p.
func (d *Dimension) PixelToValue(p int) float64 {
	return pixelBoundary(d.binCfg, d.Resolution, p)
}

// ToPixels converts a brush in data space to pixel boundaries. A brush edge
// and a row holding the same value always resolve to the same boundary, so
// rows on the edge are kept at Lo and dropped at Hi like the half-open filter.
func (d *Dimension) ToPixels(brush Interval) (lo, hi int) {
	return PixelFloor(d.binCfg, d.Resolution, brush.Lo), PixelFloor(d.binCfg, d.Resolution, brush.Hi)
}

func pixelBoundary(cfg BinConfig, resolution, p int) float64 {
	return cfg.Start + float64(p)*(cfg.Stop-cfg.Start)/float64(resolution)
}

// PixelFloor returns the last pixel boundary p in [0, resolution] with
// boundary(p) <= v, or 0 when v lies before Start. Boundaries are
// Start + p*(Stop-Start)/resolution.
func PixelFloor(cfg BinConfig, resolution int, v float64) int {
	span := cfg.Stop - cfg.Start
	px := math.Floor((v - cfg.Start) * float64(resolution) / span)
	switch {
	case math.IsNaN(px) || px < 0:
		return 0
	case px > float64(resolution):
		return resolution
	}
	p := int(px)
	// The estimate can be one off where the boundary is not representable.
	for p > 0 && pixelBoundary(cfg, resolution, p) > v {
		p--
	}
	for p < resolution && pixelBoundary(cfg, resolution, p+1) <= v {
		p++
	}
	return p
}

// ReadableBins lists the bins for display.
func (d *Dimension) ReadableBins() []Bin {
	if d.Kind == KindCategorical {
		bins := make([]Bin, len(d.Categories))
		for i, c := range d.Categories {
			bins[i] = Bin{Category: c}
		}
		return bins
	}
	return ContinuousBins(d.binCfg)
}

func clamp(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}
