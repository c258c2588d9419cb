package dimension

import (
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/falcon/value"
)

// DefaultMaxBins is the bin budget used when a continuous dimension does not
// set one.
const DefaultMaxBins = 20

// Interval is a closed numeric extent [Lo, Hi].
type Interval struct {
	Lo float64
	Hi float64
}

// String implements fmt.Stringer.
func (iv Interval) String() string {
	return fmt.Sprintf("[%g, %g]", iv.Lo, iv.Hi)
}

// BinConfig is a regular binning of a continuous domain.
type BinConfig struct {
	Start float64
	Stop  float64
	Step  float64
}

// NumBins returns round((Stop-Start)/Step).
func (b BinConfig) NumBins() int {
	if b.Step <= 0 {
		return 0
	}
	return int(math.Round((b.Stop - b.Start) / b.Step))
}

// Validate checks the invariants of a bin configuration.
func (b BinConfig) Validate() error {
	if !(b.Step > 0) {
		return fmt.Errorf("dimension: bin step must be positive, got %g", b.Step)
	}
	if !(b.Stop > b.Start) {
		return fmt.Errorf("dimension: bin stop %g must be greater than start %g", b.Stop, b.Start)
	}
	return nil
}

// NiceBins chooses a bin configuration with at most maxBins bins whose step
// is a power of ten optionally divided by 5 or 2, and whose start and stop are
// multiples of the step covering extent.
func NiceBins(maxBins int, extent Interval) BinConfig {
	if maxBins <= 0 {
		maxBins = DefaultMaxBins
	}
	const base = 10.0
	divisors := [...]float64{5, 2}

	lo, hi := extent.Lo, extent.Hi
	span := hi - lo
	if span == 0 {
		span = math.Abs(lo)
	}
	if span == 0 {
		span = 1
	}

	logb := math.Log(base)
	level := math.Ceil(math.Log(float64(maxBins)) / logb)
	step := math.Max(0, math.Pow(base, math.Round(math.Log(span)/logb)-level))

	for math.Ceil(span/step) > float64(maxBins) {
		step *= base
	}
	for _, d := range divisors {
		if v := step / d; span/v <= float64(maxBins) {
			step = v
		}
	}

	precision := 0.0
	if v := math.Log(step); v < 0 {
		precision = math.Trunc(-v/logb) + 1
	}
	eps := math.Pow(base, -precision-1)

	v := math.Floor(lo/step+eps) * step
	start := v
	if lo < v {
		start = v - step
	}
	stop := math.Ceil(hi/step) * step
	if stop == start {
		stop = start + step
	}
	return BinConfig{Start: start, Stop: stop, Step: step}
}

// timeSteps are the calendar-like step sizes considered for time dimensions,
// in milliseconds.
var timeSteps = []time.Duration{
	time.Second,
	5 * time.Second,
	15 * time.Second,
	30 * time.Second,
	time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	time.Hour,
	3 * time.Hour,
	6 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
	2 * 24 * time.Hour,
	7 * 24 * time.Hour,
	30 * 24 * time.Hour,
	90 * 24 * time.Hour,
	365 * 24 * time.Hour,
}

// TimeBins bins an extent given in Unix milliseconds by the smallest
// calendar-like step that yields at most maxBins bins. Spans above the
// largest step fall back to whole multiples of a year.
func TimeBins(maxBins int, extent Interval) BinConfig {
	if maxBins <= 0 {
		maxBins = DefaultMaxBins
	}
	span := extent.Hi - extent.Lo

	step := 0.0
	for _, d := range timeSteps {
		ms := float64(d.Milliseconds())
		if math.Ceil(span/ms) <= float64(maxBins) {
			step = ms
			break
		}
	}
	if step == 0 {
		year := float64(timeSteps[len(timeSteps)-1].Milliseconds())
		step = math.Ceil(span/year/float64(maxBins)) * year
	}

	start := math.Floor(extent.Lo/step) * step
	stop := math.Ceil(extent.Hi/step) * step
	if stop == start {
		stop = start + step
	}
	return BinConfig{Start: start, Stop: stop, Step: step}
}

// Bin is a readable description of one bin.
// Continuous bins use Start/End; categorical bins use Category.
type Bin struct {
	Start    float64
	End      float64
	Category value.Value
}

// ContinuousBins lists the bins of b in order.
func ContinuousBins(b BinConfig) []Bin {
	n := b.NumBins()
	bins := make([]Bin, n)
	for i := range n {
		start := b.Start + float64(i)*b.Step
		bins[i] = Bin{Start: start, End: start + b.Step}
	}
	return bins
}
