package poi

import (
	"fmt"
	"math"
	"time"

	"github.com/l1jgo/poitrack/internal/config"
)

// Tier is a named distance band.
type Tier uint8

const (
	TierNone    Tier = iota // beyond MaxTracked, not updated
	TierNear                // d <= Near
	TierOptimal             // Near < d <= OptimalFar
	TierFar                 // OptimalFar < d <= MaxTracked
)

func (t Tier) String() string {
	switch t {
	case TierNear:
		return "near"
	case TierOptimal:
		return "optimal"
	case TierFar:
		return "far"
	default:
		return "none"
	}
}

// Bands are the classifier thresholds (metres) and per-tier update intervals.
//
// The near band deliberately refreshes slower than the optimal band: up
// close the observer is busy with direct interaction, not the overview map.
type Bands struct {
	Near       float64
	OptimalFar float64
	MaxTracked float64

	NearInterval    time.Duration
	OptimalInterval time.Duration
	FarInterval     time.Duration

	Hysteresis      float64
	IntervalEpsilon time.Duration
}

func DefaultBands() Bands {
	return BandsFromConfig(config.Defaults().Bands)
}

func BandsFromConfig(c config.BandsConfig) Bands {
	return Bands{
		Near:            c.Near,
		OptimalFar:      c.OptimalFar,
		MaxTracked:      c.MaxTracked,
		NearInterval:    c.NearInterval,
		OptimalInterval: c.OptimalInterval,
		FarInterval:     c.FarInterval,
		Hysteresis:      c.Hysteresis,
		IntervalEpsilon: c.IntervalEpsilon,
	}
}

func (b Bands) Validate() error {
	if !(b.Near > 0 && b.Near < b.OptimalFar && b.OptimalFar < b.MaxTracked) {
		return fmt.Errorf("%w: thresholds %g/%g/%g out of order", ErrInvalidBands, b.Near, b.OptimalFar, b.MaxTracked)
	}
	if b.NearInterval <= 0 || b.OptimalInterval <= 0 || b.FarInterval <= 0 {
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidBands)
	}
	if b.FarInterval < b.OptimalInterval {
		return fmt.Errorf("%w: far interval %s shorter than optimal %s", ErrInvalidBands, b.FarInterval, b.OptimalInterval)
	}
	if b.Hysteresis < 0 || b.IntervalEpsilon < 0 {
		return fmt.Errorf("%w: negative hysteresis", ErrInvalidBands)
	}
	return nil
}

// Classifier maps a distance to a tier and update interval. It holds no
// mutable state.
type Classifier struct {
	bands Bands
}

func NewClassifier(b Bands) (*Classifier, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{bands: b}, nil
}

func (c *Classifier) Bands() Bands { return c.bands }

// Classify returns ok == false for distances beyond MaxTracked (and for NaN
// or negative input): the caller must stop updating.
func (c *Classifier) Classify(d float64) (Tier, time.Duration, bool) {
	b := &c.bands
	switch {
	case math.IsNaN(d) || d < 0:
		return TierNone, 0, false
	case d <= b.Near:
		return TierNear, b.NearInterval, true
	case d <= b.OptimalFar:
		return TierOptimal, b.OptimalInterval, true
	case d <= b.MaxTracked:
		return TierFar, b.FarInterval, true
	}
	return TierNone, 0, false
}

// Reclassify is Classify with hysteresis: current is kept while d sits within
// Hysteresis metres outside current's own band. MaxTracked has no margin.
func (c *Classifier) Reclassify(d float64, current Tier) (Tier, time.Duration, bool) {
	tier, iv, ok := c.Classify(d)
	h := c.bands.Hysteresis
	if !ok || tier == current || current == TierNone || h <= 0 {
		return tier, iv, ok
	}
	lo, hi := c.bounds(current)
	if (d > hi && d <= hi+h) || (d < lo && d >= lo-h) {
		return current, c.Interval(current), true
	}
	return tier, iv, ok
}

// Interval returns the update interval of t, zero for TierNone.
func (c *Classifier) Interval(t Tier) time.Duration {
	switch t {
	case TierNear:
		return c.bands.NearInterval
	case TierOptimal:
		return c.bands.OptimalInterval
	case TierFar:
		return c.bands.FarInterval
	}
	return 0
}

// Changed reports whether a reclassification is worth applying.
func (c *Classifier) Changed(oldTier Tier, oldInterval time.Duration, newTier Tier, newInterval time.Duration) bool {
	if oldTier != newTier {
		return true
	}
	delta := newInterval - oldInterval
	if delta < 0 {
		delta = -delta
	}
	return delta > c.bands.IntervalEpsilon
}

func (c *Classifier) bounds(t Tier) (lo, hi float64) {
	b := &c.bands
	switch t {
	case TierNear:
		return 0, b.Near
	case TierOptimal:
		return b.Near, b.OptimalFar
	case TierFar:
		return b.OptimalFar, b.MaxTracked
	}
	return 0, 0
}
