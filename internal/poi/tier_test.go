package poi

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultBands())
	require.NoError(t, err)
	return c
}

func TestClassifyBands(t *testing.T) {
	c := newTestClassifier(t)
	cases := []struct {
		d        float64
		tier     Tier
		interval time.Duration
		ok       bool
	}{
		{0, TierNear, 250 * time.Millisecond, true},
		{25, TierNear, 250 * time.Millisecond, true},
		{25.01, TierOptimal, 100 * time.Millisecond, true},
		{40, TierOptimal, 100 * time.Millisecond, true},
		{40.5, TierFar, 500 * time.Millisecond, true},
		{100, TierFar, 500 * time.Millisecond, true},
		{100.01, TierNone, 0, false},
		{-1, TierNone, 0, false},
		{math.NaN(), TierNone, 0, false},
	}
	for _, tc := range cases {
		tier, iv, ok := c.Classify(tc.d)
		assert.Equal(t, tc.tier, tier, "d=%v", tc.d)
		assert.Equal(t, tc.interval, iv, "d=%v", tc.d)
		assert.Equal(t, tc.ok, ok, "d=%v", tc.d)
	}
}

func TestClassifyMonotoneBeyondNearBand(t *testing.T) {
	c := newTestClassifier(t)
	b := c.Bands()
	prev := time.Duration(0)
	for d := b.Near + 0.25; d <= b.MaxTracked; d += 0.25 {
		_, iv, ok := c.Classify(d)
		require.True(t, ok)
		assert.GreaterOrEqual(t, iv, prev, "d=%v", d)
		prev = iv
	}
}

func TestNearBandIsSlowerThanOptimal(t *testing.T) {
	c := newTestClassifier(t)
	_, near, _ := c.Classify(c.Bands().Near)
	_, optimal, _ := c.Classify(c.Bands().Near + 0.01)
	assert.Greater(t, near, optimal)
}

func TestReclassifyHysteresis(t *testing.T) {
	c := newTestClassifier(t)

	tier, _, _ := c.Reclassify(25.5, TierNear)
	assert.Equal(t, TierNear, tier, "inside margin keeps near")
	tier, _, _ = c.Reclassify(26.5, TierNear)
	assert.Equal(t, TierOptimal, tier)

	tier, _, _ = c.Reclassify(24.5, TierOptimal)
	assert.Equal(t, TierOptimal, tier, "inside margin keeps optimal")
	tier, _, _ = c.Reclassify(23.9, TierOptimal)
	assert.Equal(t, TierNear, tier)

	tier, _, _ = c.Reclassify(25.5, TierNone)
	assert.Equal(t, TierOptimal, tier, "untracked records classify plainly")
}

func TestReclassifyNoMarginPastMaxTracked(t *testing.T) {
	c := newTestClassifier(t)
	tier, iv, ok := c.Reclassify(100.5, TierFar)
	assert.False(t, ok)
	assert.Equal(t, TierNone, tier)
	assert.Zero(t, iv)
}

func TestChangedIgnoresSmallIntervalDeltas(t *testing.T) {
	c := newTestClassifier(t)
	assert.False(t, c.Changed(TierFar, 500*time.Millisecond, TierFar, 540*time.Millisecond))
	assert.True(t, c.Changed(TierFar, 500*time.Millisecond, TierFar, 600*time.Millisecond))
	assert.True(t, c.Changed(TierNear, 250*time.Millisecond, TierOptimal, 250*time.Millisecond))
}

func TestBandsValidate(t *testing.T) {
	b := DefaultBands()
	require.NoError(t, b.Validate())

	bad := b
	bad.OptimalFar = bad.Near
	assert.ErrorIs(t, bad.Validate(), ErrInvalidBands)

	bad = b
	bad.FarInterval = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidBands)

	_, err := NewTracker(Options{Bands: Bands{Near: 50, OptimalFar: 40, MaxTracked: 100}})
	assert.ErrorIs(t, err, ErrInvalidBands)
}
