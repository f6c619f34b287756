package poi

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/l1jgo/poitrack/internal/core/clock"
	"github.com/l1jgo/poitrack/internal/core/ecs"
	coresys "github.com/l1jgo/poitrack/internal/core/system"
	"github.com/l1jgo/poitrack/internal/host"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const step = 50 * time.Millisecond

type fakeEntity struct {
	id      ecs.EntityID
	pos     mgl64.Vec3
	fwd     mgl64.Vec3
	valid   bool
	active  bool
	desc    host.Descriptor
	panicOn string // "position", "active" or "descriptor"
}

func newFakeEntity(idx uint32, pos mgl64.Vec3, class host.Class) *fakeEntity {
	return &fakeEntity{
		id:     ecs.NewEntityID(idx, 0),
		pos:    pos,
		fwd:    mgl64.Vec3{0, 0, 1},
		valid:  true,
		active: true,
		desc:   host.Descriptor{Class: class},
	}
}

func (e *fakeEntity) ID() ecs.EntityID { return e.id }
func (e *fakeEntity) Valid() bool      { return e.valid }

func (e *fakeEntity) Active() bool {
	if e.panicOn == "active" {
		panic("active flag unavailable")
	}
	return e.active
}

func (e *fakeEntity) Position() mgl64.Vec3 {
	if e.panicOn == "position" {
		panic("transform destroyed")
	}
	return e.pos
}

func (e *fakeEntity) Orientation() (mgl64.Vec3, mgl64.Vec3) { return e.fwd, e.fwd }

func (e *fakeEntity) Descriptor() host.Descriptor {
	if e.panicOn == "descriptor" {
		panic("descriptor unavailable")
	}
	return e.desc
}

// bareEntity has neither a position nor a descriptor accessor.
type bareEntity struct{ id ecs.EntityID }

func (e bareEntity) ID() ecs.EntityID { return e.id }
func (bareEntity) Valid() bool        { return true }
func (bareEntity) Active() bool       { return true }

// fakeTransform maps world (x, z) to map (x, z) for one region. Positions
// with x beyond failX are reported as unprojectable.
type fakeTransform struct {
	region host.RegionID
	failX  float64
}

func (f *fakeTransform) TryProject(w mgl64.Vec3, region host.RegionID) (mgl64.Vec2, bool) {
	if region != f.region {
		return mgl64.Vec2{}, false
	}
	if f.failX > 0 && w.X() > f.failX {
		return mgl64.Vec2{}, false
	}
	return mgl64.Vec2{w.X(), w.Z()}, true
}

type fakeSurface struct {
	region   host.RegionID
	mirrored bool
}

func (s *fakeSurface) Region() host.RegionID { return s.region }
func (s *fakeSurface) Mirrored() bool        { return s.mirrored }

type harness struct {
	t         *testing.T
	clk       *clock.Mock
	tr        *Tracker
	runner    *coresys.Runner
	observer  *fakeEntity
	transform *fakeTransform
	surface   *fakeSurface
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	t.Helper()
	clk := clock.NewMock(epoch)
	tf := &fakeTransform{region: 1}
	opts := Options{
		Clock:       clk,
		Logger:      zaptest.NewLogger(t),
		Transform:   tf,
		SettleDelay: 100 * time.Millisecond,
		SweepPeriod: time.Second,
		MaxSuspend:  time.Second,
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	tr, err := NewTracker(opts)
	require.NoError(t, err)

	h := &harness{
		t:         t,
		clk:       clk,
		tr:        tr,
		runner:    coresys.NewRunner(),
		observer:  newFakeEntity(1, mgl64.Vec3{}, host.ClassMain),
		transform: tf,
		surface:   &fakeSurface{region: 1},
	}
	tr.SetObserver(h.observer)
	tr.SetSurface(h.surface)
	h.runner.Register(tr.Systems(nil)...)
	h.runner.Tick(0) // first sweep at epoch
	return h
}

// tick advances the clock by one step and runs one loop iteration.
func (h *harness) tick() {
	h.clk.Advance(step)
	h.runner.Tick(step)
}

// run ticks until d has elapsed.
func (h *harness) run(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		h.tick()
	}
}

func (h *harness) sweep() {
	h.tr.Sweep().Run(h.clk.Now())
}

// track registers every entity and runs past the settle delay.
func (h *harness) track(es ...*fakeEntity) []*Record {
	h.t.Helper()
	for _, e := range es {
		require.True(h.t, h.tr.Register(e))
	}
	h.run(100 * time.Millisecond)
	recs := make([]*Record, len(es))
	for i, e := range es {
		r, ok := h.tr.Registry().Lookup(e.id)
		require.True(h.t, ok, "entity %s not confirmed", e.id)
		recs[i] = r
	}
	return recs
}
