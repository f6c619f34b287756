package poi

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l1jgo/poitrack/internal/host"
)

func TestRegisterWaitsForSettleDelay(t *testing.T) {
	h := newHarness(t)
	e := newFakeEntity(2, mgl64.Vec3{10, 0, 0}, host.ClassEnemy)

	require.True(t, h.tr.Register(e))
	h.tick()
	assert.Equal(t, 1, h.tr.Registry().Pending())
	assert.Equal(t, 0, h.tr.Registry().Len())
	_, ok := h.tr.Snapshot(e.id)
	assert.False(t, ok, "nothing visible before confirmation")

	h.tick()
	assert.Equal(t, 0, h.tr.Registry().Pending())
	assert.Equal(t, 1, h.tr.Registry().Len())
	v, ok := h.tr.Snapshot(e.id)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec2{10, 0}, v.MapPosition)
}

func TestRegisterIsIdempotent(t *testing.T) {
	h := newHarness(t)
	e := newFakeEntity(2, mgl64.Vec3{10, 0, 0}, host.ClassEnemy)

	require.True(t, h.tr.Register(e))
	require.True(t, h.tr.Register(e))
	assert.Equal(t, 1, h.tr.Registry().Pending())

	first := h.track(e)[0]
	assert.Equal(t, 1, h.tr.Registry().Len())
	assert.Equal(t, 1, h.tr.Scheduler().Live())

	require.True(t, h.tr.Register(e))
	assert.False(t, first.Alive, "re-registration replaces the old record")
	assert.Equal(t, 0, h.tr.Scheduler().Live())

	h.run(100 * time.Millisecond)
	second, ok := h.tr.Registry().Lookup(e.id)
	require.True(t, ok)
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, h.tr.Registry().Len())
	assert.Equal(t, 1, h.tr.Scheduler().Live())
}

func TestRegisterRefusesHandlesWithoutCapabilities(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := newHarness(t, func(o *Options) { o.Logger = zap.New(core) })
	bare := bareEntity{id: 7}

	assert.False(t, h.tr.Register(bare))
	assert.False(t, h.tr.Register(bare))
	assert.False(t, h.tr.Register(nil))
	assert.Equal(t, 0, h.tr.Registry().Pending())
	assert.Equal(t, 1, logs.FilterMessage("registration refused").Len(), "logged once per id")
}

func TestConfirmRetriesThenDrops(t *testing.T) {
	h := newHarness(t)
	e := newFakeEntity(2, mgl64.Vec3{10, 0, 0}, host.ClassEnemy)
	e.panicOn = "position"

	require.True(t, h.tr.Register(e))
	h.run(100 * time.Millisecond)
	assert.Equal(t, 1, h.tr.Registry().Pending(), "first failure is retried")
	h.run(100 * time.Millisecond)
	assert.Equal(t, 1, h.tr.Registry().Pending())
	h.run(100 * time.Millisecond)
	assert.Equal(t, 0, h.tr.Registry().Pending())
	assert.Equal(t, 0, h.tr.Registry().Len())
}

func TestConfirmRecoversOnRetry(t *testing.T) {
	h := newHarness(t)
	e := newFakeEntity(2, mgl64.Vec3{10, 0, 0}, host.ClassEnemy)
	e.panicOn = "descriptor"

	require.True(t, h.tr.Register(e))
	h.run(100 * time.Millisecond)
	e.panicOn = ""
	h.run(100 * time.Millisecond)
	_, ok := h.tr.Snapshot(e.id)
	assert.True(t, ok)
}

func TestUnregisterTombstonesAndStopsTask(t *testing.T) {
	h := newHarness(t)
	e := newFakeEntity(2, mgl64.Vec3{10, 0, 0}, host.ClassEnemy)
	r := h.track(e)[0]
	require.True(t, r.Updating)
	count := r.UpdateCount

	assert.True(t, h.tr.Unregister(e.id))
	assert.False(t, r.Alive)
	assert.False(t, r.Updating)
	assert.Equal(t, 0, h.tr.Scheduler().Live())
	assert.Equal(t, 1, h.tr.Scheduler().Queued(), "cancelled instance waits for its deadline")
	_, ok := h.tr.Snapshot(e.id)
	assert.False(t, ok)

	h.run(time.Second)
	assert.Equal(t, 0, h.tr.Scheduler().Queued())
	assert.Equal(t, count, r.UpdateCount, "a cancelled task never touches its record")
	assert.False(t, h.tr.Unregister(e.id), "unknown ids are a no-op")
}

func TestUnregisterPending(t *testing.T) {
	h := newHarness(t)
	e := newFakeEntity(2, mgl64.Vec3{10, 0, 0}, host.ClassEnemy)
	require.True(t, h.tr.Register(e))
	assert.True(t, h.tr.Unregister(e.id))
	h.run(200 * time.Millisecond)
	assert.Equal(t, 0, h.tr.Registry().Len())
}

func TestSnapshotExcludesObserver(t *testing.T) {
	h := newHarness(t)
	h.track(h.observer)
	_, ok := h.tr.Snapshot(h.observer.id)
	assert.False(t, ok)
	_, ok = h.tr.Registry().Lookup(h.observer.id)
	assert.True(t, ok, "the observer is tracked, only hidden from consumers")
}

func TestProjectionFailureIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.transform.failX = 50
	ok := newFakeEntity(2, mgl64.Vec3{10, 0, 3}, host.ClassEnemy)
	bad := newFakeEntity(3, mgl64.Vec3{60, 0, 0}, host.ClassEnemy)
	h.track(ok, bad)
	h.run(time.Second)

	v, found := h.tr.Snapshot(ok.id)
	require.True(t, found)
	assert.Equal(t, mgl64.Vec2{10, 3}, v.MapPosition)
	_, found = h.tr.Snapshot(bad.id)
	assert.False(t, found)

	r, _ := h.tr.Registry().Lookup(bad.id)
	assert.True(t, r.Updating, "projection failure does not stop the task")
}

func TestForceRefresh(t *testing.T) {
	h := newHarness(t)
	e := newFakeEntity(2, mgl64.Vec3{10, 0, 0}, host.ClassEnemy)
	h.track(e)

	e.pos = mgl64.Vec3{12, 0, 4}
	assert.True(t, h.tr.ForceRefresh(e.id))
	v, _ := h.tr.Snapshot(e.id)
	assert.Equal(t, mgl64.Vec2{12, 4}, v.MapPosition)

	h.surface.region = 9
	assert.False(t, h.tr.ForceRefresh(e.id), "foreign region")
	_, ok := h.tr.Snapshot(e.id)
	assert.False(t, ok)

	assert.False(t, h.tr.ForceRefresh(99))
}

func TestRegistryHooks(t *testing.T) {
	h := newHarness(t)
	var tracked, untracked int
	h.tr.Registry().OnTracked(func(*Record) { tracked++ })
	h.tr.Registry().OnUntracked(func(*Record) { untracked++ })

	a := newFakeEntity(2, mgl64.Vec3{10, 0, 0}, host.ClassEnemy)
	b := newFakeEntity(3, mgl64.Vec3{20, 0, 0}, host.ClassNPC)
	h.track(a, b)
	h.tr.Unregister(a.id)
	h.tr.Teardown("next")

	assert.Equal(t, 2, tracked)
	assert.Equal(t, 2, untracked)
}
