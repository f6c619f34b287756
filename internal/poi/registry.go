package poi

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/poitrack/internal/core/ecs"
	"github.com/l1jgo/poitrack/internal/host"
)

// maxConfirmAttempts bounds retries of a registration whose first snapshot
// keeps failing (the host entity never finishes initialising).
const maxConfirmAttempts = 3

// provisional is a registration waiting out the settle delay.
type provisional struct {
	entity    host.Entity
	loc       host.Locatable
	desc      host.Describable
	confirmAt time.Time
	attempts  int
}

// Registry is the single source of truth for which entities are tracked.
// Registration is two-phase: Register queues a provisional entry and
// Confirm promotes it once the settle delay has passed, so a half-built
// host entity is never snapshotted.
type Registry struct {
	t       *Tracker
	live    *ecs.PtrComponentStore[Record]
	pending map[ecs.EntityID]*provisional
	refused map[ecs.EntityID]struct{}

	onTracked   []func(*Record)
	onUntracked []func(*Record)
}

func newRegistry(t *Tracker) *Registry {
	return &Registry{
		t:       t,
		live:    ecs.NewPtrComponentStore[Record](),
		pending: make(map[ecs.EntityID]*provisional, 64),
		refused: make(map[ecs.EntityID]struct{}),
	}
}

// OnTracked registers fn to run after a record enters the live set.
func (g *Registry) OnTracked(fn func(*Record)) { g.onTracked = append(g.onTracked, fn) }

// OnUntracked registers fn to run after a record leaves the live set.
func (g *Registry) OnUntracked(fn func(*Record)) { g.onUntracked = append(g.onUntracked, fn) }

// Register queues e for tracking. Registering a known id replaces the old
// record. Handles without a position or descriptor accessor are refused
// (logged once per id) and false is returned.
func (g *Registry) Register(e host.Entity) bool {
	if e == nil {
		return false
	}
	var id ecs.EntityID
	if !g.t.guard(nil, "register", func() { id = e.ID() }) {
		return false
	}
	loc, okLoc := e.(host.Locatable)
	desc, okDesc := e.(host.Describable)
	if !okLoc || !okDesc {
		if _, seen := g.refused[id]; !seen {
			g.refused[id] = struct{}{}
			g.t.metrics.Refused()
			g.t.log.Warn("registration refused", zap.Stringer("id", id), zap.Error(ErrMissingCapability))
		}
		return false
	}

	g.Unregister(id)
	g.pending[id] = &provisional{
		entity:    e,
		loc:       loc,
		desc:      desc,
		confirmAt: g.t.clock.Now().Add(g.t.settleDelay),
	}
	return true
}

// Confirm promotes every provisional entry whose settle delay has passed
// and returns how many entered the live set.
func (g *Registry) Confirm(now time.Time) int {
	n := 0
	for id, p := range g.pending {
		if now.Before(p.confirmAt) {
			continue
		}
		delete(g.pending, id)
		if g.confirm(id, p, now) {
			n++
		}
	}
	return n
}

func (g *Registry) confirm(id ecs.EntityID, p *provisional, now time.Time) bool {
	t := g.t
	r := &Record{
		ID:     id,
		entity: p.entity,
		loc:    p.loc,
		desc:   p.desc,
		Alive:  true,
	}
	origin, originErr := t.observerOrigin()
	ok := t.guard(r, "register", func() {
		r.ActiveByHost = p.entity.Active()
		r.sampleWorld(now)
		r.sampleOrientation(t.mirrored())
		if originErr == nil {
			t.reclassify(r, origin, now)
		}
		t.refreshPresentation(r)
		t.proj.Project(r, t.surface, now)
	})
	if !ok {
		p.attempts++
		if p.attempts < maxConfirmAttempts {
			p.confirmAt = now.Add(t.settleDelay)
			g.pending[id] = p
		} else {
			t.log.Warn("registration dropped after failed snapshots", zap.Stringer("id", id), zap.Int("attempts", p.attempts))
		}
		return false
	}

	g.live.Set(id, r)
	if r.ActiveByHost {
		t.active[id] = r
	}
	t.reconcile(r)
	for _, fn := range g.onTracked {
		fn(r)
	}
	return true
}

// Unregister tombstones the record, cancels its task and removes it from
// the live set in one step. Unknown ids are a no-op returning false.
func (g *Registry) Unregister(id ecs.EntityID) bool {
	_, found := g.pending[id]
	delete(g.pending, id)

	r, ok := g.live.Get(id)
	if !ok {
		return found
	}
	r.Alive = false
	g.t.stopTask(r)
	delete(g.t.active, id)
	g.live.Remove(id)
	for _, fn := range g.onUntracked {
		fn(r)
	}
	return true
}

// Snapshot is the consumers' read surface. ok is false when the entity is
// not tracked, is the observer, or has no valid map position yet; callers
// skip drawing it this frame.
func (g *Registry) Snapshot(id ecs.EntityID) (View, bool) {
	if g.t.isObserver(id) {
		return View{}, false
	}
	r, ok := g.live.Get(id)
	if !ok || !r.Alive || !r.HasValidMapPosition {
		return View{}, false
	}
	return r.view(), true
}

// ForceRefresh invalidates the cached map position and re-projects now.
// It reports whether a valid position was produced.
func (g *Registry) ForceRefresh(id ecs.EntityID) bool {
	r, ok := g.live.Get(id)
	if !ok || !r.Alive {
		return false
	}
	t := g.t
	now := t.clock.Now()
	r.HasValidMapPosition = false
	t.guard(r, "refresh", func() {
		r.sampleWorld(now)
		r.sampleOrientation(t.mirrored())
		t.proj.Project(r, t.surface, now)
	})
	return r.HasValidMapPosition
}

// Lookup returns the live record for id.
func (g *Registry) Lookup(id ecs.EntityID) (*Record, bool) {
	return g.live.Get(id)
}

// Each visits every live record.
func (g *Registry) Each(fn func(*Record)) {
	g.live.Each(func(_ ecs.EntityID, r *Record) { fn(r) })
}

func (g *Registry) Len() int     { return g.live.Len() }
func (g *Registry) Pending() int { return len(g.pending) }

// clear tombstones every record. Tasks must already be cancelled.
func (g *Registry) clear() {
	g.live.Each(func(_ ecs.EntityID, r *Record) {
		r.Alive = false
		r.task = nil
		r.Updating = false
		for _, fn := range g.onUntracked {
			fn(r)
		}
	})
	g.live.Clear()
	clear(g.pending)
	clear(g.refused)
}
