package poi

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/l1jgo/poitrack/internal/core/ecs"
)

// Sweep is the low-frequency pass that reconciles liveness, activity and
// tier across the whole population (O(n) against the single observer).
type Sweep struct {
	t      *Tracker
	period time.Duration
	last   time.Time
	runs   uint64
}

func (s *Sweep) Due(now time.Time) bool {
	return s.runs == 0 || now.Sub(s.last) >= s.period
}

// Runs returns how many sweeps have started.
func (s *Sweep) Runs() uint64 { return s.runs }

// Run sweeps every live record. A failing record is logged and skipped; a
// missing observer or a failure outside record scope triggers emergency
// cleanup.
func (s *Sweep) Run(now time.Time) {
	t := s.t
	s.last = now
	s.runs++
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			t.log.Error("sweep aborted", zap.Any("panic", p))
			t.emergencyCleanup("sweep panic")
		}
		t.metrics.ObserveSweep(time.Since(start).Seconds())
		t.publishStats()
	}()

	origin, err := t.observerOrigin()
	if err != nil {
		t.emergencyCleanup(err.Error())
		return
	}
	if t.degraded {
		t.degraded = false
		t.log.Info("observer restored, resuming updates")
	}

	t.registry.live.Each(func(_ ecs.EntityID, r *Record) {
		t.guard(r, "sweep", func() { s.visit(r, origin, now) })
	})
}

func (s *Sweep) visit(r *Record, origin mgl64.Vec3, now time.Time) {
	t := s.t

	// 1. detached from the host graph counts as unregistration
	if !r.entity.Valid() {
		t.log.Debug("evicting detached entity", zap.Stringer("id", r.ID))
		t.registry.Unregister(r.ID)
		return
	}

	// 2. activity transitions are the only activity-driven task start/stop
	if active := r.entity.Active(); active != r.ActiveByHost {
		r.ActiveByHost = active
		if active {
			t.active[r.ID] = r
			t.startTask(r)
		} else {
			t.stopTask(r)
			delete(t.active, r.ID)
		}
	}

	// 3. past MaxTracked the presentation stays frozen at its last value
	if r.ActiveByHost {
		t.active[r.ID] = r
		r.sampleWorld(now)
		t.reclassify(r, origin, now)
		if r.Tier != TierNone {
			t.refreshPresentation(r)
		}
	}

	// 4. distance can cross MaxTracked without an activity change
	t.reconcile(r)
}

// reclassify recomputes distance and, when the change is meaningful, the
// scheduling fields. It reports whether tier or interval changed.
func (t *Tracker) reclassify(r *Record, origin mgl64.Vec3, now time.Time) bool {
	r.Distance = origin.Sub(r.WorldPosition).Len()
	r.LastDistanceUpdate = now
	tier, interval, _ := t.classifier.Reclassify(r.Distance, r.Tier)
	if !t.classifier.Changed(r.Tier, r.UpdateInterval, tier, interval) {
		return false
	}
	if tier != r.Tier {
		t.log.Debug("tier changed",
			zap.Stringer("id", r.ID),
			zap.Stringer("from", r.Tier),
			zap.Stringer("to", tier),
			zap.Float64("distance", r.Distance))
	}
	r.Tier = tier
	r.UpdateInterval = interval
	return true
}

// reconcile makes "task running" match "active and within MaxTracked".
func (t *Tracker) reconcile(r *Record) {
	want := r.Alive && r.ActiveByHost && r.Tier != TierNone
	switch {
	case want && !r.Updating:
		t.startTask(r)
	case !want && r.Updating:
		t.stopTask(r)
	}
}

// emergencyCleanup cancels every task and clears the active index. Records
// stay registered so the next healthy sweep restarts their tasks.
func (t *Tracker) emergencyCleanup(reason string) {
	if !t.degraded {
		t.degraded = true
		t.metrics.Emergency()
		t.log.Error("emergency cleanup: all update tasks cancelled",
			zap.String("reason", reason),
			zap.Int("tasks", t.sched.Live()),
			zap.Int("records", t.registry.Len()))
	}
	t.sched.CancelAll()
	clear(t.active)
}
