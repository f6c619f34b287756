package poi

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/poitrack/internal/data"
)

// startTask (re)starts r's update task. Any previous instance is cancelled
// first, so at most one instance per record is ever running.
func (t *Tracker) startTask(r *Record) {
	t.stopTask(r)
	u := &UpdateTask{
		tracker:  t,
		sched:    t.sched,
		rec:      r,
		state:    taskRunning,
		interval: r.UpdateInterval,
		wakeAt:   t.clock.Now(),
		lastPos:  r.WorldPosition,
	}
	r.task = u
	r.Updating = true
	t.sched.add(u)
}

// stopTask is idempotent. The record keeps its last values.
func (t *Tracker) stopTask(r *Record) {
	if r.task != nil {
		r.task.cancel()
		r.task = nil
	}
	r.Updating = false
}

func (u *UpdateTask) step(now time.Time) bool {
	r := u.rec
	t := u.tracker
	if r.task != u || !r.Alive {
		u.finish()
		return false
	}

	var live bool
	if t.guard(r, "task", func() { live = r.entity.Valid() && r.entity.Active() }) && !live {
		// the sweep drops the record from the active index
		u.finish()
		r.task = nil
		r.Updating = false
		return false
	}

	if live && (u.lastApplied.IsZero() || now.Sub(u.lastApplied) >= u.interval) {
		if t.guard(r, "task", func() { t.tieredUpdate(r, u.lastPos, now) }) {
			u.lastPos = r.WorldPosition
			u.lastApplied = now
			r.UpdateCount++
			t.metrics.TaskUpdated()
		}
	}

	// Re-read every iteration so a sweep reclassification applies without a restart.
	if r.UpdateInterval > 0 {
		u.interval = r.UpdateInterval
	}
	u.wakeAt = now.Add(t.suspendFor(u.interval))
	return true
}

func (t *Tracker) suspendFor(interval time.Duration) time.Duration {
	if interval <= 0 || interval > t.maxSuspend {
		return t.maxSuspend
	}
	return interval
}

// tieredUpdate is one unit of task work, throttled by the record's band.
// prev is where the task last sampled r, not where the sweep last did.
func (t *Tracker) tieredUpdate(r *Record, prev mgl64.Vec3, now time.Time) {
	r.sampleWorld(now)
	mirrored := t.surface != nil && t.surface.Mirrored()

	switch r.Tier {
	case TierNear:
		// heading only while moving
		if r.WorldPosition.Sub(prev).Len() > t.moveEpsilon {
			r.sampleOrientation(mirrored)
		}
		if t.surface != nil {
			t.proj.Project(r, t.surface, now)
		} else {
			r.HasValidMapPosition = false
		}
	case TierOptimal:
		r.sampleOrientation(mirrored)
		t.proj.Project(r, t.surface, now)
		t.refreshColor(r)
	case TierFar:
		// heading every 3rd pass, map position every 2nd
		if r.UpdateCount%3 == 0 {
			r.sampleOrientation(mirrored)
		}
		if r.UpdateCount%2 == 0 {
			t.proj.Project(r, t.surface, now)
		}
	}
}

func (t *Tracker) refreshColor(r *Record) {
	d := r.desc.Descriptor()
	r.baseColor = t.styles.Lookup(r.Class).Color
	if d.Color != nil {
		r.baseColor = *d.Color
	}
	r.Color = tintForTier(r.baseColor, r.Tier)
}

// refreshPresentation mirrors the entity descriptor into r and reapplies
// band side effects.
func (t *Tracker) refreshPresentation(r *Record) {
	d := r.desc.Descriptor()
	r.Class = d.Class
	style := t.styles.Lookup(r.Class)

	r.DisplayName = data.NormalizeName(d.DisplayName)
	if r.DisplayName == "" {
		r.DisplayName = style.Label
	}
	scale := d.Scale
	if scale <= 0 {
		scale = 1
	}
	r.Scale = scale * style.Scale
	r.IsArea = d.IsArea
	r.AreaRadius = d.AreaRadius
	r.descriptorHide = d.HideIcon
	r.baseColor = style.Color
	if d.Color != nil {
		r.baseColor = *d.Color
	}
	t.applyBand(r, style)
}

// applyBand applies the side effects of r's current tier: colour tint and
// the icon visibility policy.
func (t *Tracker) applyBand(r *Record, style data.Style) {
	r.Color = tintForTier(r.baseColor, r.Tier)
	r.HideIcon = t.policy.IconHidden(IconContext{
		Class:          r.Class,
		Tier:           r.Tier,
		Distance:       r.Distance,
		Priority:       style.Priority,
		AutoHideFar:    style.AutoHideFar,
		DescriptorHide: r.descriptorHide,
	})
}

