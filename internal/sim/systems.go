package sim

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/poitrack/internal/core/ecs"
	coresys "github.com/l1jgo/poitrack/internal/core/system"
)

// Systems returns the simulation's loop systems.
func (w *World) Systems() []coresys.System {
	return []coresys.System{
		&MoveSystem{w: w},
		&LifecycleSystem{w: w},
		&CleanupSystem{world: w.ecs},
	}
}

// MoveSystem integrates entity motion and bounces off the world edge.
// Phase 2 (Update).
type MoveSystem struct {
	w *World
}

func (s *MoveSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MoveSystem) Update(dt time.Duration) {
	w := s.w
	sec := dt.Seconds()
	half := w.cfg.WorldSize / 2
	ecs.Each2(w.bodies, w.lives, func(id ecs.EntityID, b *Body, l *Life) {
		if !l.Active || b.Vel.Len() == 0 {
			return
		}
		// turn roughly once a second
		if id != w.observer && w.rng.Float64() < sec {
			b.Vel = w.randomVelocity()
		}
		b.Pos = b.Pos.Add(b.Vel.Mul(sec))
		for axis := 0; axis < 3; axis += 2 {
			if b.Pos[axis] > half || b.Pos[axis] < -half {
				b.Pos[axis] = mgl64.Clamp(b.Pos[axis], -half, half)
				b.Vel[axis] = -b.Vel[axis]
			}
		}
		b.Fwd = heading(b.Vel)
		b.Aim = b.Fwd
	})
}

// LifecycleSystem despawns expired entities, keeps the population at its
// target and flips active flags. Phase 2 (Update).
type LifecycleSystem struct {
	w *World
}

func (s *LifecycleSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *LifecycleSystem) Update(_ time.Duration) {
	w := s.w
	now := w.clock.Now()
	w.lives.Each(func(id ecs.EntityID, l *Life) {
		if id == w.observer {
			return
		}
		if !l.DespawnAt.IsZero() && !now.Before(l.DespawnAt) {
			w.ecs.MarkForDestruction(id)
			l.DespawnAt = time.Time{}
			return
		}
		if !l.NextToggle.IsZero() && !now.Before(l.NextToggle) {
			l.Active = !l.Active
			l.NextToggle = now.Add(w.jitter(w.cfg.ToggleEvery))
		}
	})

	// Replacements are counted against entities not already queued for removal.
	for n := w.population(); n < w.cfg.Entities; n++ {
		w.spawn(now)
	}
}

// population counts non-observer entities that are not expiring this tick.
func (w *World) population() int {
	n := 0
	w.lives.Each(func(id ecs.EntityID, l *Life) {
		if id != w.observer && (!l.DespawnAt.IsZero() || w.cfg.Lifetime <= 0) {
			n++
		}
	})
	return n
}

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	world *ecs.World
}

func NewCleanupSystem(world *ecs.World) *CleanupSystem {
	return &CleanupSystem{world: world}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.FlushDestroyQueue()
}
