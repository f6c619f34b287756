package poi

import (
	"time"

	"github.com/l1jgo/poitrack/internal/core/event"
	coresys "github.com/l1jgo/poitrack/internal/core/system"
)

// Systems returns the loop systems that drive the tracker, in phase order:
// host notifications (when bus is non-nil), settle confirmation, the global
// sweep and task resumption.
func (t *Tracker) Systems(bus *event.Bus) []coresys.System {
	systems := make([]coresys.System, 0, 4)
	if bus != nil {
		systems = append(systems, &DispatchSystem{bus: bus})
	}
	return append(systems,
		&confirmSystem{t: t},
		&sweepSystem{t: t},
		&taskSystem{t: t},
	)
}

// DispatchSystem swaps and delivers the event bus. Phase 0 (Input).
type DispatchSystem struct {
	bus *event.Bus
}

func NewDispatchSystem(bus *event.Bus) *DispatchSystem { return &DispatchSystem{bus: bus} }

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// confirmSystem promotes settled registrations. Phase 1 (PreUpdate).
type confirmSystem struct{ t *Tracker }

func (s *confirmSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *confirmSystem) Update(_ time.Duration) {
	s.t.registry.Confirm(s.t.clock.Now())
}

// sweepSystem runs the global sweep once per sweep period. Phase 2 (Update).
type sweepSystem struct{ t *Tracker }

func (s *sweepSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *sweepSystem) Update(_ time.Duration) {
	now := s.t.clock.Now()
	if s.t.sweep.Due(now) {
		s.t.sweep.Run(now)
	}
}

// taskSystem resumes due update tasks. Phase 3 (PostUpdate), so a tier
// change made by this tick's sweep is seen by the tasks resumed right after.
type taskSystem struct{ t *Tracker }

func (s *taskSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *taskSystem) Update(_ time.Duration) {
	s.t.sched.Resume(s.t.clock.Now())
}
