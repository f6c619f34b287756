package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: dispatch host notifications
	PhasePreUpdate               // 1: confirm settled registrations
	PhaseUpdate                  // 2: host simulation, global sweep
	PhasePostUpdate              // 3: resume per-entity update tasks
	PhaseOutput                  // 4: consumers read snapshots
	PhaseCleanup                 // 5: flush deferred despawns
)

// System is the interface every loop system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
