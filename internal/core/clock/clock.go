package clock

import (
	"sync"
	"time"
)

// Clock is the time source behind every timed wait in the tracker
// (settle delay, sweep period, task suspension). Production code uses Real;
// tests and replays drive a Mock.
type Clock interface {
	Now() time.Time
}

// Real reads the wall clock (monotonic reading included).
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Mock is a manually advanced clock.
type Mock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewMock(start time.Time) *Mock {
	return &Mock{now: start}
}

func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set jumps to t. Moving backwards is allowed but waits already due stay due.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
