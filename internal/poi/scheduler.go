package poi

import (
	"container/heap"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

type taskState uint8

const (
	taskStopped taskState = iota
	taskRunning
)

// UpdateTask is the cooperatively scheduled update loop of one record.
// It only runs inside Scheduler.Resume; between iterations it is suspended
// in the scheduler's deadline queue. Cancellation is observed when the task
// is next resumed, and a cancelled task never touches its record again.
type UpdateTask struct {
	tracker *Tracker
	sched   *Scheduler
	rec     *Record
	state   taskState

	interval    time.Duration
	lastApplied time.Time
	lastPos     mgl64.Vec3 // last position this task sampled; sweeps don't move it
	wakeAt      time.Time

	index int // heap position
	seq   uint64
}

// Running reports whether the task has neither been cancelled nor exited.
func (u *UpdateTask) Running() bool { return u.state == taskRunning }

func (u *UpdateTask) cancel() { u.finish() }

func (u *UpdateTask) finish() {
	if u.state == taskRunning {
		u.state = taskStopped
		u.sched.live--
	}
}

// Scheduler owns every suspended UpdateTask and resumes the due ones.
// Accessed only from the loop goroutine.
type Scheduler struct {
	queue taskQueue
	live  int
	seq   uint64
}

func newScheduler() *Scheduler {
	return &Scheduler{queue: make(taskQueue, 0, 256)}
}

func (s *Scheduler) add(u *UpdateTask) {
	s.live++
	s.push(u)
}

func (s *Scheduler) push(u *UpdateTask) {
	s.seq++
	u.seq = s.seq
	heap.Push(&s.queue, u)
}

// Resume runs every task whose wake deadline is not after now, each at most
// once, and returns how many iterations ran. Cancelled tasks reaching the
// head of the queue are dropped.
func (s *Scheduler) Resume(now time.Time) int {
	var again []*UpdateTask
	n := 0
	for s.queue.Len() > 0 && !s.queue[0].wakeAt.After(now) {
		u := heap.Pop(&s.queue).(*UpdateTask)
		if u.state != taskRunning {
			continue
		}
		n++
		if u.step(now) {
			again = append(again, u)
		}
	}
	for _, u := range again {
		s.push(u)
	}
	return n
}

// CancelAll stops every outstanding task and empties the queue.
func (s *Scheduler) CancelAll() {
	for _, u := range s.queue {
		if u.state != taskRunning {
			continue
		}
		u.finish()
		if u.rec.task == u {
			u.rec.task = nil
			u.rec.Updating = false
		}
	}
	clear(s.queue)
	s.queue = s.queue[:0]
	s.live = 0
}

// Live counts task instances that are still running.
func (s *Scheduler) Live() int { return s.live }

// Queued counts suspended instances, including cancelled ones not yet dropped.
func (s *Scheduler) Queued() int { return s.queue.Len() }

// taskQueue is a min-heap on wake deadline, FIFO among equal deadlines.
type taskQueue []*UpdateTask

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].wakeAt.Equal(q[j].wakeAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].wakeAt.Before(q[j].wakeAt)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	u := x.(*UpdateTask)
	u.index = len(*q)
	*q = append(*q, u)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	u := old[n-1]
	old[n-1] = nil
	u.index = -1
	*q = old[:n-1]
	return u
}
