package event

import (
	"sort"
	"sync"
)

// Queue holds the FIFO wait list for every live event ID plus the single
// global front-PID override spec §3/§8 property 5 describes: if the front
// PID is currently waiting on the event being signaled, it is woken ahead of
// everyone else in FIFO order, regardless of how long it has been waiting.
//
// It also holds the two pieces of state spec §4.5 assigns to the sleep
// path: a tick counter advanced once per timer interrupt and a
// deadline-ordered queue of outstanding sleeps, and the event-return table
// wakeup_with_ret writes into so a woken process can resume with a
// caller-chosen value in rax (spec §3, scenario S3).
type Queue struct {
	mu       sync.Mutex
	waiters  map[ID][]uint64
	frontPID uint64
	hasFront bool
	sleepSeq *sleepSeq

	ticks     uint64
	deadlines []sleepDeadline

	returns map[uint64]uint64
}

// sleepDeadline pairs a sleep-range event ID with the absolute tick it
// should fire on, kept sorted by deadline so ExpireSleeps can pop expired
// entries off the front in "absolute-deadline order" (spec §5 property 6).
type sleepDeadline struct {
	deadline uint64
	id       ID
}

// New builds an empty event queue.
func New() *Queue {
	return &Queue{
		waiters:  make(map[ID][]uint64),
		sleepSeq: newSleepSeq(),
		returns:  make(map[uint64]uint64),
	}
}

// SetFrontPID installs pid as the process that should preempt FIFO order
// the next time any event it is waiting on fires.
func (q *Queue) SetFrontPID(pid uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.frontPID = pid
	q.hasFront = true
}

// ClearFrontPID removes the front-PID override.
func (q *Queue) ClearFrontPID() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.hasFront = false
}

// Wait enqueues pid onto id's FIFO wait list. This is the primitive behind
// both wait_for and wait_for_register_only (spec §4.5): it never touches
// the scheduler itself, leaving that decision to the caller.
func (q *Queue) Wait(id ID, pid uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.waiters[id] = append(q.waiters[id], pid)
}

// Signal wakes exactly one waiter on id and returns its PID, or false if no
// process is waiting. The front-PID override is applied first: if the
// current front PID appears anywhere in id's wait list, it is removed and
// returned regardless of position; otherwise the head of the FIFO list is
// returned.
func (q *Queue) Signal(id ID) (pid uint64, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.waiters[id]
	if len(list) == 0 {
		return 0, false
	}

	if q.hasFront {
		for i, p := range list {
			if p == q.frontPID {
				pid = p
				q.waiters[id] = append(list[:i], list[i+1:]...)
				return pid, true
			}
		}
	}

	pid = list[0]
	rest := list[1:]
	if len(rest) == 0 {
		delete(q.waiters, id)
	} else {
		q.waiters[id] = rest
	}
	return pid, true
}

// Broadcast wakes every waiter on id, returning their PIDs in wake order
// (front PID first, if present and waiting, then FIFO).
func (q *Queue) Broadcast(id ID) []uint64 {
	var woken []uint64
	for {
		pid, ok := q.Signal(id)
		if !ok {
			break
		}
		woken = append(woken, pid)
	}
	return woken
}

// Waiting reports how many processes are currently waiting on id.
func (q *Queue) Waiting(id ID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters[id])
}

// SetReturn records value in the event-return table for pid (spec §3's
// event-return table, written by wakeup_with_ret). The dispatcher consumes
// it via TakeReturn the next time pid's saved context is restored, placing
// value in rax.
func (q *Queue) SetReturn(pid, value uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.returns[pid] = value
}

// TakeReturn removes and returns pid's pending event-return value, if any.
func (q *Queue) TakeReturn(pid uint64) (uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.returns[pid]
	if ok {
		delete(q.returns, pid)
	}
	return v, ok
}

// NewSleepEvent allocates the next sleep-range event ID for a SLEEP
// syscall (spec §4.5).
func (q *Queue) NewSleepEvent() ID {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sleepSeq.Next()
}

// RegisterDeadline records the absolute tick id should fire on, so a later
// ExpireSleeps call wakes it in deadline order (spec §5 property 6,
// scenario S2: two sleepers with different durations wake in deadline
// order regardless of issue order).
func (q *Queue) RegisterDeadline(id ID, deadlineTick uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	d := sleepDeadline{deadline: deadlineTick, id: id}
	i := sort.Search(len(q.deadlines), func(i int) bool { return q.deadlines[i].deadline > d.deadline })
	q.deadlines = append(q.deadlines, sleepDeadline{})
	copy(q.deadlines[i+1:], q.deadlines[i:])
	q.deadlines[i] = d
}

// ExpireSleeps removes and returns every sleep ID whose deadline is <= now,
// in deadline order (earliest first).
func (q *Queue) ExpireSleeps(now uint64) []ID {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := 0
	for i < len(q.deadlines) && q.deadlines[i].deadline <= now {
		i++
	}
	if i == 0 {
		return nil
	}
	expired := make([]ID, i)
	for j := 0; j < i; j++ {
		expired[j] = q.deadlines[j].id
	}
	q.deadlines = append([]sleepDeadline(nil), q.deadlines[i:]...)
	return expired
}

// AdvanceTick accounts one timer interrupt and returns the new tick count.
func (q *Queue) AdvanceTick() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ticks++
	return q.ticks
}

// CurrentTick returns the tick count as of the last AdvanceTick call.
func (q *Queue) CurrentTick() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ticks
}
