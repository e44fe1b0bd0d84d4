// Package sched implements the round-robin preemptive scheduler (spec §4.6):
// a doubly linked ring of runnable processes, a per-process skip flag for
// temporarily parking a process without removing it from the ring, and the
// bounded NO_SCHEDULE suspend window that forces preemption back on after
// config.SchedSuspendMaxTicks ticks even if nobody ever calls Resume
// (spec §4.6's deadlock defense).
package sched

import (
	"sync"

	"cineaos/internal/config"
	"cineaos/internal/errs"
)

// node is one entry in the scheduler's ring.
type node struct {
	pid  uint64
	skip bool
	prev *node
	next *node
}

// Scheduler is the kernel's single global round-robin ring.
type Scheduler struct {
	mu sync.Mutex

	nodes   map[uint64]*node
	current *node

	quantumLeft int

	suspended     bool
	suspendTicks  int
	suspendedBy   uint64
}

// New builds an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		nodes:       make(map[uint64]*node),
		quantumLeft: config.SchedQuantumTicks,
	}
}

// Add inserts pid into the ring, immediately before the current process if
// one exists, or as the sole entry otherwise.
func (s *Scheduler) Add(pid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[pid]; exists {
		return errs.InvalidArgument
	}

	n := &node{pid: pid}
	s.nodes[pid] = n

	if s.current == nil {
		n.next = n
		n.prev = n
		s.current = n
		return nil
	}

	tail := s.current.prev
	tail.next = n
	n.prev = tail
	n.next = s.current
	s.current.prev = n
	return nil
}

// Terminate removes pid from the ring for good. If pid is the currently
// running process, Current advances to the next runnable node.
func (s *Scheduler) Terminate(pid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[pid]
	if !ok {
		return errs.NotFound
	}
	delete(s.nodes, pid)

	if n.next == n {
		s.current = nil
		return nil
	}

	if s.current == n {
		s.advance()
		if s.current == n {
			// Nothing else is runnable; park on the neighbour.
			s.current = n.next
		}
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	return nil
}

// Current returns the PID of the process the scheduler believes is
// currently executing, and false if the ring is empty.
func (s *Scheduler) Current() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0, false
	}
	return s.current.pid, true
}

// Activate forces the scheduler's current pointer directly to pid,
// overriding whatever the ring's generic rotation order would otherwise
// pick next. Used by the process supervisor's Exit handling (spec §4.7):
// a child's exit must resume its parent exactly, not just whichever
// process the round-robin ring would visit next.
func (s *Scheduler) Activate(pid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[pid]
	if !ok {
		return errs.NotFound
	}
	s.current = n
	return nil
}

// SetSkip marks pid as skipped: present in the ring (so Add need not be
// called again later) but passed over by advance until ClearSkip is called.
// This backs the Wait operation (spec §4.6): a waiting process stays in the
// ring so a later wake can resume it in its original rotation slot.
func (s *Scheduler) SetSkip(pid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[pid]
	if !ok {
		return errs.NotFound
	}
	n.skip = true
	return nil
}

// ClearSkip un-skips pid, making it eligible for the ring again.
func (s *Scheduler) ClearSkip(pid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[pid]
	if !ok {
		return errs.NotFound
	}
	n.skip = false
	return nil
}

// advance moves s.current to the next non-skipped node in the ring. If
// every node is skipped, current is left unchanged (nothing is runnable).
func (s *Scheduler) advance() {
	if s.current == nil {
		return
	}
	start := s.current
	n := s.current.next
	for n != start {
		if !n.skip {
			s.current = n
			return
		}
		n = n.next
	}
	if start.skip {
		return
	}
	s.current = start
}

// Tick accounts one timer interrupt's worth of CPU time against the
// currently running process's quantum, forcing a rotation once it expires
// (spec §4.6's "Quantum" in the glossary). It also enforces the
// NO_SCHEDULE suspend bound: once a suspend has lasted
// config.SchedSuspendMaxTicks ticks, it is force-cleared so a buggy or
// malicious process can't wedge preemption forever.
//
// Tick returns true when the caller (the timer IRQ handler) should perform
// an actual context switch to the new Current PID.
func (s *Scheduler) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.suspended {
		s.suspendTicks++
		if s.suspendTicks >= config.SchedSuspendMaxTicks {
			s.suspended = false
			s.suspendTicks = 0
		} else {
			return false
		}
	}

	s.quantumLeft--
	if s.quantumLeft > 0 {
		return false
	}
	s.quantumLeft = config.SchedQuantumTicks

	before := s.current
	s.advance()
	return s.current != before
}

// GiveUp voluntarily ends the calling process's quantum early (the
// cooperative yield the dispatcher's WaitFor performs after parking a
// waiter), rotating to the next runnable process immediately regardless of
// remaining quantum.
func (s *Scheduler) GiveUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quantumLeft = config.SchedQuantumTicks
	s.advance()
}

// Suspend disables preemption (NO_SCHEDULE) on behalf of pid until Resume
// is called or config.SchedSuspendMaxTicks ticks elapse, whichever comes
// first.
func (s *Scheduler) Suspend(pid uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = true
	s.suspendTicks = 0
	s.suspendedBy = pid
}

// Resume re-enables preemption if pid is the process that suspended it.
func (s *Scheduler) Resume(pid uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.suspended {
		return nil
	}
	if s.suspendedBy != pid {
		return errs.Busy
	}
	s.suspended = false
	s.suspendTicks = 0
	return nil
}
