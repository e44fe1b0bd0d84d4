// Package event implements the kernel event queue (spec §4.5): per-event-ID
// FIFO wait queues with a front-PID preemption rule, plus the three disjoint
// numeric ranges spec §3/§9 partitions event IDs into. The front-PID rule
// is ground-truthed against original_source/src/sysapi/src/event.rs, the
// Rust implementation this spec was distilled from.
package event

import "cineaos/internal/config"

// ID identifies one event a process can wait on.
type ID uint64

const (
	// rawBase is the first valid raw (process-signaled) event ID; 0 is
	// reserved as "no event".
	rawBase = 1
	// sleepBase is the first ID in the sleep-wakeup range.
	sleepBase = ID(config.EventRangeSize)
	// guiBase is the first ID in the per-process GUI range.
	guiBase = ID(2 * config.EventRangeSize)
	// idSpaceEnd is one past the last valid event ID.
	idSpaceEnd = ID(3 * config.EventRangeSize)
)

// IsRaw reports whether id falls in the raw event range [1, 10^6).
func (id ID) IsRaw() bool {
	return id >= rawBase && id < sleepBase
}

// IsSleep reports whether id falls in the sleep-wakeup range
// [10^6, 2*10^6).
func (id ID) IsSleep() bool {
	return id >= sleepBase && id < guiBase
}

// IsGUI reports whether id falls in the per-process GUI range
// [2*10^6, 3*10^6).
func (id ID) IsGUI() bool {
	return id >= guiBase && id < idSpaceEnd
}

// Valid reports whether id falls in any of the three defined ranges.
func (id ID) Valid() bool {
	return id.IsRaw() || id.IsSleep() || id.IsGUI()
}

// GUIEventFor returns the per-process GUI event ID for pid (base+PID,
// spec §3).
func GUIEventFor(pid uint64) ID {
	return guiBase + ID(pid)
}

// sleepSeq is the monotonic counter backing sleep-wakeup IDs; it wraps
// within the sleep range so each outstanding sleep gets a distinct,
// single-use ID (spec §4.5: "wrap-around, single-use").
type sleepSeq struct {
	next ID
}

func newSleepSeq() *sleepSeq {
	return &sleepSeq{next: sleepBase}
}

// Next returns the next sleep-wakeup ID, wrapping back to sleepBase once
// the range [sleepBase, guiBase) is exhausted.
func (s *sleepSeq) Next() ID {
	id := s.next
	s.next++
	if s.next >= guiBase {
		s.next = sleepBase
	}
	return id
}
