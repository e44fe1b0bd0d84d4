package event

import "testing"

func TestSignalWakesInFIFOOrderByDefault(t *testing.T) {
	q := New()
	const id = ID(1)
	q.Wait(id, 10)
	q.Wait(id, 20)
	q.Wait(id, 30)

	for _, want := range []uint64{10, 20, 30} {
		got, ok := q.Signal(id)
		if !ok {
			t.Fatalf("Signal() ok=false, want true")
		}
		if got != want {
			t.Fatalf("Signal() = %d, want %d", got, want)
		}
	}
	if _, ok := q.Signal(id); ok {
		t.Fatalf("Signal() on empty queue ok=true, want false")
	}
}

func TestFrontPIDPreemptsFIFOOrder(t *testing.T) {
	q := New()
	const id = ID(1)
	q.Wait(id, 10)
	q.Wait(id, 20)
	q.Wait(id, 30)

	q.SetFrontPID(30)

	got, ok := q.Signal(id)
	if !ok || got != 30 {
		t.Fatalf("Signal() = (%d, %v), want (30, true)", got, ok)
	}

	// Front PID already dequeued; FIFO order resumes for the rest.
	got, ok = q.Signal(id)
	if !ok || got != 10 {
		t.Fatalf("Signal() = (%d, %v), want (10, true)", got, ok)
	}
}

func TestFrontPIDNotWaitingFallsBackToFIFO(t *testing.T) {
	q := New()
	const id = ID(1)
	q.Wait(id, 10)
	q.Wait(id, 20)
	q.SetFrontPID(999)

	got, ok := q.Signal(id)
	if !ok || got != 10 {
		t.Fatalf("Signal() = (%d, %v), want (10, true)", got, ok)
	}
}

func TestEventIDRangesAreDisjoint(t *testing.T) {
	raw := ID(5)
	sleep := ID(1_000_005)
	gui := GUIEventFor(7)

	if !raw.IsRaw() || raw.IsSleep() || raw.IsGUI() {
		t.Fatalf("raw ID %d classified incorrectly", raw)
	}
	if !sleep.IsSleep() || sleep.IsRaw() || sleep.IsGUI() {
		t.Fatalf("sleep ID %d classified incorrectly", sleep)
	}
	if !gui.IsGUI() || gui.IsRaw() || gui.IsSleep() {
		t.Fatalf("gui ID %d classified incorrectly", gui)
	}
}

func TestSleepEventsWrapWithinRange(t *testing.T) {
	q := New()
	first := q.NewSleepEvent()
	if !first.IsSleep() {
		t.Fatalf("first sleep event %d not in sleep range", first)
	}

	var last ID
	for i := 0; i < config_EventRangeSize(); i++ {
		last = q.NewSleepEvent()
		if !last.IsSleep() {
			t.Fatalf("sleep event %d escaped sleep range after %d allocations", last, i)
		}
	}
	if last != first {
		t.Fatalf("sleep sequence did not wrap back to the first ID: got %d, want %d", last, first)
	}
}

// config_EventRangeSize avoids importing internal/config just for one
// constant already mirrored in ids.go's range arithmetic.
func config_EventRangeSize() int {
	return 1_000_000
}

func TestExpireSleepsFiresInDeadlineOrder(t *testing.T) {
	q := New()
	late := q.NewSleepEvent()
	q.RegisterDeadline(late, 20)
	early := q.NewSleepEvent()
	q.RegisterDeadline(early, 10)

	got := q.ExpireSleeps(15)
	if len(got) != 1 || got[0] != early {
		t.Fatalf("ExpireSleeps(15) = %v, want [%d] (only the earlier deadline)", got, early)
	}

	got = q.ExpireSleeps(25)
	if len(got) != 1 || got[0] != late {
		t.Fatalf("ExpireSleeps(25) = %v, want [%d]", got, late)
	}
}

func TestSetReturnThenTakeReturnRoundTrips(t *testing.T) {
	q := New()
	q.SetReturn(7, 0x41)

	got, ok := q.TakeReturn(7)
	if !ok || got != 0x41 {
		t.Fatalf("TakeReturn() = (%#x, %v), want (0x41, true)", got, ok)
	}
	if _, ok := q.TakeReturn(7); ok {
		t.Fatalf("TakeReturn() after consuming once ok=true, want false")
	}
}
