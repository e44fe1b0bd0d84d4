package sched

import "testing"

func TestAddFirstProcessBecomesCurrent(t *testing.T) {
	s := New()
	if err := s.Add(1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	pid, ok := s.Current()
	if !ok || pid != 1 {
		t.Fatalf("Current() = (%d, %v), want (1, true)", pid, ok)
	}
}

func TestTickRotatesAfterQuantumExpires(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(2)
	s.Add(3)

	rotated := false
	for i := 0; i < config_SchedQuantumTicks(); i++ {
		if s.Tick() {
			rotated = true
		}
	}
	if !rotated {
		t.Fatalf("Tick() never reported a rotation within one quantum")
	}
	pid, _ := s.Current()
	if pid != 2 {
		t.Fatalf("Current() after one quantum = %d, want 2", pid)
	}
}

func TestSkippedProcessIsPassedOver(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(2)
	s.Add(3)
	s.SetSkip(2)

	s.GiveUp()
	pid, _ := s.Current()
	if pid != 3 {
		t.Fatalf("Current() after GiveUp with pid 2 skipped = %d, want 3", pid)
	}
}

func TestTerminateCurrentAdvancesRing(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(2)
	s.Terminate(1)
	pid, ok := s.Current()
	if !ok || pid != 2 {
		t.Fatalf("Current() after terminating current = (%d, %v), want (2, true)", pid, ok)
	}
}

func TestTerminateLastProcessEmptiesRing(t *testing.T) {
	s := New()
	s.Add(1)
	s.Terminate(1)
	if _, ok := s.Current(); ok {
		t.Fatalf("Current() after terminating the only process reported ok=true")
	}
}

func TestSuspendBlocksRotationUntilResume(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(2)
	s.Suspend(1)

	for i := 0; i < config_SchedQuantumTicks()*2; i++ {
		s.Tick()
	}
	pid, _ := s.Current()
	if pid != 1 {
		t.Fatalf("Current() while suspended = %d, want 1 (no rotation)", pid)
	}

	if err := s.Resume(1); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	for i := 0; i < config_SchedQuantumTicks(); i++ {
		s.Tick()
	}
	pid, _ = s.Current()
	if pid != 2 {
		t.Fatalf("Current() after Resume and one quantum = %d, want 2", pid)
	}
}

func TestSuspendForceClearedAfterMaxTicks(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(2)
	s.Suspend(1)

	for i := 0; i < config_SchedSuspendMaxTicks()+config_SchedQuantumTicks(); i++ {
		s.Tick()
	}
	pid, _ := s.Current()
	if pid != 2 {
		t.Fatalf("Current() after suspend window elapsed = %d, want 2 (force-cleared)", pid)
	}
}

func TestActivateForcesCurrentRegardlessOfRotation(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(2)
	s.Add(3)

	if err := s.Activate(3); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	pid, ok := s.Current()
	if !ok || pid != 3 {
		t.Fatalf("Current() after Activate(3) = (%d, %v), want (3, true)", pid, ok)
	}
}

func TestActivateUnknownPIDFails(t *testing.T) {
	s := New()
	s.Add(1)
	if err := s.Activate(99); err == nil {
		t.Fatalf("Activate of unknown PID succeeded, want error")
	}
}

func config_SchedQuantumTicks() int     { return 10 }
func config_SchedSuspendMaxTicks() int  { return 1000 }
