package kheap

import (
	"testing"
	"unsafe"

	"cineaos/internal/errs"
)

func newTestHeap(t *testing.T, size uintptr) (*Allocator, uintptr) {
	t.Helper()
	buf := make([]byte, size)
	start := uintptr(unsafe.Pointer(&buf[0]))
	// keep buf alive for the duration of the test
	t.Cleanup(func() { _ = buf })
	return New(start, size), start
}

func TestAllocReturnsDistinctNonOverlappingBlocks(t *testing.T) {
	a, _ := newTestHeap(t, 4096)

	p1, err := a.Alloc(64, 8)
	if err != nil {
		t.Fatalf("Alloc #1: %v", err)
	}
	p2, err := a.Alloc(128, 8)
	if err != nil {
		t.Fatalf("Alloc #2: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("two allocations returned the same address %#x", p1)
	}
	if p2 >= p1 && p2 < p1+64 {
		t.Fatalf("allocation #2 (%#x) overlaps allocation #1 (%#x, size 64)", p2, p1)
	}
}

func TestAllocHonorsAlignment(t *testing.T) {
	a, _ := newTestHeap(t, 4096)
	p, err := a.Alloc(33, 32)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if p%32 != 0 {
		t.Fatalf("address %#x is not 32-byte aligned", p)
	}
}

func TestAllocFailsOnceHeapExhausted(t *testing.T) {
	a, _ := newTestHeap(t, 256)
	if _, err := a.Alloc(200, 8); err != nil {
		t.Fatalf("first Alloc: %v", err)
	}
	if _, err := a.Alloc(200, 8); err != errs.OutOfMemory {
		t.Fatalf("Alloc past capacity = %v, want errs.OutOfMemory", err)
	}
}

func TestFreeThenAllocReusesSpace(t *testing.T) {
	a, _ := newTestHeap(t, 256)
	p1, err := a.Alloc(200, 8)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	a.Free(p1, 200)

	p2, err := a.Alloc(200, 8)
	if err != nil {
		t.Fatalf("Alloc after Free should succeed (coalesced region reused): %v", err)
	}
	if p2 != p1 {
		t.Fatalf("expected freed block to be reused at %#x, got %#x", p1, p2)
	}
}

func TestFreeCoalescesAdjacentRegions(t *testing.T) {
	a, _ := newTestHeap(t, 512)
	p1, err := a.Alloc(100, 8)
	if err != nil {
		t.Fatalf("Alloc #1: %v", err)
	}
	p2, err := a.Alloc(100, 8)
	if err != nil {
		t.Fatalf("Alloc #2: %v", err)
	}

	a.Free(p1, 100)
	a.Free(p2, 100)

	// A single allocation spanning both freed blocks should now succeed,
	// which is only possible if Free coalesced them into one region.
	if _, err := a.Alloc(196, 8); err != nil {
		t.Fatalf("Alloc spanning coalesced region failed: %v", err)
	}
}
