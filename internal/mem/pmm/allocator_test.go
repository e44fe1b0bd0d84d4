package pmm

import (
	"testing"

	"cineaos/internal/boot"
	"cineaos/internal/config"
	"cineaos/internal/errs"
)

func twoRegionInfo() boot.Info {
	return boot.Info{
		MemoryMap: []boot.MemoryRegion{
			{Start: 0, End: config.PageSize * 4, Kind: boot.RegionKernel},
			{Start: config.PageSize * 4, End: config.PageSize * 8, Kind: boot.RegionUsable},
			{Start: config.PageSize * 8, End: config.PageSize * 9, Kind: boot.RegionReserved},
			{Start: config.PageSize * 9, End: config.PageSize * 12, Kind: boot.RegionUsable},
		},
	}
}

func TestAllocatorSkipsNonUsableRegions(t *testing.T) {
	a := New(twoRegionInfo())
	if got, want := a.Total(), uint64(4+3); got != want {
		t.Fatalf("Total() = %d, want %d", got, want)
	}
}

func TestAllocatorHandsOutDistinctFramesInOrder(t *testing.T) {
	a := New(twoRegionInfo())
	seen := map[uint64]bool{}
	var prev uint64
	for i := 0; i < int(a.Total()); i++ {
		f, err := a.Allocate()
		if err != nil {
			t.Fatalf("Allocate() unexpected error: %v", err)
		}
		if i > 0 && uint64(f) <= prev {
			t.Fatalf("frame %d handed out after frame %d, want increasing order", f, prev)
		}
		prev = uint64(f)
		if seen[uint64(f)] {
			t.Fatalf("frame %d allocated twice", f)
		}
		seen[uint64(f)] = true
	}
	if got := a.Allocated(); got != a.Total() {
		t.Fatalf("Allocated() = %d, want %d", got, a.Total())
	}
}

func TestAllocatorReturnsOutOfMemoryWhenExhausted(t *testing.T) {
	a := New(twoRegionInfo())
	for i := 0; i < int(a.Total()); i++ {
		if _, err := a.Allocate(); err != nil {
			t.Fatalf("unexpected error before exhaustion: %v", err)
		}
	}
	if _, err := a.Allocate(); err != errs.OutOfMemory {
		t.Fatalf("Allocate() after exhaustion = %v, want errs.OutOfMemory", err)
	}
}

func TestBytesAllocatedTracksPageSize(t *testing.T) {
	a := New(twoRegionInfo())
	if _, err := a.Allocate(); err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if got, want := a.BytesAllocated(), uint64(config.PageSize); got != want {
		t.Fatalf("BytesAllocated() = %d, want %d", got, want)
	}
}
