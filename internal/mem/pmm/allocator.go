// Package pmm is the physical frame allocator (spec §4.1). It hands out
// 4 KiB physical frames one at a time from the usable regions of the boot
// memory map and never frees them — the same monotonic, allocate-only
// contract gopher-os's kernel/mem/pmm package documents, because nothing in
// spec §4 or the original kernel ever returns a frame to the pool.
package pmm

import (
	"sync"

	"cineaos/internal/boot"
	"cineaos/internal/config"
	"cineaos/internal/errs"
	"cineaos/internal/mem"
)

// Allocator hands out physical frames from a fixed list of usable frames
// built once from the boot memory map.
type Allocator struct {
	mu sync.Mutex

	frames    []mem.Frame
	next      int
	allocated uint64
}

// New builds an Allocator from the boot loader's memory map, reserving
// nothing beyond what the map already marks as non-usable (spec §4.1: "the
// allocator only ever hands out frames from boot.Info's usable regions").
func New(info boot.Info) *Allocator {
	a := &Allocator{}
	for _, r := range info.UsableRegions() {
		start := mem.FrameFromAddress(uintptr(mem.AlignUp(uintptr(r.Start))))
		end := mem.FrameFromAddress(uintptr(mem.AlignDown(uintptr(r.End))))
		for f := start; f < end; f++ {
			a.frames = append(a.frames, f)
		}
	}
	return a
}

// Allocate returns the next unused physical frame, or errs.OutOfMemory once
// the usable region list is exhausted.
func (a *Allocator) Allocate() (mem.Frame, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.next >= len(a.frames) {
		return mem.InvalidFrame, errs.OutOfMemory
	}
	f := a.frames[a.next]
	a.next++
	a.allocated++
	return f, nil
}

// Allocated returns the number of frames handed out so far, the
// physical-memory accounting the original kernel's boot banner prints. No
// syscall reports it: INFO (sysInfo) does not read the frame allocator.
func (a *Allocator) Allocated() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated
}

// Total returns the total number of frames this allocator was seeded with.
func (a *Allocator) Total() uint64 {
	return uint64(len(a.frames))
}

// BytesAllocated is Allocated expressed in bytes.
func (a *Allocator) BytesAllocated() uint64 {
	return a.Allocated() * config.PageSize
}
