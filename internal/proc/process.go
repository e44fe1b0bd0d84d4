// Package proc is the process supervisor (spec §4.7): process creation from
// an ELF64 or flat-BIN image, the fixed-capacity PID-indexed process table,
// and the per-process state the scheduler and syscall dispatcher need to
// operate on. The copy-by-value cross-address-space argv marshalling is
// grounded on biscuit's circbuf_t/useriovec_t helpers in main.go, adapted
// from biscuit's general byte-stream copy to spec §4.7's single
// contiguous argv blob.
package proc

import (
	"cineaos/internal/irq"
	"cineaos/internal/mem/kheap"
	"cineaos/internal/mem/vmm"
)

// State is the lifecycle state of a process.
type State uint8

const (
	StateRunnable State = iota
	StateWaiting
	StateSuspended
	StateTerminated
)

// heapRegion records one mapped extent of a process's user heap: the
// virtual range the process sees and the physical frames backing it, so a
// pointer the per-process allocator hands back (a kernel-reachable address
// through the direct physical mapping) can be translated into the
// process's own virtual address space and back (spec §4.7 "Heap growth").
type heapRegion struct {
	virtBase uint64
	physBase uint64
	size     uint64
}

// Process is one entry of the process table, holding every field spec §3
// assigns to a process: its lineage, its address-space layout, its saved
// trap state, its own heap allocator, and the handful of per-process
// bookkeeping fields (open files, cwd, environment, user) the rest of the
// system looks up by PID rather than by pointer.
type Process struct {
	PID       uint64
	ParentPID uint64
	State     State

	// CodeBase/StackBase/EntryOffset describe the process's 10 MiB
	// code+stack region (spec §4.7 step c): CodeBase is its start,
	// StackBase the page reserved for the initial stack at the top of
	// the region, EntryOffset the entry point relative to CodeBase.
	CodeBase    uint64
	StackBase   uint64
	EntryOffset uint64

	PageTable *vmm.PageTable

	// Frame/Regs are this process's saved trap state: the CPU-pushed
	// interrupt frame and the trampoline-pushed register block, restored
	// verbatim into the live trap state by the dispatcher whenever the
	// scheduler makes this process current again (spec §9's in-place
	// interrupt-frame mutation).
	Frame irq.Frame
	Regs  irq.Regs

	// Heap is this process's own user-heap allocator (spec §3's
	// linked-list allocator), seeded over the physical frames backing
	// its initial heap region and grown in place as HeapRegions gains
	// entries (spec §4.7 "Heap growth").
	Heap        *kheap.Allocator
	HeapVirtEnd uint64
	HeapRegions []heapRegion

	// WaitingOn is the event ID this process is blocked on, valid only
	// when State == StateWaiting.
	WaitingOn uint64

	// Files, WorkingDir, Env and Username are the per-process bookkeeping
	// spec §3 assigns to a process; the filesystem collaborator backing
	// real file handles is out of scope (spec §1), so Files only tracks
	// handle numbers this process has reserved, not live I/O state.
	Files      map[uint64]any
	WorkingDir string
	Env        map[string]string
	Username   string
}
