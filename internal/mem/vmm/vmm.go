package vmm

import (
	"unsafe"

	"cineaos/internal/config"
	"cineaos/internal/cpu"
	"cineaos/internal/errs"
	"cineaos/internal/mem"
	"cineaos/internal/mem/pmm"
)

// frameAllocator is the subset of *pmm.Allocator the VMM needs; declared as
// an interface (tests substitute vmm_test.go's fakeFrames) the same way
// gopher-os's vmm package injects frameAllocatorFn for unit testing without
// a real physical memory map.
type frameAllocator interface {
	Allocate() (mem.Frame, error)
}

// VMM owns the physical-memory direct mapping and allocates the backing
// frames for new page tables. One VMM is shared by every process's
// PageTable.
type VMM struct {
	frames        frameAllocator
	physMemOffset uint64
}

// New builds a VMM over the given frame allocator. physMemOffset is the
// kernel-virtual address physical address 0 is mapped at (spec §6); table
// frames are reached by adding this offset, never by touching CR3.
func New(frames *pmm.Allocator, physMemOffset uint64) *VMM {
	return &VMM{frames: frames, physMemOffset: physMemOffset}
}

// physToPtr resolves a physical address to a kernel-reachable *table via
// the direct physical mapping.
func (v *VMM) physToPtr(phys uint64) *table {
	return (*table)(unsafe.Pointer(uintptr(phys + v.physMemOffset)))
}

// PhysBytes returns a byte slice viewing length bytes of physical memory
// starting at phys, reached through the kernel's direct physical mapping.
// Used by the process loader (C7) to copy image data and argv blobs into
// frames that AllocPages has just allocated and mapped into a process's
// address space, and to seed per-process heaps.
func (v *VMM) PhysBytes(phys uint64, length int) []byte {
	ptr := unsafe.Pointer(uintptr(phys + v.physMemOffset))
	return unsafe.Slice((*byte)(ptr), length)
}

// PtrToPhys reverses PhysBytes: given a kernel pointer obtained through the
// direct physical mapping, returns the physical address it corresponds to.
// Used by the per-process heap allocator (C7) to translate a pointer
// p.Heap hands back into the process's own virtual address space.
func (v *VMM) PtrToPhys(ptr uintptr) uint64 {
	return uint64(ptr) - v.physMemOffset
}

// PhysMemOffset returns the kernel-virtual address physical address 0 is
// mapped at.
func (v *VMM) PhysMemOffset() uint64 {
	return v.physMemOffset
}

// newTableFrame allocates and zeroes a fresh frame to back one level of the
// hierarchy.
func (v *VMM) newTableFrame() (uint64, *table, error) {
	f, err := v.frames.Allocate()
	if err != nil {
		return 0, nil, err
	}
	phys := uint64(f.Address())
	t := v.physToPtr(phys)
	*t = table{}
	return phys, t, nil
}

// NewPageTable allocates a fresh, empty root page table.
func (v *VMM) NewPageTable() (*PageTable, error) {
	phys, root, err := v.newTableFrame()
	if err != nil {
		return nil, err
	}
	return &PageTable{root: root, physAddr: phys}, nil
}

// walk descends from pt's root to the final-level PTE for virtAddr,
// allocating any missing intermediate table along the way when create is
// true. It returns a pointer to the leaf entry slot so callers can read or
// write it directly.
func (v *VMM) walk(pt *PageTable, virtAddr uint64, create bool) (*PageTableEntry, error) {
	i4, i3, i2, i1 := index4(virtAddr)

	cur := pt.root
	for _, idx := range []int{i4, i3, i2} {
		e := &cur.entries[idx]
		if !e.Present() {
			if !create {
				return nil, errs.NotFound
			}
			phys, child, err := v.newTableFrame()
			if err != nil {
				return nil, err
			}
			*e = NewPTE(phys, FlagPresent|FlagWrite)
			cur = child
			continue
		}
		cur = v.physToPtr(e.Frame())
	}

	return &cur.entries[i1], nil
}

// Map installs a mapping from virtAddr to physAddr with the given flags,
// creating any missing intermediate page tables. It fails with
// errs.InvalidArgument if virtAddr is already mapped (spec §4.3: "fails if
// the page is already mapped") — callers that want to replace a mapping
// must Unmap first.
func (v *VMM) Map(pt *PageTable, virtAddr, physAddr uint64, flags PTEFlag) error {
	slot, err := v.walk(pt, virtAddr, true)
	if err != nil {
		return err
	}
	if slot.Present() {
		return errs.InvalidArgument
	}
	*slot = NewPTE(physAddr, flags|FlagPresent)
	cpu.FlushTLBEntry(virtAddr)
	return nil
}

// Unmap clears the mapping for virtAddr. It is not an error to unmap an
// address that was never mapped.
func (v *VMM) Unmap(pt *PageTable, virtAddr uint64) error {
	slot, err := v.walk(pt, virtAddr, false)
	if err == errs.NotFound {
		return nil
	}
	if err != nil {
		return err
	}
	*slot = 0
	cpu.FlushTLBEntry(virtAddr)
	return nil
}

// Translate returns the physical address currently mapped to virtAddr, or
// errs.NotFound if no mapping exists.
func (v *VMM) Translate(pt *PageTable, virtAddr uint64) (uint64, error) {
	slot, err := v.walk(pt, virtAddr, false)
	if err != nil {
		return 0, err
	}
	if !slot.Present() {
		return 0, errs.NotFound
	}
	pageOffset := virtAddr & (config.PageSize - 1)
	return slot.Frame() + pageOffset, nil
}

// AllocPages maps count fresh pages starting at virtAddr to newly allocated
// physical frames, returning the physical address of the first frame.
func (v *VMM) AllocPages(pt *PageTable, virtAddr uint64, count int, flags PTEFlag) (uint64, error) {
	var first uint64
	for i := 0; i < count; i++ {
		f, err := v.frames.Allocate()
		if err != nil {
			return 0, err
		}
		va := virtAddr + uint64(i)*config.PageSize
		phys := uint64(f.Address())
		if i == 0 {
			first = phys
		}
		if err := v.Map(pt, va, phys, flags); err != nil {
			return 0, err
		}
	}
	return first, nil
}

// AllocPagesToKnownPhys maps count pages starting at virtAddr onto an
// already-known, contiguous physical range (used for MMIO ranges such as
// the framebuffer, spec §6's FramebufferVirtBase) instead of allocating
// fresh frames.
func (v *VMM) AllocPagesToKnownPhys(pt *PageTable, virtAddr, physAddr uint64, count int, flags PTEFlag) error {
	for i := 0; i < count; i++ {
		va := virtAddr + uint64(i)*config.PageSize
		pa := physAddr + uint64(i)*config.PageSize
		if err := v.Map(pt, va, pa, flags); err != nil {
			return err
		}
	}
	return nil
}

// Activate loads pt into CR3, making it the active address space.
func (v *VMM) Activate(pt *PageTable) {
	cpu.SwitchCR3(pt.physAddr)
}
