// Package mem holds the handful of size/address helpers shared by the
// pmm, kheap and vmm packages, following gopher-os's kernel/mem/size.go and
// kernel/mem/mem.go split of "generic memory types" from the allocators that
// use them.
package mem

import "cineaos/internal/config"

// Size is a byte count that knows how to express itself in pages.
type Size uint64

// Pages returns the number of config.PageSize pages needed to cover s,
// rounding up.
func (s Size) Pages() uint64 {
	return (uint64(s) + config.PageSize - 1) >> config.PageShift
}

// Frame is a physical page-frame number: physical address >> PageShift.
type Frame uint64

// InvalidFrame is returned by allocators on failure, mirroring gopher-os's
// pmm.InvalidFrame sentinel.
const InvalidFrame Frame = ^Frame(0)

// Address returns the physical address at the start of the frame.
func (f Frame) Address() uintptr {
	return uintptr(f) << config.PageShift
}

// FrameFromAddress returns the frame containing the given physical address.
func FrameFromAddress(addr uintptr) Frame {
	return Frame(addr >> config.PageShift)
}

// Page is a virtual page number: virtual address >> PageShift.
type Page uint64

// Address returns the virtual address at the start of the page.
func (p Page) Address() uintptr {
	return uintptr(p) << config.PageShift
}

// PageFromAddress returns the page containing the given virtual address.
func PageFromAddress(addr uintptr) Page {
	return Page(addr >> config.PageShift)
}

// AlignDown rounds addr down to the nearest page boundary.
func AlignDown(addr uintptr) uintptr {
	return addr &^ (config.PageSize - 1)
}

// AlignUp rounds addr up to the nearest page boundary.
func AlignUp(addr uintptr) uintptr {
	return (addr + config.PageSize - 1) &^ (config.PageSize - 1)
}
