// Package vmm is the virtual memory manager (spec §4.3): per-process
// four-level x86-64 page tables built on top of the physical frame
// allocator (C1). Structure follows gopher-os's kernel/mem/vmm package
// (entry flags, a typed PageTableEntry, a walk that creates intermediate
// tables on demand) generalized from gopher-os's single kernel address
// space to spec's per-process root-table model.
package vmm

// PTEFlag is one bit of a page-table entry's flag byte.
type PTEFlag uint64

const (
	FlagPresent PTEFlag = 1 << 0
	FlagWrite   PTEFlag = 1 << 1
	FlagUser    PTEFlag = 1 << 2
	FlagHuge    PTEFlag = 1 << 7
	FlagNoExec  PTEFlag = 1 << 63

	physAddrMask = 0x000f_ffff_ffff_f000
)

// PageTableEntry is a single raw x86-64 page-table entry.
type PageTableEntry uint64

// Present reports whether the entry's present bit is set.
func (e PageTableEntry) Present() bool {
	return uint64(e)&uint64(FlagPresent) != 0
}

// HasFlags reports whether all of the given flags are set.
func (e PageTableEntry) HasFlags(flags PTEFlag) bool {
	return uint64(e)&uint64(flags) == uint64(flags)
}

// SetFlags returns a copy of e with flags set in addition to whatever was
// already present.
func (e PageTableEntry) SetFlags(flags PTEFlag) PageTableEntry {
	return PageTableEntry(uint64(e) | uint64(flags))
}

// Frame returns the physical frame address encoded in the entry.
func (e PageTableEntry) Frame() uint64 {
	return uint64(e) & physAddrMask
}

// NewPTE builds an entry pointing at physAddr with the given flags.
func NewPTE(physAddr uint64, flags PTEFlag) PageTableEntry {
	return PageTableEntry((physAddr & physAddrMask) | uint64(flags))
}
