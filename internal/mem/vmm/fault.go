package vmm

// FaultErrorCode decodes the error code x86-64 pushes for a #PF exception
// (spec §4.4's page-fault handler, vector 14).
type FaultErrorCode uint64

const (
	FaultPresent       FaultErrorCode = 1 << 0
	FaultWrite         FaultErrorCode = 1 << 1
	FaultUser          FaultErrorCode = 1 << 2
	FaultReservedWrite FaultErrorCode = 1 << 3
	FaultInstrFetch    FaultErrorCode = 1 << 4
)

// WasPresent reports whether the fault occurred on a page that was mapped
// (a protection violation) rather than on a page with no mapping at all.
func (c FaultErrorCode) WasPresent() bool {
	return uint64(c)&uint64(FaultPresent) != 0
}

// WasWrite reports whether the faulting access was a write.
func (c FaultErrorCode) WasWrite() bool {
	return uint64(c)&uint64(FaultWrite) != 0
}

// WasUser reports whether the fault happened while executing in ring 3,
// distinguishing a process bug from a kernel bug.
func (c FaultErrorCode) WasUser() bool {
	return uint64(c)&uint64(FaultUser) != 0
}
