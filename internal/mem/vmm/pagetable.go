package vmm

// entriesPerTable is fixed by the x86-64 page-table format: 512 entries of
// 8 bytes fill a 4 KiB page exactly.
const entriesPerTable = 512

// kernelHalfStart is the first PML4 index spec §6 reserves for the kernel
// mapping; indices below it are process-private, indices at or above it are
// shared kernel address space copied by value into every new process
// (spec §3/§9: "copy the kernel-half entries by value").
const kernelHalfStart = 256

// table is one level of the four-level hierarchy (PML4, PDPT, PD or PT),
// always exactly one physical frame (4 KiB) in size.
type table struct {
	entries [entriesPerTable]PageTableEntry
}

// PageTable is a process's root (PML4) page table plus the bookkeeping the
// VMM needs to walk and grow it.
type PageTable struct {
	root *table
	// physAddr is the physical address of root, i.e. the value that
	// belongs in CR3 to activate this table.
	physAddr uint64
}

// CloneKernelHalf copies the kernel-half PML4 entries (indices
// [kernelHalfStart, entriesPerTable)) from src into a freshly built page
// table for a new process. Per spec §3/§9 the kernel address space is
// assumed final by the time any process is created, so a value copy of the
// top-level entries is sufficient: no deep copy of the lower levels is
// needed because those tables are shared, not duplicated.
func (src *PageTable) CloneKernelHalf(dst *PageTable) {
	for i := kernelHalfStart; i < entriesPerTable; i++ {
		dst.root.entries[i] = src.root.entries[i]
	}
}

// index4 returns the four page-table indices (PML4, PDPT, PD, PT) for a
// canonical virtual address.
func index4(virtAddr uint64) (pml4, pdpt, pd, pt int) {
	pml4 = int((virtAddr >> 39) & 0x1ff)
	pdpt = int((virtAddr >> 30) & 0x1ff)
	pd = int((virtAddr >> 21) & 0x1ff)
	pt = int((virtAddr >> 12) & 0x1ff)
	return
}
