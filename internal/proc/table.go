package proc

import (
	"bytes"
	"debug/elf"
	"sync"
	"unsafe"

	"cineaos/internal/config"
	"cineaos/internal/errs"
	"cineaos/internal/irq"
	"cineaos/internal/mem/kheap"
	"cineaos/internal/mem/vmm"
)

// Table is the fixed-capacity, PID-indexed process table spec §3 describes:
// "a fixed-capacity array indexed by PID", guarded by a single RWMutex so
// syscalls that only read process state (most of them) don't serialize
// against each other.
type Table struct {
	mu    sync.RWMutex
	slots [config.MaxProcesses]*Process
	vmm   *vmm.VMM
	// nextCodeBase and nextHeapBase advance monotonically for every new
	// process, matching spec §6's "monotonically-advancing" code/heap
	// base allocation; addresses are never reused even after a process
	// terminates, avoiding any stale-mapping reuse bug.
	nextCodeBase uint64
	nextHeapBase uint64
	// live is the number of process-table entries currently occupied
	// (spec §4.7 Exit's "decrement the live-process counter").
	live uint64
}

// NewTable builds an empty process table bound to the given VMM.
func NewTable(v *vmm.VMM) *Table {
	return &Table{
		vmm:          v,
		nextCodeBase: config.ProcessCodeBaseStart,
		nextHeapBase: config.ProcessHeapStart,
	}
}

// Get returns the process entry for pid, or errs.NotFound.
func (t *Table) Get(pid uint64) (*Process, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if pid >= config.MaxProcesses || t.slots[pid] == nil {
		return nil, errs.NotFound
	}
	return t.slots[pid], nil
}

// Remove deletes pid's entry from the table.
func (t *Table) Remove(pid uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pid < config.MaxProcesses && t.slots[pid] != nil {
		t.slots[pid] = nil
		t.live--
	}
}

// LiveCount returns the number of process-table entries currently occupied.
func (t *Table) LiveCount() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// CreateParams bundles the inputs to Create (spec §4.7's process creation
// operation).
type CreateParams struct {
	KernelPT  *vmm.PageTable
	Image     []byte
	Argv      []string
	ParentPID uint64
}

// Create implements spec §4.7's process creation steps in order: validate
// the image, allocate a PID, clone the kernel half of a fresh page table,
// map the image (ELF64 or flat-BIN, detected by magic), marshal argv into
// the new address space, reserve the stack page, and give the process its
// initial heap allocator.
func (t *Table) Create(p CreateParams) (*Process, error) {
	t.mu.Lock()
	pid, err := t.allocPIDLocked()
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	codeBase := t.nextCodeBase
	t.nextCodeBase += config.ProcessRegionSize
	heapBase := t.nextHeapBase
	t.nextHeapBase += config.ProcessHeapInitialSize
	t.mu.Unlock()

	pt, err := t.vmm.NewPageTable()
	if err != nil {
		return nil, err
	}
	p.KernelPT.CloneKernelHalf(pt)

	var loaded LoadedImage
	if isELF64(p.Image) {
		loaded, err = loadELF64(t.vmm, pt, codeBase, p.Image)
	} else {
		loaded, err = loadFlatBIN(t.vmm, pt, codeBase, p.Image)
	}
	if err != nil {
		return nil, err
	}

	// The argv blob starts on the first page boundary after the image, so
	// it never lands in a page the image already mapped.
	argvBase := (loaded.ImageEnd + config.PageSize - 1) &^ (config.PageSize - 1)
	if _, err := marshalArgv(t.vmm, pt, argvBase, p.Argv); err != nil {
		return nil, err
	}

	// Reserve the dedicated stack page at the top of the 10 MiB region
	// (spec §4.7 step d); the initial RSP points one page above it, so
	// the first byte the CPU ever touches after iretq is backed.
	stackBase := codeBase + config.ProcessRegionSize - config.PageSize
	if _, err := t.vmm.AllocPages(pt, stackBase, 1, vmm.FlagUser|vmm.FlagWrite); err != nil {
		return nil, err
	}

	heapPhys, err := t.vmm.AllocPages(pt, heapBase, int(config.ProcessHeapInitialSize/config.PageSize), vmm.FlagUser|vmm.FlagWrite)
	if err != nil {
		return nil, err
	}
	heapBytes := t.vmm.PhysBytes(heapPhys, int(config.ProcessHeapInitialSize))
	heapAlloc := kheap.New(uintptr(unsafe.Pointer(&heapBytes[0])), uintptr(config.ProcessHeapInitialSize))

	proc := &Process{
		PID:         pid,
		ParentPID:   p.ParentPID,
		State:       StateRunnable,
		CodeBase:    codeBase,
		StackBase:   stackBase,
		EntryOffset: loaded.EntryPoint - codeBase,
		PageTable:   pt,
		Heap:        heapAlloc,
		HeapVirtEnd: heapBase + config.ProcessHeapInitialSize,
		HeapRegions: []heapRegion{{virtBase: heapBase, physBase: heapPhys, size: config.ProcessHeapInitialSize}},
		Files:       make(map[uint64]any),
		WorkingDir:  "/",
		Env:         make(map[string]string),
	}
	proc.Frame = irq.Frame{
		RIP:    loaded.EntryPoint,
		CS:     userCodeSelector,
		RFlags: userRFlagsDefault,
		RSP:    codeBase + config.ProcessRegionSize,
		SS:     userDataSelector,
	}

	t.mu.Lock()
	t.slots[pid] = proc
	t.live++
	t.mu.Unlock()

	return proc, nil
}

// Exit implements spec §4.7's Exit step: free the process's code-region
// pages and remove it from the table (decrementing the live-process
// counter), returning its parent PID so the caller can restore the parent
// as current. Per spec §9's open question on exit cleanup, only the code
// region is freed here — the heap is left mapped, matching the source
// kernel's own behavior.
func (t *Table) Exit(pid uint64) (parentPID uint64, err error) {
	p, err := t.Get(pid)
	if err != nil {
		return 0, err
	}
	t.freeCodeRegion(p)
	t.Remove(pid)
	return p.ParentPID, nil
}

func (t *Table) freeCodeRegion(p *Process) {
	pages := config.ProcessRegionSize / config.PageSize
	for i := uint64(0); i < uint64(pages); i++ {
		t.vmm.Unmap(p.PageTable, p.CodeBase+i*config.PageSize)
	}
}

// HeapAlloc allocates size bytes aligned to align from pid's user heap,
// growing the heap via fresh page mappings if the existing arena has no
// room (spec §4.7 "Heap growth", scenario S5). Returns the address in
// pid's own virtual address space.
func (t *Table) HeapAlloc(pid uint64, size, align uint64) (uint64, error) {
	p, err := t.Get(pid)
	if err != nil {
		return 0, err
	}
	if align == 0 {
		align = 1
	}

	ptr, err := p.Heap.Alloc(uintptr(size), uintptr(align))
	if err == errs.OutOfMemory {
		if growErr := t.growHeap(p, size); growErr != nil {
			return 0, growErr
		}
		ptr, err = p.Heap.Alloc(uintptr(size), uintptr(align))
	}
	if err != nil {
		return 0, err
	}

	virt := t.heapPhysPtrToVirt(p, ptr)
	if virt == 0 {
		return 0, errs.Fatal
	}
	return virt, nil
}

// HeapFree returns the block at virtAddr (in pid's virtual address space)
// back to pid's heap allocator (spec §6's FREE).
func (t *Table) HeapFree(pid uint64, virtAddr, size uint64) error {
	p, err := t.Get(pid)
	if err != nil {
		return err
	}
	for _, r := range p.HeapRegions {
		if virtAddr >= r.virtBase && virtAddr < r.virtBase+r.size {
			phys := r.physBase + (virtAddr - r.virtBase)
			ptr := uintptr(phys) + uintptr(t.vmm.PhysMemOffset())
			p.Heap.Free(ptr, uintptr(size))
			return nil
		}
	}
	return errs.InvalidArgument
}

// growHeap advances p's heap by enough freshly mapped pages to cover
// shortfall rounded up to a page, then hands the new region to p.Heap as a
// free region (spec §4.7 "Heap growth": "advances the global process-heap
// base, maps enough new user-accessible pages to cover the shortfall
// rounded up to 4 KiB").
func (t *Table) growHeap(p *Process, shortfall uint64) error {
	need := (shortfall + config.PageSize - 1) &^ (config.PageSize - 1)
	if need == 0 {
		need = config.PageSize
	}
	pages := int(need / config.PageSize)

	t.mu.Lock()
	virtBase := t.nextHeapBase
	t.nextHeapBase += need
	t.mu.Unlock()
	firstPhys, err := t.vmm.AllocPages(p.PageTable, virtBase, pages, vmm.FlagUser|vmm.FlagWrite)
	if err != nil {
		return err
	}

	grown := t.vmm.PhysBytes(firstPhys, int(need))
	p.Heap.Grow(uintptr(unsafe.Pointer(&grown[0])), uintptr(need))
	p.HeapRegions = append(p.HeapRegions, heapRegion{virtBase: virtBase, physBase: firstPhys, size: need})
	p.HeapVirtEnd = virtBase + need
	return nil
}

// heapPhysPtrToVirt translates a kernel-reachable pointer returned by
// p.Heap.Alloc back into p's own virtual address space by finding which
// mapped heap region it falls within.
func (t *Table) heapPhysPtrToVirt(p *Process, ptr uintptr) uint64 {
	phys := t.vmm.PtrToPhys(ptr)
	for _, r := range p.HeapRegions {
		if phys >= r.physBase && phys < r.physBase+r.size {
			return r.virtBase + (phys - r.physBase)
		}
	}
	return 0
}

const (
	// Selector values matching a GDT layout with null/kcode/kdata/
	// udata/ucode descriptors at indices 0-4 (user data at index 3, user
	// code at index 4) with RPL 3 for user selectors; the GDT itself is out of scope (spec §1, external
	// collaborator) so these are the fixed constants the process loader
	// assumes it provides.
	userCodeSelector  = (4 << 3) | 3
	userDataSelector  = (3 << 3) | 3
	userRFlagsDefault = 0x202 // IF set, reserved bit 1 set
)

func (t *Table) allocPIDLocked() (uint64, error) {
	for pid := uint64(1); pid < config.MaxProcesses; pid++ {
		if t.slots[pid] == nil {
			return pid, nil
		}
	}
	return 0, errs.OutOfMemory
}

// isELF64 reports whether data begins with the ELF64 magic (spec §4.7 step
// b: "detect ELF64 vs flat binary by magic number").
func isELF64(data []byte) bool {
	if len(data) < elf.EI_NIDENT {
		return false
	}
	return bytes.HasPrefix(data, []byte(elf.ELFMAG)) && data[elf.EI_CLASS] == byte(elf.ELFCLASS64)
}
