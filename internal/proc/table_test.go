package proc

import (
	"testing"
	"unsafe"

	"cineaos/internal/boot"
	"cineaos/internal/config"
	"cineaos/internal/mem/pmm"
	"cineaos/internal/mem/vmm"
)

// newTestEnv builds a real pmm.Allocator and vmm.VMM over a Go-owned byte
// buffer standing in for physical memory, the same trick vmm's own tests
// use: the buffer's address is physMemOffset, and the boot memory map
// describes physical addresses starting at 0, so PhysBytes/table-frame
// lookups resolve into the buffer correctly without needing real hardware.
func newTestEnv(t *testing.T, pages int) (*vmm.VMM, *vmm.PageTable) {
	t.Helper()
	buf := make([]byte, pages*config.PageSize)
	t.Cleanup(func() { _ = buf })

	info := boot.Info{
		MemoryMap: []boot.MemoryRegion{
			{Start: 0, End: uint64(pages * config.PageSize), Kind: boot.RegionUsable},
		},
	}
	frames := pmm.New(info)
	v := vmm.New(frames, uint64(uintptr(unsafe.Pointer(&buf[0]))))

	kernelPT, err := v.NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable: %v", err)
	}
	return v, kernelPT
}

func TestIsELF64DetectsMagicAndClass(t *testing.T) {
	elfMagic := []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0}
	if !isELF64(append(elfMagic, make([]byte, 8)...)) {
		t.Fatalf("isELF64() = false for valid ELF64 prefix")
	}
	if isELF64([]byte{0x01, 0x02, 0x03}) {
		t.Fatalf("isELF64() = true for non-ELF data")
	}
}

func TestCreateFlatBINAssignsDistinctPIDs(t *testing.T) {
	v, kernelPT := newTestEnv(t, 4096)
	tbl := NewTable(v)

	img := []byte{0x90, 0x90, 0xf4} // nop; nop; hlt

	p1, err := tbl.Create(CreateParams{KernelPT: kernelPT, Image: img, Argv: []string{"a"}})
	if err != nil {
		t.Fatalf("Create #1: %v", err)
	}
	p2, err := tbl.Create(CreateParams{KernelPT: kernelPT, Image: img, Argv: []string{"b", "c"}})
	if err != nil {
		t.Fatalf("Create #2: %v", err)
	}
	if p1.PID == p2.PID {
		t.Fatalf("two processes got the same PID %d", p1.PID)
	}

	got, err := tbl.Get(p1.PID)
	if err != nil {
		t.Fatalf("Get(%d): %v", p1.PID, err)
	}
	if got.State != StateRunnable {
		t.Fatalf("new process state = %v, want StateRunnable", got.State)
	}
}

func TestRemoveThenGetReturnsNotFound(t *testing.T) {
	v, kernelPT := newTestEnv(t, 4096)
	tbl := NewTable(v)
	p, err := tbl.Create(CreateParams{KernelPT: kernelPT, Image: []byte{0xf4}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tbl.Remove(p.PID)
	if _, err := tbl.Get(p.PID); err == nil {
		t.Fatalf("Get after Remove succeeded, want error")
	}
}

func TestHeapAllocThenFreeRoundTrips(t *testing.T) {
	v, kernelPT := newTestEnv(t, 4096)
	tbl := NewTable(v)
	p, err := tbl.Create(CreateParams{KernelPT: kernelPT, Image: []byte{0xf4}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	addr, err := tbl.HeapAlloc(p.PID, 128, 8)
	if err != nil {
		t.Fatalf("HeapAlloc: %v", err)
	}
	if addr < p.HeapRegions[0].virtBase || addr >= p.HeapVirtEnd {
		t.Fatalf("HeapAlloc returned %#x outside the process's heap region [%#x, %#x)", addr, p.HeapRegions[0].virtBase, p.HeapVirtEnd)
	}
	if err := tbl.HeapFree(p.PID, addr, 128); err != nil {
		t.Fatalf("HeapFree: %v", err)
	}
}

func TestHeapAllocGrowsPastInitialRegion(t *testing.T) {
	v, kernelPT := newTestEnv(t, 4096)
	tbl := NewTable(v)
	p, err := tbl.Create(CreateParams{KernelPT: kernelPT, Image: []byte{0xf4}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Larger than the 16 KiB initial heap forces growHeap to map fresh
	// pages and extend the allocator (spec §4.7's "Heap growth").
	addr, err := tbl.HeapAlloc(p.PID, config.ProcessHeapInitialSize+4096, 8)
	if err != nil {
		t.Fatalf("HeapAlloc past initial region: %v", err)
	}
	if len(p.HeapRegions) < 2 {
		t.Fatalf("HeapRegions after growth = %d entries, want at least 2", len(p.HeapRegions))
	}
	if addr == 0 {
		t.Fatalf("HeapAlloc after growth returned null address")
	}
}

func TestExitFreesCodeRegionAndReturnsParent(t *testing.T) {
	v, kernelPT := newTestEnv(t, 4096)
	tbl := NewTable(v)
	parent, err := tbl.Create(CreateParams{KernelPT: kernelPT, Image: []byte{0xf4}})
	if err != nil {
		t.Fatalf("Create parent: %v", err)
	}
	child, err := tbl.Create(CreateParams{KernelPT: kernelPT, Image: []byte{0xf4}, ParentPID: parent.PID})
	if err != nil {
		t.Fatalf("Create child: %v", err)
	}

	got, err := tbl.Exit(child.PID)
	if err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if got != parent.PID {
		t.Fatalf("Exit returned parent %d, want %d", got, parent.PID)
	}
	if _, err := tbl.Get(child.PID); err == nil {
		t.Fatalf("Get(child) after Exit succeeded, want error")
	}
	if tbl.LiveCount() != 1 {
		t.Fatalf("LiveCount after child exit = %d, want 1", tbl.LiveCount())
	}
}
