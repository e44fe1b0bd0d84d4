package vmm

import (
	"testing"
	"unsafe"

	"cineaos/internal/config"
	"cineaos/internal/mem"
)

// fakeFrames is a trivial bump allocator over a test-owned byte buffer,
// standing in for pmm.Allocator the way gopher-os's vmm tests inject a
// frameAllocatorFn instead of touching real physical memory.
type fakeFrames struct {
	buf  []byte
	next uint64
}

func newFakeFrames(pages int) *fakeFrames {
	return &fakeFrames{buf: make([]byte, pages*config.PageSize)}
}

func (f *fakeFrames) Allocate() (mem.Frame, error) {
	frame := mem.Frame(f.next)
	f.next++
	return frame, nil
}

func (f *fakeFrames) base() uint64 {
	return uint64(uintptr(unsafe.Pointer(&f.buf[0])))
}

// newTestVMM wires a VMM whose "physical memory" is really just an offset
// into a Go byte slice, so walk()'s direct-mapping math exercises the real
// code path without needing an actual freestanding address space.
func newTestVMM(t *testing.T, pages int) (*VMM, *fakeFrames) {
	t.Helper()
	ff := newFakeFrames(pages)
	v := &VMM{frames: ff, physMemOffset: ff.base()}
	return v, ff
}

func TestMapThenTranslateRoundTrips(t *testing.T) {
	v, _ := newTestVMM(t, 16)
	pt, err := v.NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable: %v", err)
	}

	const virt = uint64(0x0000_1234_5000)
	const phys = uint64(3 * config.PageSize)

	if err := v.Map(pt, virt, phys, FlagWrite); err != nil {
		t.Fatalf("Map: %v", err)
	}

	got, err := v.Translate(pt, virt+0x42)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if want := phys + 0x42; got != want {
		t.Fatalf("Translate() = %#x, want %#x", got, want)
	}
}

func TestTranslateUnmappedAddressFails(t *testing.T) {
	v, _ := newTestVMM(t, 16)
	pt, err := v.NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable: %v", err)
	}
	if _, err := v.Translate(pt, 0x1000); err == nil {
		t.Fatalf("Translate of unmapped address succeeded, want error")
	}
}

func TestMapOfAlreadyMappedPageFails(t *testing.T) {
	v, _ := newTestVMM(t, 16)
	pt, err := v.NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable: %v", err)
	}
	const virt = uint64(0x3000)
	if err := v.Map(pt, virt, uint64(config.PageSize), FlagWrite); err != nil {
		t.Fatalf("first Map: %v", err)
	}
	if err := v.Map(pt, virt, uint64(2*config.PageSize), FlagWrite); err == nil {
		t.Fatalf("second Map of the same page succeeded, want error")
	}
	got, err := v.Translate(pt, virt)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if want := uint64(config.PageSize); got != want {
		t.Fatalf("Translate() = %#x after failed remap, want original mapping %#x", got, want)
	}
}

func TestUnmapRemovesTranslation(t *testing.T) {
	v, _ := newTestVMM(t, 16)
	pt, err := v.NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable: %v", err)
	}
	const virt = uint64(0x2000)
	if err := v.Map(pt, virt, uint64(config.PageSize), FlagWrite); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if err := v.Unmap(pt, virt); err != nil {
		t.Fatalf("Unmap: %v", err)
	}
	if _, err := v.Translate(pt, virt); err == nil {
		t.Fatalf("Translate after Unmap succeeded, want error")
	}
}

func TestCloneKernelHalfCopiesHighEntriesOnly(t *testing.T) {
	v, _ := newTestVMM(t, 16)
	kernelPT, err := v.NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable (kernel): %v", err)
	}

	kernelVirt := uint64(kernelHalfStart) << 39
	userVirt := uint64(0x1000)
	if err := v.Map(kernelPT, kernelVirt, uint64(config.PageSize), FlagWrite); err != nil {
		t.Fatalf("Map kernel half: %v", err)
	}
	if err := v.Map(kernelPT, userVirt, uint64(2*config.PageSize), FlagWrite); err != nil {
		t.Fatalf("Map user half: %v", err)
	}

	procPT, err := v.NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable (proc): %v", err)
	}
	kernelPT.CloneKernelHalf(procPT)

	if _, err := v.Translate(procPT, kernelVirt); err != nil {
		t.Fatalf("kernel-half mapping missing after clone: %v", err)
	}
	if _, err := v.Translate(procPT, userVirt); err == nil {
		t.Fatalf("user-half mapping leaked into cloned table")
	}
}

func TestAllocPagesMapsDistinctFrames(t *testing.T) {
	v, _ := newTestVMM(t, 16)
	pt, err := v.NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable: %v", err)
	}
	const virt = uint64(0x5000)
	if _, err := v.AllocPages(pt, virt, 3, FlagWrite); err != nil {
		t.Fatalf("AllocPages: %v", err)
	}
	p0, err := v.Translate(pt, virt)
	if err != nil {
		t.Fatalf("Translate page 0: %v", err)
	}
	p1, err := v.Translate(pt, virt+config.PageSize)
	if err != nil {
		t.Fatalf("Translate page 1: %v", err)
	}
	if p0 == p1 {
		t.Fatalf("AllocPages mapped two pages to the same frame")
	}
}
