package proc

import (
	"cineaos/internal/config"
	"cineaos/internal/mem/vmm"
)

// loadFlatBIN maps a headerless flat binary at codeBase, starting execution
// at its first byte. Unlike the ELF64 path there are no segments or
// permissions to parse — the whole image is writable+executable, matching
// spec §4.7 step b's "flat binary" fallback for images that don't start
// with the ELF magic.
func loadFlatBIN(v *vmm.VMM, pt *vmm.PageTable, codeBase uint64, data []byte) (LoadedImage, error) {
	pageCount := int((uint64(len(data)) + config.PageSize - 1) / config.PageSize)
	if pageCount == 0 {
		pageCount = 1
	}

	firstPhys, err := v.AllocPages(pt, codeBase, pageCount, vmm.FlagUser|vmm.FlagWrite)
	if err != nil {
		return LoadedImage{}, err
	}

	dst := v.PhysBytes(firstPhys, pageCount*config.PageSize)
	copy(dst, data)

	return LoadedImage{
		EntryPoint: codeBase,
		ImageEnd:   codeBase + uint64(len(data)),
	}, nil
}

// marshalArgv copies argv into a single contiguous NUL-separated blob
// mapped at argvBase, the cross-address-space copy pattern spec §4.7 step e
// requires (one kernel-side allocation, one copy, then mapped read-only
// into the new process) — grounded on biscuit's circbuf_t/useriovec_t
// helpers in main.go, which copy a byte stream between address spaces the
// same way: compute total size up front, copy once, never touch the
// destination a byte at a time across the boundary.
func marshalArgv(v *vmm.VMM, pt *vmm.PageTable, argvBase uint64, argv []string) (count int, err error) {
	total := 0
	for _, s := range argv {
		total += len(s) + 1 // NUL terminator
	}
	if total == 0 {
		total = 1
	}

	pageCount := int((uint64(total) + config.PageSize - 1) / config.PageSize)
	firstPhys, err := v.AllocPages(pt, argvBase, pageCount, vmm.FlagUser)
	if err != nil {
		return 0, err
	}

	dst := v.PhysBytes(firstPhys, pageCount*config.PageSize)
	off := 0
	for _, s := range argv {
		off += copy(dst[off:], s)
		dst[off] = 0
		off++
	}

	return len(argv), nil
}
