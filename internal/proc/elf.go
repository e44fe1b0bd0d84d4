package proc

import (
	"bytes"
	"debug/elf"

	"cineaos/internal/config"
	"cineaos/internal/errs"
	"cineaos/internal/mem/vmm"
)

// LoadedImage describes the mapped result of loading a process image:
// where execution should begin and how much of the reserved process region
// was actually used, so the caller can place the argv blob after it.
type LoadedImage struct {
	EntryPoint uint64
	ImageEnd   uint64
}

// loadELF64 parses and maps an ELF64 executable using the standard
// library's debug/elf (see DESIGN.md: no third-party ELF parser exists
// anywhere in the example pack, so re-implementing a program-header parser
// by hand would just be a worse debug/elf). Only PT_LOAD segments are
// mapped; every other program header (PT_DYNAMIC, PT_INTERP, ...) is
// skipped, so no dynamic linking is ever performed.
func loadELF64(v *vmm.VMM, pt *vmm.PageTable, codeBase uint64, data []byte) (LoadedImage, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return LoadedImage{}, errs.BadImage
	}
	if f.Class != elf.ELFCLASS64 || f.Machine != elf.EM_X86_64 {
		return LoadedImage{}, errs.BadImage
	}

	var imageEnd uint64
	loadedAny := false

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		loadedAny = true

		virt := codeBase + prog.Vaddr
		memSize := prog.Memsz
		if memSize == 0 {
			continue
		}

		flags := vmm.FlagUser
		if prog.Flags&elf.PF_W != 0 {
			flags |= vmm.FlagWrite
		}

		pageCount := int(((memSize + uint64(config.PageSize) - 1) / config.PageSize))
		firstPhys, err := v.AllocPages(pt, pageAlignDown(virt), pageCount, flags)
		if err != nil {
			return LoadedImage{}, err
		}

		segData := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(segData, 0); err != nil {
			return LoadedImage{}, errs.BadImage
		}

		dst := v.PhysBytes(firstPhys, pageCount*config.PageSize)
		off := virt - pageAlignDown(virt)
		copy(dst[off:], segData)

		if end := virt + memSize; end > imageEnd {
			imageEnd = end
		}
	}

	if !loadedAny {
		return LoadedImage{}, errs.BadImage
	}

	return LoadedImage{
		EntryPoint: codeBase + f.Entry,
		ImageEnd:   imageEnd,
	}, nil
}

func pageAlignDown(addr uint64) uint64 {
	return addr &^ (config.PageSize - 1)
}
