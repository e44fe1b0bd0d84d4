// Command kernel is the freestanding supervisor's entry point. Its job is
// just to wire the subsystems together in the fixed boot order spec §9
// describes; the same shape as gopher-os's kernel/kmain/kmain.go, which
// panics if Kmain ever returns since there is nowhere else for execution to
// go.
package main

import (
	"cineaos/internal/boot"
	"cineaos/internal/config"
	"cineaos/internal/cpu"
	"cineaos/internal/event"
	"cineaos/internal/irq"
	"cineaos/internal/kernel"
	"cineaos/internal/kfmt"
	"cineaos/internal/mem/kheap"
	"cineaos/internal/mem/pmm"
	"cineaos/internal/mem/vmm"
	"cineaos/internal/proc"
	"cineaos/internal/sched"
	"cineaos/internal/syscalltab"
)

// bootInfo is populated by the second-stage loader before jumping to
// _start (the asm entry point, not present in this tree); kmain only reads
// it.
var bootInfo boot.Info

// Kmain never returns; it is called once by the asm entry stub after the
// CPU is in long mode with a temporary GDT/stack set up.
func Kmain() {
	defer func() {
		if r := recover(); r != nil {
			kernel.Panic(r)
		}
	}()

	frames := pmm.New(bootInfo)
	kfmt.Printf("pmm: %d usable frames\n", frames.Total())

	// The kernel heap allocator (C2) is installed for kernel-side manual
	// allocation; per-process user heaps are separate kheap.Allocator
	// instances that proc.Table builds and grows. The kernel's own
	// bookkeeping structures (proc.Table, sched.Scheduler, event.Queue)
	// are plain Go values living on the hosted runtime's heap, the same
	// split biscuit relies on between its forked-runtime heap and its
	// explicit kernel data structures.
	heap := kheap.New(config.KernelHeapStart, config.KernelHeapSize)
	kfmt.Printf("kheap: %d bytes at %#x\n", config.KernelHeapSize, config.KernelHeapStart)
	kernel.SetHeap(heap)

	vm := vmm.New(frames, bootInfo.PhysMemOffset)
	kernelPT, err := vm.NewPageTable()
	if err != nil {
		kernel.Panic(&kernel.Error{Module: "vmm", Message: "failed to allocate kernel page table"})
	}
	vm.Activate(kernelPT)

	procs := proc.NewTable(vm)
	scheduler := sched.New()
	events := event.New()

	k := &syscalltab.Kernel{Procs: procs, Sched: scheduler, Events: events, VMM: vm, KernelPT: kernelPT}
	irq.HandleSyscall(k.HandleSyscall)
	irq.HandleContextSave(k.HandleContextSave)
	irq.HandleEventWait(k.HandleEventWait)
	irq.HandleTick(k.OnTick)

	// Breakpoint logs and continues (spec §7's Contract: "all other
	// exceptions log and continue where possible"). Double fault, GPF, and
	// page fault all carry a CPU-pushed error code and are fatal (spec §7's
	// Contract section: "transfer to a panic screen").
	irq.HandleException(irq.Breakpoint, func(num irq.ExceptionNum, frame *irq.Frame, regs *irq.Regs) {
		kfmt.Printf("breakpoint at %#x\n", frame.RIP)
	})
	fatalException := func(name string) irq.ExceptionHandlerWithCode {
		return func(num irq.ExceptionNum, errCode uint64, frame *irq.Frame, regs *irq.Regs) {
			kernel.Panic(&kernel.Error{Module: "irq", Message: name})
		}
	}
	irq.HandleExceptionWithCode(irq.DoubleFault, fatalException("double fault"))
	irq.HandleExceptionWithCode(irq.GPFException, fatalException("general protection fault"))
	irq.HandleExceptionWithCode(irq.PageFaultException, fatalException("page fault"))

	kfmt.Println("kernel init complete")

	cpu.EnableInterrupts()
	for {
		cpu.Halt()
	}
}

func main() {
	Kmain()
	kernel.Panic("Kmain returned")
}
