// Package irq is the interrupt dispatcher (spec §4.4): the IDT's Go-side
// handler table, the CPU-pushed interrupt frame, the trampoline-pushed
// general-purpose register block, and the three software gates the syscall
// ABI (spec §6) rides on. Frame and Regs mirror gopher-os's
// src/gopheros/kernel/irq/interrupt_amd64.go almost exactly in shape; the
// mutate-in-place discipline used to implement a context switch purely by
// editing these two structs before iretq is grounded on biscuit's trapstub
// (main.go), which passes its register block by pointer and never
// allocates on the handler path.
package irq

import "fmt"

// Regs is the general-purpose register block the trampoline pushes onto
// the kernel stack before calling into Go. The scheduler performs a context
// switch by mutating these fields directly, then returning through the same
// trampoline.
type Regs struct {
	R15, R14, R13, R12, R11, R10, R9, R8 uint64
	RBP, RDI, RSI, RDX, RCX, RBX, RAX    uint64
}

// String renders the registers for panic reports and debugging, matching
// gopher-os's Regs.Print behavior but returning a string instead of writing
// directly to a sink.
func (r *Regs) String() string {
	return fmt.Sprintf(
		"rax=%#016x rbx=%#016x rcx=%#016x rdx=%#016x\n"+
			"rsi=%#016x rdi=%#016x rbp=%#016x\n"+
			"r8=%#016x  r9=%#016x  r10=%#016x r11=%#016x\n"+
			"r12=%#016x r13=%#016x r14=%#016x r15=%#016x",
		r.RAX, r.RBX, r.RCX, r.RDX,
		r.RSI, r.RDI, r.RBP,
		r.R8, r.R9, r.R10, r.R11,
		r.R12, r.R13, r.R14, r.R15,
	)
}

// Frame is the interrupt frame the CPU itself pushes on any trap, in the
// order the hardware defines it. A context switch also mutates RIP/RSP/CS/SS
// here so that the trampoline's iretq resumes a different process than the
// one that trapped in.
type Frame struct {
	RIP    uint64
	CS     uint64
	RFlags uint64
	RSP    uint64
	SS     uint64
}

// String renders the frame for panic reports and debugging.
func (f *Frame) String() string {
	return fmt.Sprintf(
		"rip=%#016x cs=%#016x rflags=%#016x rsp=%#016x ss=%#016x",
		f.RIP, f.CS, f.RFlags, f.RSP, f.SS,
	)
}
