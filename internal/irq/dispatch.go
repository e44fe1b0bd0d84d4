package irq

const timerIRQLine = 0

// TickHandler is called once per PIT tick (IRQ0), the scheduler's preemption
// heartbeat (spec §4.6's quantum accounting).
type TickHandler func(frame *Frame, regs *Regs)

var tickHandler TickHandler

// HandleTick registers the scheduler's tick hook. cmd/kernel's Kmain calls
// this with the syscall dispatcher's OnTick rather than irq importing sched,
// keeping the dependency pointed the same direction as gopher-os's
// kmain-wires-irq convention.
func HandleTick(h TickHandler) {
	tickHandler = h
	HandleHWIRQ(timerIRQLine, func(_ int, frame *Frame, regs *Regs) {
		if tickHandler != nil {
			tickHandler(frame, regs)
		}
	})
}

// Dispatch is the single Go-side entry point the (absent) assembly
// trampoline calls for every vectored interrupt, exception, or software
// gate. vector is the raw IDT vector number (0-255); errCode is only
// meaningful when hasErrorCode(ExceptionNum(vector)) is true.
func Dispatch(vector int, errCode uint64, frame *Frame, regs *Regs) {
	switch {
	case vector < 32:
		dispatchException(ExceptionNum(vector), errCode, frame, regs)
	case vector >= 32 && vector < 32+numHWIRQs:
		dispatchHWIRQ(vector-32, frame, regs)
	case vector == VectorSyscall, vector == VectorContextSave, vector == VectorEventWait:
		dispatchSoftware(vector, frame, regs)
	}
}
