package irq

// The three software interrupt gates spec §6 reserves for the user/kernel
// boundary. Each is a registrable hook rather than a direct call into
// internal/syscalltab or internal/sched, so this package stays a leaf:
// those higher-level packages import irq for Frame/Regs, not the other way
// around — the same inversion gopher-os uses between its irq and kmain
// packages.
const (
	VectorSyscall     = 0x80
	VectorContextSave = 0x81
	VectorEventWait   = 0x82
)

// SoftwareHandler handles one of the three software interrupt gates.
type SoftwareHandler func(frame *Frame, regs *Regs)

var (
	// syscallHandler is invoked on INT 0x80 (spec §6's syscall ABI:
	// rax holds the syscall number, rdi/rsi/rdx/r8 the arguments, rax
	// holds the return value on the way back out).
	syscallHandler SoftwareHandler
	// contextSaveHandler is invoked on INT 0x81, a no-op-return gate a
	// process uses to checkpoint its context before a sensitive operation
	// (spec §6's CONTEXT_SAVE row); it never touches the scheduler.
	contextSaveHandler SoftwareHandler
	// eventWaitHandler is invoked on INT 0x82, the blocking wait-for-event
	// gate (spec §4.5/§4.6's Wait operation).
	eventWaitHandler SoftwareHandler
)

// HandleSyscall registers the handler for INT 0x80.
func HandleSyscall(h SoftwareHandler) { syscallHandler = h }

// HandleContextSave registers the handler for INT 0x81.
func HandleContextSave(h SoftwareHandler) { contextSaveHandler = h }

// HandleEventWait registers the handler for INT 0x82.
func HandleEventWait(h SoftwareHandler) { eventWaitHandler = h }

// dispatchSoftware routes one of the three software gates to its registered
// handler. Called by the trampoline for vectors 0x80-0x82.
func dispatchSoftware(vector int, frame *Frame, regs *Regs) {
	var h SoftwareHandler
	switch vector {
	case VectorSyscall:
		h = syscallHandler
	case VectorContextSave:
		h = contextSaveHandler
	case VectorEventWait:
		h = eventWaitHandler
	}
	if h != nil {
		h(frame, regs)
	}
}
