package irq

// ExceptionNum identifies one of the 32 CPU-defined exception vectors,
// matching gopher-os's handler_amd64.go naming.
type ExceptionNum uint8

const (
	DivideByZero       ExceptionNum = 0
	Debug              ExceptionNum = 1
	NMI                ExceptionNum = 2
	Breakpoint         ExceptionNum = 3
	Overflow           ExceptionNum = 4
	BoundRangeExceeded ExceptionNum = 5
	InvalidOpcode      ExceptionNum = 6
	DeviceNotAvailable ExceptionNum = 7
	DoubleFault        ExceptionNum = 8
	GPFException       ExceptionNum = 13
	PageFaultException ExceptionNum = 14
)

// ExceptionHandler handles an exception that carries no CPU error code.
type ExceptionHandler func(num ExceptionNum, frame *Frame, regs *Regs)

// ExceptionHandlerWithCode handles an exception the CPU supplies an error
// code for (e.g. #GP, #PF).
type ExceptionHandlerWithCode func(num ExceptionNum, errCode uint64, frame *Frame, regs *Regs)

var (
	exceptionHandlers         [32]ExceptionHandler
	exceptionHandlersWithCode [32]ExceptionHandlerWithCode
)

// hasErrorCode reports whether the CPU pushes an error code for this vector
// (the fixed set the x86-64 architecture defines).
func hasErrorCode(num ExceptionNum) bool {
	switch num {
	case 8, 10, 11, 12, 13, 14, 17, 21, 29, 30:
		return true
	default:
		return false
	}
}

// HandleException registers a handler for an exception vector that carries
// no error code.
func HandleException(num ExceptionNum, handler ExceptionHandler) {
	exceptionHandlers[num] = handler
}

// HandleExceptionWithCode registers a handler for an exception vector whose
// trap gate supplies an error code.
func HandleExceptionWithCode(num ExceptionNum, handler ExceptionHandlerWithCode) {
	exceptionHandlersWithCode[num] = handler
}

// dispatchException is called by the trampoline (via an asm stub not
// present in this tree, matching the retrieval's lack of .s files) for any
// vector in [0, 32). It looks up and invokes the registered handler, if
// any.
func dispatchException(num ExceptionNum, errCode uint64, frame *Frame, regs *Regs) {
	if hasErrorCode(num) {
		if h := exceptionHandlersWithCode[num]; h != nil {
			h(num, errCode, frame, regs)
		}
		return
	}
	if h := exceptionHandlers[num]; h != nil {
		h(num, frame, regs)
	}
}
