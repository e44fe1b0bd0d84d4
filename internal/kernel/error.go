// Package kernel holds the handful of types that must be available before
// the rest of the kernel (including the heap allocator) is initialized.
package kernel

// Error describes a kernel-level failure. Kernel errors are plain structs,
// not heap-allocated via errors.New, because early boot code runs before the
// kernel heap allocator (C2) has been initialized — the same constraint
// gopher-os documents on its own Error type.
type Error struct {
	// Module names the subsystem that raised the error (e.g. "pmm", "vmm").
	Module string
	// Message is a short human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil kernel error>"
	}
	return e.Module + ": " + e.Message
}

var (
	// haltFn is swapped out by tests so Panic doesn't actually stop the
	// process running the test binary.
	haltFn = cpuHalt

	errRuntimePanic = &Error{Module: "rt", Message: "unknown cause"}
)

// Panic prints the supplied error (if any) to the console, displays the
// full-screen panic panel spec §7 requires for Fatal errors, and halts the
// CPU. Panic never returns.
func Panic(e interface{}) {
	var err *Error
	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	case nil:
		err = nil
	default:
		errRuntimePanic.Message = "non-error panic value"
		err = errRuntimePanic
	}

	printPanicPanel(err)
	haltFn()
}
