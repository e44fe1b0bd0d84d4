// Package errs enumerates the kernel's fixed error taxonomy (spec §7) as
// sentinel values, the same pattern gopher-os uses in kernel/errors/errors.go
// for its own KernelError type — a small string-keyed error so subsystems can
// compare with errors.Is instead of matching on message text.
package errs

// Kind is one of the six error categories spec §7 defines.
type Kind string

// Error implements the error interface so a Kind can be returned directly
// wherever an error is expected.
func (k Kind) Error() string { return string(k) }

const (
	// OutOfMemory: a frame, heap, or virtual-address allocation could not
	// be satisfied.
	OutOfMemory Kind = "out of memory"
	// BadImage: an ELF64 process image failed to parse, is not an x86-64
	// executable, or has no PT_LOAD segment; SPAWN also reports it for a
	// zero-length image. Images that do not begin with the ELF64 magic and
	// class are loaded as headerless flat binaries and are not rejected
	// for their leading bytes, and segment overlap is not checked.
	BadImage Kind = "bad process image"
	// InvalidArgument: a syscall argument failed validation (spec §4.8 —
	// an event ID outside every defined range, an unknown syscall number,
	// a negative SLEEP duration, a FREE address outside the caller's heap).
	InvalidArgument Kind = "invalid argument"
	// NotFound: a PID, event ID, or other handle does not currently name
	// a live object.
	NotFound Kind = "not found"
	// Busy: an operation could not proceed because a resource is
	// currently owned by another process (spec §4.6 NO_SCHEDULE windows,
	// contended locks).
	Busy Kind = "resource busy"
	// Fatal: an unrecoverable condition; the caller should route this to
	// kernel.Panic rather than propagate it.
	Fatal Kind = "fatal"
)
