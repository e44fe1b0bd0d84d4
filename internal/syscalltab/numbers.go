// Package syscalltab is the system-call dispatcher (spec §4.8): it decodes
// the INT 0x80 ABI (rax = syscall number, rdi/rsi/rdx/r8 = up to four
// arguments, rax = return value) and routes to the kernel subsystem that
// implements each number. Argument-to-register mapping is ground-truthed
// against original_source/src/sysapi/src/call.rs and syskrnl/mod.rs.
package syscalltab

// Number identifies one syscall. Values are the literal wire contract
// spec §6's ABI table assigns — user binaries issue `int 0x80` with one of
// these in rax, so they are not free to renumber.
type Number uint64

const (
	Exit    Number = 0x01
	Spawn   Number = 0x02
	Info    Number = 0x07
	Sleep   Number = 0x0B
	Log     Number = 0x0C
	Alloc   Number = 0x0D
	Free    Number = 0x0E
	Panic   Number = 0x0F
	NoSche  Number = 0x10
	ConSche Number = 0x11

	// List/Open/Close/Write/Read/WritePath/ReadPath/CreateWindow are
	// reserved numbers for the filesystem and GUI collaborators spec §1
	// places out of scope for this kernel core; dispatch still routes
	// them (so the numbering itself is complete and non-conflicting) but
	// returns errs.NotFound rather than implementing a filesystem or
	// compositor here.
	List         Number = 0x20
	Open         Number = 0x21
	Close        Number = 0x22
	Write        Number = 0x23
	Read         Number = 0x24
	WritePath    Number = 0x25
	ReadPath     Number = 0x26
	CreateWindow Number = 0x30
)

// Result is the fixed two-field return shape every handler produces: a
// value (placed in rax on success) and an error (nil on success; setResult
// encodes a non-nil one as a negative code in rax).
type Result struct {
	Value uint64
	Err   error
}
