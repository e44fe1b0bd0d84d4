package syscalltab

import (
	"encoding/binary"
	"math"
	"unsafe"

	"cineaos/internal/config"
	"cineaos/internal/errs"
	"cineaos/internal/event"
	"cineaos/internal/irq"
	"cineaos/internal/kernel"
	"cineaos/internal/kfmt"
	"cineaos/internal/mem/vmm"
	"cineaos/internal/proc"
	"cineaos/internal/sched"
)

// ptrToBytes views a kernel-reachable address as a byte slice. Used
// wherever a syscall argument is a pointer into the caller's (currently
// active, since traps don't change CR3) address space: LOG's output
// buffer, SPAWN's image/argv pointers.
func ptrToBytes(addr, length uint64) []byte {
	if length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), length)
}

// Kernel bundles the subsystems the dispatcher routes into. One Kernel is
// built at boot and its HandleSyscall/HandleContextSave/HandleEventWait/
// OnTick methods are registered with the irq package's software gates and
// tick hook.
type Kernel struct {
	Procs    *proc.Table
	Sched    *sched.Scheduler
	Events   *event.Queue
	VMM      *vmm.VMM
	KernelPT *vmm.PageTable
}

// argsFrom extracts the four syscall arguments from the register block per
// spec §6's ABI: rdi, rsi, rdx, r8 in that order.
func argsFrom(regs *irq.Regs) [4]uint64 {
	return [4]uint64{regs.RDI, regs.RSI, regs.RDX, regs.R8}
}

// setResult writes a Result back into rax the way the original kernel's
// syskrnl/mod.rs does: success values are non-negative, every error kind
// maps to a small negative sentinel the process's libc-equivalent
// translates back into an errno-style value.
func setResult(regs *irq.Regs, res Result) {
	if res.Err != nil {
		regs.RAX = uint64(errCode(res.Err))
		return
	}
	regs.RAX = res.Value
}

func errCode(err error) int64 {
	switch err {
	case errs.OutOfMemory:
		return -1
	case errs.BadImage:
		return -2
	case errs.InvalidArgument:
		return -3
	case errs.NotFound:
		return -4
	case errs.Busy:
		return -5
	default:
		return -6
	}
}

// saveCurrent copies the live trap state into pid's process-table entry,
// the "save outgoing" half of the in-place context switch spec §9
// describes as the mechanism for all context switches.
func (k *Kernel) saveCurrent(pid uint64, frame *irq.Frame, regs *irq.Regs) {
	if p, err := k.Procs.Get(pid); err == nil {
		p.Frame = *frame
		p.Regs = *regs
	}
}

// loadSuccessor splices whatever process the scheduler now reports as
// current into the live trap state: its saved Frame/Regs overwrite the
// ones the trampoline will iretq through, any pending event-return value
// overwrites rax, and CR3 is switched to its page table. This, plus
// saveCurrent, is the whole of spec §9's "in-place interrupt-frame
// mutation" — the only mechanism by which control ever passes from one
// process to another.
func (k *Kernel) loadSuccessor(frame *irq.Frame, regs *irq.Regs) {
	pid, ok := k.Sched.Current()
	if !ok {
		return
	}
	p, err := k.Procs.Get(pid)
	if err != nil {
		return
	}
	*frame = p.Frame
	*regs = p.Regs
	if ret, ok := k.Events.TakeReturn(pid); ok {
		regs.RAX = ret
	}
	k.VMM.Activate(p.PageTable)
}

// switchIfNeeded performs a full context switch: outgoing's live state is
// saved (unless saveOutgoing is false, e.g. it has just exited and its
// table entry is already gone), then whatever the scheduler now reports as
// current is loaded in its place.
func (k *Kernel) switchIfNeeded(outgoing uint64, saveOutgoing bool, frame *irq.Frame, regs *irq.Regs) {
	if saveOutgoing {
		k.saveCurrent(outgoing, frame, regs)
	}
	k.loadSuccessor(frame, regs)
}

// HandleSyscall implements the INT 0x80 gate: it is registered with
// irq.HandleSyscall at boot. Per spec §4.8, if dispatching the call left a
// different process current (EXIT terminated the caller, SLEEP or SPAWN
// changed who runs next), the new current process's saved state is spliced
// into the frame/registers in place before returning to the trampoline.
func (k *Kernel) HandleSyscall(frame *irq.Frame, regs *irq.Regs) {
	pid, ok := k.Sched.Current()
	if !ok {
		regs.RAX = uint64(errCode(errs.NotFound))
		return
	}
	num := Number(regs.RAX)
	args := argsFrom(regs)
	res := k.dispatch(pid, num, args)
	setResult(regs, res)

	successor, ok := k.Sched.Current()
	if !ok || successor == pid {
		return
	}
	k.switchIfNeeded(pid, num != Exit, frame, regs)
}

// HandleContextSave implements the INT 0x81 gate: "save current context
// (no-op return, used by user code to checkpoint before a sensitive
// operation)" per spec §6. It only records a checkpoint of the live trap
// state into the process table; control returns to the same process
// exactly where it left off.
func (k *Kernel) HandleContextSave(frame *irq.Frame, regs *irq.Regs) {
	pid, ok := k.Sched.Current()
	if !ok {
		return
	}
	k.saveCurrent(pid, frame, regs)
}

// HandleEventWait implements the INT 0x82 gate: a process blocks until the
// event ID in rax fires (spec §4.5/§4.6's wait_for operation; spec §6:
// "event kind in rax"). Like EXIT, this performs the in-place frame swap
// directly rather than returning through the normal syscall path.
func (k *Kernel) HandleEventWait(frame *irq.Frame, regs *irq.Regs) {
	pid, ok := k.Sched.Current()
	if !ok {
		return
	}
	id := event.ID(regs.RAX)
	if err := k.WaitFor(pid, id); err != nil {
		regs.RAX = uint64(errCode(err))
		return
	}
	k.switchIfNeeded(pid, true, frame, regs)
}

// OnTick implements the PIT-driven scheduling hook (spec §2, §4.4): it
// expires any sleep deadlines that have elapsed (waking their processes
// with a return value of 0, matching SLEEP's "return 0" row in spec §6),
// then, if the scheduler reports that the running quantum expired and a
// different process should run, performs the same in-place frame/register/
// CR3 splice every other context switch uses.
func (k *Kernel) OnTick(frame *irq.Frame, regs *irq.Regs) {
	now := k.Events.AdvanceTick()
	for _, id := range k.Events.ExpireSleeps(now) {
		k.WakeupWithRet(id, 0)
	}

	outgoing, ok := k.Sched.Current()
	if !ok {
		return
	}
	if !k.Sched.Tick() {
		return
	}
	k.switchIfNeeded(outgoing, true, frame, regs)
}

// WaitFor implements spec §4.5's wait_for: pid is enqueued on id and
// removed from scheduling until woken. Used by the blocking INT 0x82 path.
func (k *Kernel) WaitFor(pid uint64, id event.ID) error {
	if !id.Valid() {
		return errs.InvalidArgument
	}
	if p, err := k.Procs.Get(pid); err == nil {
		p.State = proc.StateWaiting
		p.WaitingOn = uint64(id)
	}
	k.Events.Wait(id, pid)
	k.Sched.SetSkip(pid)
	k.Sched.GiveUp()
	return nil
}

// WaitForRegisterOnly implements spec §4.5's wait_for_register_only: pid is
// enqueued on id but stays runnable in the scheduler, for the case where a
// process is waiting on more than one event and wants whichever fires
// first to wake it without otherwise changing its scheduling state.
func (k *Kernel) WaitForRegisterOnly(pid uint64, id event.ID) error {
	if !id.Valid() {
		return errs.InvalidArgument
	}
	k.Events.Wait(id, pid)
	return nil
}

// Wakeup implements spec §4.5's wakeup: pops one waiter on id (front-PID
// rule applied first) and marks it runnable again, without setting any
// event-return value.
func (k *Kernel) Wakeup(id event.ID) (uint64, bool) {
	pid, ok := k.Events.Signal(id)
	if !ok {
		return 0, false
	}
	k.markRunnable(pid)
	return pid, true
}

// WakeupWithRet implements spec §4.5's wakeup_with_ret: same as Wakeup, but
// also records value in the event-return table, consumed by the woken
// process's next context restore (spec §3, scenario S3: "child resumes
// with rax = 0x41").
func (k *Kernel) WakeupWithRet(id event.ID, value uint64) (uint64, bool) {
	pid, ok := k.Events.Signal(id)
	if !ok {
		return 0, false
	}
	k.Events.SetReturn(pid, value)
	k.markRunnable(pid)
	return pid, true
}

func (k *Kernel) markRunnable(pid uint64) {
	k.Sched.ClearSkip(pid)
	if p, err := k.Procs.Get(pid); err == nil {
		p.State = proc.StateRunnable
	}
}

// dispatch routes one syscall number to its handler.
func (k *Kernel) dispatch(pid uint64, num Number, args [4]uint64) Result {
	switch num {
	case Exit:
		return k.sysExit(pid)
	case Spawn:
		return k.sysSpawn(pid, args)
	case Info:
		return k.sysInfo(args)
	case Sleep:
		return k.sysSleep(pid, args)
	case Log:
		return k.sysLog(args)
	case Alloc:
		return k.sysAlloc(pid, args)
	case Free:
		return k.sysFree(pid, args)
	case Panic:
		return k.sysPanic(args)
	case NoSche:
		k.Sched.Suspend(pid)
		return Result{}
	case ConSche:
		if err := k.Sched.Resume(pid); err != nil {
			return Result{Err: err}
		}
		return Result{}
	case List, Open, Close, Write, Read, WritePath, ReadPath, CreateWindow:
		// The filesystem and GUI collaborators these numbers belong to
		// are out of scope for this kernel core (spec §1); the numbers
		// are reserved so the wire contract stays complete, but nothing
		// implements them here.
		return Result{Err: errs.NotFound}
	default:
		return Result{Err: errs.InvalidArgument}
	}
}

// sysExit implements spec §4.7's Exit step end to end: free the exiting
// process's code-region pages, remove it from the table, and restore its
// parent as the scheduler's current process so the dispatcher's post-
// dispatch switch resumes the parent exactly where SPAWN left it.
func (k *Kernel) sysExit(pid uint64) Result {
	parent, err := k.Procs.Exit(pid)
	if err != nil {
		return Result{Err: err}
	}
	k.Sched.Terminate(pid)
	if parent != 0 {
		k.Sched.ClearSkip(parent)
		k.Sched.Activate(parent)
	}
	return Result{}
}

func (k *Kernel) sysLog(args [4]uint64) Result {
	// args[0] is a pointer already resolved into kernel-readable bytes
	// (trap handling doesn't change CR3, so the caller's address space is
	// still active), args[1] its length. The console sink itself is an
	// external collaborator (spec §1); LOG just routes bytes to it.
	ptr, length := args[0], args[1]
	if length == 0 {
		return Result{Value: 0}
	}
	data := ptrToBytes(ptr, length)
	kfmt.Printf("%s", string(data))
	return Result{Value: length}
}

// sysSleep implements spec §6's SLEEP: args[0] is the requested duration as
// an f64 bit pattern, converted to a tick count via config.TickRateHz and
// registered as an absolute deadline (spec §5 property 6, scenario S2).
// On success the syscall returns 0 (a negative duration is rejected with
// errs.InvalidArgument); the caller only resumes once OnTick's
// ExpireSleeps fires its deadline.
func (k *Kernel) sysSleep(pid uint64, args [4]uint64) Result {
	seconds := math.Float64frombits(args[0])
	if seconds < 0 {
		return Result{Err: errs.InvalidArgument}
	}
	ticks := uint64(seconds * float64(config.TickRateHz))
	id := k.Events.NewSleepEvent()
	deadline := k.Events.CurrentTick() + ticks
	k.Events.RegisterDeadline(id, deadline)

	if err := k.WaitFor(pid, id); err != nil {
		return Result{Err: err}
	}
	return Result{Value: 0}
}

func (k *Kernel) sysAlloc(pid uint64, args [4]uint64) Result {
	addr, err := k.Procs.HeapAlloc(pid, args[0], args[1])
	if err != nil {
		return Result{Err: err}
	}
	return Result{Value: addr}
}

func (k *Kernel) sysFree(pid uint64, args [4]uint64) Result {
	if err := k.Procs.HeapFree(pid, args[0], args[1]); err != nil {
		return Result{Err: err}
	}
	return Result{}
}

func (k *Kernel) sysPanic(args [4]uint64) Result {
	kernel.Panic(&kernel.Error{Module: "user", Message: "PANIC syscall invoked by user process"})
	return Result{} // unreachable: kernel.Panic halts the CPU
}

// argvDescriptorSize is the on-the-wire size of one (pointer, length) pair
// in SPAWN's argv descriptor array.
const argvDescriptorSize = 16

// decodeArgv reads count (pointer, length) pairs starting at ptr and
// copies out each referenced string. This is the Open Question decision
// recorded in DESIGN.md for spec §4.7's "argv marshalling": non-trivial
// SPAWN arguments cross as a descriptor array rather than a single packed
// word, since spec §8 scenario S6 requires a raw, explicitly-sized image
// buffer rather than an opaque index.
func decodeArgv(ptr, count uint64) []string {
	if count == 0 {
		return nil
	}
	out := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		entry := ptrToBytes(ptr+i*argvDescriptorSize, argvDescriptorSize)
		sPtr := binary.LittleEndian.Uint64(entry[0:8])
		sLen := binary.LittleEndian.Uint64(entry[8:16])
		out = append(out, string(ptrToBytes(sPtr, sLen)))
	}
	return out
}

// sysSpawn implements spec §4.7/§4.8's SPAWN: decode the image and argv
// buffers out of the caller's address space, load a new process from them,
// and make it the scheduler's current process immediately (spec §4.6's
// Add: "a new process runs immediately"). The caller is marked skipped so
// it does not run again until the child calls EXIT and restores it (spec
// §4.8's special case: "SPAWN saves the current stack frame and registers
// before dispatching so exit in the child can restore the parent exactly"
// — here that save happens naturally, since the caller's frame/regs are
// already live and HandleSyscall's post-dispatch switch persists them).
func (k *Kernel) sysSpawn(callerPID uint64, args [4]uint64) Result {
	imgPtr, imgLen, argvPtr, argvCount := args[0], args[1], args[2], args[3]
	if imgLen == 0 {
		return Result{Err: errs.BadImage}
	}
	image := ptrToBytes(imgPtr, imgLen)
	argv := decodeArgv(argvPtr, argvCount)

	child, err := k.Procs.Create(proc.CreateParams{
		KernelPT:  k.KernelPT,
		Image:     image,
		Argv:      argv,
		ParentPID: callerPID,
	})
	if err != nil {
		return Result{Err: err}
	}

	k.Sched.SetSkip(callerPID)
	if err := k.Sched.Add(child.PID); err != nil {
		return Result{Err: err}
	}
	// Add only inserts the child into the ring; it doesn't move s.current
	// unless the ring was empty. Force it explicitly so the child runs
	// immediately (spec §4.6's Add: "a new process runs immediately").
	k.Sched.Activate(child.PID)
	return Result{Value: child.PID}
}

// sysInfo implements spec §6's INFO. Its argument is a path pointer into
// the out-of-scope filesystem collaborator (spec §1); the number is
// reserved and routed, but nothing here can resolve a path to metadata.
func (k *Kernel) sysInfo(args [4]uint64) Result {
	return Result{Err: errs.NotFound}
}
