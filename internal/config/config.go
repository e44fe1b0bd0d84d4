// Package config collects the fixed constants that spec §6 ("Memory
// layout") and spec §4 pin down at compile time. There is no runtime
// configuration file: every kernel in the example pack (gopher-os, biscuit)
// hard-codes its memory map the same way.
package config

const (
	// PageSize is the MMU page / physical frame size.
	PageSize = 1 << 12
	// PageShift is log2(PageSize).
	PageShift = 12

	// KernelReservedEnd is the end of the low region occupied by kernel
	// code and data (spec §6: "Kernel code and data occupy the low 4 MiB").
	KernelReservedEnd = 4 * 1024 * 1024

	// KernelHeapStart / KernelHeapSize: "Kernel heap begins at
	// 0x0001_0000_0000 for 40 MiB" (spec §6).
	KernelHeapStart = 0x0001_0000_0000
	KernelHeapSize  = 40 * 1024 * 1024

	// ProcessRegionSize is the 10 MiB of virtual address space reserved
	// per process for code + stack (spec §4.7 step c).
	ProcessRegionSize = 10 * 1024 * 1024

	// ProcessCodeBaseStart is the first monotonically-advancing process
	// code base, placed above the kernel reserved region.
	ProcessCodeBaseStart = KernelReservedEnd

	// ProcessHeapStart / ProcessHeapInitialSize: "per-process user heap
	// begins at 0x0002_0000_0000, also monotonic" (spec §6); each process
	// is initially given 16 KiB (spec §4.7 step f).
	ProcessHeapStart       = 0x0002_0000_0000
	ProcessHeapInitialSize = 16 * 1024

	// FramebufferVirtBase is the fixed kernel virtual address the
	// framebuffer MMIO range is identity-style mapped at (spec §6).
	FramebufferVirtBase = 0xC000_0000

	// SchedQuantumTicks is the minimum number of ticks between
	// preemptions (spec §4.6, "Quantum" in the glossary).
	SchedQuantumTicks = 10

	// SchedSuspendMaxTicks bounds how long NO_SCHEDULE may suspend
	// preemption before it is force-cleared (spec §4.6, deadlock
	// defense).
	SchedSuspendMaxTicks = 1000

	// TickRateHz is the PIT interrupt frequency assumed by the sleep
	// syscall's deadline math (spec §8 property 6, scenario S2).
	TickRateHz = 1000

	// EventRangeSize bounds each of the three disjoint event-ID ranges
	// (spec §3, §9 "Event ID partitioning").
	EventRangeSize = 1_000_000

	// MaxProcesses is the fixed capacity of the process table (spec §3:
	// "a fixed-capacity array indexed by PID").
	MaxProcesses = 1024
)
