// Package cpu declares the handful of privileged x86-64 instructions the
// kernel cannot express in Go: interrupt masking, halting, control-register
// access and port I/O. Each function is a stub with no body, implemented in
// assembly elsewhere in the build (the same split gopher-os uses in its
// kernel/cpu/cpu_amd64.go — Go source declares the signature, a linked .s
// file supplies TEXT). That assembly file is not part of this tree, matching
// the retrieval: none of the kernel examples ship the .s counterparts either.
package cpu

// EnableInterrupts executes STI.
func EnableInterrupts()

// DisableInterrupts executes CLI.
func DisableInterrupts()

// Halt executes HLT. Combined with DisableInterrupts this parks the core
// until an NMI; Panic uses the pair to stop the machine for good.
func Halt()

// SwitchCR3 loads the given physical address into CR3, switching the active
// page table (spec §4.3's "switch the active page table" operation).
func SwitchCR3(physAddr uint64)

// ActiveCR3 returns the physical address currently loaded in CR3.
func ActiveCR3() uint64

// FlushTLBEntry invalidates the single TLB entry covering virtAddr
// (INVLPG).
func FlushTLBEntry(virtAddr uint64)

// LoadIDT loads the interrupt descriptor table pointed to by the IDT
// pointer at tablePtr (LIDT).
func LoadIDT(tablePtr uint64)

// Inb reads a byte from I/O port.
func Inb(port uint16) uint8

// Outb writes a byte to I/O port.
func Outb(port uint16, value uint8)

// Rdtsc returns the CPU timestamp counter (RDTSC).
func Rdtsc() uint64
