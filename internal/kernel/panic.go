package kernel

import (
	"cineaos/internal/cpu"
	"cineaos/internal/kfmt"
)

// printPanicPanel renders the full-screen panic report spec §7 requires for
// Fatal errors: module, message, and a fixed banner so it is visually
// unmistakable from ordinary console output.
func printPanicPanel(err *Error) {
	kfmt.Println("")
	kfmt.Println("*** KERNEL PANIC ***")
	if err == nil {
		kfmt.Println("cause: <none>")
		return
	}
	kfmt.Printf("module:  %s\n", err.Module)
	kfmt.Printf("message: %s\n", err.Message)
}

// cpuHalt disables interrupts and parks the core permanently.
func cpuHalt() {
	cpu.DisableInterrupts()
	for {
		cpu.Halt()
	}
}
