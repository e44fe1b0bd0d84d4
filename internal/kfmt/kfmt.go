// Package kfmt is the kernel's console output path. It wraps an io.Writer
// sink (the VGA/serial text writer — an external collaborator per spec §1)
// with fmt-style formatting, following the teacher's own convention of
// calling fmt.Printf directly rather than hand-rolling a minimal formatter:
// this kernel runs on a hosted Go runtime extended with the trap/mode-switch
// primitives in internal/cpu, so the standard fmt package is available from
// the first instruction kmain executes.
package kfmt

import (
	"fmt"
	"io"
	"os"
)

// Sink is the active console writer. It defaults to os.Stdout so that early
// boot messages and unit tests both have somewhere to go; SetSink replaces
// it.
var Sink io.Writer = os.Stdout

// SetSink installs the active console writer, such as the VGA/serial driver
// (out of scope, spec §1) once it has initialized. Kmain does not call it,
// so console output stays on os.Stdout until something does.
func SetSink(w io.Writer) {
	Sink = w
}

// Printf formats according to a format specifier and writes to the active
// console sink.
func Printf(format string, args ...interface{}) {
	fmt.Fprintf(Sink, format, args...)
}

// Println writes args to the active console sink, space-separated, with a
// trailing newline.
func Println(args ...interface{}) {
	fmt.Fprintln(Sink, args...)
}
