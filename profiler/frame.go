// Package profiler implements a deterministic call-graph profiler.
//
// Instrumented code delivers function call/return events through an
// Instrumenter; a Session correlates the events into per-function records
// holding the latest invocation duration and a completed-call counter, and
// writes a sorted fixed-width text report. This is not a statistical
// sampling profiler: there is no stack unwinding, every delivered event is
// accounted for deterministically.
package profiler

import "fmt"

const (
	// DefaultName substitutes for a function with no resolvable name.
	DefaultName = "anonymous"
	// NativeSource substitutes for functions with no source file, such as
	// runtime-implemented ones.
	NativeSource = "[native]"
)

// Title columns are truncated to 50/40/20 characters before use as the
// registry key, so two functions whose truncated fields match share one
// record. The truncation is part of the report file format.
const (
	titleFormat = "%-50.50s: %-40.40s: %-20.20s"
	lineFormat  = "%04d"
)

// Frame is the call-site metadata delivered with a call or return event.
// Any field may be absent; Defaulted fills in the documented fallbacks.
type Frame struct {
	// Name is the function's display name.
	Name string
	// Source identifies the compilation unit defining the function.
	Source string
	// Line is the line the function is defined at.
	Line int
	// Native marks functions not defined in any source file.
	Native bool
}

// Defaulted returns a copy of f with absent fields replaced: "anonymous"
// for the name, the native sentinel for a missing source, 0 for a missing
// line.
func (f Frame) Defaulted() Frame {
	if f.Name == "" {
		f.Name = DefaultName
	}
	if f.Source == "" || f.Native {
		f.Source = NativeSource
	}
	if f.Line < 0 {
		f.Line = 0
	}
	return f
}

// Title renders the fixed-width composite identity string: source, name
// and zero-padded definition line in 50/40/20 columns. The same string is
// both the registry lookup key and the report display column, so identity
// resolution and display are one transformation.
func (f Frame) Title() string {
	d := f.Defaulted()
	return fmt.Sprintf(titleFormat, d.Source, d.Name, fmt.Sprintf(lineFormat, d.Line))
}
