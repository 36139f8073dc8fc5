// Package hook delivers call and return events from manually instrumented
// Go code to an installed profiler session.
//
// Instrumented functions report themselves with a single line:
//
//	func handle(req Request) error {
//		defer hook.Trace()()
//		...
//	}
//
// Events are dispatched synchronously on the calling goroutine. When no
// session has installed callbacks the helpers return immediately, so
// instrumentation can stay in place permanently.
package hook

import (
	"runtime"
	"sync"

	"github.com/callscope/callscope/profiler"
)

// Runtime routes events from instrumented code to the installed callback
// pair, applying the configured sampling divisor. It implements
// profiler.Instrumenter.
type Runtime struct {
	mu       sync.Mutex
	onCall   func(profiler.Frame)
	onReturn func(profiler.Frame)
	every    int
	events   uint64
}

// Default is the process-wide runtime used by the package-level helpers.
var Default = &Runtime{}

// Install registers the callback pair. every selects the sampling divisor:
// 0 delivers every event, N>0 delivers only each Nth. The event counter
// restarts on each install.
func (r *Runtime) Install(every int, onCall, onReturn func(profiler.Frame)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCall = onCall
	r.onReturn = onReturn
	r.every = every
	r.events = 0
}

// Remove deregisters both callbacks. Events raised afterwards are dropped.
func (r *Runtime) Remove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCall = nil
	r.onReturn = nil
}

// Trace reports a call event for the calling function and returns a
// closure reporting the matching return:
//
//	defer hook.Trace()()
//
// Both events carry identical metadata, captured once here, so they
// resolve to the same record.
func (r *Runtime) Trace() func() {
	return r.trace(3)
}

// Enter reports a call event for the calling function, for code that pairs
// events explicitly instead of deferring.
func (r *Runtime) Enter() {
	r.deliver(callerFrame(2), true)
}

// Exit reports a return event for the calling function.
func (r *Runtime) Exit() {
	r.deliver(callerFrame(2), false)
}

// Trace instruments the caller through the Default runtime.
func Trace() func() {
	return Default.trace(3)
}

// Enter reports a call event through the Default runtime.
func Enter() {
	Default.deliver(callerFrame(2), true)
}

// Exit reports a return event through the Default runtime.
func Exit() {
	Default.deliver(callerFrame(2), false)
}

func (r *Runtime) trace(skip int) func() {
	frame := callerFrame(skip)
	r.deliver(frame, true)
	return func() { r.deliver(frame, false) }
}

// deliver applies the sampling divisor and hands the frame to the
// installed callback. The counter only advances while callbacks are
// installed, so the divisor phase is stable within one session.
func (r *Runtime) deliver(f profiler.Frame, call bool) {
	r.mu.Lock()
	cb := r.onCall
	if !call {
		cb = r.onReturn
	}
	skip := false
	if cb != nil {
		r.events++
		if r.every > 0 && r.events%uint64(r.every) != 0 {
			skip = true
		}
	}
	r.mu.Unlock()

	if cb == nil || skip {
		return
	}
	cb(f)
}

// callerFrame captures metadata for the function skip frames up the stack.
// Identity is keyed on the definition site, not the call site, so repeated
// events from one function always agree.
func callerFrame(skip int) profiler.Frame {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return profiler.Frame{Native: true}
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return profiler.Frame{Native: true}
	}
	source, defined := fn.FileLine(fn.Entry())
	return profiler.Frame{Name: fn.Name(), Source: source, Line: defined}
}
