package profiler

import (
	"sync"
	"time"
)

// Report accumulates timing for one function identity.
type Report struct {
	// Frame is the defaulted call-site metadata the record was created
	// from.
	Frame Frame
	// Title is the formatted identity string, also the registry key.
	Title string
	// Elapsed is the duration of the most recently completed invocation.
	// A new completion overwrites the previous value.
	Elapsed time.Duration
	// Calls counts completed call/return pairs.
	Calls uint64

	// startedAt holds the clock reading of the most recent call event
	// while a timer is armed. Reentrant calls to the same identity
	// overwrite it, so a recursive function's duration is measured
	// against the innermost entry. Known limitation, kept deliberately.
	startedAt time.Duration
	armed     bool
}

// Armed reports whether a call event has been observed for this identity
// without its matching return yet. Because one timer is kept per identity,
// this goes false on the first return of a reentrant chain even though
// outer invocations are still in flight.
func (r *Report) Armed() bool {
	return r.armed
}

// Registry maps function identities to their reports. Lookup is keyed by
// the formatted title; insertion order is kept separately so that sorting
// always starts from a stable base ordering.
//
// The registry may be mutated from any goroutine delivering events, so
// lookup and reset are guarded by a mutex. Timers stay global per
// identity, not per goroutine.
type Registry struct {
	mu      sync.Mutex
	byTitle map[string]*Report
	ordered []*Report
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byTitle: make(map[string]*Report)}
}

// GetOrCreate returns the report for f's identity, constructing and
// registering a zero-valued one on first observation.
func (r *Registry) GetOrCreate(f Frame) *Report {
	title := f.Title()

	r.mu.Lock()
	defer r.mu.Unlock()

	if rep, ok := r.byTitle[title]; ok {
		return rep
	}

	rep := &Report{Frame: f.Defaulted(), Title: title}
	r.byTitle[title] = rep
	r.ordered = append(r.ordered, rep)
	return rep
}

// Snapshot returns a copy of the insertion-ordered report list. The
// records themselves are shared, not copied.
func (r *Registry) Snapshot() []*Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Report, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len reports the number of distinct identities observed.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ordered)
}

// Reset clears both the lookup map and the ordered list.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTitle = make(map[string]*Report)
	r.ordered = nil
}
