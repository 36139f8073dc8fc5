package profiler

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StartMode controls the run-once guard of a session.
type StartMode int

const (
	// ModeNormal starts a session that can be restarted freely.
	ModeNormal StartMode = iota
	// ModeOnce arms the run-once guard: after one completed start/stop
	// cycle further starts and stops become no-ops until Reset.
	ModeOnce
)

// Instrumenter is the mechanism delivering call/return events. Install
// registers the two callbacks at a sampling divisor (0 delivers every
// event, N delivers every Nth); Remove deregisters both.
type Instrumenter interface {
	Install(every int, onCall, onReturn func(Frame))
	Remove()
}

// Session owns one profiling lifecycle: it arms the instrumentation
// mechanism, correlates the delivered events into registry records and
// emits the sorted report. Clock and Instrumenter are injected so sessions
// are independent and deterministic under test.
type Session struct {
	clock    Clock
	inst     Instrumenter
	logger   zerolog.Logger
	id       uuid.UUID
	registry *Registry

	mu            sync.Mutex
	active        bool
	finished      bool
	runOnceArmed  bool
	hookFrequency int
	sortMethod    SortMethod
}

// NewSession creates an idle session around the given clock and
// instrumentation mechanism.
func NewSession(clock Clock, inst Instrumenter, logger zerolog.Logger) *Session {
	return &Session{
		clock:    clock,
		inst:     inst,
		logger:   logger.With().Str("component", "profiler_session").Logger(),
		id:       uuid.New(),
		registry: NewRegistry(),
	}
}

// ID returns the session's identifier, used for log and storage
// correlation.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Start arms the instrumentation mechanism at the configured hook
// frequency. Starting an already active session is a no-op, as is starting
// a run-once session that has already completed its cycle.
func (s *Session) Start(mode StartMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == ModeOnce {
		s.runOnceArmed = true
	}
	if s.active {
		return
	}
	if s.runOnceArmed && s.finished {
		s.logger.Debug().Str("session_id", s.id.String()).Msg("Run-once session already completed, ignoring start")
		return
	}

	s.finished = false
	s.active = true
	s.inst.Install(s.hookFrequency, s.onCall, s.onReturn)

	s.logger.Info().
		Str("session_id", s.id.String()).
		Int("hook_frequency", s.hookFrequency).
		Msg("Profiling session started")
}

// Stop removes the instrumentation mechanism and marks the session
// finished. Stopping an idle session is a no-op; so is stopping a run-once
// session that already completed, mirroring Start's guard.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	if s.runOnceArmed && s.finished {
		return
	}

	s.inst.Remove()
	s.active = false
	s.finished = true

	s.logger.Info().
		Str("session_id", s.id.String()).
		Int("functions", s.registry.Len()).
		Msg("Profiling session stopped")
}

// Reset clears the registry and the finished/run-once flags. The hook
// frequency and sort method are session configuration, not state, and
// survive a reset.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.Reset()
	s.finished = false
	s.runOnceArmed = false

	s.logger.Debug().Str("session_id", s.id.String()).Msg("Profiling session reset")
}

// SetHookFrequency configures the sampling divisor passed to the
// instrumentation mechanism: 0 delivers every event, N every Nth. Takes
// effect on the next Start. Negative values clamp to 0.
func (s *Session) SetHookFrequency(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	s.hookFrequency = n
}

// SetSortMethod configures the report ordering. Takes effect on the next
// report.
func (s *Session) SetSortMethod(m SortMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortMethod = m
}

// Reports returns a consistent copy of the session's records ordered by
// the configured sort method. Copies are returned so callers can read
// them while events are still being delivered.
func (s *Session) Reports() []*Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.registry.Snapshot()
	list := make([]*Report, len(snap))
	for i, rep := range snap {
		c := *rep
		list[i] = &c
	}
	Sort(list, s.sortMethod)
	return list
}

// onCall arms the timer on the callee's record. Identity is resolved from
// the event metadata on every call rather than through a shadow stack, so
// the matching return lands on the same record. A reentrant call
// overwrites the armed timestamp; see Report.
//
// Record fields are mutated under the session lock: events arrive
// synchronously on whichever goroutine runs the instrumented code, so two
// goroutines can hit the same identity.
func (s *Session) onCall(f Frame) {
	rep := s.registry.GetOrCreate(f)

	s.mu.Lock()
	rep.startedAt = s.clock.Now()
	rep.armed = true
	s.mu.Unlock()
}

// onReturn closes the timer for the identity and counts the completion. A
// return with no preceding call (hooks armed mid-call) still completes;
// the resulting elapsed value is nonsensical but harmless, an inherent
// limitation of instrumentation attached to code already executing.
func (s *Session) onReturn(f Frame) {
	rep := s.registry.GetOrCreate(f)

	s.mu.Lock()
	rep.Elapsed = s.clock.Now() - rep.startedAt
	rep.armed = false
	rep.Calls++
	s.mu.Unlock()
}
