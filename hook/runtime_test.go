package hook

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callscope/callscope/profiler"
)

type recorder struct {
	calls   []profiler.Frame
	returns []profiler.Frame
}

func (r *recorder) onCall(f profiler.Frame)   { r.calls = append(r.calls, f) }
func (r *recorder) onReturn(f profiler.Frame) { r.returns = append(r.returns, f) }

func instrumented(rt *Runtime) {
	defer rt.Trace()()
}

func TestTraceDeliversPairedEvents(t *testing.T) {
	rt := &Runtime{}
	rec := &recorder{}
	rt.Install(0, rec.onCall, rec.onReturn)

	instrumented(rt)

	require.Len(t, rec.calls, 1)
	require.Len(t, rec.returns, 1)
	assert.Equal(t, rec.calls[0].Title(), rec.returns[0].Title(),
		"call and return must carry identical metadata")
	assert.Contains(t, rec.calls[0].Name, "instrumented")
	assert.Contains(t, rec.calls[0].Source, "runtime_test.go")
	assert.Greater(t, rec.calls[0].Line, 0)
}

func TestTraceResolvesDefinitionSite(t *testing.T) {
	rt := &Runtime{}
	rec := &recorder{}
	rt.Install(0, rec.onCall, rec.onReturn)

	// Two invocations from different call sites must resolve to one
	// identity.
	instrumented(rt)
	instrumented(rt)

	require.Len(t, rec.calls, 2)
	assert.Equal(t, rec.calls[0].Title(), rec.calls[1].Title())
}

func TestEnterExitPair(t *testing.T) {
	rt := &Runtime{}
	rec := &recorder{}
	rt.Install(0, rec.onCall, rec.onReturn)

	rt.Enter()
	rt.Exit()

	require.Len(t, rec.calls, 1)
	require.Len(t, rec.returns, 1)
	assert.Equal(t, rec.calls[0].Title(), rec.returns[0].Title())
}

func TestSamplingDivisor(t *testing.T) {
	rt := &Runtime{}
	rec := &recorder{}
	rt.Install(2, rec.onCall, rec.onReturn)

	// 4 traces raise 8 events; every=2 delivers half of them.
	for i := 0; i < 4; i++ {
		instrumented(rt)
	}

	assert.Equal(t, 4, len(rec.calls)+len(rec.returns))
}

func TestZeroFrequencyDeliversEverything(t *testing.T) {
	rt := &Runtime{}
	rec := &recorder{}
	rt.Install(0, rec.onCall, rec.onReturn)

	for i := 0; i < 3; i++ {
		instrumented(rt)
	}

	assert.Equal(t, 6, len(rec.calls)+len(rec.returns))
}

func TestRemoveStopsDelivery(t *testing.T) {
	rt := &Runtime{}
	rec := &recorder{}
	rt.Install(0, rec.onCall, rec.onReturn)

	instrumented(rt)
	rt.Remove()
	instrumented(rt)

	assert.Len(t, rec.calls, 1)
	assert.Len(t, rec.returns, 1)
}

func TestUninstalledRuntimeIsInert(t *testing.T) {
	rt := &Runtime{}

	assert.NotPanics(t, func() {
		instrumented(rt)
		rt.Enter()
		rt.Exit()
	})
}

// Events dispatch synchronously on whichever goroutine runs the
// instrumented code, so several goroutines sharing one identity must not
// lose completions or trip the race detector.
func TestConcurrentInstrumentedGoroutines(t *testing.T) {
	rt := &Runtime{}
	session := profiler.NewSession(profiler.NewWallClock(), rt, zerolog.Nop())

	session.Start(profiler.ModeNormal)

	const goroutines = 4
	const iterations = 100
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				instrumented(rt)
			}
		}()
	}
	wg.Wait()
	session.Stop()

	reports := session.Reports()
	require.Len(t, reports, 1)
	assert.Equal(t, uint64(goroutines*iterations), reports[0].Calls)
}

// End to end: three balanced invocations through a real runtime and wall
// clock end up in the report file with an exact call count.
func TestEndToEndReportFile(t *testing.T) {
	rt := &Runtime{}
	session := profiler.NewSession(profiler.NewWallClock(), rt, zerolog.Nop())

	session.Start(profiler.ModeNormal)
	for i := 0; i < 3; i++ {
		instrumented(rt)
	}
	session.Stop()

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, session.WriteReport(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	row := lines[1]
	assert.Contains(t, row, "instrumented")
	assert.Contains(t, row, "0000003")

	reports := session.Reports()
	require.Len(t, reports, 1)
	assert.Equal(t, uint64(3), reports[0].Calls)
	assert.GreaterOrEqual(t, reports[0].Elapsed.Seconds(), 0.0)
}
