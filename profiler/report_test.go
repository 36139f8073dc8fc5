package profiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readReport(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestWriteReportHeaderOnly(t *testing.T) {
	s, _, _ := newTestSession(t)
	path := filepath.Join(t.TempDir(), "report.txt")

	require.NoError(t, s.WriteReport(path))

	lines := readReport(t, path)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "| FILE"))
	assert.Contains(t, lines[0], "FUNCTION")
	assert.Contains(t, lines[0], "LINE")
	assert.Contains(t, lines[0], "TIME")
	assert.Contains(t, lines[0], "CALLED")
}

func TestWriteReportRows(t *testing.T) {
	s, clock, inst := newTestSession(t)
	f := Frame{Name: "alpha", Source: "alpha.go", Line: 12}

	s.Start(ModeNormal)
	for i := 0; i < 5; i++ {
		inst.call(f)
		clock.advance(400 * time.Millisecond)
		inst.ret(f)
	}
	s.Stop()

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, s.WriteReport(path))

	lines := readReport(t, path)
	require.Len(t, lines, 2)

	row := lines[1]
	assert.Contains(t, row, "alpha.go")
	assert.Contains(t, row, "alpha")
	assert.Contains(t, row, "0012")
	assert.Contains(t, row, "0.400")
	assert.Contains(t, row, "0000005")
	assert.True(t, strings.HasPrefix(row, "| "))
	assert.True(t, strings.HasSuffix(row, "|"))
}

func TestWriteReportSortedOrder(t *testing.T) {
	s, clock, inst := newTestSession(t)
	slow := Frame{Name: "slow", Source: "s.go", Line: 1}
	fast := Frame{Name: "fast", Source: "f.go", Line: 2}

	s.Start(ModeNormal)
	inst.call(fast)
	clock.advance(time.Millisecond)
	inst.ret(fast)
	inst.call(slow)
	clock.advance(time.Second)
	inst.ret(slow)
	s.Stop()

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, s.WriteReport(path))

	lines := readReport(t, path)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "slow")
	assert.Contains(t, lines[2], "fast")
}

func TestWriteReportOverwritesPreviousFile(t *testing.T) {
	s, clock, inst := newTestSession(t)
	f := Frame{Name: "a", Source: "a.go", Line: 1}

	s.Start(ModeNormal)
	inst.call(f)
	clock.advance(time.Millisecond)
	inst.ret(f)
	s.Stop()

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, s.WriteReport(path))
	require.Len(t, readReport(t, path), 2)

	s.Reset()
	require.NoError(t, s.WriteReport(path))

	lines := readReport(t, path)
	assert.Len(t, lines, 1, "reset session rewrites a header-only file")
}

func TestWriteReportDefaultPath(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	s, _, _ := newTestSession(t)
	require.NoError(t, s.WriteReport(""))

	_, err = os.Stat(filepath.Join(dir, DefaultReportPath))
	assert.NoError(t, err)
}

func TestWriteReportErrorNamesPath(t *testing.T) {
	s, _, _ := newTestSession(t)
	path := filepath.Join(t.TempDir(), "missing", "nested", "report.txt")

	err := s.WriteReport(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
