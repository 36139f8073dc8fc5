package profiler

import (
	"fmt"
	"io"
	"os"
)

// DefaultReportPath is where WriteReport emits when given an empty path.
const DefaultReportPath = "ProFi.txt"

// Row layout mirrors the title columns plus two 20-wide value columns.
const (
	headerFormat = "| %-50.50s: %-40.40s: %-20.20s: %-20.20s: %-20.20s|\n"
	rowFormat    = "| %s: %-20.20s: %-20.20s|\n"
	timeFormat   = "%04.3f"
	countFormat  = "%07d"
)

// WriteReport writes the session's sorted records to path, replacing any
// previous file. A session that never observed an event writes only the
// header line. The file handle is released on every exit path.
func (s *Session) WriteReport(path string) error {
	if path == "" {
		path = DefaultReportPath
	}
	reports := s.Reports()

	s.mu.Lock()
	method := s.sortMethod
	s.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}

	err = writeRows(f, reports)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	s.logger.Info().
		Str("path", path).
		Int("functions", len(reports)).
		Str("sort", method.String()).
		Msg("Profile report written")
	return nil
}

func writeRows(w io.Writer, reports []*Report) error {
	if _, err := fmt.Fprintf(w, headerFormat, "FILE", "FUNCTION", "LINE", "TIME", "CALLED"); err != nil {
		return err
	}
	for _, rep := range reports {
		timer := fmt.Sprintf(timeFormat, rep.Elapsed.Seconds())
		called := fmt.Sprintf(countFormat, rep.Calls)
		if _, err := fmt.Fprintf(w, rowFormat, rep.Title, timer, called); err != nil {
			return err
		}
	}
	return nil
}
