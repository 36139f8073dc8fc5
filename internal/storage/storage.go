// Package storage persists written profile reports to a local DuckDB
// database so past sessions can be queried after the fact.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb" // registers the duckdb driver
	"github.com/rs/zerolog"

	"github.com/callscope/callscope/profiler"
)

// Storage handles local persistence of profile report rows.
type Storage struct {
	db     *sql.DB
	logger zerolog.Logger
	mu     sync.Mutex
}

// ReportRow is one persisted function record of one session.
type ReportRow struct {
	SessionID string
	WrittenAt time.Time
	Source    string
	Function  string
	Line      int
	Seconds   float64
	Calls     int64
}

// New creates a report storage on db and initializes its schema.
func New(db *sql.DB, logger zerolog.Logger) (*Storage, error) {
	s := &Storage{
		db:     db,
		logger: logger.With().Str("component", "report_storage").Logger(),
	}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Open opens (or creates) the DuckDB database at path and wraps it in a
// Storage. An empty path opens an in-memory database.
func Open(path string, logger zerolog.Logger) (*Storage, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	s, err := New(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	// No secondary index on written_at: DuckDB rejects DO UPDATE
	// assignments to indexed columns, and the upsert below rewrites
	// written_at on every re-store.
	schema := `
		CREATE TABLE IF NOT EXISTS profile_reports (
			session_id TEXT      NOT NULL,
			written_at TIMESTAMP NOT NULL,
			source     TEXT      NOT NULL,
			function   TEXT      NOT NULL,
			line       INTEGER   NOT NULL,
			seconds    DOUBLE    NOT NULL,
			calls      BIGINT    NOT NULL,
			PRIMARY KEY (session_id, source, function, line)
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	s.logger.Debug().Msg("Report storage schema initialized")
	return nil
}

// StoreReports persists one session's records in a single transaction.
// Re-storing a session upserts its rows.
func (s *Storage) StoreReports(ctx context.Context, sessionID uuid.UUID, writtenAt time.Time, reports []*profiler.Report) error {
	if len(reports) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO profile_reports (
			session_id, written_at, source, function, line, seconds, calls
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, source, function, line) DO UPDATE SET
			written_at = EXCLUDED.written_at,
			seconds = EXCLUDED.seconds,
			calls = EXCLUDED.calls
	`

	for _, rep := range reports {
		_, err := tx.ExecContext(ctx, query,
			sessionID.String(),
			writtenAt,
			rep.Frame.Source,
			rep.Frame.Name,
			rep.Frame.Line,
			rep.Elapsed.Seconds(),
			int64(rep.Calls),
		)
		if err != nil {
			return fmt.Errorf("store report for %s: %w", rep.Frame.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info().
		Str("session_id", sessionID.String()).
		Int("reports", len(reports)).
		Msg("Stored profile reports")
	return nil
}

// QueryReports retrieves rows written at or after since, ordered by the
// given sort method. A zero since returns everything.
func (s *Storage) QueryReports(ctx context.Context, since time.Time, method profiler.SortMethod) ([]ReportRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := "seconds DESC"
	if method == profiler.SortByCalls {
		order = "calls DESC"
	}

	// order is one of two fixed literals, not user input.
	query := fmt.Sprintf(`
		SELECT session_id, written_at, source, function, line, seconds, calls
		FROM profile_reports
		WHERE written_at >= ?
		ORDER BY %s
	`, order)

	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ReportRow
	for rows.Next() {
		var row ReportRow
		if err := rows.Scan(
			&row.SessionID,
			&row.WrittenAt,
			&row.Source,
			&row.Function,
			&row.Line,
			&row.Seconds,
			&row.Calls,
		); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}

	return out, nil
}

// CleanupOldReports removes rows written before the retention cutoff.
func (s *Storage) CleanupOldReports(ctx context.Context, retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-retention)
	result, err := s.db.ExecContext(ctx, `DELETE FROM profile_reports WHERE written_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup old reports: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		s.logger.Debug().
			Int64("rows_deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Cleaned up old profile reports")
	}
	return nil
}
