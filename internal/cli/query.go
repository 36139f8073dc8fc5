package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/callscope/callscope/internal/logging"
	"github.com/callscope/callscope/internal/storage"
	"github.com/callscope/callscope/profiler"
)

func newQueryCmd() *cobra.Command {
	var (
		dbPath string
		since  time.Duration
		sortBy string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query stored profile reports",
		Long: `Read report rows back from a DuckDB report history written with
'callscope demo --db' or storage.StoreReports.

Examples:
  # Everything from the last hour, slowest first
  callscope query --db reports.duckdb --since 1h

  # Most-called functions across all stored sessions
  callscope query --db reports.duckdb --sort count`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return fmt.Errorf("--db is required")
			}
			method, err := profiler.ParseSortMethod(sortBy)
			if err != nil {
				return err
			}

			logger := logging.New(logging.Config{Level: "warn", Pretty: true})
			store, err := storage.Open(dbPath, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var cutoff time.Time
			if since > 0 {
				cutoff = time.Now().Add(-since)
			}

			rows, err := store.QueryReports(context.Background(), cutoff, method)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				cmd.Println("No stored reports found")
				return nil
			}

			cmd.Printf("%-36s %-40s %6s %10s %8s\n", "SESSION", "FUNCTION", "LINE", "TIME", "CALLED")
			for _, row := range rows {
				cmd.Printf("%-36s %-40.40s %6d %9.3fs %8d\n",
					row.SessionID, row.Function, row.Line, row.Seconds, row.Calls)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB report history file")
	cmd.Flags().DurationVar(&since, "since", 0, "Only rows written within this window (0 = all)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Ordering: duration or count")

	return cmd
}
