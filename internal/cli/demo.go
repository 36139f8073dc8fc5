package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/callscope/callscope/hook"
	"github.com/callscope/callscope/internal/config"
	"github.com/callscope/callscope/internal/logging"
	"github.com/callscope/callscope/internal/storage"
	"github.com/callscope/callscope/profiler"
)

func newDemoCmd() *cobra.Command {
	var (
		configPath string
		output     string
		sortBy     string
		frequency  int
		once       bool
		dbPath     string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Profile a built-in workload and write a report",
		Long: `Run a small instrumented workload under a profiling session and write
the sorted report file. Useful for verifying instrumentation and as a
reference for wiring the library into your own program.

Examples:
  # Write ProFi.txt sorted by total duration
  callscope demo

  # Sort by call count, sample every 2nd event
  callscope demo --sort count --frequency 2

  # Keep a history of reports in DuckDB
  callscope demo --db reports.duckdb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Report.Path = output
			}
			if sortBy != "" {
				cfg.Report.Sort = sortBy
			}
			if cmd.Flags().Changed("frequency") {
				cfg.Hook.Frequency = frequency
			}
			if dbPath != "" {
				cfg.Storage.Path = dbPath
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.New(logging.Config{
				Level:  cfg.Log.Level,
				Pretty: cfg.Log.Pretty,
			})

			session := profiler.NewSession(profiler.NewWallClock(), hook.Default, logger)
			session.SetHookFrequency(cfg.Hook.Frequency)
			session.SetSortMethod(cfg.SortMethod())

			mode := profiler.ModeNormal
			if once {
				mode = profiler.ModeOnce
			}

			session.Start(mode)
			runWorkload()
			session.Stop()

			if err := session.WriteReport(cfg.Report.Path); err != nil {
				return err
			}
			cmd.Printf("Report written to %s\n", cfg.Report.Path)

			if cfg.Storage.Path != "" {
				store, err := storage.Open(cfg.Storage.Path, logger)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()

				err = store.StoreReports(context.Background(), session.ID(), time.Now(), session.Reports())
				if err != nil {
					return err
				}
				cmd.Printf("Reports stored in %s (session %s)\n", cfg.Storage.Path, session.ID())
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (default ~/.callscope/config.yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", fmt.Sprintf("Report file path (default %q)", profiler.DefaultReportPath))
	cmd.Flags().StringVar(&sortBy, "sort", "", "Report ordering: duration or count")
	cmd.Flags().IntVar(&frequency, "frequency", 0, "Sampling divisor: 0 = every event, N = every Nth")
	cmd.Flags().BoolVar(&once, "once", false, "Arm the run-once guard")
	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB file to store the report history in")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	return cmd
}

// runWorkload exercises a few instrumented functions with distinct shapes
// so the report has something to say.
func runWorkload() {
	for i := 0; i < 3; i++ {
		spinFor(2 * time.Millisecond)
	}
	for i := 0; i < 25; i++ {
		fibonacci(12)
	}
	napFor(5 * time.Millisecond)
}

func spinFor(d time.Duration) {
	defer hook.Trace()()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

func fibonacci(n int) int {
	defer hook.Trace()()
	a, b := 0, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a
}

func napFor(d time.Duration) {
	defer hook.Trace()()
	time.Sleep(d)
}
