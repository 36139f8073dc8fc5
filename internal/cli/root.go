// Package cli wires the callscope command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "callscope",
	Short: "callscope - deterministic call-graph profiler",
	Long: `callscope times instrumented function calls deterministically and emits
a sorted fixed-width text report.

Unlike statistical profilers it counts and times every delivered
call/return event, so call counts in the report are exact. Instrument a
function by adding a single line at its top:

	defer hook.Trace()()

then run it under a profiling session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newDemoCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("callscope version %s\n", Version)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
