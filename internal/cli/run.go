package cli

import (
	"github.com/spf13/cobra"

	"github.com/Kakaur/tensr-signal-agent/internal/app"
)

var (
	runProfiles []string
	runAll      bool
	runReport   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scoring pipeline and persist a batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.RunOptions{
			ProfilePaths:   runProfiles,
			RunAllProfiles: runAll,
			ReportPath:     runReport,
		}
		return getApp().RunPipeline(cmd.Context(), opts)
	},
}

func init() {
	runCmd.Flags().StringSliceVar(&runProfiles, "profile", nil, "Profile file to run (repeatable; defaults to the built-in profile)")
	runCmd.Flags().BoolVar(&runAll, "all-profiles", false, "Run every saved profile sequentially")
	runCmd.Flags().StringVar(&runReport, "report", "", "Scout report file (defaults to the most recent report)")
}
