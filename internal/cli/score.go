package cli

import (
	"github.com/spf13/cobra"

	"github.com/Kakaur/tensr-signal-agent/internal/app"
)

var (
	scoreReport  string
	scoreProfile string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a scout report without writing to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ScoreOptions{
			ReportPath:  scoreReport,
			ProfilePath: scoreProfile,
		}
		return getApp().Score(cmd.Context(), opts)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreReport, "report", "", "Scout report file (defaults to the most recent report)")
	scoreCmd.Flags().StringVar(&scoreProfile, "profile", "", "Profile file (defaults to the built-in profile)")
}
