package cli

import (
	"github.com/spf13/cobra"

	"github.com/Kakaur/tensr-signal-agent/internal/app"
)

var (
	exportPNGPath string
	exportCSVPath string
	exportMaxBars int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the latest batch as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			PNGPath: exportPNGPath,
			CSVPath: exportCSVPath,
			MaxBars: exportMaxBars,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG score chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxBars, "max-bars", 0, "Maximum bars in the chart (defaults to config)")
}
