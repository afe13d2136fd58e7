package cli

import (
	"github.com/spf13/cobra"

	"github.com/Kakaur/tensr-signal-agent/internal/app"
)

var (
	showRegion  string
	showDomains []string
	showTiers   []string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the latest batch of scored signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ShowOptions{
			Region:  showRegion,
			Domains: showDomains,
			Tiers:   showTiers,
		}
		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showRegion, "region", "", "Filter by region")
	showCmd.Flags().StringSliceVar(&showDomains, "domain", nil, "Filter by domain (repeatable)")
	showCmd.Flags().StringSliceVar(&showTiers, "tier", nil, "Filter by tier (HOT, WARM, NURTURE, HOLD)")
}
