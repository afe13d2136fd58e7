package cli

import (
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage saved pipeline profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListProfiles()
	},
}

var profilesSaveDefaultCmd = &cobra.Command{
	Use:   "save-default",
	Short: "Save the built-in default profile for editing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SaveDefaultProfile()
	},
}

func init() {
	profilesCmd.AddCommand(profilesSaveDefaultCmd)
}
