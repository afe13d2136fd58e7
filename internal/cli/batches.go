package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "Manage finalized pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Batches(cmd.Context())
	},
}

var batchesDeleteRunID string

var batchesDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one run and its signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchesDeleteRunID == "" {
			return errors.New("--run-id is required")
		}
		return getApp().DeleteBatch(cmd.Context(), batchesDeleteRunID)
	},
}

var batchesDeleteAllCmd = &cobra.Command{
	Use:   "delete-all",
	Short: "Delete every run and signal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().DeleteAllBatches(cmd.Context())
	},
}

func init() {
	batchesDeleteCmd.Flags().StringVar(&batchesDeleteRunID, "run-id", "", "Run UUID to delete")

	batchesCmd.AddCommand(batchesDeleteCmd)
	batchesCmd.AddCommand(batchesDeleteAllCmd)
}
