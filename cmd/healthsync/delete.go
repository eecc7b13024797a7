// ABOUTME: CLI command for deleting health metrics.
// ABOUTME: Supports deletion by full ID or ID prefix.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/healthsync/internal/models"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a health metric",
	Long: `Delete a health metric by its ID or ID prefix.

You can use either the full UUID or just the first few characters
(prefix). The ID prefix is shown in the first column of 'healthsync
list' output.

EXAMPLES:

  healthsync delete abc12345                # Delete by 8-char prefix
  healthsync rm abc1                        # Short prefix (if unique)

CAUTION:

  This permanently deletes the metric. There is no undo.
  If the prefix matches multiple metrics, an error is returned.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idOrPrefix := args[0]

		// Look the metric up first to show what is being deleted
		metric, err := db.GetMetric(idOrPrefix)
		if err != nil {
			return fmt.Errorf("metric not found: %s", idOrPrefix)
		}

		if err := db.DeleteMetric(idOrPrefix); err != nil {
			return fmt.Errorf("failed to delete metric: %w", err)
		}

		color.Yellow("✗ Deleted %s", metric.Type)
		fmt.Printf("  %s %.2f %s\n",
			color.New(color.Faint).Sprint(models.ShortID(metric.ID)),
			metric.Value, metric.Unit)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
