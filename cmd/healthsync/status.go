// ABOUTME: CLI command showing local and cloud sync state.
// ABOUTME: Reports metric counts, provider availability, data gaps, and the pending upload queue.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/healthsync/internal/cloud"
	"github.com/harperreed/healthsync/internal/config"
	"github.com/harperreed/healthsync/internal/models"
	"github.com/harperreed/healthsync/internal/prioritize"
	"github.com/harperreed/healthsync/internal/provider"
)

// everydayMetrics are the types a daily-wear setup is expected to cover;
// missing ones are reported as data gaps.
var everydayMetrics = []models.MetricType{
	models.MetricSteps,
	models.MetricSleepDuration,
	models.MetricWeight,
	models.MetricHeartRate,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Long: `Show current sync status including:
- Local metric and conflict-queue counts
- Configured provider availability
- Data gaps against the everyday metric set
- Cloud account info and pending upload queue (when cloud_sync is enabled)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		userID := cfg.GetUserID()

		metrics, err := db.MetricsForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load metrics: %w", err)
		}
		unresolved, err := db.CountUnresolvedConflicts(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to count conflicts: %w", err)
		}

		fmt.Printf("Local metrics: %d\n", len(metrics))
		if unresolved > 0 {
			color.Yellow("Unresolved conflicts: %d (healthsync conflicts list)", unresolved)
		} else {
			fmt.Println("Unresolved conflicts: 0")
		}

		if gaps := prioritize.New().DataGaps(metrics, everydayMetrics); len(gaps) > 0 {
			names := make([]string, len(gaps))
			for i, mt := range gaps {
				names[i] = string(mt)
			}
			color.Yellow("Data gaps: %s", strings.Join(names, ", "))
		}

		if len(cfg.ProviderFixtures) > 0 {
			fmt.Println("\nProviders:")
			for _, path := range cfg.ProviderFixtures {
				printProviderStatus(cmd, path)
			}
		}

		if !cfg.CloudSync {
			fmt.Println("\nCloud sync is disabled. Enable it with cloud_sync: true in the config.")
			return nil
		}

		client, err := cloud.InitClient()
		if err != nil {
			color.Yellow("\n⚠ Cloud transport unavailable: %v", err)
			return nil
		}
		defer client.Close()

		id, err := client.ID()
		if err != nil {
			color.Yellow("\nNot linked to Charm. Run 'charm link' to connect.")
			return nil
		}

		fmt.Println("\nCharm ID:", id)

		syncStatus, err := client.SyncStatus()
		if err != nil {
			return fmt.Errorf("failed to read sync status: %w", err)
		}

		color.Green("✓ Connected to cloud")
		fmt.Printf("  Pending uploads: %d\n", syncStatus.PendingUploads)
		fmt.Printf("  Failed: %d\n", syncStatus.Failed)

		return nil
	},
}

func printProviderStatus(cmd *cobra.Command, path string) {
	p, err := provider.NewFileProvider(config.ExpandPath(path))
	if err != nil {
		color.Yellow("  ✗ %s: %v", path, err)
		return
	}
	switch {
	case !p.Available(cmd.Context()):
		color.Yellow("  ✗ %s: unavailable", p.Name())
	case !p.Authenticated(cmd.Context()):
		color.Yellow("  ✗ %s: not authenticated", p.Name())
	default:
		color.Green("  ✓ %s: ready", p.Name())
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
