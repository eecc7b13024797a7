// ABOUTME: CLI command running the full reconciliation pipeline.
// ABOUTME: Builds providers from config fixtures and renders the sync report.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/healthsync/internal/cloud"
	"github.com/harperreed/healthsync/internal/config"
	"github.com/harperreed/healthsync/internal/conflict"
	"github.com/harperreed/healthsync/internal/models"
	"github.com/harperreed/healthsync/internal/provider"
	"github.com/harperreed/healthsync/internal/syncer"
)

var (
	syncDays  int
	syncTypes []string
	syncUser  string
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Reconcile health data from all configured platforms",
	Long: `Pull health data from every configured platform, reconcile it against
local records, and push the merged result to the cloud.

Each platform is fetched in parallel; one failing platform never blocks
the others. Fetched records are validated, deduplicated by source
reliability, and cross-source disagreements are resolved automatically
where a rule applies. Disagreements no rule can settle are queued:
review them with 'healthsync conflicts list'.

PLATFORMS:

  Platforms are JSON fixture files listed in the config:

  {
    "provider_fixtures": ["~/health/wearable.json", "~/health/lab.json"],
    "cloud_sync": true
  }

EXAMPLES:

  healthsync sync                         # Last 30 days, all types
  healthsync sync --days 7                # Just the last week
  healthsync sync --types weight,steps    # Targeted sync with delta report
  healthsync sync --user alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cloudClient, err := buildOrchestrator()
		if err != nil {
			return err
		}
		if cloudClient != nil {
			defer cloudClient.Close()
		}

		userID := syncUser
		if userID == "" {
			userID = cfg.GetUserID()
		}

		start, end := syncRange()

		if len(syncTypes) > 0 {
			types, err := parseMetricTypes(syncTypes)
			if err != nil {
				return err
			}
			result, deltas := orch.ForceSyncForMetricTypes(cmd.Context(), userID, types, start, end)
			renderSyncResult(result)
			renderDeltas(deltas)
			return nil
		}

		result := orch.PerformBidirectionalSync(cmd.Context(), userID, start, end)
		renderSyncResult(result)
		return nil
	},
}

// buildOrchestrator assembles the sync pipeline from config: file providers,
// local storage, the conflict resolver, and optionally the cloud transport.
func buildOrchestrator() (*syncer.Orchestrator, *cloud.Client, error) {
	var providers []syncer.Provider
	for _, path := range cfg.ProviderFixtures {
		p, err := provider.NewFileProvider(config.ExpandPath(path))
		if err != nil {
			color.Yellow("⚠ Skipping provider %s: %v", path, err)
			continue
		}
		providers = append(providers, p)
	}

	scfg := syncer.Config{
		Providers:    providers,
		Store:        db,
		Resolver:     conflict.New(db, log.Default()),
		Logger:       log.Default(),
		FetchTimeout: cfg.GetFetchTimeout(),
		BatchSize:    cfg.SyncBatchSize,
	}

	var cloudClient *cloud.Client
	if cfg.CloudSync {
		var err error
		cloudClient, err = cloud.InitClient()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize cloud transport: %w", err)
		}
		scfg.Cloud = cloudClient
		scfg.Cache = cloudClient
	}

	return syncer.New(scfg), cloudClient, nil
}

func syncRange() (time.Time, time.Time) {
	if syncDays > 0 {
		end := time.Now()
		return end.AddDate(0, 0, -syncDays), end
	}
	return cfg.GetSyncRange()
}

func parseMetricTypes(raw []string) ([]models.MetricType, error) {
	var types []models.MetricType
	for _, entry := range raw {
		for _, s := range strings.Split(entry, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if !models.IsValidMetricType(s) {
				return nil, fmt.Errorf("unknown metric type: %s", s)
			}
			types = append(types, models.MetricType(s))
		}
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("no metric types given")
	}
	return types, nil
}

func renderSyncResult(result *models.SyncResult) {
	switch result.Outcome {
	case models.SyncSuccess:
		color.Green("✓ Sync complete")
	case models.SyncPartial:
		color.Yellow("⚠ Sync partial")
	default:
		color.Red("✗ Sync failed")
	}
	fmt.Printf("  %s\n", result.Summary)

	faint := color.New(color.Faint)
	for _, ps := range result.PlatformStatuses {
		marker := color.GreenString("✓")
		detail := fmt.Sprintf("%d metrics", ps.MetricCount)
		if ps.State != models.SyncStateSynced {
			marker = color.RedString("✗")
			detail = ps.ErrorMessage
		}
		fmt.Printf("  %s %s %s\n", marker, padRight(ps.Platform, 20), faint.Sprint(detail))
	}

	if result.CloudSync.Status != "" {
		fmt.Printf("  cloud: %s", result.CloudSync.Status)
		if result.CloudSync.Message != "" {
			fmt.Printf(" (%s)", faint.Sprint(result.CloudSync.Message))
		}
		fmt.Println()
	}

	if len(result.CloudSync.ConflictIDs) > 0 {
		color.Yellow("  %d conflict(s) queued for review: healthsync conflicts list", len(result.CloudSync.ConflictIDs))
	}
	for _, e := range result.Errors {
		color.Red("  ✗ %s", e)
	}
}

func renderDeltas(deltas map[models.MetricType]int) {
	fmt.Println("\nNew records by type:")
	for mt, n := range deltas {
		fmt.Printf("  %s %+d\n", padRight(string(mt), 18), n)
	}
}

func init() {
	syncCmd.Flags().IntVar(&syncDays, "days", 0, "how many days back to sync (default from config, 30)")
	syncCmd.Flags().StringSliceVar(&syncTypes, "types", nil, "sync only these metric types and report per-type deltas")
	syncCmd.Flags().StringVar(&syncUser, "user", "", "user to sync (default from config)")
	rootCmd.AddCommand(syncCmd)
}
