// ABOUTME: Root Cobra command for healthsync CLI.
// ABOUTME: Loads configuration and opens local storage via PersistentPre/PostRunE.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harperreed/healthsync/internal/config"
	"github.com/harperreed/healthsync/internal/storage"
)

var (
	cfg *config.Config
	db  *storage.DB
)

var rootCmd = &cobra.Command{
	Use:   "healthsync",
	Short: "Multi-source health metric reconciliation",
	Long: `Healthsync reconciles health metrics from multiple platforms into one
trustworthy local record.

WHAT IT TRACKS:

  Activity       steps, calories_burned, exercise_duration, hydration
  Vitals         heart_rate, blood_pressure, blood_glucose, ecg
  Body           weight, body_fat, muscle_mass
  Sleep          sleep_duration
  Recovery       hrv, vo2_max, training_recovery, stress_score, biological_age
  Biomarkers     testosterone, cortisol, vitamin_d3, iron, hdl, hba1c, ...
  Custom         custom_habit

QUICK START:

  $ healthsync add weight 82.5              # Record your weight
  $ healthsync add hrv 48 --source wearable_primary
  $ healthsync list                         # See recent metrics
  $ healthsync sync                         # Reconcile all configured platforms
  $ healthsync conflicts list               # Review unresolved disagreements

SYNC:

  Sync pulls from every configured platform in parallel, validates each
  record, deduplicates near-duplicates by source reliability, resolves
  cross-source conflicts, and persists the winners locally. Disagreements
  no rule can settle are queued for you:

  $ healthsync sync                               # Last 30 days, all types
  $ healthsync sync --types weight,steps          # Targeted sync with delta report
  $ healthsync conflicts resolve --strategy local_wins

  Platforms are JSON fixture files listed under provider_fixtures in the
  config. Cloud sync via Charm is enabled with cloud_sync: true.

MCP INTEGRATION:

  Run 'healthsync mcp' to start the Model Context Protocol server for use
  with Claude Desktop or other MCP-compatible AI assistants:

  {
    "mcpServers": {
      "healthsync": { "command": "healthsync", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Metrics and the conflict queue live in SQLite at
  ~/.local/share/healthsync/healthsync.db. Config is read from
  ~/.config/healthsync/config.json.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip storage setup for commands that don't need it
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		dbPath := filepath.Join(cfg.GetDataDir(), "healthsync.db")
		db, err = storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db != nil {
			return db.Close()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
