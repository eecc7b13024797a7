// ABOUTME: CLI commands for the manual conflict queue.
// ABOUTME: Lists unresolved disagreements and resolves them in batch by strategy.
package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/healthsync/internal/conflict"
	"github.com/harperreed/healthsync/internal/models"
)

var (
	conflictsUser   string
	resolveStrategy string
)

var conflictsCmd = &cobra.Command{
	Use:     "conflicts",
	Aliases: []string{"c"},
	Short:   "Review and resolve multi-source conflicts",
	Long: `Review and resolve multi-source disagreements that no automatic rule
could settle.

During sync, records of the same type from different sources that land
close together in time but disagree in value are resolved by a ladder of
rules (source preference, temporal precedence, statistical agreement).
When none applies, a provisional winner is kept and the disagreement is
queued here for a human.

COMMANDS:

  list       Show the unresolved queue
  resolve    Resolve all queued conflicts with one strategy

STRATEGIES:

  local_wins     Keep the manually entered value
  cloud_wins     Keep the most reliable platform-sourced value
  latest_wins    Keep the most recent value`,
}

var conflictsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show unresolved conflicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := conflictsUser
		if userID == "" {
			userID = cfg.GetUserID()
		}

		conflicts, err := db.UnresolvedConflicts(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("failed to list conflicts: %w", err)
		}

		if len(conflicts) == 0 {
			fmt.Println("No unresolved conflicts.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, c := range conflicts {
			var values []string
			for _, m := range c.ConflictingMetrics {
				values = append(values, fmt.Sprintf("%.2f (%s)", m.Value, m.Source))
			}
			fmt.Printf("%s %s %s %s\n",
				faint.Sprint(models.ShortID(c.ID)),
				faint.Sprint(c.DetectedAt.Format("2006-01-02 15:04")),
				padRight(string(c.MetricType), 18),
				truncate(strings.Join(values, " vs "), 60))
		}

		return nil
	},
}

var conflictsResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve all queued conflicts with a strategy",
	Long: `Resolve every queued conflict with one strategy.

Conflicts the strategy cannot settle (for example local_wins with no
manual-entry member) stay queued and are reported as failures.

Examples:
  healthsync conflicts resolve --strategy local_wins
  healthsync conflicts resolve --strategy latest_wins`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !models.IsValidResolutionStrategy(resolveStrategy) {
			return fmt.Errorf("unknown strategy: %s (use local_wins, cloud_wins, or latest_wins)", resolveStrategy)
		}

		userID := conflictsUser
		if userID == "" {
			userID = cfg.GetUserID()
		}

		resolver := conflict.New(db, log.Default())
		result, err := resolver.ApplyStrategy(cmd.Context(), userID, models.ResolutionStrategy(resolveStrategy))
		if err != nil {
			return fmt.Errorf("failed to resolve conflicts: %w", err)
		}

		if result.Total == 0 {
			fmt.Println("No unresolved conflicts.")
			return nil
		}

		color.Green("✓ Resolved %d of %d conflict(s)", result.Resolved, result.Total)
		if result.Failed > 0 {
			color.Yellow("⚠ %d could not be resolved with %s:", result.Failed, resolveStrategy)
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", e)
			}
		}

		return nil
	},
}

func init() {
	conflictsResolveCmd.Flags().StringVar(&resolveStrategy, "strategy", "", "resolution strategy (required)")
	_ = conflictsResolveCmd.MarkFlagRequired("strategy")

	conflictsCmd.PersistentFlags().StringVar(&conflictsUser, "user", "", "user whose queue to act on (default from config)")
	conflictsCmd.AddCommand(conflictsListCmd)
	conflictsCmd.AddCommand(conflictsResolveCmd)
	rootCmd.AddCommand(conflictsCmd)
}
