// ABOUTME: CLI command for recording health metrics by hand.
// ABOUTME: Manual entries pass through the same validator as provider data.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/healthsync/internal/models"
	"github.com/harperreed/healthsync/internal/validate"
)

var (
	addAt     string
	addSource string
	addUser   string
)

var addCmd = &cobra.Command{
	Use:     "add <type> <value>",
	Aliases: []string{"a"},
	Short:   "Record a health metric",
	Long: `Record a health metric. The record is validated and sanitized exactly
like provider data, so implausible values are rejected and the shown
confidence reflects any warnings.

Examples:
  healthsync add weight 82.5
  healthsync add hrv 48 --at "2024-12-14 07:00" --source wearable_primary
  healthsync add cortisol 310 --source lab_test
  healthsync add steps 10000 --user alice`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		metricType := args[0]

		if !models.IsValidMetricType(metricType) {
			return fmt.Errorf("unknown metric type: %s\nRun 'healthsync list --help' for the full catalog", metricType)
		}

		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value: %s", args[1])
		}

		source := models.SourceManualEntry
		if addSource != "" {
			if !models.IsValidSource(addSource) {
				return fmt.Errorf("unknown source: %s\nValid sources: manual_entry, lab_test, wearable_primary, wearable_secondary, aggregator, custom", addSource)
			}
			source = models.Source(addSource)
		}

		userID := addUser
		if userID == "" {
			userID = cfg.GetUserID()
		}

		m := models.NewHealthMetric(userID, models.MetricType(metricType), value, source)

		// Handle --at flag
		if addAt != "" {
			t, err := parseTime(addAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", addAt)
			}
			m.WithTimestamp(t)
		}

		v := validate.New()
		result := v.Validate(m)
		if !result.Valid {
			return fmt.Errorf("metric rejected: %s", strings.Join(result.Errors, "; "))
		}

		m = v.Sanitize(m)
		m.Confidence = result.Confidence

		if err := db.UpsertMetric(cmd.Context(), m); err != nil {
			return fmt.Errorf("failed to save metric: %w", err)
		}

		color.Green("✓ Added %s", metricType)
		fmt.Printf("  %s %.2f %s (confidence %.2f)\n",
			color.New(color.Faint).Sprint(models.ShortID(m.ID)),
			m.Value, m.Unit, m.Confidence)

		for _, w := range result.Warnings {
			color.Yellow("  ⚠ %s", w)
		}

		return nil
	},
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func init() {
	addCmd.Flags().StringVar(&addAt, "at", "", "timestamp (YYYY-MM-DD HH:MM)")
	addCmd.Flags().StringVar(&addSource, "source", "", "data source (default manual_entry)")
	addCmd.Flags().StringVar(&addUser, "user", "", "owner of the metric (default from config)")
	rootCmd.AddCommand(addCmd)
}
