// ABOUTME: CLI command for listing health metrics.
// ABOUTME: Shows source and quality score alongside each record.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/healthsync/internal/models"
	"github.com/harperreed/healthsync/internal/prioritize"
)

var (
	listType  string
	listUser  string
	listLimit int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List health metrics",
	Long: `List recent health metrics from local storage.

OUTPUT FORMAT:

  Each line shows: ID  TIMESTAMP  TYPE  VALUE  UNIT  SOURCE  Q:SCORE

  The ID is an 8-character prefix you can use with delete.
  Q is the 0-100 source quality score for the record.

FILTERING:

  Use --type to filter by metric type:
    steps, calories_burned, exercise_duration, hydration, heart_rate,
    blood_pressure, blood_glucose, ecg, weight, body_fat, muscle_mass,
    sleep_duration, hrv, vo2_max, training_recovery, stress_score,
    biological_age, custom_habit, and the laboratory biomarkers
    (testosterone, cortisol, vitamin_d3, iron, hdl, hba1c, ...)

EXAMPLES:

  healthsync list                    # Show last 20 metrics (all types)
  healthsync list --type weight      # Show only weight entries
  healthsync list --user alice -n 50 # Show alice's last 50 entries
  healthsync list -t hrv             # Show HRV measurements`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var metricType *models.MetricType
		if listType != "" {
			if !models.IsValidMetricType(listType) {
				return fmt.Errorf("unknown metric type: %s", listType)
			}
			mt := models.MetricType(listType)
			metricType = &mt
		}

		var metrics []*models.HealthMetric
		var err error
		if listUser != "" {
			metrics, err = db.MetricsForUser(cmd.Context(), listUser)
			if err == nil {
				metrics = filterByType(metrics, metricType, listLimit)
			}
		} else {
			metrics, err = db.ListMetrics(metricType, listLimit)
		}
		if err != nil {
			return fmt.Errorf("failed to list metrics: %w", err)
		}

		if len(metrics) == 0 {
			fmt.Println("No metrics found.")
			return nil
		}

		prio := prioritize.New()
		faint := color.New(color.Faint)
		for _, m := range metrics {
			fmt.Printf("%s %s %s %.2f %s %s Q:%d\n",
				faint.Sprint(models.ShortID(m.ID)),
				faint.Sprint(m.Timestamp),
				padRight(string(m.Type), 18),
				m.Value,
				m.Unit,
				padRight(string(m.Source), 18),
				prio.QualityScore(m))
		}

		return nil
	},
}

func filterByType(metrics []*models.HealthMetric, metricType *models.MetricType, limit int) []*models.HealthMetric {
	var out []*models.HealthMetric
	for _, m := range metrics {
		if metricType != nil && m.Type != *metricType {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "filter by metric type")
	listCmd.Flags().StringVar(&listUser, "user", "", "filter by user")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "max number of results")
	rootCmd.AddCommand(listCmd)
}
