// ABOUTME: Tests for CLI helper functions and command execution.
// ABOUTME: Commands run against a temp database via XDG env redirection.
package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/healthsync/internal/models"
	"github.com/harperreed/healthsync/internal/storage"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "date and time with space",
			input:   "2025-01-31 08:30",
			wantErr: false,
		},
		{
			name:    "date and time with T",
			input:   "2025-01-31T08:30",
			wantErr: false,
		},
		{
			name:    "date only",
			input:   "2025-01-31",
			wantErr: false,
		},
		{
			name:    "RFC3339",
			input:   "2025-01-31T08:30:00Z",
			wantErr: false,
		},
		{
			name:    "invalid format",
			input:   "31-01-2025",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseTime(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTime(%q) expected error, got nil", tt.input)
				}
				return
			}

			if err != nil {
				t.Errorf("parseTime(%q) unexpected error: %v", tt.input, err)
				return
			}

			if result.IsZero() {
				t.Errorf("parseTime(%q) returned zero time", tt.input)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{
			name:   "short string no truncation",
			input:  "hello",
			maxLen: 10,
			want:   "hello",
		},
		{
			name:   "needs truncation",
			input:  "hello world this is a long string",
			maxLen: 10,
			want:   "hello w...",
		},
		{
			name:   "empty string",
			input:  "",
			maxLen: 10,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		length int
		want   string
	}{
		{
			name:   "needs padding",
			input:  "hi",
			length: 5,
			want:   "hi   ",
		},
		{
			name:   "longer than length",
			input:  "hello world",
			length: 5,
			want:   "hello world",
		},
		{
			name:   "empty string",
			input:  "",
			length: 5,
			want:   "     ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := padRight(tt.input, tt.length)
			if got != tt.want {
				t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.want)
			}
		})
	}
}

func TestRootCmdFlags(t *testing.T) {
	if rootCmd.Use != "healthsync" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "healthsync")
	}

	if rootCmd.Short == "" {
		t.Error("Expected rootCmd.Short to be non-empty")
	}
}

func TestAddCmdFlags(t *testing.T) {
	for _, name := range []string{"at", "source", "user"} {
		if addCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected --%s flag on add command", name)
		}
	}
}

func TestListCmdFlags(t *testing.T) {
	for _, name := range []string{"type", "user", "limit"} {
		if listCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected --%s flag on list command", name)
		}
	}

	limitFlag := listCmd.Flags().Lookup("limit")
	if limitFlag.DefValue != "20" {
		t.Errorf("Expected default limit 20, got %s", limitFlag.DefValue)
	}
}

func TestSyncCmdFlags(t *testing.T) {
	for _, name := range []string{"days", "types", "user"} {
		if syncCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected --%s flag on sync command", name)
		}
	}
}

func TestConflictsCmdSubcommands(t *testing.T) {
	subcommands := conflictsCmd.Commands()
	expected := []string{"list", "resolve"}

	cmdNames := make(map[string]bool)
	for _, cmd := range subcommands {
		cmdNames[cmd.Name()] = true
	}

	for _, name := range expected {
		if !cmdNames[name] {
			t.Errorf("Expected conflicts subcommand %q not found", name)
		}
	}
}

func TestExportCmdValidArgs(t *testing.T) {
	validArgs := exportCmd.ValidArgs
	expected := map[string]bool{"json": false, "yaml": false}

	for _, arg := range validArgs {
		if _, ok := expected[arg]; ok {
			expected[arg] = true
		}
	}

	for arg, found := range expected {
		if !found {
			t.Errorf("Expected valid arg %q for exportCmd", arg)
		}
	}
}

func TestRegisteredCommands(t *testing.T) {
	expected := []string{"add", "list", "sync", "conflicts", "delete", "export", "import", "status", "mcp"}

	cmdNames := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdNames[cmd.Name()] = true
	}

	for _, name := range expected {
		if !cmdNames[name] {
			t.Errorf("Expected command %q to be registered", name)
		}
	}
}

func TestParseMetricTypes(t *testing.T) {
	types, err := parseMetricTypes([]string{"weight,steps", "hrv"})
	if err != nil {
		t.Fatalf("parseMetricTypes failed: %v", err)
	}
	if len(types) != 3 {
		t.Errorf("Expected 3 types, got %d", len(types))
	}

	if _, err := parseMetricTypes([]string{"nonsense"}); err == nil {
		t.Error("Expected error for unknown metric type")
	}

	if _, err := parseMetricTypes([]string{""}); err == nil {
		t.Error("Expected error for empty type list")
	}
}

// setupTestCLI redirects config and data paths to temp directories so
// commands run against a fresh database.
func setupTestCLI(t *testing.T) *storage.DB {
	t.Helper()

	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// Pre-open the database to create the schema
	testDB, err := storage.OpenDefault()
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if db != nil {
			db.Close()
			db = nil
		}
		testDB.Close()
	})

	// Reset global flags between runs
	addAt = ""
	addSource = ""
	addUser = ""
	listType = ""
	listUser = ""
	listLimit = 20
	syncDays = 0
	syncTypes = nil
	syncUser = ""
	conflictsUser = ""
	exportOutput = ""

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})

	return testDB
}

func TestAddCmdWithDB(t *testing.T) {
	testDB := setupTestCLI(t)

	rootCmd.SetArgs([]string{"add", "weight", "82.5"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("add command failed: %v", err)
	}

	metrics, err := testDB.ListMetrics(nil, 0)
	if err != nil {
		t.Fatalf("ListMetrics failed: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("Expected 1 metric, got %d", len(metrics))
	}
	if metrics[0].Value != 82.5 {
		t.Errorf("Expected value 82.5, got %f", metrics[0].Value)
	}
	if metrics[0].Source != models.SourceManualEntry {
		t.Errorf("Expected manual_entry source, got %s", metrics[0].Source)
	}
	if metrics[0].Confidence <= 0 {
		t.Error("Expected confidence to be set")
	}
}

func TestAddCmdWithSource(t *testing.T) {
	testDB := setupTestCLI(t)

	rootCmd.SetArgs([]string{"add", "cortisol", "310", "--source", "lab_test"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("add command with source failed: %v", err)
	}

	metrics, err := testDB.ListMetrics(nil, 0)
	if err != nil {
		t.Fatalf("ListMetrics failed: %v", err)
	}
	if len(metrics) != 1 || metrics[0].Source != models.SourceLabTest {
		t.Errorf("Expected 1 lab_test metric, got %v", metrics)
	}
}

func TestAddCmdInvalidType(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"add", "invalid_type", "100"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for invalid metric type")
	}
}

func TestAddCmdInvalidValue(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"add", "weight", "not_a_number"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for invalid value")
	}
}

func TestAddCmdInvalidSource(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"add", "weight", "82.5", "--source", "psychic"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for invalid source")
	}
}

func TestAddCmdInvalidTimestamp(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"add", "weight", "82.5", "--at", "invalid-date"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for invalid timestamp")
	}
}

func TestAddCmdRejectsImplausibleValue(t *testing.T) {
	setupTestCLI(t)

	// Heart rate of 500 bpm from an unreliable source is a hard failure
	rootCmd.SetArgs([]string{"add", "heart_rate", "500", "--source", "aggregator"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for implausible value")
	}
}

func TestListCmdWithDB(t *testing.T) {
	testDB := setupTestCLI(t)

	m := models.NewHealthMetric("default", models.MetricWeight, 82.5, models.SourceManualEntry)
	if err := testDB.UpsertMetric(context.Background(), m); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"list"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("list command failed: %v", err)
	}
}

func TestListCmdWithTypeFilter(t *testing.T) {
	testDB := setupTestCLI(t)

	m1 := models.NewHealthMetric("default", models.MetricWeight, 82.5, models.SourceManualEntry)
	m2 := models.NewHealthMetric("default", models.MetricSteps, 10000, models.SourceAggregator)
	testDB.UpsertMetric(context.Background(), m1)
	testDB.UpsertMetric(context.Background(), m2)

	rootCmd.SetArgs([]string{"list", "--type", "weight"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("list command with type filter failed: %v", err)
	}
}

func TestListCmdInvalidType(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"list", "--type", "invalid_type"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for invalid type filter")
	}
}

func TestListCmdEmptyDB(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"list"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("list command on empty DB failed: %v", err)
	}
}

func TestDeleteCmdWithDB(t *testing.T) {
	testDB := setupTestCLI(t)

	m := models.NewHealthMetric("default", models.MetricWeight, 82.5, models.SourceManualEntry)
	if err := testDB.UpsertMetric(context.Background(), m); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"delete", m.ID[:8]})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("delete command failed: %v", err)
	}

	if _, err := testDB.GetMetric(m.ID); err == nil {
		t.Error("Expected metric to be deleted")
	}
}

func TestDeleteCmdNotFound(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"delete", "nonexistent"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for non-existent metric")
	}
}

func TestSyncCmdNoProviders(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"sync"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("sync with no providers failed: %v", err)
	}
}

func TestSyncCmdWithFixtureProvider(t *testing.T) {
	testDB := setupTestCLI(t)

	ts := models.FormatTimestamp(time.Now().Add(-24 * time.Hour))
	fixture := `{
		"name": "wearable",
		"available": true,
		"authenticated": true,
		"records": [
			{
				"id": "11111111-1111-1111-1111-111111111111",
				"user_id": "default",
				"type": "steps",
				"value": 9500,
				"unit": "steps",
				"timestamp": "` + ts + `",
				"source": "wearable_primary"
			}
		]
	}`
	fixturePath := filepath.Join(t.TempDir(), "wearable.json")
	if err := os.WriteFile(fixturePath, []byte(fixture), 0600); err != nil {
		t.Fatal(err)
	}

	configDir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "healthsync")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatal(err)
	}
	configJSON := `{"provider_fixtures": ["` + fixturePath + `"]}`
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(configJSON), 0600); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"sync"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("sync with fixture provider failed: %v", err)
	}

	metrics, err := testDB.ListMetrics(nil, 0)
	if err != nil {
		t.Fatalf("ListMetrics failed: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("Expected 1 synced metric, got %d", len(metrics))
	}
	if metrics[0].Type != models.MetricSteps || metrics[0].Value != 9500 {
		t.Errorf("Unexpected synced metric: %+v", metrics[0])
	}
}

func TestSyncCmdInvalidTypes(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"sync", "--types", "nonsense"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for unknown metric type")
	}
}

func TestConflictsListEmpty(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"conflicts", "list"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("conflicts list on empty queue failed: %v", err)
	}
}

func TestConflictsResolveWithDB(t *testing.T) {
	testDB := setupTestCLI(t)

	manual := models.NewHealthMetric("default", models.MetricCustomHabit, 3, models.SourceManualEntry)
	device := models.NewHealthMetric("default", models.MetricCustomHabit, 9, models.SourceWearablePrimary)
	c := models.NewConflict("default", models.MetricCustomHabit, []*models.HealthMetric{manual, device})
	if err := testDB.SaveConflict(context.Background(), c); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"conflicts", "resolve", "--strategy", "local_wins"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("conflicts resolve failed: %v", err)
	}

	n, err := testDB.CountUnresolvedConflicts(context.Background(), "default")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Expected 0 unresolved conflicts after resolve, got %d", n)
	}
}

func TestConflictsResolveInvalidStrategy(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"conflicts", "resolve", "--strategy", "nonsense"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for invalid strategy")
	}
}

func TestExportJSONCmdWithDB(t *testing.T) {
	testDB := setupTestCLI(t)

	m := models.NewHealthMetric("default", models.MetricWeight, 82.5, models.SourceManualEntry)
	testDB.UpsertMetric(context.Background(), m)

	rootCmd.SetArgs([]string{"export", "json"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("export json command failed: %v", err)
	}
}

func TestExportYAMLCmdWithDB(t *testing.T) {
	testDB := setupTestCLI(t)

	m := models.NewHealthMetric("default", models.MetricWeight, 82.5, models.SourceManualEntry)
	testDB.UpsertMetric(context.Background(), m)

	rootCmd.SetArgs([]string{"export", "yaml"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("export yaml command failed: %v", err)
	}
}

func TestExportToFile(t *testing.T) {
	testDB := setupTestCLI(t)

	m := models.NewHealthMetric("default", models.MetricWeight, 82.5, models.SourceManualEntry)
	testDB.UpsertMetric(context.Background(), m)

	tmpFile := filepath.Join(t.TempDir(), "export.json")

	rootCmd.SetArgs([]string{"export", "json", "--output", tmpFile})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("export to file command failed: %v", err)
	}

	if _, err := os.Stat(tmpFile); os.IsNotExist(err) {
		t.Error("Expected export file to be created")
	}
}

func TestExportInvalidFormat(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"export", "invalid"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for invalid export format")
	}
}

func TestImportCmdWithFile(t *testing.T) {
	setupTestCLI(t)

	importFile := filepath.Join(t.TempDir(), "import.json")
	jsonData := `{
		"version": "1.0",
		"exported_at": "2025-01-31T12:00:00Z",
		"tool": "healthsync",
		"metrics": []
	}`
	if err := os.WriteFile(importFile, []byte(jsonData), 0600); err != nil {
		t.Fatalf("Failed to write import file: %v", err)
	}

	rootCmd.SetArgs([]string{"import", importFile})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("import command failed: %v", err)
	}
}

func TestImportCmdFileNotFound(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"import", "/nonexistent/file.json"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestImportCmdInvalidJSON(t *testing.T) {
	setupTestCLI(t)

	importFile := filepath.Join(t.TempDir(), "invalid.json")
	if err := os.WriteFile(importFile, []byte("not valid json"), 0600); err != nil {
		t.Fatalf("Failed to write import file: %v", err)
	}

	rootCmd.SetArgs([]string{"import", importFile})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestStatusCmdWithDB(t *testing.T) {
	setupTestCLI(t)

	rootCmd.SetArgs([]string{"status"})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("status command failed: %v", err)
	}
}
