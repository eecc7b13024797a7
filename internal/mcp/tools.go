// ABOUTME: MCP tool implementations for the health sync pipeline.
// ABOUTME: Exposes sync, metric queries, and conflict resolution to MCP clients.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/healthsync/internal/models"
	"github.com/harperreed/healthsync/internal/prioritize"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// sync_health_data
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "sync_health_data",
		Description: "Run a bidirectional sync across all configured platforms",
	}, s.handleSyncHealthData)

	// list_metrics
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_metrics",
		Description: "List recent health metrics, optionally filtered by type",
	}, s.handleListMetrics)

	// get_latest
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_latest",
		Description: "Get the most recent value for one or more metric types",
	}, s.handleGetLatest)

	// list_conflicts
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_conflicts",
		Description: "List unresolved multi-source conflicts awaiting adjudication",
	}, s.handleListConflicts)

	// resolve_conflicts
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "resolve_conflicts",
		Description: "Resolve all queued conflicts with a strategy (local_wins, cloud_wins, latest_wins)",
	}, s.handleResolveConflicts)

	// data_quality
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "data_quality",
		Description: "Get the 0-100 source quality score for a stored metric",
	}, s.handleDataQuality)
}

// Tool input/output types

type syncInput struct {
	Days int `json:"days,omitempty" jsonschema:"How many days back to sync (default 30)"`
}

type syncOutput struct {
	Outcome       string   `json:"outcome"`
	SyncedMetrics int      `json:"synced_metrics"`
	Summary       string   `json:"summary"`
	ConflictIDs   []string `json:"conflict_ids,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

type listMetricsInput struct {
	MetricType string `json:"metric_type,omitempty" jsonschema:"Filter by metric type"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type getLatestInput struct {
	MetricTypes []string `json:"metric_types,omitempty" jsonschema:"List of metric types to get latest values for"`
}

type resolveConflictsInput struct {
	Strategy string `json:"strategy" jsonschema:"Resolution strategy: local_wins, cloud_wins, latest_wins, or manual"`
}

type dataQualityInput struct {
	ID string `json:"id" jsonschema:"Metric ID or prefix"`
}

type dataQualityOutput struct {
	ID         string  `json:"id"`
	MetricType string  `json:"metric_type"`
	Source     string  `json:"source"`
	Score      int     `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Tool handlers

func (s *Server) handleSyncHealthData(ctx context.Context, req *mcp.CallToolRequest, input syncInput) (*mcp.CallToolResult, syncOutput, error) {
	days := input.Days
	if days <= 0 {
		days = 30
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	result := s.orch.PerformBidirectionalSync(ctx, s.userID, start, end)

	return nil, syncOutput{
		Outcome:       string(result.Outcome),
		SyncedMetrics: result.SyncedMetricsCount,
		Summary:       result.Summary,
		ConflictIDs:   result.CloudSync.ConflictIDs,
		Errors:        result.Errors,
	}, nil
}

func (s *Server) handleListMetrics(ctx context.Context, req *mcp.CallToolRequest, input listMetricsInput) (*mcp.CallToolResult, any, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	var metricType *models.MetricType
	if input.MetricType != "" {
		if !models.IsValidMetricType(input.MetricType) {
			return nil, nil, fmt.Errorf("unknown metric type: %s", input.MetricType)
		}
		mt := models.MetricType(input.MetricType)
		metricType = &mt
	}

	metrics, err := s.repo.ListMetrics(metricType, input.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list metrics: %w", err)
	}

	if len(metrics) == 0 {
		return nil, map[string]interface{}{"message": "No metrics found."}, nil
	}

	return nil, metrics, nil
}

func (s *Server) handleGetLatest(ctx context.Context, req *mcp.CallToolRequest, input getLatestInput) (*mcp.CallToolResult, any, error) {
	// If no types specified, get all
	types := input.MetricTypes
	if len(types) == 0 {
		for _, mt := range models.AllMetricTypes {
			types = append(types, string(mt))
		}
	}

	results := make(map[string]interface{})
	for _, t := range types {
		m, err := s.repo.GetLatestMetric(models.MetricType(t))
		if err != nil {
			continue
		}
		results[t] = map[string]interface{}{
			"value":      m.Value,
			"unit":       m.Unit,
			"timestamp":  m.Timestamp,
			"source":     m.Source,
			"confidence": m.Confidence,
		}
	}

	return nil, results, nil
}

func (s *Server) handleListConflicts(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	conflicts, err := s.repo.UnresolvedConflicts(ctx, s.userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list conflicts: %w", err)
	}

	if len(conflicts) == 0 {
		return nil, map[string]interface{}{"message": "No unresolved conflicts."}, nil
	}

	return nil, conflicts, nil
}

func (s *Server) handleResolveConflicts(ctx context.Context, req *mcp.CallToolRequest, input resolveConflictsInput) (*mcp.CallToolResult, any, error) {
	if !models.IsValidResolutionStrategy(input.Strategy) {
		return nil, nil, fmt.Errorf("unknown strategy: %s", input.Strategy)
	}

	result, err := s.resolver.ApplyStrategy(ctx, s.userID, models.ResolutionStrategy(input.Strategy))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve conflicts: %w", err)
	}

	return nil, result, nil
}

func (s *Server) handleDataQuality(ctx context.Context, req *mcp.CallToolRequest, input dataQualityInput) (*mcp.CallToolResult, dataQualityOutput, error) {
	m, err := s.repo.GetMetric(input.ID)
	if err != nil {
		return nil, dataQualityOutput{}, fmt.Errorf("metric not found: %s", input.ID)
	}

	score := prioritize.New().QualityScore(m)

	return nil, dataQualityOutput{
		ID:         models.ShortID(m.ID),
		MetricType: string(m.Type),
		Source:     string(m.Source),
		Score:      score,
		Confidence: m.Confidence,
	}, nil
}
