// ABOUTME: MCP resource implementations for the health sync pipeline.
// ABOUTME: Provides the healthsync://catalog metric catalog resource.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/healthsync/internal/models"
	"github.com/harperreed/healthsync/internal/validate"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// healthsync://catalog - the closed metric-type catalog
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "healthsync://catalog",
		Name:        "Metric Catalog",
		Description: "All supported metric types with canonical units and source rankings",
		MIMEType:    "application/json",
	}, s.handleCatalogResource)
}

type catalogEntry struct {
	Type      string   `json:"type"`
	Unit      string   `json:"unit"`
	Biomarker bool     `json:"biomarker"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

func (s *Server) handleCatalogResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	entries := make([]catalogEntry, 0, len(models.AllMetricTypes))
	for _, mt := range models.AllMetricTypes {
		entry := catalogEntry{
			Type:      string(mt),
			Unit:      models.CanonicalUnits[mt],
			Biomarker: models.IsBiomarker(mt),
		}
		if min, max, ok := validate.PlausibleRange(mt); ok {
			entry.Min = &min
			entry.Max = &max
		}
		entries = append(entries, entry)
	}

	sources := make(map[string]int, len(models.SourcePriority))
	for src, prio := range models.SourcePriority {
		sources[string(src)] = prio
	}

	result := map[string]interface{}{
		"metric_types":    entries,
		"source_rankings": sources,
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      "healthsync://catalog",
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
