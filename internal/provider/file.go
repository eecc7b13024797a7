// ABOUTME: File-backed provider adapter reading one platform's metrics from a JSON fixture.
// ABOUTME: Stands in for vendor SDK adapters in the CLI and tests.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/healthsync/internal/models"
)

// fixture is the on-disk shape of a provider file.
type fixture struct {
	Name          string                 `json:"name"`
	Available     bool                   `json:"available"`
	Authenticated bool                   `json:"authenticated"`
	Records       []*models.HealthMetric `json:"records"`
}

// FileProvider serves one platform's raw metrics from a JSON file. The
// file is read once at construction; fetches filter in memory.
type FileProvider struct {
	path string
	data fixture
}

// NewFileProvider loads a provider fixture from path.
func NewFileProvider(path string) (*FileProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provider fixture: %w", err)
	}

	var data fixture
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse provider fixture %s: %w", path, err)
	}
	if data.Name == "" {
		return nil, fmt.Errorf("provider fixture %s has no name", path)
	}

	return &FileProvider{path: path, data: data}, nil
}

// Name returns the platform name declared in the fixture.
func (p *FileProvider) Name() string {
	return p.data.Name
}

// Available reports whether the platform declares itself reachable.
func (p *FileProvider) Available(_ context.Context) bool {
	return p.data.Available
}

// Authenticated reports whether the platform declares a valid session.
func (p *FileProvider) Authenticated(_ context.Context) bool {
	return p.data.Authenticated
}

// Fetch returns the fixture's records for the user with parseable
// timestamps inside [start, end].
func (p *FileProvider) Fetch(ctx context.Context, userID string, start, end time.Time) ([]*models.HealthMetric, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*models.HealthMetric
	for _, m := range p.data.Records {
		if m.UserID != userID {
			continue
		}
		at, err := m.Time()
		if err != nil {
			continue
		}
		if at.Before(start) || at.After(end) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
