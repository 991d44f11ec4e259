package persistence

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/govguard/govguard/internal/domain"
	"github.com/govguard/govguard/internal/ports"
)

//go:embed fixtures.yaml
var embeddedFixtures []byte

// isoMillis matches the ISO-8601 form used for log timestamps
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type fixtureFile struct {
	SampleCode      string                `yaml:"sampleCode"`
	SampleQuery     string                `yaml:"sampleQuery"`
	GovernanceRules string                `yaml:"governanceRules"`
	ChangeHistory   []domain.ChangeRecord `yaml:"changeHistory"`
	Logs            []fixtureLog          `yaml:"logs"`
}

type fixtureLog struct {
	AgeMs   int64                  `yaml:"ageMs"`
	Level   domain.LogLevel        `yaml:"level"`
	Message string                 `yaml:"message"`
	Context map[string]interface{} `yaml:"context"`
}

// FixtureRepository implements ports.DashboardSource from a static YAML document.
// Data is read-only after construction.
type FixtureRepository struct {
	data     fixtureFile
	loadedAt time.Time
}

// NewFixtureRepository loads the embedded fixtures
func NewFixtureRepository(now time.Time) (*FixtureRepository, error) {
	return ParseFixtures(embeddedFixtures, now)
}

// LoadFixtureFile loads fixtures from a YAML file on disk
func LoadFixtureFile(path string, now time.Time) (*FixtureRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseFixtures(raw, now)
}

// ParseFixtures decodes and validates a fixture document.
// Log timestamps are computed as now minus each entry's ageMs.
func ParseFixtures(raw []byte, now time.Time) (*FixtureRepository, error) {
	var data fixtureFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}

	for i, rec := range data.ChangeHistory {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("change record %d: %w", i, err)
		}
	}
	for i, l := range data.Logs {
		if !l.Level.IsValid() {
			return nil, fmt.Errorf("log entry %d: unknown level %q", i, l.Level)
		}
	}

	return &FixtureRepository{data: data, loadedAt: now}, nil
}

// ListChanges returns the change history, newest first
func (r *FixtureRepository) ListChanges(ctx context.Context) ([]domain.ChangeRecord, error) {
	return domain.SortNewestFirst(r.data.ChangeHistory), nil
}

// ListLogs returns the log entries in document order
func (r *FixtureRepository) ListLogs(ctx context.Context) ([]domain.LogEntry, error) {
	entries := make([]domain.LogEntry, 0, len(r.data.Logs))
	for _, l := range r.data.Logs {
		ts := r.loadedAt.Add(-time.Duration(l.AgeMs) * time.Millisecond).UTC()
		entries = append(entries, domain.LogEntry{
			Timestamp: ts.Format(isoMillis),
			Level:     l.Level,
			Message:   l.Message,
			Context:   copyContext(l.Context),
		})
	}
	return entries, nil
}

// GovernanceRules returns the rules markdown
func (r *FixtureRepository) GovernanceRules(ctx context.Context) (string, error) {
	return r.data.GovernanceRules, nil
}

// SampleCode returns the initial analyzer snippet
func (r *FixtureRepository) SampleCode() string {
	return r.data.SampleCode
}

// SampleQuery returns the initial analyzer query
func (r *FixtureRepository) SampleQuery() string {
	return r.data.SampleQuery
}

func copyContext(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ ports.DashboardSource = (*FixtureRepository)(nil)
