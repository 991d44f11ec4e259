package ports

import (
	"context"

	"github.com/govguard/govguard/internal/domain"
)

// ChangeHistoryRepository provides the change history records
type ChangeHistoryRepository interface {
	ListChanges(ctx context.Context) ([]domain.ChangeRecord, error)
}

// LogRepository provides the bot log entries
type LogRepository interface {
	ListLogs(ctx context.Context) ([]domain.LogEntry, error)
}

// GovernanceRulesRepository provides the governance rules text (markdown)
type GovernanceRulesRepository interface {
	GovernanceRules(ctx context.Context) (string, error)
}

// AnalyzerDefaults provides the initial analyzer inputs shown on load
type AnalyzerDefaults interface {
	SampleCode() string
	SampleQuery() string
}

// DashboardSource groups everything the dashboard loads at startup
type DashboardSource interface {
	ChangeHistoryRepository
	LogRepository
	GovernanceRulesRepository
	AnalyzerDefaults
}

// ResponseCache stores model output keyed by prompt hash
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// RateLimiter decides whether a caller identified by key may proceed
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
