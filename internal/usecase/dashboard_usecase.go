package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/govguard/govguard/internal/domain"
	"github.com/govguard/govguard/internal/infra/logger"
	"github.com/govguard/govguard/internal/ports"
)

// UnknownErrorMessage is stored when a failed analysis carries no message
const UnknownErrorMessage = "An unknown error occurred."

var errUnknown = errors.New(UnknownErrorMessage)

// DashboardSnapshot is a consistent copy of the observable dashboard state
type DashboardSnapshot struct {
	ActiveView    domain.ActiveView       `json:"activeView"`
	AnalyzerCode  string                  `json:"analyzerCode"`
	AnalyzerQuery string                  `json:"analyzerQuery"`
	IsAnalyzing   bool                    `json:"isAnalyzing"`
	AnalysisError string                  `json:"analysisError"`
	Analysis      *domain.AnalysisResult  `json:"analysis"`
	Metrics       domain.DashboardMetrics `json:"metrics"`
}

// DashboardUseCase holds the dashboard view state and drives compliance analyses.
// All fields are guarded by mu; the analyzer call runs outside the lock.
type DashboardUseCase struct {
	analyzer ports.ComplianceAnalyzer
	logger   logger.Logger

	mu            sync.RWMutex
	activeView    domain.ActiveView
	analyzerCode  string
	analyzerQuery string
	isAnalyzing   bool
	analysis      *domain.AnalysisResult
	analysisError string
	rules         string
	history       []domain.ChangeRecord
	logs          []domain.LogEntry
	metrics       domain.DashboardMetrics

	subMu       sync.RWMutex
	subscribers map[string]ports.EventHandler
}

// NewDashboardUseCase creates a dashboard with the default view and empty data
func NewDashboardUseCase(analyzer ports.ComplianceAnalyzer, log logger.Logger) *DashboardUseCase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &DashboardUseCase{
		analyzer:    analyzer,
		logger:      log.WithFields(map[string]interface{}{"component": "dashboard"}),
		activeView:  domain.ViewDashboard,
		subscribers: make(map[string]ports.EventHandler),
	}
}

// Load populates rules, history, logs and the initial analyzer inputs from source
func (uc *DashboardUseCase) Load(ctx context.Context, source ports.DashboardSource) error {
	rules, err := source.GovernanceRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load governance rules: %w", err)
	}
	history, err := source.ListChanges(ctx)
	if err != nil {
		return fmt.Errorf("failed to load change history: %w", err)
	}
	logs, err := source.ListLogs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load logs: %w", err)
	}

	sorted := domain.SortNewestFirst(history)

	uc.mu.Lock()
	uc.rules = rules
	uc.history = sorted
	uc.metrics = domain.ComputeMetrics(sorted)
	uc.logs = append([]domain.LogEntry(nil), logs...)
	uc.analyzerCode = source.SampleCode()
	uc.analyzerQuery = source.SampleQuery()
	uc.mu.Unlock()

	uc.logger.Info(ctx, "Dashboard data loaded", map[string]interface{}{
		"changes": len(sorted),
		"logs":    len(logs),
	})
	return nil
}

// SetActiveView replaces the selected view
func (uc *DashboardUseCase) SetActiveView(view domain.ActiveView) {
	uc.mu.Lock()
	uc.activeView = view
	uc.mu.Unlock()

	uc.publish(ports.EventTypeViewChanged, map[string]interface{}{"view": string(view)})
}

// SetAnalyzerCode replaces the code snippet to analyze
func (uc *DashboardUseCase) SetAnalyzerCode(code string) {
	uc.mu.Lock()
	uc.analyzerCode = code
	uc.mu.Unlock()

	uc.publish(ports.EventTypeInputChanged, map[string]interface{}{"field": "code"})
}

// SetAnalyzerQuery replaces the analysis question
func (uc *DashboardUseCase) SetAnalyzerQuery(query string) {
	uc.mu.Lock()
	uc.analyzerQuery = query
	uc.mu.Unlock()

	uc.publish(ports.EventTypeInputChanged, map[string]interface{}{"field": "query"})
}

// RunAnalysis analyzes the current code and query against the loaded rules.
// It returns false without touching any state when code or query is empty.
// Concurrent runs are not serialized: whichever finishes last decides the stored outcome.
func (uc *DashboardUseCase) RunAnalysis(ctx context.Context) bool {
	uc.mu.Lock()
	code, query, rules := uc.analyzerCode, uc.analyzerQuery, uc.rules
	if code == "" || query == "" {
		uc.mu.Unlock()
		return false
	}
	uc.isAnalyzing = true
	uc.analysis = nil
	uc.analysisError = ""
	uc.mu.Unlock()

	runID := uuid.NewString()
	uc.publish(ports.EventTypeAnalysisStarted, map[string]interface{}{"run_id": runID})

	var outcome string
	var outcomeData map[string]interface{}
	defer func() {
		uc.mu.Lock()
		uc.isAnalyzing = false
		uc.mu.Unlock()

		uc.publish(outcome, outcomeData)
	}()

	start := time.Now()
	result, err := uc.analyze(ctx, code, query, rules)
	if err != nil {
		message := err.Error()
		if message == "" {
			message = UnknownErrorMessage
		}

		uc.mu.Lock()
		uc.analysisError = message
		uc.mu.Unlock()

		uc.logger.Warn(ctx, "Analysis failed", map[string]interface{}{"run_id": runID, "error": message})
		outcome = ports.EventTypeAnalysisFailed
		outcomeData = map[string]interface{}{"run_id": runID, "error": message}
		return true
	}

	uc.mu.Lock()
	uc.analysis = result
	uc.mu.Unlock()

	logger.LogPerformance(ctx, uc.logger, "run_analysis", time.Since(start), map[string]interface{}{"run_id": runID})
	outcome = ports.EventTypeAnalysisSucceeded
	outcomeData = map[string]interface{}{
		"run_id":     runID,
		"violations": result.ViolationCount(),
	}
	return true
}

// analyze calls the analyzer and converts a panic into an error
func (uc *DashboardUseCase) analyze(ctx context.Context, code, query, rules string) (result *domain.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error(ctx, "Analyzer panicked", nil, map[string]interface{}{"panic": fmt.Sprint(r)})
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = errUnknown
		}
	}()

	if uc.analyzer == nil {
		return nil, errUnknown
	}
	return uc.analyzer.AnalyzeCode(ctx, code, query, rules)
}

// ReplaceHistory swaps the change history and recomputes the metrics
func (uc *DashboardUseCase) ReplaceHistory(records []domain.ChangeRecord) {
	sorted := domain.SortNewestFirst(records)
	metrics := domain.ComputeMetrics(sorted)

	uc.mu.Lock()
	uc.history = sorted
	uc.metrics = metrics
	uc.mu.Unlock()

	uc.publish(ports.EventTypeHistoryReplaced, map[string]interface{}{"total_changes": metrics.TotalChanges})
}

// ActiveView returns the selected view
func (uc *DashboardUseCase) ActiveView() domain.ActiveView {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.activeView
}

// AnalyzerCode returns the current code snippet
func (uc *DashboardUseCase) AnalyzerCode() string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.analyzerCode
}

// AnalyzerQuery returns the current analysis question
func (uc *DashboardUseCase) AnalyzerQuery() string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.analyzerQuery
}

// IsAnalyzing reports whether an analysis is in flight
func (uc *DashboardUseCase) IsAnalyzing() bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.isAnalyzing
}

// Analysis returns a copy of the last successful result, or nil
func (uc *DashboardUseCase) Analysis() *domain.AnalysisResult {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.analysis.Clone()
}

// AnalysisError returns the last failure message, or ""
func (uc *DashboardUseCase) AnalysisError() string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.analysisError
}

// Rules returns the governance rules text
func (uc *DashboardUseCase) Rules() string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.rules
}

// History returns the change records, newest first
func (uc *DashboardUseCase) History() []domain.ChangeRecord {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	out := make([]domain.ChangeRecord, len(uc.history))
	for i, r := range uc.history {
		out[i] = r.Clone()
	}
	return out
}

// Logs returns the bot log entries
func (uc *DashboardUseCase) Logs() []domain.LogEntry {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return append([]domain.LogEntry(nil), uc.logs...)
}

// Metrics returns the metrics derived from the current history
func (uc *DashboardUseCase) Metrics() domain.DashboardMetrics {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.metrics
}

// Snapshot returns the observable state taken under a single lock
func (uc *DashboardUseCase) Snapshot() DashboardSnapshot {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return DashboardSnapshot{
		ActiveView:    uc.activeView,
		AnalyzerCode:  uc.analyzerCode,
		AnalyzerQuery: uc.analyzerQuery,
		IsAnalyzing:   uc.isAnalyzing,
		AnalysisError: uc.analysisError,
		Analysis:      uc.analysis.Clone(),
		Metrics:       uc.metrics,
	}
}

// Subscribe registers handler for state-change events and returns a func that removes it.
// Handlers run on the goroutine that changed the state and must not block.
func (uc *DashboardUseCase) Subscribe(handler ports.EventHandler) func() {
	id := uuid.NewString()

	uc.subMu.Lock()
	uc.subscribers[id] = handler
	uc.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			uc.subMu.Lock()
			delete(uc.subscribers, id)
			uc.subMu.Unlock()
		})
	}
}

func (uc *DashboardUseCase) publish(eventType string, data map[string]interface{}) {
	uc.subMu.RLock()
	handlers := make([]ports.EventHandler, 0, len(uc.subscribers))
	for _, h := range uc.subscribers {
		handlers = append(handlers, h)
	}
	uc.subMu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := ports.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      data,
		CreatedAt: time.Now(),
	}
	for _, h := range handlers {
		h(event)
	}
}
