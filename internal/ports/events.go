package ports

import "time"

// Event represents a dashboard state change
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// EventHandler receives dashboard events; it must not block
type EventHandler func(Event)

// Event Types
const (
	EventTypeViewChanged       = "view_changed"
	EventTypeInputChanged      = "input_changed"
	EventTypeAnalysisStarted   = "analysis_started"
	EventTypeAnalysisSucceeded = "analysis_succeeded"
	EventTypeAnalysisFailed    = "analysis_failed"
	EventTypeHistoryReplaced   = "history_replaced"
)
