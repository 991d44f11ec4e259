package domain

// LogLevel represents the severity of a bot log entry
type LogLevel string

const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARNING"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
)

// LogEntry represents a single log line emitted by the trading bot
type LogEntry struct {
	Timestamp string                 `json:"timestamp" yaml:"timestamp"`
	Level     LogLevel               `json:"level" yaml:"level"`
	Message   string                 `json:"message" yaml:"message"`
	Context   map[string]interface{} `json:"context,omitempty" yaml:"context,omitempty"`
}

// IsValid reports whether the level is known
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelCritical:
		return true
	}
	return false
}

// CountByLevel tallies log entries per severity level
func CountByLevel(entries []LogEntry) map[LogLevel]int {
	counts := make(map[LogLevel]int, 4)
	for _, e := range entries {
		counts[e.Level]++
	}
	return counts
}
