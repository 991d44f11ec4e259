package domain

import (
	"math"
	"strings"
	"time"
)

// InvalidDate is rendered for timestamps that cannot be interpreted
const InvalidDate = "Invalid Date"

const (
	localeDateTimeLayout = "1/2/2006, 3:04:05 PM"
	localeTimeLayout     = "3:04:05 PM"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TimeFormatter renders timestamps for display in a fixed location
type TimeFormatter struct {
	loc *time.Location
}

// NewTimeFormatter creates a formatter for loc; nil means the local zone
func NewTimeFormatter(loc *time.Location) *TimeFormatter {
	if loc == nil {
		loc = time.Local
	}
	return &TimeFormatter{loc: loc}
}

// FormatLocaleString renders a date and time, e.g. "12/7/2025, 10:19:35 PM".
// ts may be epoch milliseconds (any integer or float type) or a date string.
func (f *TimeFormatter) FormatLocaleString(ts interface{}) string {
	t, ok := ParseTimestamp(ts)
	if !ok {
		return InvalidDate
	}
	return t.In(f.loc).Format(localeDateTimeLayout)
}

// FormatLocaleTimeString renders only the time of day, e.g. "10:19:35 PM"
func (f *TimeFormatter) FormatLocaleTimeString(ts interface{}) string {
	t, ok := ParseTimestamp(ts)
	if !ok {
		return InvalidDate
	}
	return t.In(f.loc).Format(localeTimeLayout)
}

// ParseTimestamp interprets epoch milliseconds or an ISO-8601 string
func ParseTimestamp(ts interface{}) (time.Time, bool) {
	switch v := ts.(type) {
	case int64:
		return time.UnixMilli(v), true
	case int:
		return time.UnixMilli(int64(v)), true
	case int32:
		return time.UnixMilli(int64(v)), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(v)), true
	case time.Time:
		return v, !v.IsZero()
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
