package domain

import "strings"

// ActiveView represents the dashboard section currently displayed
type ActiveView string

const (
	ViewDashboard ActiveView = "dashboard"
	ViewAnalyzer  ActiveView = "analyzer"
	ViewHistory   ActiveView = "history"
	ViewRules     ActiveView = "rules"
	ViewLogs      ActiveView = "logs"
)

// AllViews lists the selectable views in navigation order
var AllViews = []ActiveView{ViewDashboard, ViewAnalyzer, ViewHistory, ViewRules, ViewLogs}

// ErrUnknownView is returned when a view name is outside the enumeration
var ErrUnknownView = NewDomainError("unknown view")

// ParseActiveView converts an external view name into an ActiveView
func ParseActiveView(name string) (ActiveView, error) {
	v := ActiveView(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllViews {
		if v == known {
			return v, nil
		}
	}
	return "", ErrUnknownView
}
