package domain

// DashboardMetrics represents aggregate figures derived from the change history
type DashboardMetrics struct {
	TotalChanges      int     `json:"totalChanges"`
	AgentChanges      int     `json:"agentChanges"`
	HumanChanges      int     `json:"humanChanges"`
	RevertedChanges   int     `json:"revertedChanges"`
	HighImpactChanges int     `json:"highImpactChanges"`
	AverageImpact     float64 `json:"averageImpact"`
}

// ComputeMetrics derives dashboard metrics from the given records.
// AverageImpact is zero for an empty set.
func ComputeMetrics(records []ChangeRecord) DashboardMetrics {
	m := DashboardMetrics{TotalChanges: len(records)}

	var totalImpact float64
	for _, r := range records {
		switch r.Author {
		case ChangeAuthorAgent:
			m.AgentChanges++
		case ChangeAuthorHuman:
			m.HumanChanges++
		}
		if r.Status == ChangeStatusReverted {
			m.RevertedChanges++
		}
		if r.IsHighImpact() {
			m.HighImpactChanges++
		}
		totalImpact += r.ImpactScore
	}

	if len(records) > 0 {
		m.AverageImpact = totalImpact / float64(len(records))
	}
	return m
}
