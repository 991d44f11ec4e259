package domain

// RuleCheck is the compliance verdict for a single governance rule
type RuleCheck struct {
	Rule      string `json:"rule"`
	Compliant bool   `json:"compliant"`
	Details   string `json:"details"`
}

// AnalysisResult is the structured compliance analysis returned by the model.
// It is produced per request and never persisted.
type AnalysisResult struct {
	OverallAssessment   string      `json:"overallAssessment"`
	RuleComplianceCheck []RuleCheck `json:"ruleComplianceCheck"`
	DetailedAnalysis    string      `json:"detailedAnalysis"`
	SuggestedCorrection string      `json:"suggestedCorrection,omitempty"`
	CostOptimization    string      `json:"costOptimization,omitempty"`
}

// ViolationCount returns the number of non-compliant rule checks
func (a *AnalysisResult) ViolationCount() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, c := range a.RuleComplianceCheck {
		if !c.Compliant {
			n++
		}
	}
	return n
}

// IsCompliant reports whether every rule check passed
func (a *AnalysisResult) IsCompliant() bool {
	return a != nil && a.ViolationCount() == 0
}

// Clone returns a deep copy of the result
func (a *AnalysisResult) Clone() *AnalysisResult {
	if a == nil {
		return nil
	}
	out := *a
	if a.RuleComplianceCheck != nil {
		out.RuleComplianceCheck = append([]RuleCheck(nil), a.RuleComplianceCheck...)
	}
	return &out
}
