package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/govguard/govguard/internal/domain"
	"github.com/govguard/govguard/internal/ports"
)

// MockGenerator produces canned compliance analyses without calling a model.
// Output is wrapped in a ```json fence the way hosted models usually reply.
// It keeps no state between calls; response caching belongs to the proxy.
type MockGenerator struct {
	latency   time.Duration
	errorRate float64
}

// NewMockGenerator creates a mock generator; errorRate is clamped to [0,1]
func NewMockGenerator(latency time.Duration, errorRate float64) *MockGenerator {
	if errorRate < 0 {
		errorRate = 0
	}
	if errorRate > 1 {
		errorRate = 1
	}
	return &MockGenerator{latency: latency, errorRate: errorRate}
}

// mockRule is a keyword check applied to the prompt text
type mockRule struct {
	rule      string
	violation string
	details   string
}

var mockRules = []mockRule{
	{
		rule:      "Replenishment: reopen a closed leg immediately, waiting at most 2 seconds.",
		violation: "settimeout(resolve, 5000)",
		details:   "The leg is reopened after a 5 second delay, exceeding the 2 second replenishment window.",
	},
	{
		rule:      "Leverage: positions use x10 cross margin.",
		violation: "leverage: 20",
		details:   "Leverage is set to x20 instead of x10.",
	},
	{
		rule:      "Startup: sync state with the exchange before trading.",
		violation: "skipsync",
		details:   "Exchange position sync is skipped at startup.",
	},
}

// GenerateText returns a fenced JSON analysis derived from keywords in the prompt
func (m *MockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	select {
	case <-time.After(m.latency):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if m.errorRate > 0 && rand.Float64() < m.errorRate {
		return "", fmt.Errorf("mock generator error")
	}

	result := m.analyze(prompt)
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal mock analysis: %w", err)
	}

	return "```json\n" + string(payload) + "\n```", nil
}

// MockModel names the keyword rule set the mock generator applies
const MockModel = "keyword-rules"

// Provider returns the provider name
func (m *MockGenerator) Provider() string {
	return "mock"
}

// Model returns the mock rule set name
func (m *MockGenerator) Model() string {
	return MockModel
}

func (m *MockGenerator) analyze(prompt string) domain.AnalysisResult {
	lower := strings.ToLower(prompt)

	var checks []domain.RuleCheck
	var broken []string
	for _, r := range mockRules {
		check := domain.RuleCheck{Rule: r.rule, Compliant: true, Details: "No issue found."}
		if strings.Contains(lower, r.violation) {
			check.Compliant = false
			check.Details = r.details
			broken = append(broken, r.details)
		}
		checks = append(checks, check)
	}

	result := domain.AnalysisResult{
		RuleComplianceCheck: checks,
		CostOptimization:    "Fetch price and quantity in one batched Bybit call before reopening the leg.",
	}

	if len(broken) == 0 {
		result.OverallAssessment = "The code complies with the governance rules."
		result.DetailedAnalysis = "No rule violations were detected in the submitted code."
		return result
	}

	result.OverallAssessment = fmt.Sprintf("The code violates %d governance rule(s).", len(broken))
	result.DetailedAnalysis = strings.Join(broken, " ")
	result.SuggestedCorrection = "await closePositionOnBybit(operation, closeReason);\n" +
		"robotState.closePosition(operation, closeReason);\n" +
		"await new Promise(resolve => setTimeout(resolve, 2000));\n" +
		"await openPosition(symbol, originalSide, quantity, currentPrice);\n"
	return result
}

var _ ports.TextGenerator = (*MockGenerator)(nil)
