package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govguard/govguard/internal/domain"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestWriteAnalysis(t *testing.T) {
	result := &domain.AnalysisResult{
		OverallAssessment: "One rule is broken.",
		RuleComplianceCheck: []domain.RuleCheck{
			{Rule: "Leverage x10", Compliant: true, Details: "ok"},
			{Rule: "Replenish within 2s", Compliant: false, Details: "waits 5s"},
		},
		DetailedAnalysis: "The delay is too long.",
		CostOptimization: "Batch the calls.",
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAnalysis(&buf, result))
	out := buf.String()

	assert.Contains(t, out, "1 VIOLATION(S)")
	assert.Contains(t, out, "One rule is broken.")
	assert.Contains(t, out, "Replenish within 2s")
	assert.Contains(t, out, "VIOLATION")
	assert.Contains(t, out, "Detailed analysis:")
	assert.Contains(t, out, "Cost optimization:")
	assert.NotContains(t, out, "Suggested correction:")
}

func TestWriteAnalysis_Compliant(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAnalysis(&buf, &domain.AnalysisResult{OverallAssessment: "fine"}))
	assert.Contains(t, buf.String(), "COMPLIANT")

	buf.Reset()
	require.NoError(t, WriteAnalysis(&buf, nil))
	assert.Equal(t, "No analysis available.\n", buf.String())
}

func TestWriteMetrics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMetrics(&buf, domain.DashboardMetrics{
		TotalChanges:      4,
		AgentChanges:      2,
		HumanChanges:      2,
		RevertedChanges:   1,
		HighImpactChanges: 1,
		AverageImpact:     5,
	}))
	out := buf.String()

	assert.Contains(t, out, "Total changes")
	assert.Contains(t, out, "5.0")
	assert.Contains(t, out, "High impact changes")
}

func TestWriteHistory(t *testing.T) {
	records := []domain.ChangeRecord{
		{ID: "old", Timestamp: 1765042736807, Type: domain.ChangeTypeConfig, Author: domain.ChangeAuthorHuman, ImpactScore: 2, Status: domain.ChangeStatusActive, Description: "older change"},
		{ID: "new", Timestamp: 1765145975343, Type: domain.ChangeTypeCode, Author: domain.ChangeAuthorAgent, ImpactScore: 8, Status: domain.ChangeStatusReverted, Description: "newer change"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, records, domain.NewTimeFormatter(time.UTC)))
	out := buf.String()

	assert.Contains(t, out, "12/7/2025, 10:19:35 PM")
	assert.Less(t, strings.Index(out, "newer change"), strings.Index(out, "older change"))
	assert.Equal(t, "old", records[0].ID, "input order is preserved")
}
