package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/govguard/govguard/internal/domain"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// WriteAnalysis renders an analysis result: the assessment, a rule check table and the free text sections.
func WriteAnalysis(w io.Writer, result *domain.AnalysisResult) error {
	if result == nil {
		_, err := fmt.Fprintln(w, yellow("No analysis available."))
		return err
	}

	status := green("COMPLIANT")
	if !result.IsCompliant() {
		status = red(fmt.Sprintf("%d VIOLATION(S)", result.ViolationCount()))
	}
	if _, err := fmt.Fprintf(w, "%s %s\n%s\n\n", bold("Overall:"), status, result.OverallAssessment); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Rule", "Status", "Details"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for i, check := range result.RuleComplianceCheck {
		label := green("OK")
		if !check.Compliant {
			label = red("VIOLATION")
		}
		data = append(data, []string{strconv.Itoa(i + 1), check.Rule, label, check.Details})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	sections := []struct {
		title string
		body  string
	}{
		{"Detailed analysis", result.DetailedAnalysis},
		{"Suggested correction", result.SuggestedCorrection},
		{"Cost optimization", result.CostOptimization},
	}
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s\n%s\n", bold(s.title+":"), s.body); err != nil {
			return err
		}
	}
	return nil
}

// WriteMetrics renders the dashboard metrics as a two column table
func WriteMetrics(w io.Writer, m domain.DashboardMetrics) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	high := strconv.Itoa(m.HighImpactChanges)
	if m.HighImpactChanges > 0 {
		high = yellow(high)
	}

	data := [][]string{
		{"Total changes", strconv.Itoa(m.TotalChanges)},
		{"Agent changes", strconv.Itoa(m.AgentChanges)},
		{"Human changes", strconv.Itoa(m.HumanChanges)},
		{"Reverted changes", strconv.Itoa(m.RevertedChanges)},
		{"High impact changes", high},
		{"Average impact", strconv.FormatFloat(m.AverageImpact, 'f', 1, 64)},
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteHistory renders change records newest first with formatted timestamps
func WriteHistory(w io.Writer, records []domain.ChangeRecord, formatter *domain.TimeFormatter) error {
	if formatter == nil {
		formatter = domain.NewTimeFormatter(nil)
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"When", "Type", "Author", "Impact", "Status", "Description"})

	var data [][]string
	for _, rec := range domain.SortNewestFirst(records) {
		impact := strconv.FormatFloat(rec.ImpactScore, 'f', -1, 64)
		if rec.IsHighImpact() {
			impact = red(impact)
		}
		data = append(data, []string{
			formatter.FormatLocaleString(rec.Timestamp),
			string(rec.Type),
			string(rec.Author),
			impact,
			string(rec.Status),
			rec.Description,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
