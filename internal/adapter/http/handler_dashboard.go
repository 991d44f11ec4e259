package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/govguard/govguard/internal/adapter/http/response"
	"github.com/govguard/govguard/internal/domain"
	"github.com/govguard/govguard/internal/infra/logger"
	"github.com/govguard/govguard/internal/usecase"
)

// DashboardService is the view state the handlers operate on
type DashboardService interface {
	Snapshot() usecase.DashboardSnapshot
	SetActiveView(view domain.ActiveView)
	SetAnalyzerCode(code string)
	SetAnalyzerQuery(query string)
	RunAnalysis(ctx context.Context) bool
	History() []domain.ChangeRecord
	Logs() []domain.LogEntry
	Rules() string
	Metrics() domain.DashboardMetrics
}

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	dashboard DashboardService
	formatter *domain.TimeFormatter
	logger    logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard DashboardService, formatter *domain.TimeFormatter, log logger.Logger) *DashboardHandler {
	if formatter == nil {
		formatter = domain.NewTimeFormatter(nil)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &DashboardHandler{dashboard: dashboard, formatter: formatter, logger: log}
}

// SetViewRequest represents a view selection
type SetViewRequest struct {
	View string `json:"view"`
}

// AnalyzerInputRequest updates analyzer inputs; omitted fields are left unchanged
type AnalyzerInputRequest struct {
	Code  *string `json:"code"`
	Query *string `json:"query"`
}

// RunAnalysisResponse reports whether the analysis ran and the resulting state
type RunAnalysisResponse struct {
	Ran       bool                      `json:"ran"`
	Dashboard usecase.DashboardSnapshot `json:"dashboard"`
}

// HistoryItem is a change record with its display fields
type HistoryItem struct {
	domain.ChangeRecord
	FormattedTimestamp string `json:"formattedTimestamp"`
	HighImpact         bool   `json:"highImpact"`
}

// LogItem is a log entry with its display time
type LogItem struct {
	domain.LogEntry
	FormattedTime string `json:"formattedTime"`
}

// LogsResponse lists log entries and the per-level totals
type LogsResponse struct {
	Entries []LogItem               `json:"entries"`
	Counts  map[domain.LogLevel]int `json:"counts"`
}

// RegisterRoutes registers dashboard routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/dashboard", h.GetDashboard).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/view", h.SetView).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/analyzer/input", h.SetAnalyzerInput).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/analyzer/run", h.RunAnalysis).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/history", h.GetHistory).Methods(http.MethodGet)
	api.HandleFunc("/logs", h.GetLogs).Methods(http.MethodGet)
	api.HandleFunc("/rules", h.GetRules).Methods(http.MethodGet)
	api.HandleFunc("/metrics", h.GetMetrics).Methods(http.MethodGet)
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Dashboard retrieved successfully", h.dashboard.Snapshot())
}

// SetView handles PUT /api/v1/dashboard/view
func (h *DashboardHandler) SetView(w http.ResponseWriter, r *http.Request) {
	var req SetViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	view, err := domain.ParseActiveView(req.View)
	if err != nil {
		response.BadRequest(w, "Unknown view: "+req.View)
		return
	}

	h.dashboard.SetActiveView(view)
	response.Success(w, http.StatusOK, "View updated successfully", h.dashboard.Snapshot())
}

// SetAnalyzerInput handles PUT /api/v1/analyzer/input
func (h *DashboardHandler) SetAnalyzerInput(w http.ResponseWriter, r *http.Request) {
	var req AnalyzerInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Code == nil && req.Query == nil {
		response.BadRequest(w, "Code or query must be provided")
		return
	}

	if req.Code != nil {
		h.dashboard.SetAnalyzerCode(*req.Code)
	}
	if req.Query != nil {
		h.dashboard.SetAnalyzerQuery(*req.Query)
	}
	response.Success(w, http.StatusOK, "Analyzer input updated successfully", h.dashboard.Snapshot())
}

// RunAnalysis handles POST /api/v1/analyzer/run.
// Analysis failures are part of the returned state, not an HTTP error.
func (h *DashboardHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	ran := h.dashboard.RunAnalysis(r.Context())
	snapshot := h.dashboard.Snapshot()

	message := "Analysis completed"
	switch {
	case !ran:
		message = "Code and query are required"
	case snapshot.AnalysisError != "":
		message = "Analysis failed"
	}

	response.Success(w, http.StatusOK, message, RunAnalysisResponse{Ran: ran, Dashboard: snapshot})
}

// GetHistory handles GET /api/v1/history
func (h *DashboardHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	records := h.dashboard.History()
	items := make([]HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, HistoryItem{
			ChangeRecord:       rec,
			FormattedTimestamp: h.formatter.FormatLocaleString(rec.Timestamp),
			HighImpact:         rec.IsHighImpact(),
		})
	}
	response.Success(w, http.StatusOK, "History retrieved successfully", items)
}

// GetLogs handles GET /api/v1/logs with an optional ?level= filter
func (h *DashboardHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	var level domain.LogLevel
	if raw := r.URL.Query().Get("level"); raw != "" {
		level = domain.LogLevel(strings.ToUpper(raw))
		if !level.IsValid() {
			response.BadRequest(w, "Unknown log level: "+raw)
			return
		}
	}

	entries := h.dashboard.Logs()
	items := make([]LogItem, 0, len(entries))
	for _, e := range entries {
		if level != "" && e.Level != level {
			continue
		}
		items = append(items, LogItem{LogEntry: e, FormattedTime: h.formatter.FormatLocaleTimeString(e.Timestamp)})
	}

	response.Success(w, http.StatusOK, "Logs retrieved successfully", LogsResponse{
		Entries: items,
		Counts:  domain.CountByLevel(entries),
	})
}

// GetRules handles GET /api/v1/rules
func (h *DashboardHandler) GetRules(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Rules retrieved successfully", map[string]string{"rules": h.dashboard.Rules()})
}

// GetMetrics handles GET /api/v1/metrics
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Metrics retrieved successfully", h.dashboard.Metrics())
}
