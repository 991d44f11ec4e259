package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/govguard/govguard/internal/adapter/ai"
	"github.com/govguard/govguard/internal/adapter/persistence"
	"github.com/govguard/govguard/internal/domain"
	"github.com/govguard/govguard/internal/ports"
	"github.com/govguard/govguard/internal/usecase"
)

// MockDashboardService is a mock implementation of DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Snapshot() usecase.DashboardSnapshot {
	return m.Called().Get(0).(usecase.DashboardSnapshot)
}

func (m *MockDashboardService) SetActiveView(view domain.ActiveView) { m.Called(view) }
func (m *MockDashboardService) SetAnalyzerCode(code string)          { m.Called(code) }
func (m *MockDashboardService) SetAnalyzerQuery(query string)        { m.Called(query) }

func (m *MockDashboardService) RunAnalysis(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockDashboardService) History() []domain.ChangeRecord {
	return m.Called().Get(0).([]domain.ChangeRecord)
}

func (m *MockDashboardService) Logs() []domain.LogEntry {
	return m.Called().Get(0).([]domain.LogEntry)
}

func (m *MockDashboardService) Rules() string { return m.Called().String(0) }

func (m *MockDashboardService) Metrics() domain.DashboardMetrics {
	return m.Called().Get(0).(domain.DashboardMetrics)
}

func TestDashboardHandler_SetView(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		expectedView   domain.ActiveView
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "valid view",
			requestBody:    `{"view":"Logs"}`,
			expectedView:   domain.ViewLogs,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":true,"message":"View updated successfully","data":{"activeView":"logs","analyzerCode":"","analyzerQuery":"","isAnalyzing":false,"analysisError":"","analysis":null,"metrics":{"totalChanges":0,"agentChanges":0,"humanChanges":0,"revertedChanges":0,"highImpactChanges":0,"averageImpact":0}}}`,
		},
		{
			name:           "unknown view",
			requestBody:    `{"view":"settings"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":false,"message":"Unknown view: settings","data":null}`,
		},
		{
			name:           "invalid body",
			requestBody:    `{`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":false,"message":"Invalid request body","data":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			if tt.expectedView != "" {
				svc.On("SetActiveView", tt.expectedView).Return().Once()
				svc.On("Snapshot").Return(usecase.DashboardSnapshot{ActiveView: tt.expectedView}).Once()
			}

			handler := NewDashboardHandler(svc, nil, nil)
			router := mux.NewRouter()
			handler.RegisterRoutes(router)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/dashboard/view", bytes.NewBufferString(tt.requestBody))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_SetAnalyzerInput(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("SetAnalyzerQuery", "new query").Return().Once()
	svc.On("Snapshot").Return(usecase.DashboardSnapshot{AnalyzerQuery: "new query"}).Once()

	handler := NewDashboardHandler(svc, nil, nil)
	rr := httptest.NewRecorder()
	handler.SetAnalyzerInput(rr, httptest.NewRequest(http.MethodPut, "/api/v1/analyzer/input", bytes.NewBufferString(`{"query":"new query"}`)))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "SetAnalyzerCode", mock.Anything)

	rr = httptest.NewRecorder()
	handler.SetAnalyzerInput(rr, httptest.NewRequest(http.MethodPut, "/api/v1/analyzer/input", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDashboardHandler_GetLogs(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Logs").Return([]domain.LogEntry{
		{Timestamp: "2025-12-07T22:19:35.343Z", Level: domain.LogLevelError, Message: "boom"},
		{Timestamp: "garbage", Level: domain.LogLevelInfo, Message: "fine"},
	})

	handler := NewDashboardHandler(svc, domain.NewTimeFormatter(time.UTC), nil)

	rr := httptest.NewRecorder()
	handler.GetLogs(rr, httptest.NewRequest(http.MethodGet, "/api/v1/logs?level=error", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data LogsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data.Entries, 1)
	assert.Equal(t, "10:19:35 PM", body.Data.Entries[0].FormattedTime)
	assert.Equal(t, 1, body.Data.Counts[domain.LogLevelInfo])

	rr = httptest.NewRecorder()
	handler.GetLogs(rr, httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, domain.InvalidDate, body.Data.Entries[1].FormattedTime)

	rr = httptest.NewRecorder()
	handler.GetLogs(rr, httptest.NewRequest(http.MethodGet, "/api/v1/logs?level=debug", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// newTestRouter wires the real dashboard with fixtures and the mock generator behind an in-process proxy
func newTestRouter(t *testing.T) (*mux.Router, *usecase.DashboardUseCase) {
	t.Helper()

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ports.ProxyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		text, err := ai.NewMockGenerator(0, 0).GenerateText(r.Context(), req.Prompt)
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(ports.ProxyResponse{Text: text})
	}))
	t.Cleanup(proxy.Close)

	repo, err := persistence.NewFixtureRepository(time.Now())
	require.NoError(t, err)

	client := ai.NewAnalysisClient(ai.NewHTTPTransport(proxy.URL, 0), ports.DefaultAnalysisConfig(), nil)
	dashboard := usecase.NewDashboardUseCase(client, nil)
	require.NoError(t, dashboard.Load(context.Background(), repo))

	handler := NewDashboardHandler(dashboard, domain.NewTimeFormatter(time.UTC), nil)
	return NewRouter(ServerConfig{AllowedOrigins: []string{"http://localhost:4200"}}, handler, nil, nil), dashboard
}

func TestRouter_RunAnalysis(t *testing.T) {
	router, dashboard := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/analyzer/run", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Status  bool                `json:"status"`
		Message string              `json:"message"`
		Data    RunAnalysisResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Data.Ran)
	assert.Equal(t, "Analysis completed", body.Message)
	require.NotNil(t, body.Data.Dashboard.Analysis)
	assert.Equal(t, 1, body.Data.Dashboard.Analysis.ViolationCount())
	assert.False(t, body.Data.Dashboard.IsAnalyzing)
	assert.False(t, dashboard.IsAnalyzing())
}

func TestRouter_RunAnalysisWithoutInput(t *testing.T) {
	router, dashboard := newTestRouter(t)
	dashboard.SetAnalyzerCode("")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/analyzer/run", nil))

	var body struct {
		Message string              `json:"message"`
		Data    RunAnalysisResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Data.Ran)
	assert.Equal(t, "Code and query are required", body.Message)
	assert.Nil(t, body.Data.Dashboard.Analysis)
}

func TestRouter_HistoryAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var history struct {
		Data []HistoryItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history.Data, 4)
	assert.Equal(t, "CHG_1765145975343_6955a339", history.Data[0].ID)
	assert.Equal(t, "12/7/2025, 10:19:35 PM", history.Data[0].FormattedTimestamp)
	assert.False(t, history.Data[0].HighImpact)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	var metrics struct {
		Data domain.DashboardMetrics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &metrics))
	assert.Equal(t, domain.DashboardMetrics{
		TotalChanges:      4,
		AgentChanges:      2,
		HumanChanges:      2,
		RevertedChanges:   1,
		HighImpactChanges: 1,
		AverageImpact:     5,
	}, metrics.Data)
}

func TestRouter_HealthRulesAndCORS(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("X-Correlation-ID", "fixed-id")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:4200", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "fixed-id", rr.Header().Get("X-Correlation-ID"))
	assert.Contains(t, rr.Body.String(), "Regras")

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/analyzer/run", nil)
	req.Header.Set("Origin", "http://evil.test")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
