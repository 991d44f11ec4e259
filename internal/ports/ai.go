package ports

import (
	"context"

	"github.com/govguard/govguard/internal/domain"
)

// ComplianceAnalyzer analyzes a code snippet against the governance rules
type ComplianceAnalyzer interface {
	// AnalyzeCode returns the structured analysis for code, the user's query and the rules
	AnalyzeCode(ctx context.Context, code, userQuery, rules string) (*domain.AnalysisResult, error)
}

// ProxyTransport posts a JSON body to the analysis proxy and decodes the JSON reply.
// Implementations return *ProxyStatusError for non-2xx replies.
type ProxyTransport interface {
	PostJSON(ctx context.Context, path string, body interface{}, out interface{}) error
}

// TextGenerator produces raw model output for a prompt (server side of the proxy)
type TextGenerator interface {
	// GenerateText returns the model's raw text for the prompt
	GenerateText(ctx context.Context, prompt string) (string, error)

	// Provider returns the provider name
	Provider() string

	// Model returns the model name used for generation
	Model() string
}

// ProxyRequest is the body accepted by the proxy endpoint
type ProxyRequest struct {
	Prompt string `json:"prompt"`
}

// ProxyResponse is the success envelope returned by the proxy endpoint
type ProxyResponse struct {
	Text string `json:"text"`
}

// ProxyErrorBody is the optional error body returned by the proxy endpoint
type ProxyErrorBody struct {
	Error string `json:"error,omitempty"`
}

// ProxyStatusError reports a non-2xx reply from the proxy
type ProxyStatusError struct {
	StatusCode int
	Status     string
	// Detail is the server-supplied "error" field, empty when absent
	Detail string
}

func (e *ProxyStatusError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "Http failure response: " + e.Status
}

// AnalysisConfig configures the analysis client
type AnalysisConfig struct {
	ProxyBaseURL string `json:"proxy_base_url"`
	EndpointPath string `json:"endpoint_path"`
	TimeoutMs    int    `json:"timeout_ms"`
}

// DefaultAnalysisConfig returns the defaults used by the dashboard
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		ProxyBaseURL: "http://localhost:8081",
		EndpointPath: "/api/gemini",
		TimeoutMs:    60000,
	}
}
