package ai

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/govguard/govguard/internal/domain"
	"github.com/govguard/govguard/internal/infra/logger"
	"github.com/govguard/govguard/internal/ports"
	apperr "github.com/govguard/govguard/pkg/error"
)

// timeoutDetail is reported when the analysis deadline elapses
const timeoutDetail = "Timeout has occurred"

// AnalysisClient sends compliance prompts through the analysis proxy.
// A single attempt is made per call; there are no retries and no partial results.
type AnalysisClient struct {
	transport ports.ProxyTransport
	endpoint  string
	timeout   time.Duration
	logger    logger.Logger
}

// NewAnalysisClient creates a client that posts to config.EndpointPath through transport
func NewAnalysisClient(transport ports.ProxyTransport, config ports.AnalysisConfig, log logger.Logger) *AnalysisClient {
	defaults := ports.DefaultAnalysisConfig()
	if config.EndpointPath == "" {
		config.EndpointPath = defaults.EndpointPath
	}
	if config.TimeoutMs <= 0 {
		config.TimeoutMs = defaults.TimeoutMs
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &AnalysisClient{
		transport: transport,
		endpoint:  config.EndpointPath,
		timeout:   time.Duration(config.TimeoutMs) * time.Millisecond,
		logger:    log.WithFields(map[string]interface{}{"component": "analysis_client"}),
	}
}

// Timeout returns the deadline applied to each analysis call
func (c *AnalysisClient) Timeout() time.Duration {
	return c.timeout
}

// AnalyzeCode validates the inputs, calls the proxy once and extracts the structured result.
// Errors are *apperr.AppError matching ErrInvalidInput, ErrProxy or ErrMalformedResponse.
func (c *AnalysisClient) AnalyzeCode(ctx context.Context, code, userQuery, rules string) (*domain.AnalysisResult, error) {
	if code == "" || userQuery == "" || rules == "" {
		return nil, apperr.ErrInvalidInput
	}

	requestID := uuid.NewString()
	fields := map[string]interface{}{"request_id": requestID, "endpoint": c.endpoint}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var resp ports.ProxyResponse
	err := c.transport.PostJSON(ctx, c.endpoint, ports.ProxyRequest{Prompt: BuildCompliancePrompt(code, userQuery, rules)}, &resp)
	if err != nil {
		c.logger.Error(ctx, "Analysis proxy error", err, fields)
		return nil, apperr.NewProxyError(proxyErrorDetail(ctx, err), err)
	}
	logger.LogPerformance(ctx, c.logger, "analysis_proxy_call", time.Since(start), fields)

	result, err := ParseAnalysis(resp.Text)
	if err != nil {
		c.logger.Error(ctx, "Failed to parse analysis response", err, map[string]interface{}{
			"request_id":   requestID,
			"raw_response": resp.Text,
		})
		return nil, apperr.NewMalformedResponse(err)
	}

	c.logger.Info(ctx, "Analysis completed", map[string]interface{}{
		"request_id": requestID,
		"rules":      len(result.RuleComplianceCheck),
		"violations": result.ViolationCount(),
	})
	return result, nil
}

// proxyErrorDetail picks the most specific message available for a transport failure
func proxyErrorDetail(ctx context.Context, err error) string {
	var statusErr *ports.ProxyStatusError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return timeoutDetail
	case isTimeout(err):
		return timeoutDetail
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return apperr.UnknownProxyError
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
