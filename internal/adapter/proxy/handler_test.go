package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/govguard/govguard/internal/adapter/ai"
	"github.com/govguard/govguard/internal/ports"
)

// MockGenerator is a mock implementation of ports.TextGenerator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) Provider() string { return "test" }
func (m *MockGenerator) Model() string    { return "test-model" }

// MockCache is a mock implementation of ports.ResponseCache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

// MockLimiter is a mock implementation of ports.RateLimiter
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func TestHandler_Generate(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		genText        string
		genErr         error
		expectGenerate bool
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "successful generation",
			body:           `{"prompt":"analyze this"}`,
			genText:        "```json{}```",
			expectGenerate: true,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"text":"` + "```json{}```" + `"}`,
		},
		{
			name:           "generator failure",
			body:           `{"prompt":"analyze this"}`,
			genErr:         errors.New("quota exceeded"),
			expectGenerate: true,
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"quota exceeded"}`,
		},
		{
			name:           "empty prompt",
			body:           `{"prompt":"   "}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Prompt is required"}`,
		},
		{
			name:           "invalid json",
			body:           `{"prompt":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request body"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockGenerator)
			if tt.expectGenerate {
				gen.On("GenerateText", mock.Anything, "analyze this").Return(tt.genText, tt.genErr).Once()
			}

			handler := NewHandler(gen, Options{}, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			handler.Generate(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			gen.AssertExpectations(t)
		})
	}
}

func TestHandler_CacheHitSkipsGenerator(t *testing.T) {
	gen := new(MockGenerator)
	cache := new(MockCache)
	cache.On("Get", mock.Anything, CacheKey("test", "test-model", "p")).Return("cached text", true, nil).Once()

	handler := NewHandler(gen, Options{Cache: cache}, nil)
	rr := httptest.NewRecorder()
	handler.Generate(rr, httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(`{"prompt":"p"}`)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "HIT", rr.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"text":"cached text"}`, rr.Body.String())
	gen.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
}

func TestHandler_CacheMissStoresResult(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateText", mock.Anything, "p").Return("fresh", nil).Once()
	cache := new(MockCache)
	key := CacheKey("test", "test-model", "p")
	cache.On("Get", mock.Anything, key).Return("", false, errors.New("redis down")).Once()
	cache.On("Set", mock.Anything, key, "fresh").Return(nil).Once()

	handler := NewHandler(gen, Options{Cache: cache}, nil)
	rr := httptest.NewRecorder()
	handler.Generate(rr, httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(`{"prompt":"p"}`)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))
	cache.AssertExpectations(t)
}

func TestHandler_RateLimited(t *testing.T) {
	gen := new(MockGenerator)
	limiter := new(MockLimiter)
	limiter.On("Allow", mock.Anything, "gemini:ip:203.0.113.9").Return(false, nil).Once()

	handler := NewHandler(gen, Options{Limiter: limiter, RetryAfter: 30 * time.Second, TrustProxyHeaders: true}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(`{"prompt":"p"}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rr := httptest.NewRecorder()

	handler.Generate(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "30", rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, rr.Body.String())
	gen.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
}

func TestHandler_RateLimitIgnoresForwardedForByDefault(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateText", mock.Anything, "p").Return("ok", nil).Twice()
	limiter := new(MockLimiter)
	limiter.On("Allow", mock.Anything, "gemini:ip:192.0.2.1").Return(true, nil).Twice()

	handler := NewHandler(gen, Options{Limiter: limiter}, nil)
	for _, spoofed := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(`{"prompt":"p"}`))
		req.Header.Set("X-Forwarded-For", spoofed)
		req.Header.Set("X-Real-IP", spoofed)
		rr := httptest.NewRecorder()

		handler.Generate(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	limiter.AssertExpectations(t)
}

func TestHandler_LimiterErrorFailsOpen(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateText", mock.Anything, "p").Return("ok", nil).Once()
	limiter := new(MockLimiter)
	limiter.On("Allow", mock.Anything, mock.Anything).Return(false, errors.New("redis down")).Once()

	handler := NewHandler(gen, Options{Limiter: limiter}, nil)
	rr := httptest.NewRecorder()
	handler.Generate(rr, httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(`{"prompt":"p"}`)))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_EndToEndWithAnalysisClient(t *testing.T) {
	handler := NewHandler(ai.NewMockGenerator(0, 0), Options{}, nil)
	server := httptest.NewServer(NewRouter(handler, "/api/gemini", []string{"*"}, nil))
	defer server.Close()

	client := ai.NewAnalysisClient(ai.NewHTTPTransport(server.URL, 0), ports.DefaultAnalysisConfig(), nil)
	result, err := client.AnalyzeCode(context.Background(), "await new Promise(resolve => setTimeout(resolve, 5000));", "check", "rules")

	require.NoError(t, err)
	assert.Equal(t, 1, result.ViolationCount())
}

func TestRouter_HealthAndPreflight(t *testing.T) {
	handler := NewHandler(ai.NewMockGenerator(0, 0), Options{}, nil)
	router := NewRouter(handler, "/api/gemini", []string{"http://localhost:4200"}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))

	req := httptest.NewRequest(http.MethodOptions, "/api/gemini", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:4200", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("gemini", "gemini-2.5-flash", "prompt")
	assert.Equal(t, a, CacheKey("gemini", "gemini-2.5-flash", "prompt"))
	assert.NotEqual(t, a, CacheKey("gemini", "gemini-2.5-flash", "prompt2"))
	assert.NotEqual(t, a, CacheKey("gemini", "gemini-2.5-pro", "prompt"))
	assert.NotEqual(t, a, CacheKey("mock", "gemini-2.5-flash", "prompt"))
	assert.True(t, strings.HasPrefix(a, "govguard:gen:gemini:gemini-2.5-flash:"))
}

// TestRedisAdapters runs against a live Redis when GOVGUARD_TEST_REDIS_URL is set
func TestRedisAdapters(t *testing.T) {
	url := os.Getenv("GOVGUARD_TEST_REDIS_URL")
	if url == "" {
		t.Skip("GOVGUARD_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	cache := NewRedisCache(client, time.Minute)
	key := CacheKey("test", "test-model", time.Now().String())
	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, key, "value"))
	val, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", val)

	limiter := NewRedisRateLimiter(client, 2, time.Minute)
	rlKey := "test:" + time.Now().String()
	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, rlKey)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := limiter.Allow(ctx, rlKey)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestNoopAdapters(t *testing.T) {
	ctx := context.Background()
	_, ok, err := NoopCache{}.Get(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, ok)

	allowed, err := NoopRateLimiter{}.Allow(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, allowed)

	var body ports.ProxyErrorBody
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusTeapot, "x")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "x", body.Error)
}
