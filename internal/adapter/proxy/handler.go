package proxy

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/govguard/govguard/internal/adapter/http/middleware"
	"github.com/govguard/govguard/internal/infra/logger"
	"github.com/govguard/govguard/internal/ports"
)

const (
	// DefaultMaxPromptBytes bounds the request body size
	DefaultMaxPromptBytes = 1 << 20

	msgTooManyRequests = "Too many requests. Please try again later."
)

// Handler serves the analysis proxy endpoint consumed by the analysis client
type Handler struct {
	generator      ports.TextGenerator
	cache          ports.ResponseCache
	limiter        ports.RateLimiter
	retryAfter     time.Duration
	maxPromptBytes int64
	trustProxy     bool
	logger         logger.Logger
}

// Options configures optional handler collaborators
type Options struct {
	Cache          ports.ResponseCache
	Limiter        ports.RateLimiter
	RetryAfter     time.Duration
	MaxPromptBytes int64

	// TrustProxyHeaders keys rate limiting on X-Forwarded-For instead of the peer address
	TrustProxyHeaders bool
}

// NewHandler creates a proxy handler; nil cache or limiter disable those features
func NewHandler(generator ports.TextGenerator, opts Options, log logger.Logger) *Handler {
	if opts.Cache == nil {
		opts.Cache = NoopCache{}
	}
	if opts.Limiter == nil {
		opts.Limiter = NoopRateLimiter{}
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = time.Minute
	}
	if opts.MaxPromptBytes <= 0 {
		opts.MaxPromptBytes = DefaultMaxPromptBytes
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Handler{
		generator:      generator,
		cache:          opts.Cache,
		limiter:        opts.Limiter,
		retryAfter:     opts.RetryAfter,
		maxPromptBytes: opts.MaxPromptBytes,
		trustProxy:     opts.TrustProxyHeaders,
		logger:         log.WithFields(map[string]interface{}{
			"component": "proxy",
			"provider":  generator.Provider(),
			"model":     generator.Model(),
		}),
	}
}

// RegisterRoutes registers the proxy routes
func (h *Handler) RegisterRoutes(router *mux.Router, endpointPath string) {
	router.HandleFunc(endpointPath, h.Generate).Methods(http.MethodPost, http.MethodOptions)
}

// Generate handles POST {"prompt"} and replies {"text"} or {"error"}
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientIP := middleware.ClientIP(r, h.trustProxy)

	allowed, err := h.limiter.Allow(ctx, "gemini:ip:"+clientIP)
	if err != nil {
		h.logger.Error(ctx, "Failed to check rate limit", err, map[string]interface{}{"ip": clientIP})
		allowed = true
	}
	if !allowed {
		logger.LogSecurityEvent(ctx, h.logger, "rate_limit_exceeded", "MEDIUM", map[string]interface{}{
			"ip":        clientIP,
			"path":      r.URL.Path,
			"userAgent": r.UserAgent(),
		})
		w.Header().Set("Retry-After", strconv.Itoa(int(h.retryAfter.Seconds())))
		writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
		return
	}

	var req ports.ProxyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxPromptBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	key := CacheKey(h.generator.Provider(), h.generator.Model(), req.Prompt)
	if cached, ok, err := h.cache.Get(ctx, key); err != nil {
		h.logger.Warn(ctx, "Cache read failed", map[string]interface{}{"error": err.Error()})
	} else if ok {
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, ports.ProxyResponse{Text: cached})
		return
	}

	start := time.Now()
	text, err := h.generator.GenerateText(ctx, req.Prompt)
	if err != nil {
		h.logger.Error(ctx, "Text generation failed", err, map[string]interface{}{"prompt_bytes": len(req.Prompt)})
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	logger.LogPerformance(ctx, h.logger, "generate_text", time.Since(start), map[string]interface{}{
		"prompt_bytes": len(req.Prompt),
		"text_bytes":   len(text),
	})

	if err := h.cache.Set(ctx, key, text); err != nil {
		h.logger.Warn(ctx, "Cache write failed", map[string]interface{}{"error": err.Error()})
	}

	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, ports.ProxyResponse{Text: text})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ports.ProxyErrorBody{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
