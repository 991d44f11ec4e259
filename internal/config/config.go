package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/govguard/govguard/internal/ports"
)

// Config represents application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Proxy     ProxyConfig     `json:"proxy"`
	Analysis  AnalysisConfig  `json:"analysis"`
	Redis     RedisConfig     `json:"redis"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logging   LoggingConfig   `json:"logging"`
	CORS      CORSConfig      `json:"cors"`
	SSE       SSEConfig       `json:"sse"`
	Display   DisplayConfig   `json:"display"`
}

// ServerConfig represents the dashboard HTTP server configuration
type ServerConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	Environment     string        `json:"environment"`
	FixturesFile    string        `json:"fixtures_file"`
}

// ProxyConfig represents the analysis proxy server configuration
type ProxyConfig struct {
	Port           string        `json:"port"`
	Provider       string        `json:"provider"` // mock, gemini
	Model          string        `json:"model"`
	APIKey         string        `json:"-"`
	MockLatency    time.Duration `json:"mock_latency"`
	MaxPromptBytes int64         `json:"max_prompt_bytes"`
}

// AnalysisConfig represents the analysis client configuration
type AnalysisConfig struct {
	ProxyBaseURL string `json:"proxy_base_url"`
	EndpointPath string `json:"endpoint_path"`
	TimeoutMs    int    `json:"timeout_ms"`
}

// RedisConfig represents Redis configuration
type RedisConfig struct {
	URL          string        `json:"url"`
	CacheEnabled bool          `json:"cache_enabled"`
	CacheTTL     time.Duration `json:"cache_ttl"`
}

// RateLimitConfig represents proxy rate limiting configuration
type RateLimitConfig struct {
	Enabled  bool          `json:"enabled"`
	Requests int           `json:"requests"`
	Window   time.Duration `json:"window"`
	// TrustProxyHeaders keys limits on X-Forwarded-For; enable only behind a reverse proxy
	TrustProxyHeaders bool `json:"trust_proxy_headers"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json, text
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// SSEConfig represents SSE streaming configuration
type SSEConfig struct {
	Enabled           bool          `json:"enabled"`
	HeartbeatInterval time.Duration `json:"heartbeat_interval"`
}

// DisplayConfig controls how timestamps are rendered
type DisplayConfig struct {
	TimeZone string `json:"time_zone"`
}

// Load loads configuration from a .env file (if present), environment variables and defaults
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaults := ports.DefaultAnalysisConfig()

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			Environment:     getEnv("ENVIRONMENT", "development"),
			FixturesFile:    getEnv("FIXTURES_FILE", ""),
		},
		Proxy: ProxyConfig{
			Port:           getEnv("PROXY_PORT", "8081"),
			Provider:       strings.ToLower(getEnv("AI_PROVIDER", "mock")),
			Model:          getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			MockLatency:    getEnvDuration("AI_MOCK_LATENCY", 300*time.Millisecond),
			MaxPromptBytes: int64(getEnvInt("PROXY_MAX_PROMPT_BYTES", 1<<20)),
		},
		Analysis: AnalysisConfig{
			ProxyBaseURL: getEnv("ANALYSIS_PROXY_URL", defaults.ProxyBaseURL),
			EndpointPath: getEnv("ANALYSIS_ENDPOINT_PATH", defaults.EndpointPath),
			TimeoutMs:    getEnvInt("ANALYSIS_TIMEOUT_MS", defaults.TimeoutMs),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
			CacheEnabled: getEnvBool("AI_ENABLE_CACHE", false),
			CacheTTL:     getEnvDuration("AI_CACHE_TTL", time.Hour),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvBool("RATE_LIMIT_ENABLED", false),
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

			TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:4200"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		},
		SSE: SSEConfig{
			Enabled:           getEnvBool("SSE_ENABLED", true),
			HeartbeatInterval: getEnvDuration("SSE_HEARTBEAT_INTERVAL", 15*time.Second),
		},
		Display: DisplayConfig{
			TimeZone: getEnv("DISPLAY_TIMEZONE", "Local"),
		},
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Proxy.Port == "" {
		return fmt.Errorf("proxy port is required")
	}

	switch c.Proxy.Provider {
	case "mock":
		if c.IsProduction() {
			return fmt.Errorf("AI provider mock is not allowed in production")
		}
	case "gemini":
		if c.Proxy.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider: %s", c.Proxy.Provider)
		}
	default:
		return fmt.Errorf("unsupported AI provider: %s", c.Proxy.Provider)
	}

	if c.Analysis.ProxyBaseURL == "" {
		return fmt.Errorf("analysis proxy URL is required")
	}

	if !strings.HasPrefix(c.Analysis.EndpointPath, "/") {
		return fmt.Errorf("analysis endpoint path must start with '/': %q", c.Analysis.EndpointPath)
	}

	if c.Analysis.TimeoutMs <= 0 {
		return fmt.Errorf("analysis timeout must be positive, got %d", c.Analysis.TimeoutMs)
	}

	if (c.Redis.CacheEnabled || c.RateLimit.Enabled) && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when caching or rate limiting is enabled")
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit requests and window must be positive")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Location resolves the display time zone
func (c *Config) Location() (*time.Location, error) {
	if c.Display.TimeZone == "" || c.Display.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Display.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid display time zone %q: %w", c.Display.TimeZone, err)
	}
	return loc, nil
}

// ToAnalysisConfig converts to ports.AnalysisConfig
func (c *Config) ToAnalysisConfig() ports.AnalysisConfig {
	return ports.AnalysisConfig{
		ProxyBaseURL: c.Analysis.ProxyBaseURL,
		EndpointPath: c.Analysis.EndpointPath,
		TimeoutMs:    c.Analysis.TimeoutMs,
	}
}

// AnalysisTimeout returns the analysis deadline as a duration
func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.Analysis.TimeoutMs) * time.Millisecond
}

// Helper functions for environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
