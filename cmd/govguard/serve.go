package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/govguard/govguard/internal/adapter/ai"
	httpadapter "github.com/govguard/govguard/internal/adapter/http"
	"github.com/govguard/govguard/internal/adapter/proxy"
	"github.com/govguard/govguard/internal/config"
	"github.com/govguard/govguard/internal/domain"
	"github.com/govguard/govguard/internal/infra/logger"
	"github.com/govguard/govguard/internal/infra/sse"
	"github.com/govguard/govguard/internal/usecase"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API and the analysis proxy.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger(cfg, os.Stdout)
	log.Info(ctx, "Application starting", map[string]interface{}{
		"version":  version,
		"env":      cfg.Server.Environment,
		"provider": cfg.Proxy.Provider,
	})

	proxyServer, closeRedis, err := buildProxyServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRedis()

	dashboardServer, cleanup, err := buildDashboardServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(proxyServer.Start)
	g.Go(dashboardServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return errors.Join(
			dashboardServer.Shutdown(shutdownCtx),
			proxyServer.Shutdown(shutdownCtx),
		)
	})

	if err := g.Wait(); err != nil {
		log.Error(context.Background(), "Server stopped with error", err, nil)
		return err
	}
	log.Info(context.Background(), "Servers stopped", nil)
	return nil
}

// buildProxyServer wires the generator with the optional Redis cache and rate limiter
func buildProxyServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*proxy.Server, func(), error) {
	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		log.Error(ctx, "Failed to initialize AI provider", err, map[string]interface{}{"provider": cfg.Proxy.Provider})
		return nil, nil, err
	}

	log.Info(ctx, "AI provider initialized", map[string]interface{}{
		"provider": generator.Provider(),
		"model":    generator.Model(),
	})

	opts := proxy.Options{
		MaxPromptBytes:    cfg.Proxy.MaxPromptBytes,
		TrustProxyHeaders: cfg.RateLimit.TrustProxyHeaders,
	}

	closeRedis := func() {}
	if cfg.Redis.CacheEnabled || cfg.RateLimit.Enabled {
		client, err := proxy.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			// Caching and rate limiting are optional; the proxy still serves without them.
			log.Error(ctx, "Failed to connect to Redis, continuing without cache and rate limiting", err, nil)
		} else {
			closeRedis = func() { _ = client.Close() }
			attachRedis(&opts, client, cfg)
			log.Info(ctx, "Redis connection established", map[string]interface{}{
				"cache":      cfg.Redis.CacheEnabled,
				"rate_limit": cfg.RateLimit.Enabled,
			})
		}
	}

	handler := proxy.NewHandler(generator, opts, log)
	server := proxy.NewServer(proxy.ServerConfig{
		Port:           cfg.Proxy.Port,
		EndpointPath:   cfg.Analysis.EndpointPath,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
	}, handler, log)
	return server, closeRedis, nil
}

func attachRedis(opts *proxy.Options, client *redis.Client, cfg *config.Config) {
	if cfg.Redis.CacheEnabled {
		opts.Cache = proxy.NewRedisCache(client, cfg.Redis.CacheTTL)
	}
	if cfg.RateLimit.Enabled {
		limiter := proxy.NewRedisRateLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		opts.Limiter = limiter
		opts.RetryAfter = limiter.Window()
	}
}

// buildDashboardServer loads fixtures into the dashboard and wires the event stream
func buildDashboardServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*httpadapter.Server, func(), error) {
	repo, err := loadFixtures(cfg)
	if err != nil {
		log.Error(ctx, "Failed to load fixtures", err, map[string]interface{}{"file": cfg.Server.FixturesFile})
		return nil, nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	transport := ai.NewHTTPTransport(cfg.Analysis.ProxyBaseURL, cfg.AnalysisTimeout())
	client := ai.NewAnalysisClient(transport, cfg.ToAnalysisConfig(), log)

	dashboard := usecase.NewDashboardUseCase(client, log)
	if err := dashboard.Load(ctx, repo); err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var events httpadapter.EventStreamer
	if cfg.SSE.Enabled {
		streamer := sse.NewStreamer(cfg.SSE.HeartbeatInterval, log)
		streamer.Start(ctx)
		cleanup = dashboard.Subscribe(streamer.Publish)
		events = streamer
	}

	handler := httpadapter.NewDashboardHandler(dashboard, domain.NewTimeFormatter(loc), log)
	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Port:             cfg.Server.Port,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}, handler, events, log)
	return server, cleanup, nil
}
