package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/govguard/govguard/internal/adapter/ai"
	"github.com/govguard/govguard/internal/adapter/persistence"
	"github.com/govguard/govguard/internal/config"
	"github.com/govguard/govguard/internal/infra/logger"
	"github.com/govguard/govguard/internal/ports"
)

// Set by the linker at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "govguard",
		Short:         "Governance dashboard for the trading bot.",
		Long:          "govguard serves the governance dashboard API and the analysis proxy, and runs one-shot compliance analyses from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newAnalyzeCmd(), newMetricsCmd(), newVersionCmd())
	return root
}

// loadConfig loads and validates the environment configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, out io.Writer) logger.Logger {
	return logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "govguard",
		Output:      out,
	})
}

// loadFixtures reads FIXTURES_FILE when set, otherwise the embedded fixtures
func loadFixtures(cfg *config.Config) (*persistence.FixtureRepository, error) {
	now := time.Now()
	if cfg.Server.FixturesFile != "" {
		return persistence.LoadFixtureFile(cfg.Server.FixturesFile, now)
	}
	return persistence.NewFixtureRepository(now)
}

// newGenerator builds the text generator selected by AI_PROVIDER
func newGenerator(ctx context.Context, cfg *config.Config) (ports.TextGenerator, error) {
	switch cfg.Proxy.Provider {
	case "gemini":
		return ai.NewGeminiAdapter(ctx, cfg.Proxy.APIKey, cfg.Proxy.Model)
	case "mock":
		return ai.NewMockGenerator(cfg.Proxy.MockLatency, 0), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Proxy.Provider)
	}
}
