package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/govguard/govguard/internal/adapter/ai"
	"github.com/govguard/govguard/internal/adapter/proxy"
	"github.com/govguard/govguard/internal/cli"
	"github.com/govguard/govguard/internal/config"
	"github.com/govguard/govguard/internal/infra/logger"
)

type analyzeOptions struct {
	codeFile  string
	query     string
	rulesFile string
	local     bool
	asJSON    bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Check a code snippet against the governance rules.",
		Long: `Send a code snippet and a question to the analysis proxy and print the compliance report.

Rules default to the governance rules shipped with the dashboard fixtures.
With --local the proxy runs in-process using the configured AI provider.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.codeFile, "code-file", "", "file containing the code to analyze (required)")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "question to ask about the code (required)")
	cmd.Flags().StringVar(&opts.rulesFile, "rules-file", "", "markdown file with governance rules")
	cmd.Flags().BoolVar(&opts.local, "local", false, "run the analysis proxy in-process")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the raw analysis as JSON")
	_ = cmd.MarkFlagRequired("code-file")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, cfg *config.Config, opts *analyzeOptions) error {
	code, err := os.ReadFile(opts.codeFile)
	if err != nil {
		return fmt.Errorf("failed to read code file: %w", err)
	}

	rules, err := readRules(ctx, cfg, opts.rulesFile)
	if err != nil {
		return err
	}

	log := newLogger(cfg, os.Stderr)

	analysisCfg := cfg.ToAnalysisConfig()
	if opts.local {
		baseURL, shutdown, err := startLocalProxy(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer shutdown()
		analysisCfg.ProxyBaseURL = baseURL
	}

	client := ai.NewAnalysisClient(ai.NewHTTPTransport(analysisCfg.ProxyBaseURL, cfg.AnalysisTimeout()), analysisCfg, log)
	result, err := client.AnalyzeCode(ctx, string(code), opts.query, rules)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return cli.WriteAnalysis(out, result)
}

func readRules(ctx context.Context, cfg *config.Config, rulesFile string) (string, error) {
	if rulesFile != "" {
		raw, err := os.ReadFile(rulesFile)
		if err != nil {
			return "", fmt.Errorf("failed to read rules file: %w", err)
		}
		return string(raw), nil
	}

	repo, err := loadFixtures(cfg)
	if err != nil {
		return "", err
	}
	return repo.GovernanceRules(ctx)
}

// startLocalProxy serves the proxy on a loopback port and returns its base URL
func startLocalProxy(ctx context.Context, cfg *config.Config, log logger.Logger) (string, func(), error) {
	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return "", nil, err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to start local proxy: %w", err)
	}

	handler := proxy.NewHandler(generator, proxy.Options{MaxPromptBytes: cfg.Proxy.MaxPromptBytes}, log)
	srv := &http.Server{Handler: proxy.NewRouter(handler, cfg.Analysis.EndpointPath, nil, log)}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "Local proxy stopped", err, nil)
		}
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return "http://" + ln.Addr().String(), shutdown, nil
}
