package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/govguard/govguard/internal/cli"
	"github.com/govguard/govguard/internal/domain"
)

func newMetricsCmd() *cobra.Command {
	var withHistory bool

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print change history metrics.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			repo, err := loadFixtures(cfg)
			if err != nil {
				return err
			}
			records, err := repo.ListChanges(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list changes: %w", err)
			}

			out := cmd.OutOrStdout()
			if err := cli.WriteMetrics(out, domain.ComputeMetrics(records)); err != nil {
				return err
			}
			if !withHistory {
				return nil
			}

			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			return cli.WriteHistory(out, records, domain.NewTimeFormatter(loc))
		},
	}

	cmd.Flags().BoolVar(&withHistory, "history", false, "also print the change history")
	return cmd
}
