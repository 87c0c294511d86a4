package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"keepsake/internal/reconcile"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the archive against the catalog",
	}

	verifyCmd.AddCommand(newVerifyPathsCommand(ctx))
	verifyCmd.AddCommand(newVerifyDeepCommand(ctx))

	return verifyCmd
}

func newVerifyPathsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Compare catalog paths against files on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := reconcile.CheckPaths(cmd.Context(), store, cfg.Paths.ArchiveDir)
			if err != nil {
				return fmt.Errorf("check paths: %w", err)
			}
			if err := reconcile.RenderPaths(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Clean() {
				return fmt.Errorf("archive and catalog disagree on %d paths", len(report.Missing)+len(report.Untracked))
			}
			return nil
		},
	}
}

func newVerifyDeepCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var csvPath string

	cmd := &cobra.Command{
		Use:   "deep",
		Short: "Re-hash every archived file and reconcile against the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			poolWidth := workers
			if poolWidth <= 0 {
				poolWidth = cfg.Verify.Workers
			}
			opts := reconcile.Options{
				Workers:     poolWidth,
				MaxAttempts: cfg.Ingest.HashMaxAttempts,
				RetryDelay:  time.Duration(cfg.Ingest.HashRetryDelayMS) * time.Millisecond,
				OnResult:    reconcile.ProgressCallback("verifying"),
			}

			report, err := reconcile.Deep(runCtx, store, cfg.Paths.ArchiveDir, opts, logger)
			if err != nil {
				return fmt.Errorf("deep verify: %w", err)
			}
			if err := reconcile.Render(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if csvPath != "" {
				if err := writeReportCSV(csvPath, report); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote CSV report to %s\n", csvPath)
			}
			if report.Partial {
				return fmt.Errorf("verification stopped before covering every file")
			}
			if !report.Clean() {
				return fmt.Errorf("archive does not match catalog")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Hash pool width (defaults to the configured value)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Also write the report as CSV to this path")
	return cmd
}

func writeReportCSV(path string, report reconcile.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV report: %w", err)
	}
	if err := reconcile.WriteCSV(f, report); err != nil {
		f.Close()
		return fmt.Errorf("write CSV report: %w", err)
	}
	return f.Close()
}
