package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"trashshred/internal/config"
	"trashshred/internal/erase"
	"trashshred/internal/logging"
	"trashshred/internal/reporting"
	"trashshred/internal/security"
	"trashshred/internal/trash"
)

var errPartial = cerr.New("some files could not be erased")

type sourceFactory func(cfg *config.Config, logger *logging.EnterpriseLogger) (trash.Source, error)

func runEmpty(cmd *cobra.Command, args []string) error {
	return execute(cmd, trash.Default)
}

func runErase(cmd *cobra.Command, args []string) error {
	return execute(cmd, func(cfg *config.Config, logger *logging.EnterpriseLogger) (trash.Source, error) {
		return trash.NewPathSource(args, recursive, logger), nil
	})
}

func execute(cmd *cobra.Command, newSource sourceFactory) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.NewEnterpriseLogger(cfg, debug)
	if err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	defer logger.Close()

	if profile != "" {
		logger.Log("INFO", "Profile applied", "profile", profile)
	}

	opts, err := eraseOptions(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Log("WARN", "Signal received, stopping after the current step", "signal", sig.String())
			fmt.Fprintf(out, "\nReceived %s, stopping...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	src, err := newSource(cfg, logger.Named("trash"))
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	logger.Log("INFO", "Starting trashshred", "version", reporting.Version, "source", src.Name(), "dry_run", dryRun)

	files, err := src.Files(ctx)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	files, rejected := security.FilterPaths(files, cfg.Security.ProtectedPaths, logger)
	for _, p := range rejected {
		fmt.Fprintf(out, "skipped protected path: %s\n", p)
	}

	run := reporting.Run{Source: src.Name(), Profile: profile, Options: opts, DryRun: dryRun}

	if dryRun {
		printDryRun(out, files, opts)
		saveReport(nil, run, cfg, startTime, EXIT_SUCCESS, logger)
		return nil
	}

	// leftover folders, links and bookkeeping are still removed, behind the same prompt
	if len(files) == 0 {
		fmt.Fprintln(out, "Nothing to erase.")
		if cfg.Security.RequireConfirmation && !security.ConfirmCleanup(cmd.InOrStdin(), out, src.Name()) {
			logger.Log("INFO", "Cleanup cancelled by user")
			return nil
		}
		return src.Finalize(ctx, nil)
	}

	if cfg.Security.RequireConfirmation && !security.Confirm(cmd.InOrStdin(), out, src.Name(), files) {
		logger.Log("INFO", "Cancelled by user")
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	engine := erase.NewEraseEngine(opts, logger.Named("erase"))
	progress := erase.NewProgress(len(files), out)
	summary := engine.Run(ctx, files, progress)

	var erased []string
	for _, r := range summary.Results {
		if r.Phase == erase.PhaseCompleted {
			erased = append(erased, r.Path)
		}
	}
	if err := src.Finalize(context.WithoutCancel(ctx), erased); err != nil {
		logger.Log("WARN", "Source cleanup incomplete", "source", src.Name(), "error", err.Error())
	}

	printSummary(out, summary)

	code := EXIT_SUCCESS
	if summary.Failed > 0 {
		code = EXIT_PARTIAL
	}
	saveReport(summary, run, cfg, startTime, code, logger)

	if summary.Failed > 0 {
		return cerr.Wrapf(errPartial, "%d of %d files failed", summary.Failed, summary.Total)
	}
	return nil
}

func printDryRun(out io.Writer, files []string, opts erase.Options) {
	if len(files) == 0 {
		fmt.Fprintln(out, "Dry run: nothing to erase.")
		return
	}
	fmt.Fprintf(out, "Dry run: %d files would be erased with %s (%d passes, encrypt=%t)\n",
		len(files), opts.Protocol, opts.Protocol.PassCount(), opts.Encrypt)
	for _, f := range files {
		fmt.Fprintf(out, "  %s\n", f)
	}
}

func printSummary(out io.Writer, summary *erase.Summary) {
	failures := summary.Failures()
	if len(failures) > 0 {
		fmt.Fprintln(out, "\nFailed:")
		for _, r := range failures {
			fmt.Fprintf(out, "  ✗ %s: %s\n", r.Path, r.Reason())
		}
	}
	fmt.Fprintf(out, "\n%d/%d files erased\n", summary.Completed, summary.Total)
	fmt.Fprintf(out, "Elapsed: %s\n", summary.Elapsed.Round(time.Millisecond))
}

func saveReport(summary *erase.Summary, run reporting.Run, cfg *config.Config, startTime time.Time, code int, logger *logging.EnterpriseLogger) {
	if !cfg.Reporting.Enabled {
		return
	}
	report := reporting.GenerateReport(summary, run, cfg, startTime, time.Now(), code)
	path, err := reporting.SaveReport(report, cfg)
	if err != nil {
		logger.Log("WARN", "Failed to save report", "error", err.Error())
		return
	}
	logger.Log("INFO", "Report saved", "run_id", report.RunID, "file", path)
}
