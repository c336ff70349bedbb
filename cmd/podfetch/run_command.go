package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"podfetch/internal/history"
	"podfetch/internal/run"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Refresh feeds and download missing episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, ctx, run.ModeFull)
		},
	}
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh feeds and record discoveries without downloading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, ctx, run.ModeRefreshOnly)
		},
	}
}

func executeRun(cmd *cobra.Command, cmdCtx *commandContext, mode run.Mode) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cmdCtx.logger()
	if err != nil {
		return err
	}
	if len(cfg.Podcasts) == 0 {
		return fmt.Errorf("no podcasts configured; edit %s", cmdCtx.cfgPath)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	// One run at a time per state directory: concurrent runs would race on
	// the history database and the partial files.
	lock := flock.New(filepath.Join(cfg.Paths.StateDir, "podfetch.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another podfetch run is already in progress")
	}
	defer func() { _ = lock.Unlock() }()

	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := run.New(cfg, store, logger)
	reports, runErr := runner.RunOnce(runCtx, mode)

	printReports(cmd, reports, mode)

	if runErr != nil {
		return runErr
	}
	if run.AnyFailure(reports) {
		return errors.New("run finished with failures")
	}
	return nil
}

func printReports(cmd *cobra.Command, reports []run.Report, mode run.Mode) {
	headers := []string{"PODCAST", "ITEMS", "NEW", "DONE", "DOWNLOADED", "FAILED", "STATUS"}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		status := "ok"
		switch {
		case r.Disabled:
			status = "disabled"
		case r.Err != nil:
			status = r.Err.Error()
		case r.DryRun:
			status = "dry run"
		case mode == run.ModeRefreshOnly:
			status = "refreshed"
		}
		rows = append(rows, []string{
			r.Podcast,
			strconv.Itoa(r.Discovered),
			strconv.Itoa(r.New),
			strconv.Itoa(r.AlreadyDone),
			strconv.Itoa(r.Downloaded),
			strconv.Itoa(r.Failed),
			status,
		})
	}
	cmd.Println(renderTable(headers, rows, 1, 2, 3, 4, 5))

	for _, r := range reports {
		for _, f := range r.Failures {
			cmd.Printf("failed: %s: %s: %v\n", r.Podcast, f.Episode.SourceURL, f.Err)
		}
		for _, f := range r.StateErrors {
			cmd.Printf("completion not recorded (will re-download next run): %s: %s: %v\n",
				r.Podcast, f.Episode.SourceURL, f.Err)
		}
	}

	t := run.Total(reports)
	if mode == run.ModeRefreshOnly {
		cmd.Printf("%d podcasts refreshed, %d new episodes discovered\n", t.Podcasts, t.New)
		return
	}
	cmd.Printf("%d podcasts, %d downloaded, %d failed, %d already done\n",
		t.Podcasts, t.Downloaded, t.Failed, t.AlreadyDone)
}
