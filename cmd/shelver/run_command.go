package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"shelver/internal/config"
	"shelver/internal/journal"
	"shelver/internal/logging"
	"shelver/internal/mapping"
	"shelver/internal/readiness"
	"shelver/internal/runner"
	"shelver/internal/services"
	"shelver/internal/transfer"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		dryRun     bool
		workers    int
		minSizeMB  int
		noVerify   bool
		sourceDir  string
		archiveDir string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the staging directory once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers.Count = workers
			}
			if cmd.Flags().Changed("min-size-mb") {
				cfg.Transfer.MinSizeMB = minSizeMB
			}
			if noVerify {
				cfg.Transfer.VerifyChecksum = false
			}
			if strings.TrimSpace(sourceDir) != "" {
				cfg.Paths.SourceDir = sourceDir
			}
			if strings.TrimSpace(archiveDir) != "" {
				cfg.Paths.ArchiveDir = archiveDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runBatch(cmd, cfg, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would move without touching any file")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent transfer slots")
	cmd.Flags().IntVar(&minSizeMB, "min-size-mb", 0, "Minimum candidate size in megabytes")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip checksum verification (size is always checked)")
	cmd.Flags().StringVar(&sourceDir, "source", "", "Staging directory override")
	cmd.Flags().StringVar(&archiveDir, "dest", "", "Archive base directory override")
	return cmd
}

func runBatch(cmd *cobra.Command, cfg *config.Config, dryRun bool) error {
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "shelver.log")},
	})
	if err != nil {
		return err
	}

	// One batch per machine at a time: concurrent invocations would race on
	// source claims and partial reaping.
	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "shelver.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another shelver run is already in progress (lock %s)", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	start := time.Now()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx := services.WithRunID(sigCtx, runID)

	categories, err := mapping.Load("category", cfg.Paths.CategoryMap)
	if err != nil {
		return err
	}
	activities, err := mapping.Load("activity", cfg.Paths.ActivityMap)
	if err != nil {
		return err
	}

	var (
		store     *journal.Store
		sink      runner.OutcomeSink
		firstSeen runner.FirstSeenFunc
	)
	if cfg.Journal.Enabled {
		store, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		sink = journalSink{store: store, runID: runID}
		firstSeen = func(_ context.Context, sourcePath string) (time.Time, bool) {
			ts, ok, err := store.EarliestPendingObservation(context.Background(), sourcePath)
			if err != nil || !ok {
				return time.Time{}, false
			}
			return ts, true
		}
		if err := store.BeginRun(context.Background(), runID, start, dryRun); err != nil {
			return err
		}
	}

	gate := readiness.NewGate(
		int64(cfg.Transfer.MinSizeMB)*1024*1024,
		time.Duration(cfg.Transfer.StabilityIntervalSecs)*time.Second,
		time.Duration(cfg.Transfer.MaxObservationSecs)*time.Second,
		logger,
	)
	engine := transfer.NewEngine(transfer.Options{
		MaxAttempts: cfg.Transfer.MaxAttempts,
		BackoffBase: time.Duration(cfg.Transfer.BackoffBaseMillis) * time.Millisecond,
		RunToken:    strings.ReplaceAll(runID, "-", "")[:12],
		DryRun:      dryRun,
	}, logger)
	coord := runner.New(runner.Options{
		ArchiveDir:     cfg.Paths.ArchiveDir,
		Workers:        cfg.Workers.Count,
		VerifyChecksum: cfg.Transfer.VerifyChecksum,
		FirstSeen:      firstSeen,
	}, categories, activities, gate, engine, sink, logger)

	candidates, err := coord.Discover(ctx, cfg.Paths.SourceDir)
	if err != nil {
		return err
	}
	metrics := coord.Run(ctx, candidates)

	if store != nil {
		if err := store.FinishRun(context.Background(), runID, time.Now(), journal.Summary{
			Discovered: metrics.Discovered,
			Moved:      metrics.Moved + metrics.WouldMove,
			Skipped:    metrics.Skipped,
			Errored:    metrics.Errored,
			BytesMoved: metrics.BytesMoved,
			Elapsed:    metrics.Elapsed,
		}); err != nil {
			logger.Warn("journal summary write failed", logging.Error(err))
		}
	}

	printRunSummary(cmd, runID, dryRun, metrics)

	if err := sigCtx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	if metrics.Errored > 0 {
		return fmt.Errorf("run completed with %d errored file(s)", metrics.Errored)
	}
	return nil
}

type journalSink struct {
	store *journal.Store
	runID string
}

// Record writes with a background context so outcomes of a cancelled run are
// still journaled.
func (s journalSink) Record(_ context.Context, outcome transfer.Outcome) error {
	return s.store.Record(context.Background(), s.runID, outcome)
}

func printRunSummary(cmd *cobra.Command, runID string, dryRun bool, metrics runner.Metrics) {
	movedLabel := "Moved"
	if dryRun {
		movedLabel = "Would move"
	}
	moved := metrics.Moved
	if dryRun {
		moved = metrics.WouldMove
	}

	rows := [][]string{
		{"Run", runID},
		{"Mode", runMode(dryRun)},
		{"Discovered", fmt.Sprintf("%d", metrics.Discovered)},
		{movedLabel, fmt.Sprintf("%d", moved)},
		{"Skipped", fmt.Sprintf("%d", metrics.Skipped)},
		{"Errored", fmt.Sprintf("%d", metrics.Errored)},
		{"Bytes moved", humanize.IBytes(uint64(metrics.BytesMoved))},
		{"Elapsed", metrics.Elapsed.Round(time.Millisecond).String()},
	}
	if metrics.CleanupFailures > 0 {
		rows = append(rows, []string{"Cleanup failures", fmt.Sprintf("%d", metrics.CleanupFailures)})
	}
	if metrics.PeakRSSBytes > 0 {
		rows = append(rows, []string{"Peak memory", humanize.IBytes(uint64(metrics.PeakRSSBytes))})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func runMode(dryRun bool) string {
	if dryRun {
		return "dry-run"
	}
	return "live"
}
