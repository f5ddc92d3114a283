package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"shelver/internal/classify"
	"shelver/internal/layout"
	"shelver/internal/logging"
	"shelver/internal/mapping"
	"shelver/internal/readiness"
	"shelver/internal/services"
	"shelver/internal/transfer"
)

// OutcomeSink receives each candidate's terminal record. The journal adapter
// implements it; a nil sink is valid and drops records.
type OutcomeSink interface {
	Record(ctx context.Context, outcome transfer.Outcome) error
}

// FirstSeenFunc reports when a source path first went not-ready in an earlier
// run, so the readiness observation window spans invocations.
type FirstSeenFunc func(ctx context.Context, sourcePath string) (time.Time, bool)

// Options configures a Coordinator.
type Options struct {
	ArchiveDir     string
	Workers        int
	VerifyChecksum bool
	// FirstSeen is optional; without it every run starts a fresh observation
	// window per candidate.
	FirstSeen FirstSeenFunc
}

// Coordinator drives candidates through classification, readiness, and
// transfer. Each candidate is claimed by exactly one worker slot.
type Coordinator struct {
	opts       Options
	categories *mapping.Mapping
	activities *mapping.Mapping
	gate       *readiness.Gate
	engine     *transfer.Engine
	sink       OutcomeSink
	logger     *slog.Logger
}

// New constructs a coordinator. Workers below one are clamped to sequential.
func New(opts Options, categories, activities *mapping.Mapping, gate *readiness.Gate, engine *transfer.Engine, sink OutcomeSink, logger *slog.Logger) *Coordinator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Coordinator{
		opts:       opts,
		categories: categories,
		activities: activities,
		gate:       gate,
		engine:     engine,
		sink:       sink,
		logger:     logging.NewComponentLogger(logger, "runner"),
	}
}

// Discover lists candidate files in the staging directory, in lexical order.
// Subdirectories, dotfiles, and partial-write artifacts are dropped silently;
// they are not candidates and never count as skips.
func (c *Coordinator) Discover(ctx context.Context, sourceDir string) ([]*readiness.Candidate, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "runner", "discover",
			fmt.Sprintf("list staging directory %s", sourceDir), err)
	}

	now := time.Now()
	var candidates []*readiness.Candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || classify.IsTemporary(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Vanished between ReadDir and Info; the next run will see it if
			// it comes back.
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		firstSeen := now
		if c.opts.FirstSeen != nil {
			if earlier, ok := c.opts.FirstSeen(ctx, filepath.Join(sourceDir, name)); ok && earlier.Before(now) {
				firstSeen = earlier
			}
		}
		candidates = append(candidates, &readiness.Candidate{
			SourcePath: filepath.Join(sourceDir, name),
			Size:       info.Size(),
			ModTime:    info.ModTime(),
			FirstSeen:  firstSeen,
		})
	}
	c.logger.Info("discovery complete",
		logging.String("source_dir", sourceDir),
		logging.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// Run processes every candidate to exactly one outcome and returns the run's
// aggregate metrics. On cancellation, unclaimed candidates are recorded as
// not-ready so the tally still covers the whole batch.
func (c *Coordinator) Run(ctx context.Context, candidates []*readiness.Candidate) Metrics {
	start := time.Now()
	metrics := Metrics{Discovered: len(candidates)}

	pending := newPendingSet(candidates)
	results := make(chan transfer.Outcome, len(candidates))

	var wg sync.WaitGroup
	for slot := 1; slot <= c.opts.Workers; slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				cand, ok := pending.claim()
				if !ok {
					return
				}
				wctx := services.WithSourcePath(services.WithWorker(ctx, slot), cand.SourcePath)
				results <- c.processOne(wctx, cand)
			}
		}(slot)
	}
	wg.Wait()

	// Unclaimed candidates after cancellation still get a record each.
	for {
		cand, ok := pending.claim()
		if !ok {
			break
		}
		results <- transfer.Outcome{
			Kind:       transfer.OutcomeSkippedNotReady,
			SourcePath: cand.SourcePath,
			Reason:     "run cancelled before processing",
		}
	}
	close(results)

	for outcome := range results {
		metrics.observe(outcome)
		c.record(ctx, outcome)
	}

	metrics.Elapsed = time.Since(start)
	metrics.PeakRSSBytes = peakRSSBytes()
	return metrics
}

func (c *Coordinator) record(ctx context.Context, outcome transfer.Outcome) {
	logger := c.logger.With(
		logging.String("kind", string(outcome.Kind)),
		logging.String(logging.FieldSource, outcome.SourcePath),
	)
	switch outcome.Kind {
	case transfer.OutcomeMoved, transfer.OutcomeWouldMove:
		logger.Info("candidate resolved",
			logging.String("destination", outcome.DestPath),
			logging.Int64("bytes", outcome.Bytes),
			logging.Int("attempts", outcome.Attempts),
		)
	case transfer.OutcomeErrored:
		logger.Error("candidate failed",
			logging.Int("attempts", outcome.Attempts),
			logging.String("reason", outcome.Reason),
		)
	default:
		logger.Info("candidate skipped", logging.String("reason", outcome.Reason))
	}

	if c.sink == nil {
		return
	}
	if err := c.sink.Record(ctx, outcome); err != nil {
		c.logger.Warn("journal write failed", logging.Error(err))
	}
}

// processOne takes a claimed candidate to its terminal outcome. It never
// returns an error; failures become outcome records.
func (c *Coordinator) processOne(ctx context.Context, cand *readiness.Candidate) transfer.Outcome {
	parsed, err := classify.Classify(filepath.Base(cand.SourcePath))
	if err != nil {
		return transfer.Outcome{
			Kind:       transfer.OutcomeSkippedInvalid,
			SourcePath: cand.SourcePath,
			Reason:     err.Error(),
		}
	}

	categoryFolder, activityFolder, reason := c.resolveFolders(parsed)
	if reason != "" {
		return transfer.Outcome{
			Kind:       transfer.OutcomeSkippedUnknown,
			SourcePath: cand.SourcePath,
			Reason:     reason,
		}
	}

	result, err := c.gate.Evaluate(ctx, cand)
	if err != nil {
		return transfer.Outcome{
			Kind:       transfer.OutcomeSkippedNotReady,
			SourcePath: cand.SourcePath,
			Reason:     fmt.Sprintf("readiness evaluation interrupted: %v", err),
		}
	}
	if !result.Ready() {
		return c.notReadyOutcome(cand, result)
	}

	// The partition date is the modification time captured when readiness
	// succeeded, so a file modified on one date archives under that date even
	// when moved later.
	dest, err := layout.Build(c.opts.ArchiveDir, categoryFolder, activityFolder, cand.ModTime, parsed.Filename())
	if err != nil {
		return transfer.Outcome{
			Kind:       transfer.OutcomeErrored,
			SourcePath: cand.SourcePath,
			Reason:     err.Error(),
		}
	}

	plan := transfer.Plan{
		SourcePath:     cand.SourcePath,
		Destination:    dest,
		ExpectedSize:   cand.Size,
		VerifyChecksum: c.opts.VerifyChecksum,
	}
	return c.engine.Execute(ctx, plan)
}

// resolveFolders maps both codes, category first. The reason names the code
// that failed and carries the other one for diagnosis.
func (c *Coordinator) resolveFolders(parsed classify.ParsedName) (categoryFolder, activityFolder, reason string) {
	categoryFolder, ok := c.categories.Resolve(parsed.CategoryCode)
	if !ok {
		return "", "", fmt.Sprintf("category code %s not in mapping (activity code %s)",
			parsed.CategoryCode, parsed.ActivityCode)
	}
	activityFolder, ok = c.activities.Resolve(parsed.ActivityCode)
	if !ok {
		return "", "", fmt.Sprintf("activity code %s not in mapping (category code %s)",
			parsed.ActivityCode, parsed.CategoryCode)
	}
	return categoryFolder, activityFolder, ""
}

func (c *Coordinator) notReadyOutcome(cand *readiness.Candidate, result readiness.Result) transfer.Outcome {
	outcome := transfer.Outcome{SourcePath: cand.SourcePath, Reason: result.Reason}
	switch result.Code {
	case readiness.CodeTooSmall:
		outcome.Kind = transfer.OutcomeSkippedTooSmall
	case readiness.CodeVanished, readiness.CodeExpired:
		outcome.Kind = transfer.OutcomeErrored
	default:
		outcome.Kind = transfer.OutcomeSkippedNotReady
	}
	return outcome
}

// pendingSet is the claim barrier: each candidate leaves the set exactly once,
// in discovery order, no matter how many workers race on it.
type pendingSet struct {
	mu    sync.Mutex
	queue []*readiness.Candidate
}

func newPendingSet(candidates []*readiness.Candidate) *pendingSet {
	queue := make([]*readiness.Candidate, len(candidates))
	copy(queue, candidates)
	return &pendingSet{queue: queue}
}

func (p *pendingSet) claim() (*readiness.Candidate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil, false
	}
	cand := p.queue[0]
	p.queue = p.queue[1:]
	return cand, true
}
