// Package app orchestrates the batch: it discovers subjects and their
// behavioral logs, fans them out over the worker pool, and writes the
// per-subject timing, summary, and figure outputs.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"empath/internal/adapters/batch"
	"empath/internal/adapters/plot"
	"empath/internal/config"
	"empath/internal/domain/blocks"
	"empath/internal/domain/eventlog"
	"empath/internal/domain/model"
	"empath/internal/domain/rating"
	"empath/internal/domain/reference"
	"empath/internal/domain/timing"
	"empath/pkg/logger"
	"empath/pkg/metrics"
)

// Output naming, following the study's established layout.
const (
	timingSuffix   = "_block-times_ea.1D"
	summarySuffix  = "_corr_push.csv"
	completeSuffix = "_complete.log"
	behavSubdir    = "behav"
	logExtension   = ".log"
)

// Service runs the event-log-to-regressor transformation for a study.
type Service struct {
	cfg       *config.Config
	store     *reference.Store
	trialType timing.TrialType
	logger    logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New validates the selector, loads the reference tables, and returns a
// ready service. Both failure modes are fatal for the invocation.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		logger: logger.Get().Named("app"),
	}
	for _, opt := range opts {
		opt(s)
	}

	trialType, err := timing.ParseTrialType(cfg.TrialType)
	if err != nil {
		return nil, err
	}
	s.trialType = trialType

	store, err := reference.Load(
		filepath.Join(cfg.AssetsDir, cfg.RatingsTable),
		filepath.Join(cfg.AssetsDir, cfg.DurationsTable),
	)
	if err != nil {
		return nil, err
	}
	s.store = store

	return s, nil
}

// Run processes every pending subject in the study. Per-unit failures are
// isolated by the pool; Run only fails when the batch cannot start at all.
func (s *Service) Run(ctx context.Context) error {
	units, err := s.discoverUnits(ctx)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		s.logger.Info(ctx, "no pending subjects")
		return nil
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	queue := batch.NewInMemoryQueue(batch.WithCapacity(s.cfg.QueueSize))
	pool := batch.NewPool(s.cfg.WorkerCount, queue, s)

	go func() {
		defer func() {
			_ = queue.Close()
		}()
		for _, u := range units {
			if !queue.Enqueue(ctx, u) {
				return
			}
		}
	}()

	pool.Run(ctx)
	return ctx.Err()
}

// discoverUnits walks <data>/behav for subjects with pending logs.
func (s *Service) discoverUnits(ctx context.Context) ([]batch.Unit, error) {
	behavDir := filepath.Join(s.cfg.DataDir, behavSubdir)
	entries, err := os.ReadDir(behavDir)
	if err != nil {
		return nil, fmt.Errorf("read behavioral dir: %w", err)
	}

	var units []batch.Unit
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		subject := e.Name()

		marker := filepath.Join(s.cfg.OutputDir, subject+completeSuffix)
		if _, err := os.Stat(marker); err == nil {
			s.logger.Debug(ctx, "subject already complete", logger.String("subject", subject))
			continue
		}

		logs, err := s.subjectLogs(filepath.Join(behavDir, subject))
		if err != nil {
			return nil, err
		}
		if len(logs) == 0 {
			s.logger.Warn(ctx, "no behavioral logs for subject", logger.String("subject", subject))
			continue
		}

		units = append(units, batch.Unit{
			RunID:   uuid.NewString(),
			Subject: subject,
			Logs:    logs,
		})
	}

	return units, nil
}

// subjectLogs lists a subject's task logs, sorted, capped at the
// configured runs per subject.
func (s *Service) subjectLogs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read subject dir: %w", err)
	}

	var logs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, logExtension) {
			continue
		}
		if !strings.Contains(name, s.cfg.LogPattern) {
			continue
		}
		logs = append(logs, filepath.Join(dir, name))
	}
	sort.Strings(logs)

	if len(logs) > s.cfg.RunsPerSubject {
		logs = logs[:s.cfg.RunsPerSubject]
	}
	return logs, nil
}

// Process implements batch.Processor for one subject: every run's
// stimulus-timing line plus one summary table, then the completion marker.
// Log-level failures (unreadable log, missing anchor) skip that log only;
// reference failures abort the subject.
func (s *Service) Process(ctx context.Context, u batch.Unit) error {
	timingPath := filepath.Join(s.cfg.OutputDir, u.Subject+timingSuffix)
	timingFile, err := os.Create(timingPath)
	if err != nil {
		return fmt.Errorf("create timing file: %w", err)
	}
	defer timingFile.Close()

	summaryPath := filepath.Join(s.cfg.OutputDir, u.Subject+summarySuffix)
	summaryFile, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer summaryFile.Close()

	if _, err := fmt.Fprintln(summaryFile, timing.SummaryHeader); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	for _, logPath := range u.Logs {
		results, series, err := s.processLog(ctx, logPath)
		if err != nil {
			if errors.Is(err, eventlog.ErrMissingAnchor) || errors.Is(err, eventlog.ErrUnreadableLog) {
				s.logger.Error(ctx, "skipping log",
					logger.String("run_id", u.RunID),
					logger.String("subject", u.Subject),
					logger.String("log", logPath),
					logger.Error(err),
				)
				continue
			}
			return err
		}

		if _, err := timingFile.WriteString(timing.FormatRun(results)); err != nil {
			return fmt.Errorf("write timing line: %w", err)
		}
		for _, r := range results {
			if _, err := fmt.Fprintln(summaryFile, timing.SummaryRow(r)); err != nil {
				return fmt.Errorf("write summary row: %w", err)
			}
		}

		if s.cfg.WritePlots {
			figPath := filepath.Join(s.cfg.OutputDir, figureName(u.Subject, logPath))
			if err := plot.WriteComparison(figPath, series); err != nil {
				// The figure is a side output; losing it is not worth
				// failing the subject.
				s.logger.Warn(ctx, "comparison figure not written",
					logger.String("subject", u.Subject),
					logger.Error(err),
				)
			}
		}

		metrics.RecordLogProcessed()
	}

	marker := filepath.Join(s.cfg.OutputDir, u.Subject+completeSuffix)
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		return fmt.Errorf("write completion marker: %w", err)
	}

	s.logger.Info(ctx, "subject complete",
		logger.String("run_id", u.RunID),
		logger.String("subject", u.Subject),
		logger.Int("logs", len(u.Logs)),
	)
	return nil
}

// processLog runs the reconstruction pipeline over one log and returns the
// retained block results plus the trace pairs for the comparison figure.
// The figure covers every block; the trial-type filter applies only to the
// emitted results.
func (s *Service) processLog(ctx context.Context, path string) ([]model.BlockResult, []plot.BlockSeries, error) {
	l, err := eventlog.Read(path)
	if err != nil {
		return nil, nil, err
	}

	segs := blocks.Segment(l.Videos, l.AnchorTime)

	inputs := make([]timing.BlockInput, 0, len(segs))
	series := make([]plot.BlockSeries, 0, len(segs))
	for i, b := range segs {
		next := rating.FinalBlock
		if i+1 < len(segs) {
			next = segs[i+1].Index
		}

		trace := rating.Reconstruct(l.Responses, l.Pictures, b.Index, next, b.StartTime)

		ref, duration, err := s.store.Lookup(b.Name)
		if err != nil {
			return nil, nil, err
		}

		alignment := reference.Align(trace.Samples, ref, trace.ButtonPresses)

		inputs = append(inputs, timing.BlockInput{
			Block:     b,
			Trace:     trace,
			Alignment: alignment,
			Duration:  duration,
		})
		series = append(series, plot.BlockSeries{
			Name:        b.Name,
			Correlation: alignment.Correlation,
			Participant: alignment.Participant,
			Reference:   alignment.Reference,
		})
	}

	results := timing.Emit(s.trialType, inputs)

	s.logger.Debug(ctx, "log processed",
		logger.String("log", path),
		logger.Int("blocks", len(segs)),
		logger.Int("retained", len(results)),
	)
	return results, series, nil
}

// figureName derives the comparison-figure filename from a log path, e.g.
// subj01 + /.../task_run1.log -> subj01_task_run1.png.
func figureName(subject, logPath string) string {
	base := strings.TrimSuffix(filepath.Base(logPath), logExtension)
	return subject + "_" + base + ".png"
}
