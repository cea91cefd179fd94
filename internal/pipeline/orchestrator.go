// Package pipeline coordinates backup runs: it produces archives, fans them
// out to the active storage tiers and prunes expired objects.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/imedwei/gfs-backup/internal/archive"
	"github.com/imedwei/gfs-backup/internal/config"
	"github.com/imedwei/gfs-backup/internal/metrics"
	"github.com/imedwei/gfs-backup/internal/ratelimit"
	"github.com/imedwei/gfs-backup/internal/schedule"
	"github.com/imedwei/gfs-backup/internal/storage"
)

// Orchestrator coordinates the backup and retention process.
type Orchestrator struct {
	config      *config.Config
	storage     storage.Gateway
	rateLimiter ratelimit.RateLimiter
	logger      *slog.Logger
	workDir     string

	// now is the run clock, replaceable in tests.
	now func() time.Time

	// producerFor builds the archive producer for a source, replaceable
	// in tests.
	producerFor func(config.SourceConfig) (archive.Producer, error)
}

// NewOrchestrator creates a new backup orchestrator. With force set the
// minimum interval guard is bypassed for this orchestrator's runs.
func NewOrchestrator(cfg *config.Config, gateway storage.Gateway, force bool, logger *slog.Logger) *Orchestrator {
	rateLimiter := ratelimit.NewTimeBasedLimiter(ratelimit.Config{
		MinInterval: cfg.MinInterval(),
		Force:       force,
	})

	return &Orchestrator{
		config:      cfg,
		storage:     gateway,
		rateLimiter: rateLimiter,
		logger:      logger,
		workDir:     cfg.WorkDir,
		now:         time.Now,
		producerFor: archive.ForSource,
	}
}

// Run executes one full backup run: archive and upload every source, then
// prune every tier. Step failures are collected rather than fatal; the
// returned error joins everything that went wrong.
func (o *Orchestrator) Run(ctx context.Context) error {
	start := time.Now()
	logger := o.logger.With("run_id", uuid.NewString())

	logger.Info("Starting backup run",
		"layout", o.config.Retention.Layout,
		"sources", len(o.config.Sources),
	)

	var errs []error
	if err := o.backup(ctx, logger); err != nil {
		errs = append(errs, err)
	}
	if err := o.prune(ctx, logger); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	metrics.RecordRun(err == nil)
	if err == nil {
		metrics.LastSuccessTimestamp.Set(float64(o.now().Unix()))
	}
	metrics.RunDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())

	logger.Info("Backup run finished",
		"duration", time.Since(start),
		"failed_steps", len(errs),
	)
	return err
}

// Backup archives and uploads every source without pruning.
func (o *Orchestrator) Backup(ctx context.Context) error {
	return o.backup(ctx, o.logger.With("run_id", uuid.NewString()))
}

func (o *Orchestrator) backup(ctx context.Context, logger *slog.Logger) error {
	now := o.now()

	lastBackup, err := o.storage.LastBackupTime(ctx, schedule.TierDaily.Prefix())
	if err != nil {
		logger.Warn("Failed to get last backup time, proceeding with backup", "error", err)
	} else {
		proceed, reason := o.rateLimiter.ShouldRun(lastBackup, now)
		logger.Info("Run guard decision", "proceed", proceed, "reason", reason)
		if !proceed {
			metrics.RunsSkipped.Inc()
			return nil
		}
	}

	tiers := []schedule.Tier{schedule.TierDaily}
	if o.config.Retention.Layout == config.LayoutTiered {
		tiers = schedule.ActiveTiers(now, o.config.WeeklyWeekday(), o.config.Schedule.MonthlyDay)
	}
	logger.Info("Active tiers", "tiers", tierNames(tiers))

	var errs []error
	for _, src := range o.config.Sources {
		if err := o.backupSource(ctx, logger, src, tiers, now); err != nil {
			logger.Error("Source backup failed", "source", src.Name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// backupSource produces one source's archive and uploads it to every active
// tier. The local archive is removed before returning.
func (o *Orchestrator) backupSource(ctx context.Context, logger *slog.Logger, src config.SourceConfig, tiers []schedule.Tier, now time.Time) error {
	logger = logger.With("source", src.Name)

	producer, err := o.producerFor(src)
	if err != nil {
		metrics.RecordSourceAttempt(src.Name, false)
		return &ProduceError{Source: src.Name, Err: err}
	}

	filename := archive.Name(src.Name, now, producer.Suffix())
	local := filepath.Join(o.workDir, filename)

	logger.Info("Producing archive", "path", local)
	produceStart := time.Now()
	if err := producer.Produce(ctx, local); err != nil {
		metrics.RecordSourceAttempt(src.Name, false)
		return &ProduceError{Source: src.Name, Err: err}
	}
	defer func() {
		if err := os.Remove(local); err != nil {
			logger.Warn("Failed to remove local archive", "path", local, "error", err)
		}
	}()
	metrics.RunDuration.WithLabelValues("produce").Observe(time.Since(produceStart).Seconds())

	if err := archive.Verify(local); err != nil {
		metrics.RecordSourceAttempt(src.Name, false)
		return &ProduceError{Source: src.Name, Err: err}
	}

	if info, err := os.Stat(local); err == nil {
		metrics.ArchiveSize.WithLabelValues(src.Name).Set(float64(info.Size()))
		logger.Info("Archive produced", "size_bytes", info.Size())
	}

	metadata := o.metadataFor(ctx, logger, producer, src, now)

	var errs []error
	for _, tier := range tiers {
		key := tier.Prefix() + filename
		if err := o.uploadArchive(ctx, logger, local, key, metadata); err != nil {
			errs = append(errs, &UploadError{Source: src.Name, Tier: tier.String(), Key: key, Err: err})
		}
	}

	err = errors.Join(errs...)
	metrics.RecordSourceAttempt(src.Name, err == nil)
	return err
}

// metadataFor assembles the object metadata attached to every upload of one
// archive. Describer failures degrade to the base metadata.
func (o *Orchestrator) metadataFor(ctx context.Context, logger *slog.Logger, producer archive.Producer, src config.SourceConfig, now time.Time) map[string]string {
	metadata := map[string]string{
		"backup-timestamp": now.Format(time.RFC3339),
		"backup-source":    src.Name,
	}
	describer, ok := producer.(archive.Describer)
	if !ok {
		return metadata
	}

	details, err := describer.Describe(ctx)
	if err != nil {
		logger.Warn("Failed to describe source", "error", err)
		return metadata
	}
	for k, v := range details {
		metadata[k] = v
	}
	return metadata
}

func (o *Orchestrator) uploadArchive(ctx context.Context, logger *slog.Logger, local, key string, metadata map[string]string) error {
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	start := time.Now()
	if err := o.storage.Upload(ctx, key, f, metadata); err != nil {
		metrics.RecordStorageOperation("upload", o.config.Storage.Provider, false)
		return err
	}
	metrics.RecordStorageOperation("upload", o.config.Storage.Provider, true)
	metrics.RunDuration.WithLabelValues("upload").Observe(time.Since(start).Seconds())

	logger.Info("Uploaded archive", "key", key, "duration", time.Since(start))
	return nil
}

func tierNames(tiers []schedule.Tier) []string {
	names := make([]string, len(tiers))
	for i, tier := range tiers {
		names[i] = tier.String()
	}
	return names
}
