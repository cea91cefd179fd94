package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/imedwei/gfs-backup/internal/config"
	"github.com/imedwei/gfs-backup/internal/metrics"
	"github.com/imedwei/gfs-backup/internal/retention"
	"github.com/imedwei/gfs-backup/internal/schedule"
	"github.com/imedwei/gfs-backup/internal/storage"
)

// TierPlan pairs a tier label with its retention decisions.
type TierPlan struct {
	Tier string
	Plan retention.Plan
}

// PrunePlan evaluates retention for every tier without deleting anything.
// Tiers that cannot be listed are reported in the joined error; the
// remaining tiers still produce plans.
func (o *Orchestrator) PrunePlan(ctx context.Context) ([]TierPlan, error) {
	now := o.now()

	if o.config.Retention.Layout == config.LayoutFlat {
		keys, err := o.listKeys(ctx, "")
		if err != nil {
			return nil, &ListError{Tier: "flat", Err: err}
		}
		policy := retention.CollapsePolicy{
			KeepAllDays: o.config.Retention.Collapse.KeepAllDays,
			WeeklyDays:  o.config.Retention.Collapse.WeeklyDays,
			MonthlyDays: o.config.Retention.Collapse.MonthlyDays,
		}
		return []TierPlan{{Tier: "flat", Plan: retention.Evaluate(keys, policy, now)}}, nil
	}

	var plans []TierPlan
	var errs []error
	for _, tier := range schedule.AllTiers() {
		keys, err := o.listTier(ctx, tier)
		if err != nil {
			errs = append(errs, &ListError{Tier: tier.String(), Err: err})
			continue
		}
		plans = append(plans, TierPlan{
			Tier: tier.String(),
			Plan: retention.Evaluate(keys, o.policyFor(tier), now),
		})
	}
	return plans, errors.Join(errs...)
}

// Prune deletes every object the retention policies mark expired.
func (o *Orchestrator) Prune(ctx context.Context) error {
	return o.prune(ctx, o.logger)
}

func (o *Orchestrator) prune(ctx context.Context, logger *slog.Logger) error {
	start := time.Now()

	plans, err := o.PrunePlan(ctx)
	var errs []error
	if err != nil {
		logger.Error("Retention listing failed", "error", err)
		errs = append(errs, err)
	}

	for _, tp := range plans {
		kept, deleted, skipped := tp.Plan.Counts()
		logger.Info("Retention plan",
			"tier", tp.Tier,
			"keep", kept,
			"delete", deleted,
			"skip", skipped,
		)
		metrics.ObjectsKept.WithLabelValues(tp.Tier).Set(float64(kept))

		for _, key := range tp.Plan.Deletions() {
			if err := o.storage.Delete(ctx, key); err != nil {
				logger.Error("Failed to delete expired object", "tier", tp.Tier, "key", key, "error", err)
				metrics.RecordStorageOperation("delete", o.config.Storage.Provider, false)
				errs = append(errs, &DeleteError{Tier: tp.Tier, Key: key, Err: err})
				continue
			}
			metrics.RecordStorageOperation("delete", o.config.Storage.Provider, true)
			metrics.ObjectsDeleted.WithLabelValues(tp.Tier).Inc()
			logger.Info("Deleted expired object", "tier", tp.Tier, "key", key)
		}
	}

	metrics.RunDuration.WithLabelValues("prune").Observe(time.Since(start).Seconds())
	return errors.Join(errs...)
}

// policyFor maps a tier to its age threshold under the tiered layout.
func (o *Orchestrator) policyFor(tier schedule.Tier) retention.Policy {
	r := o.config.Retention
	switch tier {
	case schedule.TierWeekly:
		return retention.AgePolicy{MaxAge: r.WeeklyDays, Unit: retention.Days}
	case schedule.TierMonthly:
		return retention.AgePolicy{MaxAge: r.MonthlyMonths, Unit: retention.Months}
	default:
		return retention.AgePolicy{MaxAge: r.DailyDays, Unit: retention.Days}
	}
}

// listTier returns the keys belonging to one tier. The daily tier lives at
// the destination root, so keys under the weekly/ and monthly/ prefixes are
// filtered out of its listing.
func (o *Orchestrator) listTier(ctx context.Context, tier schedule.Tier) ([]string, error) {
	keys, err := o.listKeys(ctx, tier.Prefix())
	if err != nil {
		return nil, err
	}
	if tier != schedule.TierDaily {
		return keys, nil
	}

	daily := keys[:0]
	for _, key := range keys {
		if !strings.Contains(key, "/") {
			daily = append(daily, key)
		}
	}
	return daily, nil
}

func (o *Orchestrator) listKeys(ctx context.Context, prefix string) ([]string, error) {
	objects, err := o.storage.List(ctx, prefix)
	if err != nil {
		metrics.RecordStorageOperation("list", o.config.Storage.Provider, false)
		return nil, err
	}
	metrics.RecordStorageOperation("list", o.config.Storage.Provider, true)
	return storage.Keys(objects), nil
}
