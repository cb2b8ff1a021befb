package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driving"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

const (
	// dateTolerance absorbs sub-minute serialization and rounding drift.
	// It does not absorb timezone confusion; that is the policy's job.
	dateTolerance = 60 * time.Second

	// gpsTolerance is ~11m per axis.
	gpsTolerance = 0.0001
)

// Ensure ReconcileService implements the interface.
var _ driving.Reconciler = (*ReconcileService)(nil)

// ReconcileService fixes metadata on assets already uploaded to the remote
// library: it matches each remote asset back to its record, compares the
// stored timestamp/GPS against the expected values within tolerance, and
// repairs what drifted.
type ReconcileService struct {
	bundles  driven.BundleStore
	library  driven.LibraryClient
	policy   domain.TimestampPolicy
	progress driven.ProgressSink
}

// NewReconcileService creates a reconciler. sink may be nil.
func NewReconcileService(
	bundles driven.BundleStore,
	library driven.LibraryClient,
	policy domain.TimestampPolicy,
	sink driven.ProgressSink,
) *ReconcileService {
	if sink == nil {
		sink = driven.NopSink{}
	}
	return &ReconcileService{bundles: bundles, library: library, policy: policy, progress: sink}
}

// decision is the per-asset reconciliation outcome.
type decision struct {
	record      *domain.MemoryRecord
	dateCorrect bool
	gpsCorrect  bool
}

func (d decision) needsFix() bool {
	return !(d.dateCorrect && d.gpsCorrect)
}

// Repair reconciles every remote asset against the bundle. In dry-run mode
// the exact same matching and correctness logic runs, but no update call is
// ever issued.
func (s *ReconcileService) Repair(ctx context.Context, bundlePath string, dryRun bool) (*driving.RepairReport, error) {
	bundle, err := s.bundles.Load(ctx, bundlePath)
	if err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	index := BuildIndex(bundle)

	assets, err := s.library.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list remote assets: %w", err)
	}

	report := &driving.RepairReport{TotalAssets: len(assets)}
	for i := range assets {
		// Cancellable between iterations; an update is all-or-nothing
		// per asset, so stopping here leaves nothing half-applied.
		if err := ctx.Err(); err != nil {
			return report, err
		}
		asset := &assets[i]

		rec, needsFix := s.Reconcile(asset, index)
		if rec == nil {
			report.Skipped++
			s.emit(asset, i, report.TotalAssets, "skipped", "no matching record")
			continue
		}
		report.Checked++

		if !needsFix {
			s.emit(asset, i, report.TotalAssets, "ok", "metadata correct")
			continue
		}
		report.NeedsRepair++

		if dryRun {
			report.WouldRepair++
			s.emit(asset, i, report.TotalAssets, "would-repair", repairSummary(rec, s.policy))
			continue
		}

		update := buildUpdate(rec, s.policy)
		if err := s.library.UpdateAsset(ctx, asset.ID, update); err != nil {
			report.Failed++
			logger.Warn("update %s: %v", asset.FileName, err)
			s.emit(asset, i, report.TotalAssets, "failed", err.Error())
			continue
		}
		report.Repaired++
		s.emit(asset, i, report.TotalAssets, "repaired", repairSummary(rec, s.policy))
	}

	logger.Info("Checked %d, skipped %d, needed repair %d, repaired %d, failed %d",
		report.Checked, report.Skipped, report.NeedsRepair, report.Repaired, report.Failed)
	return report, nil
}

// Reconcile matches one remote asset and decides whether it needs repair.
// A nil record means unmatched; needsFix is meaningless in that case.
func (s *ReconcileService) Reconcile(asset *domain.RemoteAsset, index *Index) (*domain.MemoryRecord, bool) {
	rec, ok := index.Resolve(asset.FileName)
	if !ok {
		return nil, false
	}
	d := check(rec, asset)
	return rec, d.needsFix()
}

// check computes both correctness sub-flags for a matched pair.
func check(rec *domain.MemoryRecord, asset *domain.RemoteAsset) decision {
	return decision{
		record:      rec,
		dateCorrect: dateCorrect(rec.CapturedAt, asset.FileCreatedAt),
		gpsCorrect:  gpsCorrect(rec.Location, asset.Latitude, asset.Longitude),
	}
}

// dateCorrect requires both sides present and within tolerance.
func dateCorrect(expected time.Time, actual *time.Time) bool {
	if expected.IsZero() || actual == nil {
		return false
	}
	diff := expected.Sub(*actual)
	if diff < 0 {
		diff = -diff
	}
	return diff < dateTolerance
}

// gpsCorrect compares per axis. When no GPS is expected, the asset must
// also report none: a coordinate the export never had is itself drift.
func gpsCorrect(expected domain.Location, lat, lon *float64) bool {
	if !expected.Valid {
		return lat == nil && lon == nil
	}
	if lat == nil || lon == nil {
		return false
	}
	return math.Abs(*lat-expected.Latitude) < gpsTolerance &&
		math.Abs(*lon-expected.Longitude) < gpsTolerance
}

// buildUpdate constructs the repair payload. Coordinates are only included
// when the expected location is valid, never the (0,0) sentinel.
func buildUpdate(rec *domain.MemoryRecord, policy domain.TimestampPolicy) domain.AssetUpdate {
	update := domain.AssetUpdate{
		FileCreatedAt: policy.FormatRecord(rec.CapturedAt),
	}
	if rec.Location.Valid {
		lat := rec.Location.Latitude
		lon := rec.Location.Longitude
		update.Latitude = &lat
		update.Longitude = &lon
	}
	return update
}

func repairSummary(rec *domain.MemoryRecord, policy domain.TimestampPolicy) string {
	msg := "date " + policy.FormatRecord(rec.CapturedAt)
	if rec.Location.Valid {
		msg += fmt.Sprintf(", gps %.6f,%.6f", rec.Location.Latitude, rec.Location.Longitude)
	}
	return msg
}

func (s *ReconcileService) emit(asset *domain.RemoteAsset, i, total int, status, msg string) {
	s.progress.Emit(driven.ProgressEvent{
		Phase:   "repair",
		Item:    asset.FileName,
		Index:   i + 1,
		Total:   total,
		Percent: percent(i+1, total),
		Status:  status,
		Message: msg,
	})
}
