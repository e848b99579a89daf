package services

import (
	"time"

	"github.com/RubixDev/immich-gpx/internal/constants"
	"github.com/RubixDev/immich-gpx/internal/models"
	"github.com/RubixDev/immich-gpx/internal/utils"
	"github.com/RubixDev/immich-gpx/pkg/location"
	"github.com/rs/zerolog"
)

// PlanService decides for every listed asset whether and where to geotag it.
type PlanService struct {
	workers int
	logger  zerolog.Logger
}

// NewPlanService creates a PlanService matching assets on a pool of workers.
func NewPlanService(workers int, logger zerolog.Logger) *PlanService {
	if workers < 1 {
		workers = 1
	}
	return &PlanService{
		workers: workers,
		logger:  logger,
	}
}

// Plan builds one entry per asset, in input order. Assets rejected by filters
// are dropped unless filters.AuditFiltered is set. Plan only reads the
// timeline and never fails; coverage gaps become skipped entries.
func (p *PlanService) Plan(assets []models.AssetRef, tl *location.Timeline, filters Filters, maxGap time.Duration) []models.UpdatePlanEntry {
	entries := make([]models.UpdatePlanEntry, len(assets))
	keep := make([]bool, len(assets))

	pool := utils.NewWorkerPool(min(p.workers, max(len(assets), 1)))
	defer pool.Shutdown()

	pool.ForEach(len(assets), func(i int) {
		entries[i], keep[i] = planEntry(assets[i], tl, filters, maxGap)
	})

	plan := make([]models.UpdatePlanEntry, 0, len(assets))
	pending := 0
	for i, entry := range entries {
		if !keep[i] {
			continue
		}
		if entry.Pending() {
			pending++
		}
		plan = append(plan, entry)
	}

	p.logger.Info().
		Int("assets", len(assets)).
		Int("entries", len(plan)).
		Int("pending", pending).
		Msg("Update plan built")
	return plan
}

// planEntry evaluates one asset. The boolean is false when a filter rejected
// the asset and the rejection is not audited.
func planEntry(asset models.AssetRef, tl *location.Timeline, filters Filters, maxGap time.Duration) (models.UpdatePlanEntry, bool) {
	entry := models.UpdatePlanEntry{Asset: asset}

	if filters.OwnerID != "" && asset.OwnerID != filters.OwnerID {
		entry.Skip = constants.SkipFilteredOwner
		return entry, filters.AuditFiltered
	}
	if filters.OnlyMissingLocation && hasLocation(asset, filters) {
		entry.Skip = constants.SkipHasLocation
		return entry, filters.AuditFiltered
	}
	if asset.CaptureTime.IsZero() {
		entry.Skip = constants.SkipMissingCaptureTime
		return entry, true
	}

	entry.Outcome = location.Locate(tl, asset.CaptureTime, maxGap)
	if !entry.Outcome.Matched() {
		entry.Skip = skipReasonFor(entry.Outcome.Reason)
	}
	return entry, true
}

func hasLocation(asset models.AssetRef, filters Filters) bool {
	if asset.PartialLocation && filters.PartialLocationAsMissing {
		return false
	}
	return asset.HasLocation
}

func skipReasonFor(reason location.NoCoverageReason) constants.SkipReason {
	switch reason {
	case location.ReasonEmptyTimeline:
		return constants.SkipEmptyTimeline
	case location.ReasonBeforeFirstPoint:
		return constants.SkipBeforeFirstPoint
	case location.ReasonAfterLastPoint:
		return constants.SkipAfterLastPoint
	default:
		return constants.SkipGapTooLarge
	}
}
