package services

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/RubixDev/immich-gpx/internal/constants"
	"github.com/RubixDev/immich-gpx/internal/models"
	"github.com/RubixDev/immich-gpx/pkg/immich"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ApplyService writes planned locations to the asset repository.
type ApplyService struct {
	concurrencyLimit int
	perCallTimeout   time.Duration
	logger           zerolog.Logger
}

// NewApplyService creates an ApplyService with at most concurrencyLimit
// calls in flight, each bounded by perCallTimeout.
func NewApplyService(concurrencyLimit int, perCallTimeout time.Duration, logger zerolog.Logger) *ApplyService {
	if concurrencyLimit < 1 {
		concurrencyLimit = 1
	}
	return &ApplyService{
		concurrencyLimit: concurrencyLimit,
		perCallTimeout:   perCallTimeout,
		logger:           logger,
	}
}

// Apply returns one result per plan entry in plan order. A failed call never
// stops the others and is reported as a failed result. Once ctx is done no
// further call is started; calls already in flight run to completion or to
// their own timeout, and entries never dispatched have no result.
func (a *ApplyService) Apply(ctx context.Context, plan []models.UpdatePlanEntry, repo AssetRepository) []models.ApplyResult {
	results := cmap.New[models.ApplyResult]()

	var g errgroup.Group
	g.SetLimit(a.concurrencyLimit)

	dispatched := 0
	for i, entry := range plan {
		key := strconv.Itoa(i)
		if !entry.Pending() {
			results.Set(key, skippedResult(entry))
			continue
		}
		if ctx.Err() != nil {
			continue
		}

		g.Go(func() error {
			// The slot may have been granted after cancellation.
			if ctx.Err() != nil {
				return nil
			}
			results.Set(key, a.applyOne(ctx, entry, repo))
			return nil
		})
		dispatched++
	}
	_ = g.Wait()

	out := make([]models.ApplyResult, 0, len(plan))
	for i := range plan {
		if r, ok := results.Get(strconv.Itoa(i)); ok {
			out = append(out, r)
		}
	}

	if ctx.Err() != nil {
		a.logger.Warn().
			Int("results", len(out)).
			Int("entries", len(plan)).
			Msg("Apply canceled, returning partial results")
	}
	a.logger.Debug().Int("dispatched", dispatched).Msg("Apply finished")
	return out
}

// applyOne performs a single update. The call keeps running if ctx is
// canceled, bounded only by the per-call timeout.
func (a *ApplyService) applyOne(ctx context.Context, entry models.UpdatePlanEntry, repo AssetRepository) models.ApplyResult {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.perCallTimeout)
	defer cancel()

	coord := entry.Outcome.Coordinate
	result := models.ApplyResult{
		AssetID:    entry.Asset.ID,
		Coordinate: &coord,
	}

	err := repo.UpdateLocation(callCtx, entry.Asset.ID, coord)
	if err == nil {
		result.Status = constants.StatusUpdated
		return result
	}

	kind := classifyFailure(err)
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		kind = constants.FailureTimeout
	}
	result.Status = constants.StatusFailed
	result.Failure = kind
	result.Error = err.Error()
	result.Err = err

	a.logger.Error().
		Err(err).
		Str("asset_id", entry.Asset.ID).
		Str("kind", string(kind)).
		Msg("Failed to update asset location")
	return result
}

// Residual returns the plan entries that still need an update after a run:
// those whose call failed and pending ones that were never dispatched.
func (a *ApplyService) Residual(results []models.ApplyResult, plan []models.UpdatePlanEntry) []models.UpdatePlanEntry {
	status := make(map[string]constants.ApplyStatus, len(results))
	for _, r := range results {
		status[r.AssetID] = r.Status
	}

	var residual []models.UpdatePlanEntry
	for _, entry := range plan {
		if !entry.Pending() {
			continue
		}
		s, ok := status[entry.Asset.ID]
		if !ok || s == constants.StatusFailed {
			residual = append(residual, entry)
		}
	}
	return residual
}

func skippedResult(entry models.UpdatePlanEntry) models.ApplyResult {
	return models.ApplyResult{
		AssetID: entry.Asset.ID,
		Status:  constants.StatusSkipped,
		Reason:  entry.Skip,
	}
}

// classifyFailure maps a repository error to a failure kind.
func classifyFailure(err error) constants.FailureKind {
	var apiErr *immich.Error
	if errors.As(err, &apiErr) {
		return constants.FailureKind(apiErr.Kind)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return constants.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return constants.FailureTimeout
		}
		return constants.FailureNetwork
	}
	return constants.FailureUnexpected
}

// Preview returns the results a run would produce without calling the
// repository: pending entries are reported as planned.
func (a *ApplyService) Preview(plan []models.UpdatePlanEntry) []models.ApplyResult {
	out := make([]models.ApplyResult, 0, len(plan))
	for _, entry := range plan {
		if !entry.Pending() {
			out = append(out, skippedResult(entry))
			continue
		}
		coord := entry.Outcome.Coordinate
		out = append(out, models.ApplyResult{
			AssetID:    entry.Asset.ID,
			Status:     constants.StatusPlanned,
			Coordinate: &coord,
		})
	}
	return out
}
