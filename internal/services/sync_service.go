package services

import (
	"context"
	"fmt"
	"time"

	"github.com/RubixDev/immich-gpx/internal/models"
	"github.com/RubixDev/immich-gpx/internal/utils"
	"github.com/RubixDev/immich-gpx/pkg/file"
	"github.com/RubixDev/immich-gpx/pkg/location"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// searchPadding widens the asset search window around the timeline. The
// server filters on its own notion of creation time, which can be off by a
// time zone from the EXIF capture instant.
const searchPadding = 24 * time.Hour

// reportTimeout bounds the report sinks, which also run after cancellation.
const reportTimeout = 30 * time.Second

// SyncConfig holds the run-level settings of a SyncService.
type SyncConfig struct {
	Options           Options
	CameraMake        string
	CameraModel       string
	DryRun            bool
	SkipInvalidTracks bool
	BackstepTolerance time.Duration
}

// SyncService drives a whole run: decode tracks, list assets, plan, apply
// and report.
type SyncService struct {
	config     SyncConfig
	fileClient file.FileOperations
	repo       AssetRepository
	planner    *PlanService
	applier    *ApplyService
	reporter   *ReportService // Optional
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSyncService validates config and wires the services of a run. reporter
// may be nil.
func NewSyncService(config SyncConfig, fileClient file.FileOperations, repo AssetRepository,
	reporter *ReportService, logger zerolog.Logger) (*SyncService, error) {
	if err := config.Options.Validate(); err != nil {
		return nil, err
	}
	if config.BackstepTolerance < 0 {
		return nil, fmt.Errorf("%w: back-step tolerance must not be negative", ErrInvalidOptions)
	}

	return &SyncService{
		config:     config,
		fileClient: fileClient,
		repo:       repo,
		planner:    NewPlanService(config.Options.PlanWorkers, logger),
		applier:    NewApplyService(config.Options.ConcurrencyLimit, config.Options.PerCallTimeout, logger),
		reporter:   reporter,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Run processes trackFiles against the repository. Input and listing errors
// abort the run before anything is written. Per-asset failures and
// cancellation are reported in the summary, not as an error.
func (s *SyncService) Run(ctx context.Context, trackFiles []string) (models.Summary, error) {
	summary := models.Summary{
		RunID:     uuid.NewString(),
		DryRun:    s.config.DryRun,
		StartedAt: s.now().UTC(),
	}
	logger := s.logger.With().Str("run_id", summary.RunID).Logger()

	tracks, files, err := s.loadTracks(trackFiles, logger)
	summary.TrackFiles = files
	if err != nil {
		return summary, err
	}

	tl, err := location.NewTimeline(tracks, location.WithBackstepTolerance(s.config.BackstepTolerance))
	if err != nil {
		return summary, err
	}
	summary.Points = tl.Len()

	first, last, ok := tl.Bounds()
	if !ok {
		logger.Warn().Msg("No usable track points, nothing to do")
		return s.finish(ctx, summary, tl, nil, nil, logger), nil
	}
	logger.Info().
		Int("points", tl.Len()).
		Time("first", first).
		Time("last", last).
		Msg("Timeline built")

	assets, err := s.repo.List(ctx, models.AssetQuery{
		CameraMake:  s.config.CameraMake,
		CameraModel: s.config.CameraModel,
		TakenAfter:  first.Add(-searchPadding),
		TakenBefore: last.Add(searchPadding),
	})
	if err != nil {
		return summary, fmt.Errorf("list assets: %w", err)
	}
	summary.Listed = len(assets)

	plan := s.planner.Plan(assets, tl, s.config.Options.Filters, s.config.Options.MaxGap)
	s.logPending(plan, logger)

	var results []models.ApplyResult
	if s.config.DryRun {
		results = s.applier.Preview(plan)
	} else {
		results = s.applier.Apply(ctx, plan, s.repo)
	}

	return s.finish(ctx, summary, tl, plan, results, logger), nil
}

// loadTracks decodes every file. With SkipInvalidTracks a bad file is
// recorded and skipped, otherwise it aborts the run.
func (s *SyncService) loadTracks(paths []string, logger zerolog.Logger) ([]location.Track, []models.TrackFile, error) {
	var tracks []location.Track
	files := make([]models.TrackFile, 0, len(paths))
	opt := location.WithBackstepTolerance(s.config.BackstepTolerance)

	for _, path := range utils.Dedupe(paths) {
		info := models.TrackFile{Path: path}
		decoded, err := s.decodeFile(path)
		if err == nil {
			// Validate the file on its own so a bad file can be skipped alone.
			_, err = location.NewTimeline(decoded, opt)
		}
		if err != nil {
			err = fmt.Errorf("track file %s: %w", path, err)
			if !s.config.SkipInvalidTracks {
				return nil, append(files, models.TrackFile{Path: path, Error: err.Error()}), err
			}
			logger.Warn().Err(err).Str("path", path).Msg("Skipping invalid track file")
			info.Error = err.Error()
			files = append(files, info)
			continue
		}

		hash, err := s.fileClient.GetFileHash(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to hash track file, report will omit its checksum")
		}
		info.SHA256 = hash
		info.Tracks = len(decoded)
		for _, t := range decoded {
			info.Points += len(t.Points)
		}
		logger.Debug().Str("path", path).Int("tracks", info.Tracks).Int("points", info.Points).Msg("Track file decoded")

		files = append(files, info)
		tracks = append(tracks, decoded...)
	}
	return tracks, files, nil
}

func (s *SyncService) decodeFile(path string) ([]location.Track, error) {
	decoder, err := location.DecoderFor(path)
	if err != nil {
		return nil, err
	}
	data, err := s.fileClient.ReadFileRaw(path)
	if err != nil {
		return nil, err
	}
	return decoder.Decode(path, data)
}

// logPending prints one line per asset about to be geotagged.
func (s *SyncService) logPending(plan []models.UpdatePlanEntry, logger zerolog.Logger) {
	linker, _ := s.repo.(photoLinker)
	for _, entry := range plan {
		if !entry.Pending() {
			continue
		}
		target := entry.Asset.ID
		if linker != nil {
			target = linker.PhotoURL(entry.Asset.ID)
		}
		c := entry.Outcome.Coordinate
		logger.Info().
			Str("asset_id", entry.Asset.ID).
			Str("quality", string(entry.Outcome.Quality)).
			Msgf("setting location %v, %v for image %s", c.Latitude, c.Longitude, target)
	}
}

func (s *SyncService) finish(ctx context.Context, summary models.Summary, tl *location.Timeline,
	plan []models.UpdatePlanEntry, results []models.ApplyResult, logger zerolog.Logger) models.Summary {
	if results == nil {
		results = []models.ApplyResult{}
	}
	summary.Tally(results)
	summary.Canceled = ctx.Err() != nil
	summary.FinishedAt = s.now().UTC()

	logger.Info().
		Bool("dry_run", summary.DryRun).
		Int("listed", summary.Listed).
		Int("planned", summary.Planned).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Bool("canceled", summary.Canceled).
		Msg("Run finished")

	if s.reporter != nil {
		reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
		defer cancel()
		// Report sink errors are logged by the reporter and do not change the outcome.
		_ = s.reporter.Write(reportCtx, summary, tl, plan)
	}
	return summary
}
