package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/RubixDev/immich-gpx/internal/models"
	"github.com/RubixDev/immich-gpx/pkg/file"
	"github.com/RubixDev/immich-gpx/pkg/location"
	"github.com/RubixDev/immich-gpx/pkg/s3"
	"github.com/rs/zerolog"
)

// SummaryPublisher sends a payload to a message broker topic.
type SummaryPublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte, timeout time.Duration) error
}

// ReportConfig selects the report sinks. Empty values disable a sink.
type ReportConfig struct {
	OutputFile     string
	GeoJSONFile    string
	Bucket         string
	Prefix         string
	Topic          string
	QOS            byte
	PublishTimeout time.Duration
}

// ReportService writes the outcome of a run to the configured sinks.
type ReportService struct {
	config     ReportConfig
	fileClient file.FileOperations
	storage    s3.ObjectStorageClient // Optional
	publisher  SummaryPublisher       // Optional
	logger     zerolog.Logger
}

// NewReportService creates a ReportService. storage and publisher may be nil.
func NewReportService(config ReportConfig, fileClient file.FileOperations, storage s3.ObjectStorageClient,
	publisher SummaryPublisher, logger zerolog.Logger) *ReportService {
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 10 * time.Second
	}
	return &ReportService{
		config:     config,
		fileClient: fileClient,
		storage:    storage,
		publisher:  publisher,
		logger:     logger,
	}
}

// summaryMessage is the compact form of a Summary published to the broker.
type summaryMessage struct {
	RunID      string    `json:"run_id"`
	DryRun     bool      `json:"dry_run"`
	Canceled   bool      `json:"canceled"`
	Points     int       `json:"timeline_points"`
	Planned    int       `json:"planned"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	FinishedAt time.Time `json:"finished_at"`
	ReportURL  string    `json:"report_url,omitempty"`
}

// Write runs every configured sink. A failing sink does not stop the others;
// their errors are joined.
func (r *ReportService) Write(ctx context.Context, summary models.Summary, tl *location.Timeline, plan []models.UpdatePlanEntry) error {
	var errs []error
	reportURL := ""

	if r.config.OutputFile != "" {
		if err := r.fileClient.WriteJsonFile(r.config.OutputFile, summary); err != nil {
			errs = append(errs, fmt.Errorf("write report %s: %w", r.config.OutputFile, err))
		} else {
			r.logger.Info().Str("path", r.config.OutputFile).Msg("Report written")
		}
	}

	if r.config.GeoJSONFile != "" {
		if err := r.writeGeoJSON(tl, plan); err != nil {
			errs = append(errs, fmt.Errorf("write geojson %s: %w", r.config.GeoJSONFile, err))
		} else {
			r.logger.Info().Str("path", r.config.GeoJSONFile).Msg("GeoJSON map written")
		}
	}

	if r.storage != nil && r.config.Bucket != "" {
		info, err := r.upload(ctx, summary)
		if err != nil {
			errs = append(errs, err)
		} else {
			reportURL = info.PresignedURL
			r.logger.Info().
				Str("bucket", r.config.Bucket).
				Str("object", info.ObjectName).
				Int64("size", info.Size).
				Msg("Report uploaded")
		}
	}

	if r.publisher != nil && r.config.Topic != "" {
		if err := r.publish(summary, reportURL); err != nil {
			errs = append(errs, err)
		} else {
			r.logger.Info().Str("topic", r.config.Topic).Msg("Summary published")
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		r.logger.Error().Err(err).Msg("Some report sinks failed")
	}
	return err
}

func (r *ReportService) writeGeoJSON(tl *location.Timeline, plan []models.UpdatePlanEntry) error {
	markers := make([]location.Marker, 0, len(plan))
	for _, entry := range plan {
		if !entry.Outcome.Matched() {
			continue
		}
		markers = append(markers, location.Marker{
			ID:         entry.Asset.ID,
			Coordinate: entry.Outcome.Coordinate,
			Properties: map[string]any{
				"file":         entry.Asset.OriginalFileName,
				"capture_time": entry.Asset.CaptureTime,
				"quality":      string(entry.Outcome.Quality),
				"gap_seconds":  entry.Outcome.GapSeconds(),
				"pending":      entry.Pending(),
			},
		})
	}

	var buf bytes.Buffer
	if err := location.WriteGeoJSON(&buf, tl, markers); err != nil {
		return err
	}
	return r.fileClient.WriteFileRaw(r.config.GeoJSONFile, buf.Bytes())
}

func (r *ReportService) upload(ctx context.Context, summary models.Summary) (s3.UploadInfo, error) {
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return s3.UploadInfo{}, fmt.Errorf("encode report: %w", err)
	}

	objectName := path.Join(r.config.Prefix, summary.RunID+".json")
	info, err := r.storage.Upload(ctx, r.config.Bucket, objectName, bytes.NewReader(payload), int64(len(payload)), "application/json")
	if err != nil {
		return s3.UploadInfo{}, fmt.Errorf("upload report: %w", err)
	}
	return info, nil
}

func (r *ReportService) publish(summary models.Summary, reportURL string) error {
	payload, err := json.Marshal(summaryMessage{
		RunID:      summary.RunID,
		DryRun:     summary.DryRun,
		Canceled:   summary.Canceled,
		Points:     summary.Points,
		Planned:    summary.Planned,
		Updated:    summary.Updated,
		Skipped:    summary.Skipped,
		Failed:     summary.Failed,
		FinishedAt: summary.FinishedAt,
		ReportURL:  reportURL,
	})
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := r.publisher.Publish(r.config.Topic, r.config.QOS, false, payload, r.config.PublishTimeout); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	return nil
}
