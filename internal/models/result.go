package models

import (
	"time"

	"github.com/RubixDev/immich-gpx/internal/constants"
	"github.com/RubixDev/immich-gpx/pkg/location"
)

// ApplyResult is the final, independent outcome for one plan entry.
type ApplyResult struct {
	AssetID    string                `json:"asset_id"`
	Status     constants.ApplyStatus `json:"status"`
	Reason     constants.SkipReason  `json:"reason,omitempty"`     // Set for skipped assets
	Failure    constants.FailureKind `json:"failure,omitempty"`    // Set for failed assets
	Error      string                `json:"error,omitempty"`      // Failure detail for failed assets
	Coordinate *location.Coordinate  `json:"coordinate,omitempty"` // Written or planned coordinate
	Err        error                 `json:"-"`
}

// FailureDetail carries enough information to retry or follow up manually.
type FailureDetail struct {
	AssetID string                `json:"asset_id"`
	Kind    constants.FailureKind `json:"kind"`
	Error   string                `json:"error"`
}

// TrackFile records one input file of a run.
type TrackFile struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256,omitempty"`
	Tracks int    `json:"tracks"`
	Points int    `json:"points"`
	Error  string `json:"error,omitempty"` // Set when the file was skipped
}

// Summary is the report of a whole run.
type Summary struct {
	RunID      string                       `json:"run_id"`
	DryRun     bool                         `json:"dry_run"`
	StartedAt  time.Time                    `json:"started_at"`
	FinishedAt time.Time                    `json:"finished_at"`
	TrackFiles []TrackFile                  `json:"track_files"`
	Points     int                          `json:"timeline_points"`
	Listed     int                          `json:"listed"`
	Planned    int                          `json:"planned"`
	Updated    int                          `json:"updated"`
	Skipped    int                          `json:"skipped"`
	Failed     int                          `json:"failed"`
	SkipCounts map[constants.SkipReason]int `json:"skip_counts,omitempty"`
	Failures   []FailureDetail              `json:"failures,omitempty"`
	Results    []ApplyResult                `json:"results"`
	Canceled   bool                         `json:"canceled"`
}

// Tally fills the counters of s from results.
func (s *Summary) Tally(results []ApplyResult) {
	s.Results = results
	s.Updated, s.Skipped, s.Failed, s.Planned = 0, 0, 0, 0
	s.SkipCounts = make(map[constants.SkipReason]int)
	s.Failures = nil

	for _, r := range results {
		switch r.Status {
		case constants.StatusUpdated:
			s.Updated++
		case constants.StatusPlanned:
			s.Planned++
		case constants.StatusSkipped:
			s.Skipped++
			s.SkipCounts[r.Reason]++
		case constants.StatusFailed:
			s.Failed++
			s.Failures = append(s.Failures, FailureDetail{
				AssetID: r.AssetID,
				Kind:    r.Failure,
				Error:   r.Error,
			})
		}
	}
}
