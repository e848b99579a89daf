package constants

// ApplyStatus is the final state of one asset after a run.
type ApplyStatus string

const (
	// StatusUpdated indicates that the asset location was written to the server
	StatusUpdated ApplyStatus = "updated"
	// StatusSkipped indicates that the asset was left untouched
	StatusSkipped ApplyStatus = "skipped"
	// StatusFailed indicates that the update call failed
	StatusFailed ApplyStatus = "failed"
	// StatusPlanned indicates a pending update in a dry run
	StatusPlanned ApplyStatus = "planned"
)

// SkipReason explains why an asset is not updated.
type SkipReason string

const (
	SkipFilteredOwner      SkipReason = "filtered_owner"
	SkipHasLocation        SkipReason = "has_location"
	SkipMissingCaptureTime SkipReason = "missing_capture_time"
	SkipEmptyTimeline      SkipReason = "empty_timeline"
	SkipBeforeFirstPoint   SkipReason = "before_first_point"
	SkipAfterLastPoint     SkipReason = "after_last_point"
	SkipGapTooLarge        SkipReason = "gap_too_large"
)

// FailureKind classifies an update failure.
type FailureKind string

const (
	FailureNotFound         FailureKind = "not_found"
	FailurePermissionDenied FailureKind = "permission_denied"
	FailureNetwork          FailureKind = "network"
	FailureRateLimited      FailureKind = "rate_limited"
	FailureTimeout          FailureKind = "timeout"
	FailureUnexpected       FailureKind = "unexpected"
)
