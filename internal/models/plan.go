package models

import (
	"github.com/RubixDev/immich-gpx/internal/constants"
	"github.com/RubixDev/immich-gpx/pkg/location"
)

// UpdatePlanEntry pairs an asset with the outcome of matching it against the
// timeline. Skip is set for every entry that must not be written.
type UpdatePlanEntry struct {
	Asset   AssetRef
	Outcome location.MatchResult
	Skip    constants.SkipReason
}

// Pending reports whether the entry should be written to the server.
func (e UpdatePlanEntry) Pending() bool {
	return e.Skip == "" && e.Outcome.Matched()
}
