package location

import (
	"math"
	"time"
)

// MatchStatus tells whether a query produced a coordinate.
type MatchStatus string

const (
	StatusMatched    MatchStatus = "matched"
	StatusNoCoverage MatchStatus = "no_coverage"
)

// Quality describes how a matched coordinate was obtained.
type Quality string

const (
	QualityExact        Quality = "exact"
	QualityInterpolated Quality = "interpolated"
)

// NoCoverageReason explains why a query produced no coordinate.
type NoCoverageReason string

const (
	ReasonEmptyTimeline    NoCoverageReason = "empty_timeline"
	ReasonBeforeFirstPoint NoCoverageReason = "before_first_point"
	ReasonAfterLastPoint   NoCoverageReason = "after_last_point"
	ReasonGapTooLarge      NoCoverageReason = "gap_too_large"
)

// MatchResult is the outcome of Locate. Coverage gaps are reported here as
// data rather than as errors.
type MatchResult struct {
	Status     MatchStatus
	Coordinate Coordinate       // Set when Status is StatusMatched
	Quality    Quality          // Set when Status is StatusMatched
	Reason     NoCoverageReason // Set when Status is StatusNoCoverage
	Gap        time.Duration    // Span of the bracketing points for interpolated and gap_too_large results
}

// Matched reports whether the result carries a coordinate.
func (r MatchResult) Matched() bool {
	return r.Status == StatusMatched
}

// GapSeconds returns Gap in seconds.
func (r MatchResult) GapSeconds() float64 {
	return r.Gap.Seconds()
}

func noCoverage(reason NoCoverageReason, gap time.Duration) MatchResult {
	return MatchResult{Status: StatusNoCoverage, Reason: reason, Gap: gap}
}

// Locate estimates the position at query by linear interpolation between the
// two timeline points bracketing it. It never extrapolates outside the
// timeline and refuses to bridge gaps longer than maxGap.
func Locate(tl *Timeline, query time.Time, maxGap time.Duration) MatchResult {
	n := tl.Len()
	if n == 0 {
		return noCoverage(ReasonEmptyTimeline, 0)
	}

	idx, exact := tl.Bracket(query)
	if exact {
		return MatchResult{
			Status:     StatusMatched,
			Coordinate: tl.points[idx].Coordinate.clone(),
			Quality:    QualityExact,
		}
	}
	if idx == 0 {
		return noCoverage(ReasonBeforeFirstPoint, 0)
	}
	if idx == n {
		return noCoverage(ReasonAfterLastPoint, 0)
	}

	a, b := tl.points[idx-1], tl.points[idx]
	gap := b.Time.Sub(a.Time)
	if gap > maxGap {
		return noCoverage(ReasonGapTooLarge, gap)
	}

	frac := float64(query.Sub(a.Time)) / float64(gap)
	return MatchResult{
		Status:     StatusMatched,
		Coordinate: Interpolate(a.Coordinate, b.Coordinate, frac),
		Quality:    QualityInterpolated,
		Gap:        gap,
	}
}

// Interpolate blends a and b at fraction t in [0, 1]. Longitude follows the
// shorter way around the antimeridian. Elevation is only interpolated when
// both ends carry one.
func Interpolate(a, b Coordinate, t float64) Coordinate {
	switch t {
	case 0:
		return a.clone()
	case 1:
		return b.clone()
	}

	out := Coordinate{
		Latitude:  a.Latitude + (b.Latitude-a.Latitude)*t,
		Longitude: normalizeLongitude(a.Longitude + longitudeDelta(a.Longitude, b.Longitude)*t),
	}
	if a.Elevation != nil && b.Elevation != nil {
		out.Elevation = Elevation(*a.Elevation + (*b.Elevation-*a.Elevation)*t)
	}
	return out
}

// longitudeDelta returns the signed shortest angular distance from a to b.
func longitudeDelta(a, b float64) float64 {
	d := b - a
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// normalizeLongitude maps lon into [-180, 180].
func normalizeLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
