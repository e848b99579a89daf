package location

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DefaultBackstepTolerance is how far a single track may step backward in
// time before it is considered corrupt.
const DefaultBackstepTolerance = time.Second

var (
	// ErrInvalidTrack is returned when a track is empty or runs backward in time.
	ErrInvalidTrack = errors.New("invalid track")
)

// Timeline is the merged, deduplicated and time-sorted view over a set of
// tracks. It is immutable after construction and safe for concurrent reads.
type Timeline struct {
	points []TrackPoint
}

type timelineOptions struct {
	backstepTolerance time.Duration
}

// TimelineOption configures NewTimeline.
type TimelineOption func(*timelineOptions)

// WithBackstepTolerance overrides DefaultBackstepTolerance.
func WithBackstepTolerance(d time.Duration) TimelineOption {
	return func(o *timelineOptions) {
		o.backstepTolerance = d
	}
}

// NewTimeline merges the given tracks into a single Timeline.
//
// Points from all tracks are sorted by time; when several points share the
// exact same timestamp the first one wins, where "first" follows argument
// order (earlier track, then earlier point within the track).
func NewTimeline(tracks []Track, opts ...TimelineOption) (*Timeline, error) {
	o := timelineOptions{backstepTolerance: DefaultBackstepTolerance}
	for _, opt := range opts {
		opt(&o)
	}

	total := 0
	for i, track := range tracks {
		if err := validateTrack(track, o.backstepTolerance); err != nil {
			return nil, fmt.Errorf("track %d (%s): %w", i, track.Source, err)
		}
		total += len(track.Points)
	}

	merged := make([]TrackPoint, 0, total)
	for _, track := range tracks {
		for _, p := range track.Points {
			p.Time = p.Time.UTC()
			p.Coordinate = p.Coordinate.clone()
			merged = append(merged, p)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time.Before(merged[j].Time)
	})

	// Collapse equal timestamps in place, keeping the first occurrence.
	deduped := merged[:0]
	for i, p := range merged {
		if i > 0 && p.Time.Equal(deduped[len(deduped)-1].Time) {
			continue
		}
		deduped = append(deduped, p)
	}

	return &Timeline{points: deduped}, nil
}

func validateTrack(track Track, tolerance time.Duration) error {
	if len(track.Points) == 0 {
		return fmt.Errorf("%w: no points", ErrInvalidTrack)
	}
	for i := 1; i < len(track.Points); i++ {
		prev, cur := track.Points[i-1].Time, track.Points[i].Time
		if prev.Sub(cur) > tolerance {
			return fmt.Errorf("%w: point %d at %s goes back %s from %s",
				ErrInvalidTrack, i, cur.UTC().Format(time.RFC3339), prev.Sub(cur), prev.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

// Len returns the number of distinct points.
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.points)
}

// At returns the i-th point in time order.
func (t *Timeline) At(i int) TrackPoint {
	p := t.points[i]
	p.Coordinate = p.Coordinate.clone()
	return p
}

// Points returns a copy of the merged sequence.
func (t *Timeline) Points() []TrackPoint {
	if t == nil {
		return nil
	}
	out := make([]TrackPoint, len(t.points))
	for i, p := range t.points {
		p.Coordinate = p.Coordinate.clone()
		out[i] = p
	}
	return out
}

// Bounds returns the first and last timestamps. ok is false for an empty timeline.
func (t *Timeline) Bounds() (first, last time.Time, ok bool) {
	if t.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.points[0].Time, t.points[len(t.points)-1].Time, true
}

// Bracket returns the index of the first point whose time is not before
// query, and whether that point's time equals query. The index is Len()
// when query is after every point.
func (t *Timeline) Bracket(query time.Time) (idx int, exact bool) {
	n := t.Len()
	idx = sort.Search(n, func(i int) bool {
		return !t.points[i].Time.Before(query)
	})
	return idx, idx < n && t.points[idx].Time.Equal(query)
}
