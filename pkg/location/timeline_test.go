package location_test

import (
	"testing"
	"time"

	"github.com/RubixDev/immich-gpx/pkg/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func at(minutes float64) time.Time {
	return base.Add(time.Duration(minutes * float64(time.Minute)))
}

func point(minutes, lat, lon float64) location.TrackPoint {
	return location.TrackPoint{
		Time:       at(minutes),
		Coordinate: location.Coordinate{Latitude: lat, Longitude: lon},
	}
}

func track(points ...location.TrackPoint) location.Track {
	return location.Track{Source: "test", Points: points}
}

// TestNewTimeline_PreservesDistinctTimestamps tests that sorted input keeps every point.
func TestNewTimeline_PreservesDistinctTimestamps(t *testing.T) {
	tl, err := location.NewTimeline([]location.Track{
		track(point(0, 1, 1), point(1, 2, 2), point(2, 3, 3), point(5, 4, 4)),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, tl.Len())
	for i, p := range tl.Points() {
		assert.Equal(t, float64(i+1), p.Coordinate.Latitude)
	}
}

// TestNewTimeline_MergesOverlappingTracks tests that a second track starting
// before the first ends still yields one strictly sorted timeline.
func TestNewTimeline_MergesOverlappingTracks(t *testing.T) {
	first := track(point(0, 0, 0), point(10, 0, 0), point(20, 0, 0))
	second := track(point(5, 1, 1), point(15, 1, 1), point(25, 1, 1))

	tl, err := location.NewTimeline([]location.Track{first, second})
	require.NoError(t, err)

	points := tl.Points()
	require.Len(t, points, 6)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i-1].Time.Before(points[i].Time), "points %d and %d out of order", i-1, i)
	}
	assert.Equal(t, at(5), points[1].Time)
	assert.Equal(t, at(25), points[5].Time)
}

// TestNewTimeline_DuplicateTimestampsKeepFirst tests the tie-break across tracks.
func TestNewTimeline_DuplicateTimestampsKeepFirst(t *testing.T) {
	first := track(point(0, 10, 10), point(10, 11, 11))
	second := track(point(10, 99, 99), point(20, 12, 12))

	tl, err := location.NewTimeline([]location.Track{first, second})
	require.NoError(t, err)

	require.Equal(t, 3, tl.Len())
	assert.Equal(t, 11.0, tl.At(1).Coordinate.Latitude)

	// Reversing the argument order flips the winner.
	tl, err = location.NewTimeline([]location.Track{second, first})
	require.NoError(t, err)
	assert.Equal(t, 99.0, tl.At(1).Coordinate.Latitude)
}

// TestNewTimeline_DuplicateWithinTrack tests that repeated fixes inside one track collapse.
func TestNewTimeline_DuplicateWithinTrack(t *testing.T) {
	tl, err := location.NewTimeline([]location.Track{
		track(point(0, 1, 1), point(0, 2, 2), point(1, 3, 3)),
	})
	require.NoError(t, err)

	require.Equal(t, 2, tl.Len())
	assert.Equal(t, 1.0, tl.At(0).Coordinate.Latitude)
}

func TestNewTimeline_EmptyTrack(t *testing.T) {
	_, err := location.NewTimeline([]location.Track{track()})

	assert.ErrorIs(t, err, location.ErrInvalidTrack)
}

func TestNewTimeline_BackwardTrack(t *testing.T) {
	_, err := location.NewTimeline([]location.Track{
		track(point(0, 1, 1), point(10, 2, 2), point(5, 3, 3)),
	})

	assert.ErrorIs(t, err, location.ErrInvalidTrack)
}

// TestNewTimeline_BackstepWithinTolerance tests that sub-tolerance jitter is sorted, not rejected.
func TestNewTimeline_BackstepWithinTolerance(t *testing.T) {
	jitter := location.TrackPoint{Time: at(1).Add(-500 * time.Millisecond)}
	tl, err := location.NewTimeline([]location.Track{
		track(point(0, 0, 0), point(1, 1, 1), jitter),
	})
	require.NoError(t, err)
	assert.Equal(t, jitter.Time, tl.At(1).Time)

	_, err = location.NewTimeline([]location.Track{
		track(point(0, 0, 0), point(1, 1, 1), jitter),
	}, location.WithBackstepTolerance(0))
	assert.ErrorIs(t, err, location.ErrInvalidTrack)
}

func TestNewTimeline_NoTracks(t *testing.T) {
	tl, err := location.NewTimeline(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, tl.Len())
	_, _, ok := tl.Bounds()
	assert.False(t, ok)
}

// TestNewTimeline_NormalizesToUTC tests that zoned timestamps are compared as instants.
func TestNewTimeline_NormalizesToUTC(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	p := location.TrackPoint{Time: at(0).In(zone)}

	tl, err := location.NewTimeline([]location.Track{track(p, point(1, 0, 0))})
	require.NoError(t, err)

	assert.Equal(t, time.UTC, tl.At(0).Time.Location())
	assert.True(t, tl.At(0).Time.Equal(at(0)))
}

func TestTimeline_Bracket(t *testing.T) {
	tl, err := location.NewTimeline([]location.Track{
		track(point(0, 0, 0), point(10, 0, 0)),
	})
	require.NoError(t, err)

	idx, exact := tl.Bracket(at(-1))
	assert.Equal(t, 0, idx)
	assert.False(t, exact)

	idx, exact = tl.Bracket(at(0))
	assert.Equal(t, 0, idx)
	assert.True(t, exact)

	idx, exact = tl.Bracket(at(5))
	assert.Equal(t, 1, idx)
	assert.False(t, exact)

	idx, exact = tl.Bracket(at(11))
	assert.Equal(t, 2, idx)
	assert.False(t, exact)
}

// TestTimeline_PointsIsCopy tests that callers cannot mutate the timeline.
func TestTimeline_PointsIsCopy(t *testing.T) {
	tl, err := location.NewTimeline([]location.Track{track(point(0, 5, 5))})
	require.NoError(t, err)

	points := tl.Points()
	points[0].Coordinate.Latitude = 42

	assert.Equal(t, 5.0, tl.At(0).Coordinate.Latitude)
}

func elevated(minutes, lat, lon, elev float64) location.TrackPoint {
	p := point(minutes, lat, lon)
	p.Coordinate.Elevation = location.Elevation(elev)
	return p
}

// TestTimeline_ElevationNotShared tests that elevations handed out by the
// timeline and by Locate are independent copies.
func TestTimeline_ElevationNotShared(t *testing.T) {
	input := track(elevated(0, 1, 1, 100), elevated(1, 2, 2, 200))
	tl, err := location.NewTimeline([]location.Track{input})
	require.NoError(t, err)

	*input.Points[0].Coordinate.Elevation = 1
	*tl.Points()[0].Coordinate.Elevation = 2
	*tl.At(0).Coordinate.Elevation = 3

	exact := location.Locate(tl, at(0), time.Minute)
	require.True(t, exact.Matched())
	assert.Equal(t, 100.0, *exact.Coordinate.Elevation)
	*exact.Coordinate.Elevation = -9999

	again := location.Locate(tl, at(0), time.Minute)
	require.NotNil(t, again.Coordinate.Elevation)
	assert.Equal(t, 100.0, *again.Coordinate.Elevation)
	assert.Equal(t, 100.0, *tl.At(0).Coordinate.Elevation)

	mid := location.Locate(tl, at(0.5), time.Minute)
	require.NotNil(t, mid.Coordinate.Elevation)
	assert.InDelta(t, 150.0, *mid.Coordinate.Elevation, 1e-9)
}

// TestInterpolate_EndpointsAreCopies tests that t=0 and t=1 do not alias the inputs.
func TestInterpolate_EndpointsAreCopies(t *testing.T) {
	a := location.Coordinate{Latitude: 1, Longitude: 1, Elevation: location.Elevation(10)}
	b := location.Coordinate{Latitude: 2, Longitude: 2, Elevation: location.Elevation(20)}

	start := location.Interpolate(a, b, 0)
	end := location.Interpolate(a, b, 1)
	*start.Elevation = 0
	*end.Elevation = 0

	assert.Equal(t, 10.0, *a.Elevation)
	assert.Equal(t, 20.0, *b.Elevation)
}
