package location

import (
	"fmt"

	gogpx "github.com/tkrajina/gpxgo/gpx"
)

// GPXDecoder reads GPX 1.0 and 1.1 track logs.
type GPXDecoder struct{}

// NewGPXDecoder creates a new GPXDecoder.
func NewGPXDecoder() *GPXDecoder {
	return &GPXDecoder{}
}

// Decode returns one Track per track segment. Points without a timestamp
// cannot be correlated and are dropped, as are segments left empty.
func (d *GPXDecoder) Decode(source string, data []byte) ([]Track, error) {
	doc, err := gogpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, source, err)
	}

	var tracks []Track
	for ti, trk := range doc.Tracks {
		for si, seg := range trk.Segments {
			points := make([]TrackPoint, 0, len(seg.Points))
			for pi, pt := range seg.Points {
				if pt.Timestamp.IsZero() {
					continue
				}
				coord := Coordinate{
					Latitude:  pt.GetLatitude(),
					Longitude: pt.GetLongitude(),
				}
				if ele := pt.GetElevation(); ele.NotNull() {
					coord.Elevation = Elevation(ele.Value())
				}
				if !coord.Valid() {
					return nil, fmt.Errorf("%w: %s: track %d segment %d point %d out of range (%s)",
						ErrParse, source, ti, si, pi, coord)
				}
				points = append(points, TrackPoint{Time: pt.Timestamp.UTC(), Coordinate: coord})
			}
			if len(points) == 0 {
				continue
			}
			tracks = append(tracks, Track{
				Source: fmt.Sprintf("%s#%d.%d", source, ti, si),
				Points: points,
			})
		}
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %s: no timestamped track points", ErrParse, source)
	}
	return tracks, nil
}
