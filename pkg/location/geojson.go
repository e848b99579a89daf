package location

import (
	"encoding/json"
	"fmt"
	"io"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Marker is a labelled position written next to the track in a GeoJSON export.
type Marker struct {
	ID         string
	Coordinate Coordinate
	Properties map[string]any
}

// WriteGeoJSON writes the timeline as a LineString feature followed by one
// Point feature per marker, so a dry run can be checked on any map viewer.
func WriteGeoJSON(w io.Writer, tl *Timeline, markers []Marker) error {
	features := make(geom.GeoJSONFeatureCollection, 0, len(markers)+1)

	if tl.Len() > 0 {
		first, last, _ := tl.Bounds()
		g, err := timelineGeometry(tl)
		if err != nil {
			return fmt.Errorf("failed to build timeline geometry: %w", err)
		}
		features = append(features, geom.GeoJSONFeature{
			Geometry: g,
			ID:       "timeline",
			Properties: map[string]interface{}{
				"points": tl.Len(),
				"start":  first,
				"end":    last,
			},
		})
	}

	for _, m := range markers {
		props := map[string]interface{}{}
		for k, v := range m.Properties {
			props[k] = v
		}
		if m.Coordinate.Elevation != nil {
			props["elevation"] = *m.Coordinate.Elevation
		}
		g, err := pointGeometry(m.Coordinate)
		if err != nil {
			return fmt.Errorf("failed to build geometry for %s: %w", m.ID, err)
		}
		features = append(features, geom.GeoJSONFeature{
			Geometry:   g,
			ID:         m.ID,
			Properties: props,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(features); err != nil {
		return fmt.Errorf("failed to encode geojson: %w", err)
	}
	return nil
}

func timelineGeometry(tl *Timeline) (geom.Geometry, error) {
	if tl.Len() == 1 {
		return pointGeometry(tl.At(0).Coordinate)
	}
	flat := make([]float64, 0, tl.Len()*2)
	for _, p := range tl.points {
		flat = append(flat, p.Coordinate.Longitude, p.Coordinate.Latitude)
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.Geometry{}, err
	}
	return ls.AsGeometry(), nil
}

func pointGeometry(c Coordinate) (geom.Geometry, error) {
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: c.Longitude, Y: c.Latitude},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.Geometry{}, err
	}
	return pt.AsGeometry(), nil
}
