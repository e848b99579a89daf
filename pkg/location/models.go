package location

import (
	"fmt"
	"time"
)

// Coordinate represents a geographical position in WGS84 degrees.
type Coordinate struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Elevation *float64 `json:"elevation,omitempty"` // Meters, nil when the source had none
}

// Valid reports whether latitude and longitude are within their ranges.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinate) String() string {
	if c.Elevation != nil {
		return fmt.Sprintf("%.6f, %.6f (%.1fm)", c.Latitude, c.Longitude, *c.Elevation)
	}
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

// clone returns c with its own Elevation, so callers never share a pointer
// with the Timeline.
func (c Coordinate) clone() Coordinate {
	if c.Elevation != nil {
		c.Elevation = Elevation(*c.Elevation)
	}
	return c
}

// TrackPoint is a single GPS fix.
type TrackPoint struct {
	Time       time.Time  `json:"time"`
	Coordinate Coordinate `json:"coordinate"`
}

// Track is a time-ordered sequence of fixes recorded by one device session.
type Track struct {
	Source string       // File path or other origin, used in error messages
	Points []TrackPoint // Ordered by Time
}

// Elevation returns a pointer to a copy of v, for building coordinates.
func Elevation(v float64) *float64 {
	return &v
}
