package location

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
)

// NMEADecoder reads raw NMEA 0183 logs as written by most GPS loggers.
//
// Positions come from RMC sentences, which carry both date and time. A GGA
// sentence reported for the same epoch supplies the elevation.
type NMEADecoder struct{}

// NewNMEADecoder creates a new NMEADecoder.
func NewNMEADecoder() *NMEADecoder {
	return &NMEADecoder{}
}

// Decode parses every line of data. Lines that are not valid NMEA are
// skipped since logs captured from serial ports routinely contain partial
// sentences.
func (d *NMEADecoder) Decode(source string, data []byte) ([]Track, error) {
	var (
		points  []TrackPoint
		lastGGA *nmea.GGA
		lastRMC nmea.Time
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}
		sentence, err := nmea.Parse(line)
		if err != nil {
			continue
		}

		switch s := sentence.(type) {
		case nmea.GGA:
			if s.FixQuality == nmea.Invalid || !s.Time.Valid {
				continue
			}
			// GGA after its RMC: complete the point already emitted.
			if n := len(points); n > 0 && lastRMC == s.Time && points[n-1].Coordinate.Elevation == nil {
				points[n-1].Coordinate.Elevation = Elevation(s.Altitude)
				continue
			}
			gga := s
			lastGGA = &gga
		case nmea.RMC:
			if s.Validity != nmea.ValidRMC || !s.Time.Valid || !s.Date.Valid {
				continue
			}
			coord := Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
			if !coord.Valid() {
				continue
			}
			if lastGGA != nil && lastGGA.Time == s.Time {
				coord.Elevation = Elevation(lastGGA.Altitude)
			}
			lastGGA = nil
			lastRMC = s.Time
			points = append(points, TrackPoint{Time: rmcTime(s.Date, s.Time), Coordinate: coord})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, source, err)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s: no valid RMC fixes", ErrParse, source)
	}
	return []Track{{Source: source, Points: points}}, nil
}

// rmcTime combines the two-digit year date and time-of-day of an RMC
// sentence into a UTC instant.
func rmcTime(d nmea.Date, t nmea.Time) time.Time {
	year := 2000 + d.YY
	if d.YY >= 80 {
		year = 1900 + d.YY
	}
	return time.Date(year, time.Month(d.MM), d.DD,
		t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}
