package location

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrParse is returned by decoders for malformed or empty track files.
var ErrParse = errors.New("track parse error")

// TrackDecoder turns the raw bytes of a track file into tracks. A file may
// hold several segments; each one comes back as its own Track. All returned
// timestamps are UTC.
type TrackDecoder interface {
	Decode(source string, data []byte) ([]Track, error)
}

// DecoderFor picks a decoder based on the file extension.
func DecoderFor(path string) (TrackDecoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpx":
		return NewGPXDecoder(), nil
	case ".nmea", ".nma", ".log":
		return NewNMEADecoder(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported track format %q", ErrParse, filepath.Ext(path))
	}
}
