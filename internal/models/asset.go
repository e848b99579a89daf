package models

import (
	"time"
)

// AssetRef identifies a photo or video on the asset server, with the few
// metadata fields needed to decide whether and where to geotag it.
type AssetRef struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	OriginalFileName string    `json:"original_file_name,omitempty"`
	CaptureTime      time.Time `json:"capture_time"`     // Zero when the server has no capture time
	HasLocation      bool      `json:"has_location"`     // Latitude or longitude is set
	PartialLocation  bool      `json:"partial_location"` // Only one of latitude and longitude is set
}

// AssetQuery narrows the assets listed from the server.
type AssetQuery struct {
	CameraMake  string
	CameraModel string
	TakenAfter  time.Time // Inclusive lower bound, zero for none
	TakenBefore time.Time // Inclusive upper bound, zero for none
}
