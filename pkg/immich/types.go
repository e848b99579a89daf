package immich

import (
	"time"
)

// Asset is the subset of the server's asset response used by this tool.
type Asset struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"ownerId"`
	OriginalFileName string    `json:"originalFileName"`
	FileCreatedAt    time.Time `json:"fileCreatedAt"`
	ExifInfo         *ExifInfo `json:"exifInfo"`
}

// ExifInfo holds the EXIF fields relevant for geotagging.
type ExifInfo struct {
	DateTimeOriginal *time.Time `json:"dateTimeOriginal"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	Make             string     `json:"make"`
	Model            string     `json:"model"`
}

// CaptureTime returns the original capture instant, or the zero time when the
// asset carries none.
func (a Asset) CaptureTime() time.Time {
	if a.ExifInfo == nil || a.ExifInfo.DateTimeOriginal == nil {
		return time.Time{}
	}
	return a.ExifInfo.DateTimeOriginal.UTC()
}

// HasLatitude reports whether the latitude is set.
func (a Asset) HasLatitude() bool {
	return a.ExifInfo != nil && a.ExifInfo.Latitude != nil
}

// HasLongitude reports whether the longitude is set.
func (a Asset) HasLongitude() bool {
	return a.ExifInfo != nil && a.ExifInfo.Longitude != nil
}

// MetadataSearch is the body of POST /api/search/metadata.
type MetadataSearch struct {
	Page        int        `json:"page"`
	Size        int        `json:"size,omitempty"`
	WithExif    bool       `json:"withExif"`
	Make        string     `json:"make,omitempty"`
	Model       string     `json:"model,omitempty"`
	TakenAfter  *time.Time `json:"takenAfter,omitempty"`
	TakenBefore *time.Time `json:"takenBefore,omitempty"`
}

type searchResponse struct {
	Assets struct {
		Total    int     `json:"total"`
		Count    int     `json:"count"`
		Items    []Asset `json:"items"`
		NextPage *string `json:"nextPage"`
	} `json:"assets"`
}

type updateAssetRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ServerVersion is the response of GET /api/server/version.
type ServerVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}
