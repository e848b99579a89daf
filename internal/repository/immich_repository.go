package repository

import (
	"context"

	"github.com/RubixDev/immich-gpx/internal/models"
	"github.com/RubixDev/immich-gpx/pkg/immich"
	"github.com/RubixDev/immich-gpx/pkg/location"
	"github.com/rs/zerolog"
)

// ImmichAPI is the part of the Immich client the repository needs.
type ImmichAPI interface {
	SearchAll(ctx context.Context, search immich.MetadataSearch) ([]immich.Asset, error)
	UpdateAssetLocation(ctx context.Context, assetID string, latitude, longitude float64) error
	PhotoURL(assetID string) string
}

// ImmichRepository lists and geotags assets on an Immich server.
type ImmichRepository struct {
	api    ImmichAPI
	logger zerolog.Logger
}

// NewImmichRepository creates a repository backed by api.
func NewImmichRepository(api ImmichAPI, logger zerolog.Logger) *ImmichRepository {
	return &ImmichRepository{
		api:    api,
		logger: logger,
	}
}

// List returns every asset matching q, in server order.
func (r *ImmichRepository) List(ctx context.Context, q models.AssetQuery) ([]models.AssetRef, error) {
	search := immich.MetadataSearch{
		WithExif: true,
		Make:     q.CameraMake,
		Model:    q.CameraModel,
	}
	if !q.TakenAfter.IsZero() {
		after := q.TakenAfter.UTC()
		search.TakenAfter = &after
	}
	if !q.TakenBefore.IsZero() {
		before := q.TakenBefore.UTC()
		search.TakenBefore = &before
	}

	assets, err := r.api.SearchAll(ctx, search)
	if err != nil {
		return nil, err
	}

	refs := make([]models.AssetRef, 0, len(assets))
	for _, a := range assets {
		refs = append(refs, toAssetRef(a))
	}
	r.logger.Debug().Int("assets", len(refs)).Msg("Listed assets")
	return refs, nil
}

// UpdateLocation writes the latitude and longitude of one asset. The update
// endpoint has no elevation field.
func (r *ImmichRepository) UpdateLocation(ctx context.Context, assetID string, c location.Coordinate) error {
	return r.api.UpdateAssetLocation(ctx, assetID, c.Latitude, c.Longitude)
}

// PhotoURL returns the web UI link of an asset.
func (r *ImmichRepository) PhotoURL(assetID string) string {
	return r.api.PhotoURL(assetID)
}

func toAssetRef(a immich.Asset) models.AssetRef {
	hasLat, hasLon := a.HasLatitude(), a.HasLongitude()
	return models.AssetRef{
		ID:               a.ID,
		OwnerID:          a.OwnerID,
		OriginalFileName: a.OriginalFileName,
		CaptureTime:      a.CaptureTime(),
		HasLocation:      hasLat || hasLon,
		PartialLocation:  hasLat != hasLon,
	}
}
