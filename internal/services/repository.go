package services

import (
	"context"

	"github.com/RubixDev/immich-gpx/internal/models"
	"github.com/RubixDev/immich-gpx/pkg/location"
)

// AssetRepository lists assets and writes their location.
type AssetRepository interface {
	List(ctx context.Context, q models.AssetQuery) ([]models.AssetRef, error)
	UpdateLocation(ctx context.Context, assetID string, c location.Coordinate) error
}

// photoLinker is implemented by repositories that can link to an asset in a web UI.
type photoLinker interface {
	PhotoURL(assetID string) string
}
