package mocks

import (
	"context"

	"github.com/RubixDev/immich-gpx/internal/models"
	"github.com/RubixDev/immich-gpx/pkg/location"
	"github.com/stretchr/testify/mock"
)

// MockAssetRepository is a mock implementation of the services.AssetRepository interface
type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) List(ctx context.Context, q models.AssetQuery) ([]models.AssetRef, error) {
	args := m.Called(ctx, q)
	assets, _ := args.Get(0).([]models.AssetRef)
	return assets, args.Error(1)
}

func (m *MockAssetRepository) UpdateLocation(ctx context.Context, assetID string, c location.Coordinate) error {
	args := m.Called(ctx, assetID, c)
	return args.Error(0)
}
