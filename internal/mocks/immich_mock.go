package mocks

import (
	"context"

	"github.com/RubixDev/immich-gpx/pkg/immich"
	"github.com/stretchr/testify/mock"
)

// MockImmichAPI is a mock implementation of the repository.ImmichAPI interface
type MockImmichAPI struct {
	mock.Mock
}

func (m *MockImmichAPI) SearchAll(ctx context.Context, search immich.MetadataSearch) ([]immich.Asset, error) {
	args := m.Called(ctx, search)
	assets, _ := args.Get(0).([]immich.Asset)
	return assets, args.Error(1)
}

func (m *MockImmichAPI) UpdateAssetLocation(ctx context.Context, assetID string, latitude, longitude float64) error {
	args := m.Called(ctx, assetID, latitude, longitude)
	return args.Error(0)
}

func (m *MockImmichAPI) PhotoURL(assetID string) string {
	args := m.Called(assetID)
	return args.String(0)
}
