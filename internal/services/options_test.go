package services_test

import (
	"testing"
	"time"

	"github.com/RubixDev/immich-gpx/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, services.DefaultOptions().Validate())

	tests := []struct {
		name   string
		mutate func(*services.Options)
	}{
		{"zero max gap", func(o *services.Options) { o.MaxGap = 0 }},
		{"negative max gap", func(o *services.Options) { o.MaxGap = -time.Second }},
		{"zero concurrency", func(o *services.Options) { o.ConcurrencyLimit = 0 }},
		{"zero timeout", func(o *services.Options) { o.PerCallTimeout = 0 }},
		{"negative workers", func(o *services.Options) { o.PlanWorkers = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := services.DefaultOptions()
			tt.mutate(&opts)
			assert.ErrorIs(t, opts.Validate(), services.ErrInvalidOptions)
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := services.DefaultOptions()
	assert.Equal(t, 5*time.Minute, opts.MaxGap)
	assert.True(t, opts.Filters.OnlyMissingLocation)
	assert.False(t, opts.Filters.PartialLocationAsMissing)
	assert.Equal(t, 4, opts.ConcurrencyLimit)
	assert.Equal(t, 30*time.Second, opts.PerCallTimeout)
}
