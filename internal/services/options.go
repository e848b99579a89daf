package services

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("invalid options")

// Filters select which listed assets may be geotagged.
type Filters struct {
	OwnerID                  string // Empty matches every owner
	OnlyMissingLocation      bool
	PartialLocationAsMissing bool // Treat assets with only one of latitude and longitude as missing
	AuditFiltered            bool // Keep owner and location rejections in the plan as skipped entries
}

// Options tunes a sync run.
type Options struct {
	MaxGap           time.Duration
	Filters          Filters
	ConcurrencyLimit int
	PerCallTimeout   time.Duration
	PlanWorkers      int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxGap:           5 * time.Minute,
		Filters:          Filters{OnlyMissingLocation: true},
		ConcurrencyLimit: 4,
		PerCallTimeout:   30 * time.Second,
		PlanWorkers:      4,
	}
}

// Validate rejects options no run can honor.
func (o Options) Validate() error {
	switch {
	case o.MaxGap <= 0:
		return fmt.Errorf("%w: max gap must be positive, got %s", ErrInvalidOptions, o.MaxGap)
	case o.ConcurrencyLimit < 1:
		return fmt.Errorf("%w: concurrency limit must be at least 1, got %d", ErrInvalidOptions, o.ConcurrencyLimit)
	case o.PerCallTimeout <= 0:
		return fmt.Errorf("%w: per-call timeout must be positive, got %s", ErrInvalidOptions, o.PerCallTimeout)
	case o.PlanWorkers < 0:
		return fmt.Errorf("%w: plan workers must not be negative, got %d", ErrInvalidOptions, o.PlanWorkers)
	}
	return nil
}
