package repository

import (
	"context"

	"netdash/internal/domain"
)

// DeviceRepository is the keyed device store used by discovery, metrics
// refresh and the HTTP layer
type DeviceRepository interface {
	// Save inserts or replaces the device keyed by its ID and returns the stored copy
	Save(ctx context.Context, device *domain.Device) (*domain.Device, error)

	// FindByID returns nil, nil when no device has the id
	FindByID(ctx context.Context, id string) (*domain.Device, error)

	// DeleteByID reports whether a row was removed
	DeleteByID(ctx context.Context, id string) (bool, error)

	ExistsByID(ctx context.Context, id string) (bool, error)

	// FindAll returns every device ordered by creation time
	FindAll(ctx context.Context) ([]domain.Device, error)

	// Close releases resources
	Close() error
}
