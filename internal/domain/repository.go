package domain

import (
	"context"
	"time"
)

// LocationRepository defines the interface for vehicle position persistence.
// The domain defines it; storage packages implement it.
type LocationRepository interface {
	// SaveLocation persists a single position sample
	SaveLocation(ctx context.Context, rec LocationRecord) error

	// PointsBetween returns samples in [from, to) ordered by recording time
	PointsBetween(ctx context.Context, vehicleID string, from, to time.Time) ([]LocationRecord, error)

	// Latest returns up to limit samples recorded since the given time, oldest first
	Latest(ctx context.Context, vehicleID string, since time.Time, limit int) ([]LocationRecord, error)

	// Health checks storage connectivity
	Health(ctx context.Context) error
}
