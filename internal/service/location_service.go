package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vehicletrack/backend/internal/domain"
)

// liveLimit caps the number of samples returned by the live endpoint.
const liveLimit = 500

// LocationService answers location-history queries for one vehicle
type LocationService struct {
	repo       LocationRepository
	vehicleID  string
	liveWindow time.Duration
	now        func() time.Time
}

// NewLocationService creates a new location service
func NewLocationService(repo LocationRepository, vehicleID string, liveWindow time.Duration) *LocationService {
	return &LocationService{
		repo:       repo,
		vehicleID:  vehicleID,
		liveWindow: liveWindow,
		now:        time.Now,
	}
}

// History returns the samples recorded within the date range.
func (s *LocationService) History(ctx context.Context, d domain.DateRange) ([]domain.LocationSample, error) {
	from, to, err := d.Window(s.now())
	if err != nil {
		return nil, fmt.Errorf("location: %q: %w", d, err)
	}

	recs, err := s.repo.PointsBetween(ctx, s.vehicleID, from, to)
	if err != nil {
		return nil, fmt.Errorf("location: history: %w", err)
	}
	return samples(recs), nil
}

// Live returns the samples recorded within the live window
func (s *LocationService) Live(ctx context.Context) ([]domain.LocationSample, error) {
	recs, err := s.repo.Latest(ctx, s.vehicleID, s.now().Add(-s.liveWindow), liveLimit)
	if err != nil {
		return nil, fmt.Errorf("location: live: %w", err)
	}
	return samples(recs), nil
}

// Record stores a sample, filling in the vehicle and timestamp when absent.
func (s *LocationService) Record(ctx context.Context, rec domain.LocationRecord) (domain.LocationRecord, error) {
	if rec.VehicleID == "" {
		rec.VehicleID = s.vehicleID
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = s.now()
	}
	if err := s.repo.SaveLocation(ctx, rec); err != nil {
		return domain.LocationRecord{}, fmt.Errorf("location: record: %w", err)
	}
	return rec, nil
}

// Health checks the underlying store
func (s *LocationService) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}

func samples(recs []domain.LocationRecord) []domain.LocationSample {
	out := make([]domain.LocationSample, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Sample())
	}
	return out
}
