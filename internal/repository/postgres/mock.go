package postgres

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/vehicletrack/backend/internal/domain"
)

// MockRepository implements domain.LocationRepository in memory for
// testing/demo mode.
type MockRepository struct {
	mu      sync.RWMutex
	records []domain.LocationRecord
}

// NewMockRepository creates an empty mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// NewDemoRepository creates a mock repository seeded with one short drive
// per day for the given number of days before now, plus a few samples
// ending at now for live mode.
func NewDemoRepository(vehicleID string, now time.Time, days int) *MockRepository {
	r := NewMockRepository()
	for d := 0; d <= days; d++ {
		day := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, now.Location()).AddDate(0, 0, -d)
		if day.After(now) {
			continue
		}
		r.records = append(r.records, demoDrive(vehicleID, day, d)...)
	}
	r.records = append(r.records, demoTail(vehicleID, now)...)
	r.sort()
	return r
}

// demoTailSamples are spaced 30s apart so the tail fits a 5 minute window.
const demoTailSamples = 10

// demoTail heads north-east from the default center, last sample at now.
func demoTail(vehicleID string, now time.Time) []domain.LocationRecord {
	out := make([]domain.LocationRecord, 0, demoTailSamples)
	for i := 0; i < demoTailSamples; i++ {
		step := float64(i) * 0.001
		out = append(out, domain.LocationRecord{
			VehicleID:  vehicleID,
			Latitude:   domain.DefaultCenter.Latitude + step,
			Longitude:  domain.DefaultCenter.Longitude + step,
			RecordedAt: now.Add(-time.Duration(demoTailSamples-1-i) * 30 * time.Second),
		})
	}
	return out
}

// demoDrive lays out 30 samples one minute apart on a loop around the
// default center; the loop radius varies per day so tracks differ.
func demoDrive(vehicleID string, start time.Time, seed int) []domain.LocationRecord {
	const samples = 30
	radius := 0.02 + float64(seed%5)*0.005

	out := make([]domain.LocationRecord, 0, samples)
	for i := 0; i < samples; i++ {
		theta := 2 * math.Pi * float64(i) / samples
		out = append(out, domain.LocationRecord{
			VehicleID:  vehicleID,
			Latitude:   domain.DefaultCenter.Latitude + radius*math.Sin(theta),
			Longitude:  domain.DefaultCenter.Longitude + radius*(1-math.Cos(theta)),
			RecordedAt: start.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func (r *MockRepository) sort() {
	sort.SliceStable(r.records, func(i, j int) bool {
		return r.records[i].RecordedAt.Before(r.records[j].RecordedAt)
	})
}

// SaveLocation stores the sample in memory
func (r *MockRepository) SaveLocation(ctx context.Context, rec domain.LocationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	r.sort()
	return nil
}

// PointsBetween returns stored samples in [from, to)
func (r *MockRepository) PointsBetween(ctx context.Context, vehicleID string, from, to time.Time) ([]domain.LocationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []domain.LocationRecord{}
	for _, rec := range r.records {
		if rec.VehicleID != vehicleID {
			continue
		}
		if !rec.RecordedAt.Before(from) && rec.RecordedAt.Before(to) {
			results = append(results, rec)
		}
	}
	return results, nil
}

// Latest returns up to limit samples recorded since the given time
func (r *MockRepository) Latest(ctx context.Context, vehicleID string, since time.Time, limit int) ([]domain.LocationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []domain.LocationRecord{}
	for _, rec := range r.records {
		if rec.VehicleID == vehicleID && !rec.RecordedAt.Before(since) {
			results = append(results, rec)
		}
	}
	if limit > 0 && len(results) > limit {
		results = results[len(results)-limit:]
	}
	return results, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
