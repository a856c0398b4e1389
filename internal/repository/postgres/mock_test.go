package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vehicletrack/backend/internal/domain"
)

func TestMockRepository_PointsBetween(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	repo := NewDemoRepository("car-1", now, 3)
	ctx := context.Background()

	from, to, err := domain.Today.Window(now)
	require.NoError(t, err)

	recs, err := repo.PointsBetween(ctx, "car-1", from, to)
	require.NoError(t, err)
	assert.Len(t, recs, 30+demoTailSamples, "morning drive plus the live tail")
	for i := 1; i < len(recs); i++ {
		assert.True(t, recs[i-1].RecordedAt.Before(recs[i].RecordedAt), "records must be chronological")
	}

	other, err := repo.PointsBetween(ctx, "car-2", from, to)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDemoRepository_LiveWindow(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	repo := NewDemoRepository("car-1", now, 3)

	recs, err := repo.Latest(context.Background(), "car-1", now.Add(-10*time.Minute), 500)
	require.NoError(t, err)
	require.Len(t, recs, demoTailSamples)
	assert.Equal(t, now, recs[len(recs)-1].RecordedAt)
	assert.Equal(t, domain.DefaultCenter.Latitude, recs[0].Latitude)
}

func TestMockRepository_SaveAndLatest(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	// Saved out of order on purpose
	for _, off := range []int{2, 0, 1, 3} {
		err := repo.SaveLocation(ctx, domain.LocationRecord{
			VehicleID:  "car-1",
			Latitude:   float64(off),
			Longitude:  float64(off),
			RecordedAt: base.Add(time.Duration(off) * time.Minute),
		})
		require.NoError(t, err)
	}

	recs, err := repo.Latest(ctx, "car-1", base.Add(time.Minute), 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2.0, recs[0].Latitude)
	assert.Equal(t, 3.0, recs[1].Latitude)
}
