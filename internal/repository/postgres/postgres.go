package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vehicletrack/backend/internal/domain"
)

// Schema creates the location table when it does not exist.
const Schema = `
	CREATE TABLE IF NOT EXISTS vehicle_locations (
		id          BIGSERIAL PRIMARY KEY,
		vehicle_id  TEXT NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS vehicle_locations_vehicle_time
		ON vehicle_locations (vehicle_id, recorded_at);
`

// PostgresRepository implements domain.LocationRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate applies the schema
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: failed to apply schema: %w", err)
	}
	return nil
}

// SaveLocation persists a vehicle position to PostgreSQL
func (r *PostgresRepository) SaveLocation(ctx context.Context, rec domain.LocationRecord) error {
	query := `
		INSERT INTO vehicle_locations (vehicle_id, latitude, longitude, recorded_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, rec.VehicleID, rec.Latitude, rec.Longitude, rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to save location: %w", err)
	}

	return nil
}

// PointsBetween retrieves the track recorded in [from, to)
func (r *PostgresRepository) PointsBetween(ctx context.Context, vehicleID string, from, to time.Time) ([]domain.LocationRecord, error) {
	query := `
		SELECT vehicle_id, latitude, longitude, recorded_at
		FROM vehicle_locations
		WHERE vehicle_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at ASC
	`

	rows, err := r.pool.Query(ctx, query, vehicleID, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query locations: %w", err)
	}
	return collectLocations(rows)
}

// Latest retrieves the most recent samples, returned oldest first
func (r *PostgresRepository) Latest(ctx context.Context, vehicleID string, since time.Time, limit int) ([]domain.LocationRecord, error) {
	query := `
		SELECT vehicle_id, latitude, longitude, recorded_at FROM (
			SELECT vehicle_id, latitude, longitude, recorded_at
			FROM vehicle_locations
			WHERE vehicle_id = $1 AND recorded_at >= $2
			ORDER BY recorded_at DESC
			LIMIT $3
		) recent
		ORDER BY recorded_at ASC
	`

	rows, err := r.pool.Query(ctx, query, vehicleID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query latest locations: %w", err)
	}
	return collectLocations(rows)
}

func collectLocations(rows pgx.Rows) ([]domain.LocationRecord, error) {
	defer rows.Close()

	results := []domain.LocationRecord{}
	for rows.Next() {
		var rec domain.LocationRecord
		if err := rows.Scan(&rec.VehicleID, &rec.Latitude, &rec.Longitude, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan location row: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read location rows: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
