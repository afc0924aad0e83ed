package postgres

import (
	"context"
	"database/sql"

	"carrental/internal/domain"
)

// StationRepository is a PostgreSQL implementation of repository.StationRepository.
type StationRepository struct {
	q Querier
}

// NewStationRepository creates a new PostgreSQL station repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{q: db}
}

// Create persists a new station.
func (r *StationRepository) Create(ctx context.Context, s *domain.Station) error {
	query := `
		INSERT INTO stations (id, name, address, latitude, longitude, capacity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query, s.ID, s.Name, s.Address, s.Latitude, s.Longitude, s.Capacity, s.CreatedAt)
	return translateError(err)
}

// GetByID retrieves a station by ID.
func (r *StationRepository) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	query := `SELECT id, name, address, latitude, longitude, capacity, created_at FROM stations WHERE id = $1`

	var s domain.Station
	err := r.q.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &s.Capacity, &s.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &s, nil
}

// GetAll retrieves all stations.
func (r *StationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	query := `SELECT id, name, address, latitude, longitude, capacity, created_at FROM stations ORDER BY name`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*domain.Station
	for rows.Next() {
		var s domain.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &s.Capacity, &s.CreatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, &s)
	}
	return stations, rows.Err()
}

// Update overwrites a station.
func (r *StationRepository) Update(ctx context.Context, s *domain.Station) error {
	query := `
		UPDATE stations
		SET name = $1, address = $2, latitude = $3, longitude = $4, capacity = $5
		WHERE id = $6
	`
	result, err := r.q.ExecContext(ctx, query, s.Name, s.Address, s.Latitude, s.Longitude, s.Capacity, s.ID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Delete removes a station.
func (r *StationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM stations WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(result)
}
