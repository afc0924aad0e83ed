package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

const vehicleColumns = `id, plate_number, brand, model, seats, variant, status, station_id, created_at, updated_at`

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// NewVehicleRepositoryWithTx creates a vehicle repository using a transaction.
func NewVehicleRepositoryWithTx(tx *sql.Tx) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

// Create adds a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, plate_number, brand, model, seats, variant, status, station_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		v.ID,
		v.PlateNumber,
		v.Brand,
		v.Model,
		v.Seats,
		v.Variant,
		v.Status,
		nullString(v.StationID),
		v.CreatedAt,
		v.UpdatedAt,
	)
	return translateError(err)
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	return scanVehicle(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a vehicle and locks its row.
func (r *VehicleRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 FOR UPDATE`
	return scanVehicle(r.q.QueryRowContext(ctx, query, id))
}

// List retrieves vehicles matching the filter.
func (r *VehicleRepository) List(ctx context.Context, filter domain.VehicleFilter) ([]*domain.Vehicle, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.StationID != "" {
		args = append(args, filter.StationID)
		conditions = append(conditions, fmt.Sprintf("station_id = $%d", len(args)))
	}
	if filter.Seats > 0 {
		args = append(args, filter.Seats)
		conditions = append(conditions, fmt.Sprintf("seats = $%d", len(args)))
	}

	query := `SELECT ` + vehicleColumns + ` FROM vehicles`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// Update overwrites the descriptive fields of a vehicle. Status is only
// written by UpdateStatus and UpdateStatusIf.
func (r *VehicleRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET plate_number = $1, brand = $2, model = $3, seats = $4, variant = $5, updated_at = NOW()
		WHERE id = $6
	`

	result, err := r.q.ExecContext(ctx, query, v.PlateNumber, v.Brand, v.Model, v.Seats, v.Variant, v.ID)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(result)
}

// UpdateStatus sets the status of a vehicle unconditionally.
func (r *VehicleRepository) UpdateStatus(ctx context.Context, id string, status domain.VehicleStatus) error {
	query := `UPDATE vehicles SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// UpdateStatusIf sets the status only when the vehicle is currently in from.
func (r *VehicleRepository) UpdateStatusIf(ctx context.Context, id string, from, to domain.VehicleStatus) (bool, error) {
	query := `UPDATE vehicles SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

// AssignStation sets or clears the station of a vehicle.
func (r *VehicleRepository) AssignStation(ctx context.Context, id, stationID string) error {
	query := `UPDATE vehicles SET station_id = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, nullString(stationID), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// CountByStation returns how many vehicles are assigned to a station.
func (r *VehicleRepository) CountByStation(ctx context.Context, stationID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles WHERE station_id = $1`, stationID).Scan(&count)
	return count, err
}

// Delete removes a vehicle.
func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(result)
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var v domain.Vehicle
	var stationID sql.NullString

	err := row.Scan(
		&v.ID,
		&v.PlateNumber,
		&v.Brand,
		&v.Model,
		&v.Seats,
		&v.Variant,
		&v.Status,
		&stationID,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	if stationID.Valid {
		v.StationID = stationID.String
	}
	return &v, nil
}

var _ repository.VehicleRepository = (*VehicleRepository)(nil)
