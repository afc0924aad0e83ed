package repository

import (
	"context"

	"carrental/internal/domain"
)

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// Create adds a new vehicle.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetByIDForUpdate retrieves a vehicle and locks its row until the
	// surrounding transaction ends. Outside a transaction it behaves like GetByID.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Vehicle, error)

	// List retrieves vehicles matching the filter.
	List(ctx context.Context, filter domain.VehicleFilter) ([]*domain.Vehicle, error)

	// Update overwrites the descriptive fields of a vehicle. It never writes status.
	Update(ctx context.Context, vehicle *domain.Vehicle) error

	// UpdateStatus sets the status of a vehicle unconditionally.
	UpdateStatus(ctx context.Context, id string, status domain.VehicleStatus) error

	// UpdateStatusIf sets the status only when the current status equals from.
	// Returns false without error when the vehicle was in another state.
	UpdateStatusIf(ctx context.Context, id string, from, to domain.VehicleStatus) (bool, error)

	// AssignStation sets or clears (empty stationID) the vehicle's station.
	AssignStation(ctx context.Context, id, stationID string) error

	// CountByStation returns how many vehicles are assigned to a station.
	CountByStation(ctx context.Context, stationID string) (int, error)

	// Delete removes a vehicle.
	Delete(ctx context.Context, id string) error
}
