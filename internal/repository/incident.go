package repository

import (
	"context"

	"carrental/internal/domain"
)

// IncidentRepository defines the persistence operations for incidents.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	List(ctx context.Context, filter domain.IncidentFilter) ([]*domain.Incident, error)
	Update(ctx context.Context, incident *domain.Incident) error

	// CountOpenByVehicle returns unresolved incidents of a vehicle, ignoring excludeID.
	CountOpenByVehicle(ctx context.Context, vehicleID, excludeID string) (int, error)
}
