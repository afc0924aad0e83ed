package repository

import (
	"context"

	"carrental/internal/domain"
)

// StationRepository defines the persistence operations for stations.
type StationRepository interface {
	Create(ctx context.Context, station *domain.Station) error
	GetByID(ctx context.Context, id string) (*domain.Station, error)
	GetAll(ctx context.Context) ([]*domain.Station, error)
	Update(ctx context.Context, station *domain.Station) error
	Delete(ctx context.Context, id string) error
}
