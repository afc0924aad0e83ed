package service

import (
	"context"
	"fmt"
	"time"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

// AvailabilityService answers whether a vehicle is free for a window.
type AvailabilityService struct {
	vehicleRepo repository.VehicleRepository
	detailRepo  repository.OrderDetailRepository
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(vehicleRepo repository.VehicleRepository, detailRepo repository.OrderDetailRepository) *AvailabilityService {
	return &AvailabilityService{
		vehicleRepo: vehicleRepo,
		detailRepo:  detailRepo,
	}
}

// IsAvailable reports whether vehicleID has no confirmed or active RENTAL
// detail overlapping [from, to). It never writes.
func (s *AvailabilityService) IsAvailable(ctx context.Context, vehicleID string, from, to time.Time) (bool, error) {
	conflicts, err := s.Conflicts(ctx, vehicleID, from, to)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// Conflicts returns the bookings that block [from, to) on vehicleID.
func (s *AvailabilityService) Conflicts(ctx context.Context, vehicleID string, from, to time.Time) ([]*domain.RentalOrderDetail, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	if err := validateWindow(from, to); err != nil {
		return nil, err
	}

	if _, err := s.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, err)
	}

	return s.detailRepo.FindOverlapping(ctx, vehicleID, from, to, "")
}

// ensureAvailable fails with ErrVehicleUnavailable when [from, to) overlaps
// a holding booking of vehicleID other than excludeOrderID's. It runs on the
// caller's transaction-scoped repository.
func ensureAvailable(ctx context.Context, details repository.OrderDetailRepository, vehicleID string, from, to time.Time, excludeOrderID string) error {
	conflicts, err := details.FindOverlapping(ctx, vehicleID, from, to, excludeOrderID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return ErrVehicleUnavailable
	}
	return nil
}

func validateWindow(from, to time.Time) error {
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return ErrInvalidWindow
	}
	return nil
}
