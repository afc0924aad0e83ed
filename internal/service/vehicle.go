package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

// PricingCacheInvalidator drops cached pricing rules.
type PricingCacheInvalidator interface {
	InvalidatePricingRules(ctx context.Context) error
}

// VehicleService manages the fleet.
type VehicleService struct {
	txManager   repository.TxManager
	vehicleRepo repository.VehicleRepository
	stationRepo repository.StationRepository
	detailRepo  repository.OrderDetailRepository
	pricing     PricingCacheInvalidator
	clock       Clock
	logger      *zap.Logger
}

// NewVehicleService creates a new VehicleService. pricing may be nil.
func NewVehicleService(
	txManager repository.TxManager,
	vehicleRepo repository.VehicleRepository,
	stationRepo repository.StationRepository,
	detailRepo repository.OrderDetailRepository,
	pricing PricingCacheInvalidator,
	clock Clock,
	logger *zap.Logger,
) *VehicleService {
	return &VehicleService{
		txManager:   txManager,
		vehicleRepo: vehicleRepo,
		stationRepo: stationRepo,
		detailRepo:  detailRepo,
		pricing:     pricing,
		clock:       clock,
		logger:      logger,
	}
}

// CreateVehicleRequest contains the parameters for registering a vehicle.
type CreateVehicleRequest struct {
	PlateNumber string
	Brand       string
	Model       string
	Seats       int
	Variant     string
	StationID   string // Optional
}

// CreateVehicle registers a vehicle as AVAILABLE.
func (s *VehicleService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*domain.Vehicle, error) {
	now := s.clock.Now()
	vehicle := &domain.Vehicle{
		ID:          uuid.New().String(),
		PlateNumber: strings.ToUpper(strings.TrimSpace(req.PlateNumber)),
		Brand:       strings.TrimSpace(req.Brand),
		Model:       strings.TrimSpace(req.Model),
		Seats:       req.Seats,
		Variant:     req.Variant,
		Status:      domain.VehicleStatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateVehicle(vehicle); err != nil {
		return nil, err
	}

	if req.StationID != "" {
		if err := s.checkStationCapacity(ctx, req.StationID); err != nil {
			return nil, err
		}
		vehicle.StationID = req.StationID
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPlateTaken
		}
		return nil, err
	}

	s.logger.Info("vehicle registered", zap.String("vehicle_id", vehicle.ID), zap.String("plate", vehicle.PlateNumber))
	return vehicle, nil
}

// GetVehicle retrieves a vehicle by ID.
func (s *VehicleService) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	if id == "" {
		return nil, ErrInvalidVehicleID
	}
	return s.vehicleRepo.GetByID(ctx, id)
}

// ListVehicles retrieves vehicles matching the filter.
func (s *VehicleService) ListVehicles(ctx context.Context, filter domain.VehicleFilter) ([]*domain.Vehicle, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidVehicleStatus
	}
	return s.vehicleRepo.List(ctx, filter)
}

// SearchAvailable lists vehicles matching filter that are not in maintenance
// and have no booking overlapping [from, to).
func (s *VehicleService) SearchAvailable(ctx context.Context, from, to time.Time, filter domain.VehicleFilter) ([]*domain.Vehicle, error) {
	if err := validateWindow(from, to); err != nil {
		return nil, err
	}

	filter.Status = ""
	vehicles, err := s.vehicleRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	available := make([]*domain.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if v.Status == domain.VehicleStatusMaintenance {
			continue
		}
		conflicts, err := s.detailRepo.FindOverlapping(ctx, v.ID, from, to, "")
		if err != nil {
			return nil, err
		}
		if len(conflicts) == 0 {
			available = append(available, v)
		}
	}
	return available, nil
}

// UpdateVehicle merges patch into a vehicle under its row lock. Status can
// only be moved between AVAILABLE and MAINTENANCE by hand, and a vehicle
// holding bookings cannot be made AVAILABLE. Status is written with a
// compare-and-set against the value read, so a booking that slipped in
// first wins.
func (s *VehicleService) UpdateVehicle(ctx context.Context, id string, patch domain.VehiclePatch) (*domain.Vehicle, error) {
	if id == "" {
		return nil, ErrInvalidVehicleID
	}

	var (
		updated      *domain.Vehicle
		classChanged bool
	)
	err := s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		vehicle, err := repos.Vehicles.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		current, seats, variant := vehicle.Status, vehicle.Seats, vehicle.Variant

		if patch.Status != nil && *patch.Status != current {
			if err := checkManualStatus(ctx, repos.OrderDetails, id, *patch.Status); err != nil {
				return err
			}
		}

		patch.Apply(vehicle)
		vehicle.PlateNumber = strings.ToUpper(strings.TrimSpace(vehicle.PlateNumber))
		if err := validateVehicle(vehicle); err != nil {
			return err
		}
		vehicle.UpdatedAt = s.clock.Now()

		if err := repos.Vehicles.Update(ctx, vehicle); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrPlateTaken
			}
			return err
		}
		if vehicle.Status != current {
			ok, err := repos.Vehicles.UpdateStatusIf(ctx, id, current, vehicle.Status)
			if err != nil {
				return err
			}
			if !ok {
				return ErrVehicleStatusChanged
			}
		}

		classChanged = vehicle.Seats != seats || vehicle.Variant != variant
		updated, err = repos.Vehicles.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Cached rules are keyed by vehicle, so a new class key needs a fresh lookup.
	if classChanged && s.pricing != nil {
		if err := s.pricing.InvalidatePricingRules(ctx); err != nil {
			s.logger.Warn("failed to invalidate pricing cache", zap.String("vehicle_id", id), zap.Error(err))
		}
	}
	return updated, nil
}

// AssignStation parks a vehicle at a station, or detaches it when stationID
// is empty.
func (s *VehicleService) AssignStation(ctx context.Context, vehicleID, stationID string) (*domain.Vehicle, error) {
	vehicle, err := s.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.StationID == stationID {
		return vehicle, nil
	}

	if stationID != "" {
		if err := s.checkStationCapacity(ctx, stationID); err != nil {
			return nil, err
		}
	}

	if err := s.vehicleRepo.AssignStation(ctx, vehicleID, stationID); err != nil {
		return nil, err
	}
	vehicle.StationID = stationID
	return vehicle, nil
}

// DeleteVehicle removes a vehicle that holds no bookings.
func (s *VehicleService) DeleteVehicle(ctx context.Context, id string) error {
	if _, err := s.GetVehicle(ctx, id); err != nil {
		return err
	}

	holding, err := s.detailRepo.CountHolding(ctx, id, "")
	if err != nil {
		return err
	}
	if holding > 0 {
		return ErrVehicleHasBookings
	}

	if err := s.vehicleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return ErrVehicleHasBookings
		}
		return err
	}
	s.logger.Info("vehicle deleted", zap.String("vehicle_id", id))
	return nil
}

func checkManualStatus(ctx context.Context, details repository.OrderDetailRepository, id string, status domain.VehicleStatus) error {
	switch status {
	case domain.VehicleStatusMaintenance:
		return nil
	case domain.VehicleStatusAvailable:
		holding, err := details.CountHolding(ctx, id, "")
		if err != nil {
			return err
		}
		if holding > 0 {
			return ErrVehicleHasBookings
		}
		return nil
	default:
		return ErrInvalidVehicleStatus
	}
}

func (s *VehicleService) checkStationCapacity(ctx context.Context, stationID string) error {
	station, err := s.stationRepo.GetByID(ctx, stationID)
	if err != nil {
		return err
	}
	if station.Capacity == 0 {
		return nil
	}

	count, err := s.vehicleRepo.CountByStation(ctx, stationID)
	if err != nil {
		return err
	}
	if count >= station.Capacity {
		return ErrStationFull
	}
	return nil
}

func validateVehicle(v *domain.Vehicle) error {
	if v.PlateNumber == "" || v.Brand == "" || v.Model == "" || v.Seats <= 0 {
		return ErrInvalidVehicle
	}
	return nil
}
