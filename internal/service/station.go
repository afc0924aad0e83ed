package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carrental/internal/domain"
	internalRedis "carrental/internal/redis"
	"carrental/internal/repository"
)

const defaultNearbyRadiusKm = 5.0

// StationService manages pickup/return stations and their geo index.
type StationService struct {
	stationRepo repository.StationRepository
	vehicleRepo repository.VehicleRepository
	locations   internalRedis.LocationStoreInterface
	clock       Clock
	logger      *zap.Logger
}

// NewStationService creates a new StationService. locations may be nil, in
// which case nearby search is unavailable.
func NewStationService(
	stationRepo repository.StationRepository,
	vehicleRepo repository.VehicleRepository,
	locations internalRedis.LocationStoreInterface,
	clock Clock,
	logger *zap.Logger,
) *StationService {
	return &StationService{
		stationRepo: stationRepo,
		vehicleRepo: vehicleRepo,
		locations:   locations,
		clock:       clock,
		logger:      logger,
	}
}

// CreateStationRequest contains the parameters for adding a station.
type CreateStationRequest struct {
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Capacity  int
}

// CreateStation adds a station and indexes its location.
func (s *StationService) CreateStation(ctx context.Context, req CreateStationRequest) (*domain.Station, error) {
	station := &domain.Station{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Address:   strings.TrimSpace(req.Address),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Capacity:  req.Capacity,
		CreatedAt: s.clock.Now(),
	}
	if err := validateStation(station); err != nil {
		return nil, err
	}

	if err := s.stationRepo.Create(ctx, station); err != nil {
		return nil, err
	}

	s.indexStation(ctx, station)
	return station, nil
}

// GetStation retrieves a station by ID.
func (s *StationService) GetStation(ctx context.Context, id string) (*domain.Station, error) {
	return s.stationRepo.GetByID(ctx, id)
}

// ListStations retrieves every station.
func (s *StationService) ListStations(ctx context.Context) ([]*domain.Station, error) {
	return s.stationRepo.GetAll(ctx)
}

// UpdateStation merges patch into a station. Capacity cannot drop below the
// number of vehicles already parked there.
func (s *StationService) UpdateStation(ctx context.Context, id string, patch domain.StationPatch) (*domain.Station, error) {
	station, err := s.stationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(station)
	if err := validateStation(station); err != nil {
		return nil, err
	}

	if patch.Capacity != nil && station.Capacity > 0 {
		count, err := s.vehicleRepo.CountByStation(ctx, id)
		if err != nil {
			return nil, err
		}
		if count > station.Capacity {
			return nil, ErrStationFull
		}
	}

	if err := s.stationRepo.Update(ctx, station); err != nil {
		return nil, err
	}

	s.indexStation(ctx, station)
	return station, nil
}

// DeleteStation removes an empty station.
func (s *StationService) DeleteStation(ctx context.Context, id string) error {
	count, err := s.vehicleRepo.CountByStation(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrStationNotEmpty
	}

	if err := s.stationRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return ErrStationNotEmpty
		}
		return err
	}

	if s.locations != nil {
		if err := s.locations.RemoveStation(ctx, id); err != nil {
			s.logger.Warn("failed to unindex station", zap.String("station_id", id), zap.Error(err))
		}
	}
	return nil
}

// NearbyStation is a station with its distance from the search point.
type NearbyStation struct {
	Station    *domain.Station
	DistanceKm float64
}

// FindNearby returns stations within radiusKm of (lat, lng), nearest first.
func (s *StationService) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyStation, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, ErrInvalidStation
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}
	if s.locations == nil {
		return []NearbyStation{}, nil
	}

	found, err := s.locations.FindNearbyStations(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyStation, 0, len(found))
	for _, loc := range found {
		station, err := s.stationRepo.GetByID(ctx, loc.StationID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		nearby = append(nearby, NearbyStation{Station: station, DistanceKm: loc.DistanceKm})
	}
	return nearby, nil
}

func (s *StationService) indexStation(ctx context.Context, station *domain.Station) {
	if s.locations == nil {
		return
	}
	if err := s.locations.UpsertStation(ctx, station.ID, station.Latitude, station.Longitude); err != nil {
		s.logger.Warn("failed to index station", zap.String("station_id", station.ID), zap.Error(err))
	}
}

func validateStation(st *domain.Station) error {
	if st.Name == "" || st.Address == "" || st.Capacity < 0 {
		return ErrInvalidStation
	}
	if st.Latitude < -90 || st.Latitude > 90 || st.Longitude < -180 || st.Longitude > 180 {
		return ErrInvalidStation
	}
	return nil
}
