package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

// IncidentService records vehicle incidents and keeps vehicles that need
// repair out of rental.
type IncidentService struct {
	txManager    repository.TxManager
	incidentRepo repository.IncidentRepository
	vehicleRepo  repository.VehicleRepository
	orderRepo    repository.OrderRepository
	clock        Clock
	logger       *zap.Logger
}

// NewIncidentService creates a new IncidentService.
func NewIncidentService(
	txManager repository.TxManager,
	incidentRepo repository.IncidentRepository,
	vehicleRepo repository.VehicleRepository,
	orderRepo repository.OrderRepository,
	clock Clock,
	logger *zap.Logger,
) *IncidentService {
	return &IncidentService{
		txManager:    txManager,
		incidentRepo: incidentRepo,
		vehicleRepo:  vehicleRepo,
		orderRepo:    orderRepo,
		clock:        clock,
		logger:       logger,
	}
}

// ReportIncidentRequest contains the parameters for reporting an incident.
type ReportIncidentRequest struct {
	VehicleID   string
	OrderID     string // Optional
	ReportedBy  string
	Type        domain.IncidentType
	Severity    domain.IncidentSeverity
	Description string
	Cost        float64
}

// ReportIncident records an incident. Maintenance and high severity
// incidents move an AVAILABLE vehicle to MAINTENANCE; a vehicle currently
// rented keeps its status until it comes back.
func (s *IncidentService) ReportIncident(ctx context.Context, req ReportIncidentRequest) (*domain.Incident, error) {
	if err := validateIncidentRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.vehicleRepo.GetByID(ctx, req.VehicleID); err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", req.VehicleID, err)
	}
	if req.OrderID != "" {
		if _, err := s.orderRepo.GetByID(ctx, req.OrderID); err != nil {
			return nil, fmt.Errorf("order %s: %w", req.OrderID, err)
		}
	}

	incident := &domain.Incident{
		ID:          uuid.New().String(),
		VehicleID:   req.VehicleID,
		OrderID:     req.OrderID,
		ReportedBy:  req.ReportedBy,
		Type:        req.Type,
		Severity:    req.Severity,
		Description: req.Description,
		Status:      domain.IncidentStatusOpen,
		Cost:        req.Cost,
		CreatedAt:   s.clock.Now(),
	}

	err := s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Incidents.Create(ctx, incident); err != nil {
			return err
		}
		if !incident.TakesVehicleOffline() {
			return nil
		}
		_, err := repos.Vehicles.UpdateStatusIf(ctx, incident.VehicleID, domain.VehicleStatusAvailable, domain.VehicleStatusMaintenance)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("incident reported",
		zap.String("incident_id", incident.ID),
		zap.String("vehicle_id", incident.VehicleID),
		zap.String("severity", string(incident.Severity)),
	)
	return incident, nil
}

// UpdateIncidentRequest contains the parameters for progressing an incident.
type UpdateIncidentRequest struct {
	Status domain.IncidentStatus
	Cost   *float64
}

// UpdateIncident moves an incident forward. Resolving the last open incident
// of a vehicle in MAINTENANCE returns it to AVAILABLE.
func (s *IncidentService) UpdateIncident(ctx context.Context, id string, req UpdateIncidentRequest) (*domain.Incident, error) {
	if req.Cost != nil && *req.Cost < 0 {
		return nil, ErrInvalidIncident
	}

	var incident *domain.Incident
	err := s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		incident, err = repos.Incidents.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != "" && !canMoveIncident(incident.Status, req.Status) {
			return ErrInvalidIncidentTransition
		}

		resolving := req.Status == domain.IncidentStatusResolved && incident.Status != domain.IncidentStatusResolved
		if req.Status != "" {
			incident.Status = req.Status
		}
		if req.Cost != nil {
			incident.Cost = *req.Cost
		}
		if resolving {
			incident.ResolvedAt = s.clock.Now()
		}

		if err := repos.Incidents.Update(ctx, incident); err != nil {
			return err
		}
		if !resolving {
			return nil
		}

		open, err := repos.Incidents.CountOpenByVehicle(ctx, incident.VehicleID, incident.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return nil
		}
		_, err = repos.Vehicles.UpdateStatusIf(ctx, incident.VehicleID, domain.VehicleStatusMaintenance, domain.VehicleStatusAvailable)
		return err
	})
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// GetIncident retrieves an incident by ID.
func (s *IncidentService) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	return s.incidentRepo.GetByID(ctx, id)
}

// ListIncidents retrieves incidents matching the filter.
func (s *IncidentService) ListIncidents(ctx context.Context, filter domain.IncidentFilter) ([]*domain.Incident, error) {
	return s.incidentRepo.List(ctx, filter)
}

func canMoveIncident(from, to domain.IncidentStatus) bool {
	switch from {
	case domain.IncidentStatusOpen:
		return to == domain.IncidentStatusOpen || to == domain.IncidentStatusInProgress || to == domain.IncidentStatusResolved
	case domain.IncidentStatusInProgress:
		return to == domain.IncidentStatusInProgress || to == domain.IncidentStatusResolved
	default:
		return false
	}
}

func validateIncidentRequest(req ReportIncidentRequest) error {
	if req.VehicleID == "" {
		return ErrInvalidVehicleID
	}
	if req.Cost < 0 {
		return ErrInvalidIncident
	}
	switch req.Type {
	case domain.IncidentTypeDamage, domain.IncidentTypeAccident, domain.IncidentTypeMaintenance, domain.IncidentTypeOther:
	default:
		return ErrInvalidIncident
	}
	switch req.Severity {
	case domain.IncidentSeverityLow, domain.IncidentSeverityMedium, domain.IncidentSeverityHigh:
	default:
		return ErrInvalidIncident
	}
	return nil
}
