package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"carrental/internal/domain"
	internalRedis "carrental/internal/redis"
	"carrental/internal/repository"
)

const topVehiclesLimit = 5

// AnalyticsService builds the admin dashboard.
type AnalyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	cache         internalRedis.CacheStoreInterface
	logger        *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService. cache may be nil.
func NewAnalyticsService(analyticsRepo repository.AnalyticsRepository, cache internalRedis.CacheStoreInterface, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepo: analyticsRepo,
		cache:         cache,
		logger:        logger,
	}
}

// Dashboard returns KPIs for orders created or completed within [from, to).
// Results are cached briefly per window.
func (s *AnalyticsService) Dashboard(ctx context.Context, from, to time.Time) (*domain.Dashboard, error) {
	if !from.Before(to) {
		return nil, ErrInvalidDateRange
	}

	key := fmt.Sprintf("%d:%d", from.Unix(), to.Unix())
	if s.cache != nil {
		var cached domain.Dashboard
		hit, err := s.cache.GetDashboard(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	dashboard, err := s.buildDashboard(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetDashboard(ctx, key, dashboard); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return dashboard, nil
}

func (s *AnalyticsService) buildDashboard(ctx context.Context, from, to time.Time) (*domain.Dashboard, error) {
	revenue, err := s.analyticsRepo.Revenue(ctx, from, to)
	if err != nil {
		return nil, err
	}
	ordersByStatus, err := s.analyticsRepo.OrdersByStatus(ctx, from, to)
	if err != nil {
		return nil, err
	}
	fleet, err := s.analyticsRepo.FleetByStatus(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.analyticsRepo.TopVehicles(ctx, from, to, topVehiclesLimit)
	if err != nil {
		return nil, err
	}
	openIncidents, err := s.analyticsRepo.OpenIncidents(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		From:            from,
		To:              to,
		Revenue:         revenue,
		OrdersByStatus:  ordersByStatus,
		FleetByStatus:   fleet,
		UtilizationRate: utilization(fleet),
		TopVehicles:     top,
		OpenIncidents:   openIncidents,
	}, nil
}

// utilization is the share of the fleet currently out on rental.
func utilization(fleet map[domain.VehicleStatus]int) float64 {
	total := 0
	for _, n := range fleet {
		total += n
	}
	if total == 0 {
		return 0
	}
	rate := float64(fleet[domain.VehicleStatusRental]) / float64(total)
	return math.Round(rate*10000) / 10000
}
