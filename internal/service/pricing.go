package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carrental/internal/domain"
	internalRedis "carrental/internal/redis"
	"carrental/internal/repository"
)

// PricingService resolves pricing rules and prices bookings.
type PricingService struct {
	ruleRepo    repository.PricingRuleRepository
	vehicleRepo repository.VehicleRepository
	couponRepo  repository.CouponRepository
	cache       internalRedis.CacheStoreInterface
	clock       Clock
	logger      *zap.Logger
}

// NewPricingService creates a new PricingService. cache may be nil.
func NewPricingService(
	ruleRepo repository.PricingRuleRepository,
	vehicleRepo repository.VehicleRepository,
	couponRepo repository.CouponRepository,
	cache internalRedis.CacheStoreInterface,
	clock Clock,
	logger *zap.Logger,
) *PricingService {
	return &PricingService{
		ruleRepo:    ruleRepo,
		vehicleRepo: vehicleRepo,
		couponRepo:  couponRepo,
		cache:       cache,
		clock:       clock,
		logger:      logger,
	}
}

// Quote is the price of renting one vehicle.
type Quote struct {
	Rule       *domain.PricingRule
	Subtotal   float64
	CouponCode string
	Total      float64
}

// Discount returns how much the coupon took off the subtotal.
func (q *Quote) Discount() float64 {
	return q.Subtotal - q.Total
}

// QuoteVehicle prices vehicleID, applying couponCode when it is set.
func (s *PricingService) QuoteVehicle(ctx context.Context, vehicleID, couponCode string) (*Quote, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, err)
	}

	var coupon *domain.Coupon
	if couponCode != "" {
		if coupon, err = s.RedeemableCoupon(ctx, couponCode); err != nil {
			return nil, err
		}
	}

	return s.priceVehicle(ctx, vehicle, coupon)
}

// priceVehicle resolves the vehicle's rule and applies coupon when non-nil.
func (s *PricingService) priceVehicle(ctx context.Context, vehicle *domain.Vehicle, coupon *domain.Coupon) (*Quote, error) {
	rule, err := s.ResolveRule(ctx, vehicle)
	if err != nil {
		return nil, err
	}

	subtotal := domain.ComputeTotalPrice(rule)
	quote := &Quote{
		Rule:     rule,
		Subtotal: subtotal,
		Total:    subtotal,
	}
	if coupon != nil {
		quote.CouponCode = coupon.Code
		quote.Total = coupon.Apply(subtotal)
	}
	return quote, nil
}

// ResolveRule returns the rule for a vehicle: its own rule when one exists,
// otherwise the rule of its seat/variant class.
func (s *PricingService) ResolveRule(ctx context.Context, vehicle *domain.Vehicle) (*domain.PricingRule, error) {
	if cached := s.cachedRule(ctx, vehicle.ID); cached != nil {
		return cached, nil
	}

	rule, err := s.ruleRepo.GetByVehicleID(ctx, vehicle.ID)
	if errors.Is(err, repository.ErrNotFound) {
		rule, err = s.ruleRepo.GetByClass(ctx, vehicle.Seats, vehicle.Variant)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPricingRuleNotFound
	}
	if err != nil {
		return nil, err
	}

	s.cacheRule(ctx, vehicle.ID, rule)
	return rule, nil
}

// RedeemableCoupon returns the coupon for code if it can be used right now.
func (s *PricingService) RedeemableCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, strings.ToUpper(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	if !coupon.Usable(s.clock.Now()) {
		return nil, ErrCouponNotUsable
	}
	return coupon, nil
}

// CreatePricingRuleRequest contains the parameters for creating a rule.
type CreatePricingRuleRequest struct {
	VehicleID      string
	Seats          int
	Variant        string
	BaseHours      int
	BaseHoursPrice *float64
	ExtraHourPrice *float64
	DailyPrice     *float64
}

// CreateRule adds a vehicle-scoped or class-scoped rule.
func (s *PricingService) CreateRule(ctx context.Context, req CreatePricingRuleRequest) (*domain.PricingRule, error) {
	if req.VehicleID == "" && req.Seats <= 0 {
		return nil, ErrInvalidPricingScope
	}
	if req.BaseHours < 0 {
		return nil, ErrInvalidHours
	}

	if req.VehicleID != "" {
		if _, err := s.vehicleRepo.GetByID(ctx, req.VehicleID); err != nil {
			return nil, fmt.Errorf("vehicle %s: %w", req.VehicleID, err)
		}
	}

	now := s.clock.Now()
	rule := &domain.PricingRule{
		ID:             uuid.New().String(),
		VehicleID:      req.VehicleID,
		Seats:          req.Seats,
		Variant:        req.Variant,
		BaseHours:      req.BaseHours,
		BaseHoursPrice: req.BaseHoursPrice,
		ExtraHourPrice: req.ExtraHourPrice,
		DailyPrice:     req.DailyPrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if rule.HasNegativeComponent() {
		return nil, ErrNegativePrice
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPricingRuleExists
		}
		return nil, err
	}

	s.invalidateRules(ctx)
	return rule, nil
}

// GetRule retrieves a rule by ID.
func (s *PricingService) GetRule(ctx context.Context, id string) (*domain.PricingRule, error) {
	return s.ruleRepo.GetByID(ctx, id)
}

// ListRules retrieves every rule.
func (s *PricingService) ListRules(ctx context.Context) ([]*domain.PricingRule, error) {
	return s.ruleRepo.GetAll(ctx)
}

// UpdateRule merges patch into an existing rule.
func (s *PricingService) UpdateRule(ctx context.Context, id string, patch domain.PricingRulePatch) (*domain.PricingRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(rule)
	if rule.BaseHours < 0 {
		return nil, ErrInvalidHours
	}
	if rule.HasNegativeComponent() {
		return nil, ErrNegativePrice
	}
	rule.UpdatedAt = s.clock.Now()

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return nil, err
	}

	s.invalidateRules(ctx)
	return rule, nil
}

// DeleteRule removes a rule.
func (s *PricingService) DeleteRule(ctx context.Context, id string) error {
	if err := s.ruleRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateRules(ctx)
	return nil
}

func (s *PricingService) cachedRule(ctx context.Context, vehicleID string) *domain.PricingRule {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.GetPricingRule(ctx, vehicleID)
	if err != nil {
		s.logger.Warn("pricing cache read failed", zap.String("vehicle_id", vehicleID), zap.Error(err))
		return nil
	}
	if cached == nil {
		return nil
	}
	return &domain.PricingRule{
		ID:             cached.RuleID,
		VehicleID:      cached.VehicleID,
		BaseHours:      cached.BaseHours,
		BaseHoursPrice: cached.BaseHoursPrice,
		ExtraHourPrice: cached.ExtraHourPrice,
		DailyPrice:     cached.DailyPrice,
	}
}

func (s *PricingService) cacheRule(ctx context.Context, vehicleID string, rule *domain.PricingRule) {
	if s.cache == nil {
		return
	}
	err := s.cache.SetPricingRule(ctx, &internalRedis.CachedPricingRule{
		RuleID:         rule.ID,
		VehicleID:      vehicleID,
		BaseHours:      rule.BaseHours,
		BaseHoursPrice: rule.BaseHoursPrice,
		ExtraHourPrice: rule.ExtraHourPrice,
		DailyPrice:     rule.DailyPrice,
	})
	if err != nil {
		s.logger.Warn("pricing cache write failed", zap.String("vehicle_id", vehicleID), zap.Error(err))
	}
}

func (s *PricingService) invalidateRules(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePricingRules(ctx); err != nil {
		s.logger.Warn("pricing cache invalidation failed", zap.Error(err))
	}
}
