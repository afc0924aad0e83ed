package repository

import (
	"context"

	"carrental/internal/domain"
)

// PricingRuleRepository defines the persistence operations for pricing rules.
type PricingRuleRepository interface {
	// Create persists a new rule.
	Create(ctx context.Context, rule *domain.PricingRule) error

	// GetByID retrieves a rule by ID.
	GetByID(ctx context.Context, id string) (*domain.PricingRule, error)

	// GetByVehicleID retrieves the rule scoped to one vehicle.
	GetByVehicleID(ctx context.Context, vehicleID string) (*domain.PricingRule, error)

	// GetByClass retrieves the class rule for a seat count and variant.
	GetByClass(ctx context.Context, seats int, variant string) (*domain.PricingRule, error)

	// GetAll retrieves all rules.
	GetAll(ctx context.Context) ([]*domain.PricingRule, error)

	// Update overwrites a rule.
	Update(ctx context.Context, rule *domain.PricingRule) error

	// Delete removes a rule.
	Delete(ctx context.Context, id string) error
}

// CouponRepository defines the persistence operations for coupons.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)

	// IncrementUsage bumps the used count, failing with ErrStaleState when the
	// usage limit has been reached in the meantime.
	IncrementUsage(ctx context.Context, code string) error
}
