package postgres

import (
	"context"
	"database/sql"

	"carrental/internal/domain"
)

const pricingRuleColumns = `id, vehicle_id, seats, variant, base_hours, base_hours_price, extra_hour_price, daily_price, created_at, updated_at`

// PricingRuleRepository is a PostgreSQL implementation of repository.PricingRuleRepository.
type PricingRuleRepository struct {
	q Querier
}

// NewPricingRuleRepository creates a new PostgreSQL pricing rule repository.
func NewPricingRuleRepository(db *sql.DB) *PricingRuleRepository {
	return &PricingRuleRepository{q: db}
}

// Create persists a new rule.
func (r *PricingRuleRepository) Create(ctx context.Context, rule *domain.PricingRule) error {
	query := `
		INSERT INTO pricing_rules (` + pricingRuleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.ExecContext(ctx, query,
		rule.ID,
		nullString(rule.VehicleID),
		rule.Seats,
		rule.Variant,
		rule.BaseHours,
		nullFloat(rule.BaseHoursPrice),
		nullFloat(rule.ExtraHourPrice),
		nullFloat(rule.DailyPrice),
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	return translateError(err)
}

// GetByID retrieves a rule by ID.
func (r *PricingRuleRepository) GetByID(ctx context.Context, id string) (*domain.PricingRule, error) {
	query := `SELECT ` + pricingRuleColumns + ` FROM pricing_rules WHERE id = $1`
	return scanPricingRule(r.q.QueryRowContext(ctx, query, id))
}

// GetByVehicleID retrieves the rule scoped to one vehicle.
func (r *PricingRuleRepository) GetByVehicleID(ctx context.Context, vehicleID string) (*domain.PricingRule, error) {
	query := `SELECT ` + pricingRuleColumns + ` FROM pricing_rules WHERE vehicle_id = $1`
	return scanPricingRule(r.q.QueryRowContext(ctx, query, vehicleID))
}

// GetByClass retrieves the class rule for a seat count and variant.
func (r *PricingRuleRepository) GetByClass(ctx context.Context, seats int, variant string) (*domain.PricingRule, error) {
	query := `SELECT ` + pricingRuleColumns + ` FROM pricing_rules WHERE vehicle_id IS NULL AND seats = $1 AND variant = $2`
	return scanPricingRule(r.q.QueryRowContext(ctx, query, seats, variant))
}

// GetAll retrieves all rules.
func (r *PricingRuleRepository) GetAll(ctx context.Context) ([]*domain.PricingRule, error) {
	query := `SELECT ` + pricingRuleColumns + ` FROM pricing_rules ORDER BY seats, variant`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.PricingRule
	for rows.Next() {
		rule, err := scanPricingRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Update overwrites a rule.
func (r *PricingRuleRepository) Update(ctx context.Context, rule *domain.PricingRule) error {
	query := `
		UPDATE pricing_rules
		SET base_hours = $1, base_hours_price = $2, extra_hour_price = $3, daily_price = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.q.ExecContext(ctx, query,
		rule.BaseHours,
		nullFloat(rule.BaseHoursPrice),
		nullFloat(rule.ExtraHourPrice),
		nullFloat(rule.DailyPrice),
		rule.UpdatedAt,
		rule.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Delete removes a rule.
func (r *PricingRuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM pricing_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func scanPricingRule(row rowScanner) (*domain.PricingRule, error) {
	var rule domain.PricingRule
	var vehicleID sql.NullString
	var basePrice, extraPrice, dailyPrice sql.NullFloat64

	err := row.Scan(
		&rule.ID,
		&vehicleID,
		&rule.Seats,
		&rule.Variant,
		&rule.BaseHours,
		&basePrice,
		&extraPrice,
		&dailyPrice,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	rule.VehicleID = vehicleID.String
	rule.BaseHoursPrice = floatPtr(basePrice)
	rule.ExtraHourPrice = floatPtr(extraPrice)
	rule.DailyPrice = floatPtr(dailyPrice)
	return &rule, nil
}
