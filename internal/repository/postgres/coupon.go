package postgres

import (
	"context"
	"database/sql"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

// CouponRepository is a PostgreSQL implementation of repository.CouponRepository.
type CouponRepository struct {
	q Querier
}

// NewCouponRepository creates a new PostgreSQL coupon repository.
func NewCouponRepository(db *sql.DB) *CouponRepository {
	return &CouponRepository{q: db}
}

// NewCouponRepositoryWithTx creates a coupon repository using a transaction.
func NewCouponRepositoryWithTx(tx *sql.Tx) *CouponRepository {
	return &CouponRepository{q: tx}
}

// GetByCode retrieves a coupon by its code.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT code, discount_percent, max_discount, valid_from, valid_until, usage_limit, used_count, active
		FROM coupons WHERE code = $1
	`

	var c domain.Coupon
	var validFrom, validUntil sql.NullTime
	err := r.q.QueryRowContext(ctx, query, code).Scan(
		&c.Code,
		&c.DiscountPercent,
		&c.MaxDiscount,
		&validFrom,
		&validUntil,
		&c.UsageLimit,
		&c.UsedCount,
		&c.Active,
	)
	if err != nil {
		return nil, translateError(err)
	}

	if validFrom.Valid {
		c.ValidFrom = validFrom.Time
	}
	if validUntil.Valid {
		c.ValidUntil = validUntil.Time
	}
	return &c, nil
}

// IncrementUsage bumps the used count while the usage limit allows it.
func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) error {
	query := `
		UPDATE coupons SET used_count = used_count + 1
		WHERE code = $1 AND (usage_limit = 0 OR used_count < usage_limit)
	`
	result, err := r.q.ExecContext(ctx, query, code)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrStaleState
	}
	return nil
}
