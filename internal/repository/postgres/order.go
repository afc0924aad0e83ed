package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

const orderColumns = `id, customer_id, vehicle_id, start_time, end_time, total_price, coupon_code, status, planned_hours, actual_hours, cancel_reason, created_at, updated_at, picked_up_at, returned_at, cancelled_at`

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.RentalOrder) error {
	query := `
		INSERT INTO rental_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.q.ExecContext(ctx, query,
		o.ID,
		o.CustomerID,
		o.VehicleID,
		o.StartTime,
		o.EndTime,
		o.TotalPrice,
		nullString(o.CouponCode),
		o.Status,
		o.PlannedHours,
		nullFloat(o.ActualHours),
		nullString(o.CancelReason),
		o.CreatedAt,
		o.UpdatedAt,
		nullTime(o.PickedUpAt),
		nullTime(o.ReturnedAt),
		nullTime(o.CancelledAt),
	)
	return translateError(err)
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.RentalOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM rental_orders WHERE id = $1`
	return scanOrder(r.q.QueryRowContext(ctx, query, id))
}

// List retrieves orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.RentalOrder, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filter.VehicleID != "" {
		args = append(args, filter.VehicleID)
		conditions = append(conditions, fmt.Sprintf("vehicle_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + orderColumns + ` FROM rental_orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)

	return r.queryOrders(ctx, query, args...)
}

// Update overwrites an existing order.
func (r *OrderRepository) Update(ctx context.Context, o *domain.RentalOrder) error {
	query := `
		UPDATE rental_orders
		SET vehicle_id = $1, total_price = $2, status = $3, actual_hours = $4, cancel_reason = $5,
		    updated_at = $6, picked_up_at = $7, returned_at = $8, cancelled_at = $9
		WHERE id = $10
	`

	result, err := r.q.ExecContext(ctx, query,
		o.VehicleID,
		o.TotalPrice,
		o.Status,
		nullFloat(o.ActualHours),
		nullString(o.CancelReason),
		o.UpdatedAt,
		nullTime(o.PickedUpAt),
		nullTime(o.ReturnedAt),
		nullTime(o.CancelledAt),
		o.ID,
	)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(result)
}

// TransitionStatus moves an order from one status to another atomically.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	query := `UPDATE rental_orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	result, err := r.q.ExecContext(ctx, query, to, at, id, from)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

// ListPendingCreatedBefore retrieves PENDING orders created before cutoff.
func (r *OrderRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.RentalOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM rental_orders WHERE status = $1 AND created_at < $2 ORDER BY created_at`
	return r.queryOrders(ctx, query, domain.OrderStatusPending, cutoff)
}

// Delete hard-deletes an order. Details and payments go with it through
// ON DELETE CASCADE, so this is a single atomic statement.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM rental_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.RentalOrder, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.RentalOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanOrder(row rowScanner) (*domain.RentalOrder, error) {
	var o domain.RentalOrder
	var couponCode, cancelReason sql.NullString
	var actualHours sql.NullFloat64
	var pickedUpAt, returnedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.VehicleID,
		&o.StartTime,
		&o.EndTime,
		&o.TotalPrice,
		&couponCode,
		&o.Status,
		&o.PlannedHours,
		&actualHours,
		&cancelReason,
		&o.CreatedAt,
		&o.UpdatedAt,
		&pickedUpAt,
		&returnedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	o.CouponCode = couponCode.String
	o.CancelReason = cancelReason.String
	o.ActualHours = floatPtr(actualHours)
	if pickedUpAt.Valid {
		o.PickedUpAt = pickedUpAt.Time
	}
	if returnedAt.Valid {
		o.ReturnedAt = returnedAt.Time
	}
	if cancelledAt.Valid {
		o.CancelledAt = cancelledAt.Time
	}
	return &o, nil
}

var _ repository.OrderRepository = (*OrderRepository)(nil)
