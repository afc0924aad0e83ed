package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

const detailColumns = `id, order_id, vehicle_id, type, start_time, end_time, price, status, description, created_at`

// OrderDetailRepository is a PostgreSQL implementation of repository.OrderDetailRepository.
type OrderDetailRepository struct {
	q Querier
}

// NewOrderDetailRepository creates a new PostgreSQL order detail repository.
func NewOrderDetailRepository(db *sql.DB) *OrderDetailRepository {
	return &OrderDetailRepository{q: db}
}

// NewOrderDetailRepositoryWithTx creates an order detail repository using a transaction.
func NewOrderDetailRepositoryWithTx(tx *sql.Tx) *OrderDetailRepository {
	return &OrderDetailRepository{q: tx}
}

// Create persists a new detail. A window collision with another holding
// RENTAL detail surfaces as repository.ErrOverlap.
func (r *OrderDetailRepository) Create(ctx context.Context, d *domain.RentalOrderDetail) error {
	query := `
		INSERT INTO rental_order_details (` + detailColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.ExecContext(ctx, query,
		d.ID,
		d.OrderID,
		d.VehicleID,
		d.Type,
		d.StartTime,
		d.EndTime,
		d.Price,
		d.Status,
		d.Description,
		d.CreatedAt,
	)
	return translateError(err)
}

// ListByOrderID retrieves all details of an order.
func (r *OrderDetailRepository) ListByOrderID(ctx context.Context, orderID string) ([]*domain.RentalOrderDetail, error) {
	query := `SELECT ` + detailColumns + ` FROM rental_order_details WHERE order_id = $1 ORDER BY created_at`
	return r.queryDetails(ctx, query, orderID)
}

// GetRentalDetail retrieves the RENTAL detail of an order.
func (r *OrderDetailRepository) GetRentalDetail(ctx context.Context, orderID string) (*domain.RentalOrderDetail, error) {
	query := `SELECT ` + detailColumns + ` FROM rental_order_details WHERE order_id = $1 AND type = $2 ORDER BY created_at LIMIT 1`
	return scanDetail(r.q.QueryRowContext(ctx, query, orderID, domain.DetailTypeRental))
}

// FindOverlapping retrieves holding RENTAL details of a vehicle whose window
// intersects [from, to). Touching endpoints do not count as overlap.
func (r *OrderDetailRepository) FindOverlapping(ctx context.Context, vehicleID string, from, to time.Time, excludeOrderID string) ([]*domain.RentalOrderDetail, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM rental_order_details
		WHERE vehicle_id = $1
		  AND type = $2
		  AND status = ANY($3)
		  AND NOT (end_time <= $4 OR start_time >= $5)
		  AND ($6 = '' OR order_id::text <> $6)
		ORDER BY start_time
	`
	return r.queryDetails(ctx, query, vehicleID, domain.DetailTypeRental, pq.Array(holdingStatuses()), from, to, excludeOrderID)
}

// CountHolding returns how many holding RENTAL details a vehicle has.
func (r *OrderDetailRepository) CountHolding(ctx context.Context, vehicleID, excludeOrderID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM rental_order_details
		WHERE vehicle_id = $1 AND type = $2 AND status = ANY($3) AND ($4 = '' OR order_id::text <> $4)
	`
	var count int
	err := r.q.QueryRowContext(ctx, query, vehicleID, domain.DetailTypeRental, pq.Array(holdingStatuses()), excludeOrderID).Scan(&count)
	return count, err
}

// UpdateStatus sets the status of a detail.
func (r *OrderDetailRepository) UpdateStatus(ctx context.Context, id string, status domain.DetailStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE rental_order_details SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(result)
}

// Reassign moves a detail to another vehicle and price.
func (r *OrderDetailRepository) Reassign(ctx context.Context, id, vehicleID string, price float64) error {
	result, err := r.q.ExecContext(ctx, `UPDATE rental_order_details SET vehicle_id = $1, price = $2 WHERE id = $3`, vehicleID, price, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(result)
}

func (r *OrderDetailRepository) queryDetails(ctx context.Context, query string, args ...any) ([]*domain.RentalOrderDetail, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []*domain.RentalOrderDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func scanDetail(row rowScanner) (*domain.RentalOrderDetail, error) {
	var d domain.RentalOrderDetail
	err := row.Scan(
		&d.ID,
		&d.OrderID,
		&d.VehicleID,
		&d.Type,
		&d.StartTime,
		&d.EndTime,
		&d.Price,
		&d.Status,
		&d.Description,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &d, nil
}

func holdingStatuses() []string {
	statuses := make([]string, len(domain.HoldingDetailStatuses))
	for i, s := range domain.HoldingDetailStatuses {
		statuses[i] = string(s)
	}
	return statuses
}

var _ repository.OrderDetailRepository = (*OrderDetailRepository)(nil)
