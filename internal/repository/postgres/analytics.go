package postgres

import (
	"context"
	"database/sql"
	"time"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

// AnalyticsRepository is a PostgreSQL implementation of repository.AnalyticsRepository.
type AnalyticsRepository struct {
	q Querier
}

// NewAnalyticsRepository creates a new PostgreSQL analytics repository.
func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{q: db}
}

// Revenue sums totals of orders completed within [from, to).
func (r *AnalyticsRepository) Revenue(ctx context.Context, from, to time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(total_price), 0)
		FROM rental_orders
		WHERE status = $1 AND returned_at >= $2 AND returned_at < $3
	`
	var revenue float64
	err := r.q.QueryRowContext(ctx, query, domain.OrderStatusCompleted, from, to).Scan(&revenue)
	return revenue, err
}

// OrdersByStatus counts orders created within [from, to) per status.
func (r *AnalyticsRepository) OrdersByStatus(ctx context.Context, from, to time.Time) (map[domain.OrderStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM rental_orders
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY status
	`
	rows, err := r.q.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var status domain.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// FleetByStatus counts vehicles per status.
func (r *AnalyticsRepository) FleetByStatus(ctx context.Context) (map[domain.VehicleStatus]int, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT status, COUNT(*) FROM vehicles GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.VehicleStatus]int)
	for rows.Next() {
		var status domain.VehicleStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// TopVehicles ranks vehicles by completed-order revenue within [from, to).
func (r *AnalyticsRepository) TopVehicles(ctx context.Context, from, to time.Time, limit int) ([]domain.VehicleRevenue, error) {
	query := `
		SELECT v.id, v.plate_number, COUNT(o.id), COALESCE(SUM(o.total_price), 0) AS revenue
		FROM rental_orders o
		JOIN vehicles v ON v.id = o.vehicle_id
		WHERE o.status = $1 AND o.returned_at >= $2 AND o.returned_at < $3
		GROUP BY v.id, v.plate_number
		ORDER BY revenue DESC
		LIMIT $4
	`
	rows, err := r.q.QueryContext(ctx, query, domain.OrderStatusCompleted, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []domain.VehicleRevenue
	for rows.Next() {
		var vr domain.VehicleRevenue
		if err := rows.Scan(&vr.VehicleID, &vr.PlateNumber, &vr.Orders, &vr.Revenue); err != nil {
			return nil, err
		}
		top = append(top, vr)
	}
	return top, rows.Err()
}

// OpenIncidents counts incidents not yet resolved.
func (r *AnalyticsRepository) OpenIncidents(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents WHERE status <> $1`, domain.IncidentStatusResolved).Scan(&count)
	return count, err
}

var _ repository.AnalyticsRepository = (*AnalyticsRepository)(nil)
