package repository

import (
	"context"
	"time"

	"carrental/internal/domain"
)

// AnalyticsRepository runs the aggregate queries behind the admin dashboard.
type AnalyticsRepository interface {
	// Revenue sums totals of orders completed within [from, to).
	Revenue(ctx context.Context, from, to time.Time) (float64, error)

	// OrdersByStatus counts orders created within [from, to) per status.
	OrdersByStatus(ctx context.Context, from, to time.Time) (map[domain.OrderStatus]int, error)

	// FleetByStatus counts vehicles per status.
	FleetByStatus(ctx context.Context) (map[domain.VehicleStatus]int, error)

	// TopVehicles ranks vehicles by completed-order revenue within [from, to).
	TopVehicles(ctx context.Context, from, to time.Time, limit int) ([]domain.VehicleRevenue, error)

	// OpenIncidents counts incidents not yet resolved.
	OpenIncidents(ctx context.Context) (int, error)
}
