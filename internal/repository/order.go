package repository

import (
	"context"
	"time"

	"carrental/internal/domain"
)

// OrderRepository defines the persistence operations for rental orders.
type OrderRepository interface {
	// Create persists a new order.
	Create(ctx context.Context, order *domain.RentalOrder) error

	// GetByID retrieves an order by ID.
	GetByID(ctx context.Context, id string) (*domain.RentalOrder, error)

	// List retrieves orders matching the filter, newest first.
	List(ctx context.Context, filter domain.OrderFilter) ([]*domain.RentalOrder, error)

	// Update overwrites an existing order.
	Update(ctx context.Context, order *domain.RentalOrder) error

	// TransitionStatus moves an order from one status to another, stamping
	// updated_at with at. Returns false without error when the order was no
	// longer in from.
	TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error)

	// ListPendingCreatedBefore retrieves PENDING orders created before cutoff.
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.RentalOrder, error)

	// Delete hard-deletes an order and its details.
	Delete(ctx context.Context, id string) error
}

// OrderDetailRepository defines the persistence operations for order details.
type OrderDetailRepository interface {
	// Create persists a new detail.
	Create(ctx context.Context, detail *domain.RentalOrderDetail) error

	// ListByOrderID retrieves all details of an order.
	ListByOrderID(ctx context.Context, orderID string) ([]*domain.RentalOrderDetail, error)

	// GetRentalDetail retrieves the RENTAL detail of an order.
	GetRentalDetail(ctx context.Context, orderID string) (*domain.RentalOrderDetail, error)

	// FindOverlapping retrieves RENTAL details of a vehicle whose status holds
	// the vehicle and whose window intersects [from, to). excludeOrderID, when
	// set, skips details belonging to that order.
	FindOverlapping(ctx context.Context, vehicleID string, from, to time.Time, excludeOrderID string) ([]*domain.RentalOrderDetail, error)

	// CountHolding returns how many holding RENTAL details a vehicle has,
	// ignoring those of excludeOrderID.
	CountHolding(ctx context.Context, vehicleID, excludeOrderID string) (int, error)

	// UpdateStatus sets the status of a detail.
	UpdateStatus(ctx context.Context, id string, status domain.DetailStatus) error

	// Reassign moves a detail to another vehicle and price.
	Reassign(ctx context.Context, id, vehicleID string, price float64) error
}
