package domain

import "time"

// OrderStatus represents the lifecycle state of a rental order.
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "PENDING"
	OrderStatusConfirmed     OrderStatus = "CONFIRMED"
	OrderStatusActive        OrderStatus = "ACTIVE"
	OrderStatusCompleted     OrderStatus = "COMPLETED"
	OrderStatusPaymentFailed OrderStatus = "PAYMENT_FAILED"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusPaymentFailed || s == OrderStatusCancelled
}

// CanPickup reports whether a vehicle can be handed over for an order in s.
func (s OrderStatus) CanPickup() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// CanCancel reports whether staff may cancel an order in s.
func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// DetailType classifies a line item of a rental order.
type DetailType string

const (
	DetailTypeDeposit DetailType = "DEPOSIT"
	DetailTypeRental  DetailType = "RENTAL"
	DetailTypeReturn  DetailType = "RETURN"
	DetailTypeService DetailType = "SERVICE"
	DetailTypeOther   DetailType = "OTHER"
)

// DetailStatus represents the state of an order detail.
type DetailStatus string

const (
	DetailStatusPending   DetailStatus = "pending"
	DetailStatusConfirmed DetailStatus = "confirmed"
	DetailStatusActive    DetailStatus = "active"
	DetailStatusCompleted DetailStatus = "completed"
	DetailStatusCancelled DetailStatus = "cancelled"
)

// HoldingDetailStatuses are the detail states that reserve a vehicle's window.
var HoldingDetailStatuses = []DetailStatus{DetailStatusConfirmed, DetailStatusActive}

// Holds reports whether a detail in s blocks other bookings of its window.
func (s DetailStatus) Holds() bool {
	return s == DetailStatusConfirmed || s == DetailStatusActive
}

// RentalOrder is a customer's booking of a vehicle for a time window.
type RentalOrder struct {
	ID           string
	CustomerID   string
	VehicleID    string
	StartTime    time.Time
	EndTime      time.Time
	TotalPrice   float64
	CouponCode   string
	Status       OrderStatus
	PlannedHours float64
	ActualHours  *float64
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PickedUpAt   time.Time
	ReturnedAt   time.Time
	CancelledAt  time.Time
}

// RentalOrderDetail is a typed line item of an order. The RENTAL detail
// records which vehicle actually holds the booking window.
type RentalOrderDetail struct {
	ID          string
	OrderID     string
	VehicleID   string
	Type        DetailType
	StartTime   time.Time
	EndTime     time.Time
	Price       float64
	Status      DetailStatus
	Description string
	CreatedAt   time.Time
}

// Overlaps reports whether [start, end) intersects the detail's window.
// Touching endpoints do not overlap.
func (d *RentalOrderDetail) Overlaps(start, end time.Time) bool {
	return d.StartTime.Before(end) && start.Before(d.EndTime)
}

// OrderFilter narrows order listings. Zero values are ignored.
type OrderFilter struct {
	CustomerID string
	VehicleID  string
	Status     OrderStatus
	Limit      int
}
