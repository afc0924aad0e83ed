package repository

import "context"

// Repositories groups the repositories that share one unit of work.
type Repositories struct {
	Vehicles     VehicleRepository
	Orders       OrderRepository
	OrderDetails OrderDetailRepository
	Coupons      CouponRepository
	Payments     PaymentRepository
	Incidents    IncidentRepository
}

// TxManager runs fn inside a single transaction. Every repository handed to
// fn is bound to that transaction. fn's error rolls the transaction back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
