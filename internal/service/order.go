package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"carrental/internal/domain"
	"carrental/internal/events"
	internalRedis "carrental/internal/redis"
	"carrental/internal/repository"
)

const (
	// DefaultPaymentGracePeriod is how long a PENDING order waits for payment.
	DefaultPaymentGracePeriod = 10 * time.Minute

	defaultVehicleLockTTL = 10 * time.Second
	pickupQRSize          = 256
	pickupQRPrefix        = "carrental:pickup:"
	paymentTimeoutReason  = "payment not received within grace period"
)

// OrderServiceDeps contains the collaborators of OrderService.
type OrderServiceDeps struct {
	TxManager    repository.TxManager
	Orders       repository.OrderRepository
	OrderDetails repository.OrderDetailRepository
	Vehicles     repository.VehicleRepository
	Users        repository.UserRepository
	Coupons      repository.CouponRepository
	Pricing      *PricingService
	Locks        internalRedis.LockStoreInterface // Optional
	Notifier     *NotificationService             // Optional
	Clock        Clock
	Logger       *zap.Logger

	GracePeriod    time.Duration // Defaults to DefaultPaymentGracePeriod
	VehicleLockTTL time.Duration
}

// OrderService runs the rental order lifecycle: booking, payment
// confirmation, pickup, return, cancellation and the payment timeout sweep.
type OrderService struct {
	txManager   repository.TxManager
	orderRepo   repository.OrderRepository
	detailRepo  repository.OrderDetailRepository
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
	couponRepo  repository.CouponRepository
	pricing     *PricingService
	locks       internalRedis.LockStoreInterface
	notifier    *NotificationService
	clock       Clock
	logger      *zap.Logger
	gracePeriod time.Duration
	lockTTL     time.Duration
}

// NewOrderService creates a new OrderService.
func NewOrderService(deps OrderServiceDeps) *OrderService {
	s := &OrderService{
		txManager:   deps.TxManager,
		orderRepo:   deps.Orders,
		detailRepo:  deps.OrderDetails,
		vehicleRepo: deps.Vehicles,
		userRepo:    deps.Users,
		couponRepo:  deps.Coupons,
		pricing:     deps.Pricing,
		locks:       deps.Locks,
		notifier:    deps.Notifier,
		clock:       deps.Clock,
		logger:      deps.Logger,
		gracePeriod: deps.GracePeriod,
		lockTTL:     deps.VehicleLockTTL,
	}
	if s.gracePeriod <= 0 {
		s.gracePeriod = DefaultPaymentGracePeriod
	}
	if s.lockTTL <= 0 {
		s.lockTTL = defaultVehicleLockTTL
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// GracePeriod returns how long a PENDING order is held before it expires.
func (s *OrderService) GracePeriod() time.Duration {
	return s.gracePeriod
}

// CreateOrderRequest contains the parameters for booking a vehicle.
type CreateOrderRequest struct {
	CustomerID   string
	VehicleID    string
	StartTime    time.Time
	EndTime      time.Time
	PlannedHours float64 // Optional: defaults to the window length
	CouponCode   string  // Optional
}

// CreateOrder books a vehicle for [StartTime, EndTime). The order starts
// PENDING with a confirmed RENTAL detail holding the window.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.RentalOrder, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("customer %s: %w", req.CustomerID, err)
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", req.VehicleID, err)
	}

	var coupon *domain.Coupon
	if req.CouponCode != "" {
		if coupon, err = s.pricing.RedeemableCoupon(ctx, req.CouponCode); err != nil {
			return nil, err
		}
	}

	quote, err := s.pricing.priceVehicle(ctx, vehicle, coupon)
	if err != nil {
		return nil, err
	}

	plannedHours := req.PlannedHours
	if plannedHours == 0 {
		plannedHours = hoursBetween(req.StartTime, req.EndTime)
	}

	now := s.clock.Now()
	order := &domain.RentalOrder{
		ID:           uuid.New().String(),
		CustomerID:   req.CustomerID,
		VehicleID:    req.VehicleID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		TotalPrice:   quote.Total,
		CouponCode:   quote.CouponCode,
		Status:       domain.OrderStatusPending,
		PlannedHours: plannedHours,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	detail := &domain.RentalOrderDetail{
		ID:          uuid.New().String(),
		OrderID:     order.ID,
		VehicleID:   req.VehicleID,
		Type:        domain.DetailTypeRental,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Price:       quote.Total,
		Status:      domain.DetailStatusConfirmed,
		Description: fmt.Sprintf("Rental of %s %s (%s)", vehicle.Brand, vehicle.Model, vehicle.PlateNumber),
		CreatedAt:   now,
	}

	release, err := s.lockVehicle(ctx, req.VehicleID, order.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		locked, err := repos.Vehicles.GetByIDForUpdate(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		if locked.Status == domain.VehicleStatusMaintenance {
			return ErrVehicleUnderMaintenance
		}

		if err := ensureAvailable(ctx, repos.OrderDetails, req.VehicleID, req.StartTime, req.EndTime, ""); err != nil {
			return err
		}

		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := repos.OrderDetails.Create(ctx, detail); err != nil {
			return err
		}

		if coupon != nil {
			if err := repos.Coupons.IncrementUsage(ctx, coupon.Code); err != nil {
				if errors.Is(err, repository.ErrStaleState) {
					return ErrCouponNotUsable
				}
				return err
			}
		}

		_, err = repos.Vehicles.UpdateStatusIf(ctx, req.VehicleID, domain.VehicleStatusAvailable, domain.VehicleStatusRental)
		return err
	})
	if err != nil {
		return nil, translateBookingError(err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("vehicle_id", order.VehicleID),
		zap.Float64("total_price", order.TotalPrice),
	)
	if s.notifier != nil {
		s.notifier.NotifyOrderCreated(ctx, order, s.gracePeriod)
	}

	return order, nil
}

// ConfirmPayment moves a PENDING order to CONFIRMED.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID string) (*domain.RentalOrder, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	now := s.clock.Now()
	ok, err := s.orderRepo.TransitionStatus(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusConfirmed, now)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOrderTransition
	}

	s.logger.Info("order confirmed", zap.String("order_id", orderID))
	if s.notifier != nil {
		s.notifier.NotifyOrderConfirmed(ctx, order)
	}
	return order, nil
}

// ConfirmPickup hands the vehicle over. Only PENDING and CONFIRMED orders
// can be picked up; anything else fails with ErrInvalidOrderTransition and
// leaves the vehicle untouched.
func (s *OrderService) ConfirmPickup(ctx context.Context, orderID string) (*domain.RentalOrder, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	var order *domain.RentalOrder
	err := s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		order, err = repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanPickup() {
			return ErrInvalidOrderTransition
		}

		detail, err := repos.OrderDetails.GetRentalDetail(ctx, orderID)
		if err != nil {
			return err
		}

		vehicle, err := repos.Vehicles.GetByIDForUpdate(ctx, detail.VehicleID)
		if err != nil {
			return err
		}
		if vehicle.Status == domain.VehicleStatusMaintenance {
			return ErrVehicleUnderMaintenance
		}

		now := s.clock.Now()
		ok, err := repos.Orders.TransitionStatus(ctx, orderID, order.Status, domain.OrderStatusActive, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidOrderTransition
		}

		order.Status = domain.OrderStatusActive
		order.PickedUpAt = now
		order.UpdatedAt = now
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}

		if err := repos.OrderDetails.UpdateStatus(ctx, detail.ID, domain.DetailStatusActive); err != nil {
			return err
		}
		return repos.Vehicles.UpdateStatus(ctx, detail.VehicleID, domain.VehicleStatusRental)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("vehicle picked up", zap.String("order_id", orderID), zap.String("vehicle_id", order.VehicleID))
	if s.notifier != nil {
		s.notifier.NotifyOrderPickedUp(ctx, order)
	}
	return order, nil
}

// ConfirmReturn closes an ACTIVE order. actualHours is recorded as given
// and does not change the total price.
func (s *OrderService) ConfirmReturn(ctx context.Context, orderID string, actualHours *float64) (*domain.RentalOrder, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if actualHours != nil && *actualHours < 0 {
		return nil, ErrInvalidHours
	}

	var order *domain.RentalOrder
	var details []*domain.RentalOrderDetail
	err := s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		order, err = repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusActive {
			return ErrInvalidOrderTransition
		}

		now := s.clock.Now()
		ok, err := repos.Orders.TransitionStatus(ctx, orderID, domain.OrderStatusActive, domain.OrderStatusCompleted, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidOrderTransition
		}

		order.Status = domain.OrderStatusCompleted
		order.ActualHours = actualHours
		order.ReturnedAt = now
		order.UpdatedAt = now
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}

		detail, err := repos.OrderDetails.GetRentalDetail(ctx, orderID)
		if err != nil {
			return err
		}
		if err := repos.OrderDetails.UpdateStatus(ctx, detail.ID, domain.DetailStatusCompleted); err != nil {
			return err
		}
		if err := releaseVehicle(ctx, repos, detail.VehicleID, orderID); err != nil {
			return err
		}

		details, err = repos.OrderDetails.ListByOrderID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("vehicle returned", zap.String("order_id", orderID), zap.String("vehicle_id", order.VehicleID))
	if s.notifier != nil {
		s.notifier.NotifyOrderReturned(ctx, NewReceipt(order, details, s.clock.Now()))
	}
	return order, nil
}

// CancelOrder cancels a PENDING or CONFIRMED order and frees its window.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, reason string) (*domain.RentalOrder, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	var order *domain.RentalOrder
	err := s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		order, err = repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanCancel() {
			return ErrInvalidOrderTransition
		}

		now := s.clock.Now()
		ok, err := repos.Orders.TransitionStatus(ctx, orderID, order.Status, domain.OrderStatusCancelled, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidOrderTransition
		}

		order.Status = domain.OrderStatusCancelled
		order.CancelReason = reason
		order.CancelledAt = now
		order.UpdatedAt = now
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}

		return cancelRentalDetail(ctx, repos, orderID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled", zap.String("order_id", orderID), zap.String("reason", reason))
	if s.notifier != nil {
		s.notifier.NotifyOrderCancelled(ctx, events.OrderCancelled, order)
	}
	return order, nil
}

// ChangeVehicle moves a PENDING or CONFIRMED order to another vehicle,
// repricing it with the new vehicle's rule. An already redeemed coupon is
// applied again without consuming another use.
func (s *OrderService) ChangeVehicle(ctx context.Context, orderID, newVehicleID string) (*domain.RentalOrder, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if newVehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanCancel() {
		return nil, ErrInvalidOrderTransition
	}
	if order.VehicleID == newVehicleID {
		return nil, ErrSameVehicle
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, newVehicleID)
	if err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", newVehicleID, err)
	}

	var coupon *domain.Coupon
	if order.CouponCode != "" {
		coupon, err = s.couponRepo.GetByCode(ctx, order.CouponCode)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	quote, err := s.pricing.priceVehicle(ctx, vehicle, coupon)
	if err != nil {
		return nil, err
	}

	release, err := s.lockVehicle(ctx, newVehicleID, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	previousVehicleID := order.VehicleID
	err = s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		current, err := repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !current.Status.CanCancel() {
			return ErrInvalidOrderTransition
		}

		locked, err := repos.Vehicles.GetByIDForUpdate(ctx, newVehicleID)
		if err != nil {
			return err
		}
		if locked.Status == domain.VehicleStatusMaintenance {
			return ErrVehicleUnderMaintenance
		}

		if err := ensureAvailable(ctx, repos.OrderDetails, newVehicleID, current.StartTime, current.EndTime, orderID); err != nil {
			return err
		}

		detail, err := repos.OrderDetails.GetRentalDetail(ctx, orderID)
		if err != nil {
			return err
		}
		previousVehicleID = detail.VehicleID
		if err := repos.OrderDetails.Reassign(ctx, detail.ID, newVehicleID, quote.Total); err != nil {
			return err
		}

		current.VehicleID = newVehicleID
		current.TotalPrice = quote.Total
		current.UpdatedAt = s.clock.Now()
		if err := repos.Orders.Update(ctx, current); err != nil {
			return err
		}

		if err := releaseVehicle(ctx, repos, previousVehicleID, orderID); err != nil {
			return err
		}
		if _, err := repos.Vehicles.UpdateStatusIf(ctx, newVehicleID, domain.VehicleStatusAvailable, domain.VehicleStatusRental); err != nil {
			return err
		}

		order = current
		return nil
	})
	if err != nil {
		return nil, translateBookingError(err)
	}

	s.logger.Info("order vehicle changed",
		zap.String("order_id", orderID),
		zap.String("from_vehicle_id", previousVehicleID),
		zap.String("to_vehicle_id", newVehicleID),
	)
	if s.notifier != nil {
		s.notifier.NotifyVehicleChanged(ctx, order, previousVehicleID)
	}
	return order, nil
}

// AutoCancelPendingOrders expires every PENDING order created more than the
// grace period ago: the order becomes PAYMENT_FAILED, its RENTAL detail is
// cancelled and the vehicle is released if nothing else holds it. Each order
// is handled in its own transaction; a failure is logged and the sweep moves
// on. Returns the number of orders expired.
func (s *OrderService) AutoCancelPendingOrders(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.gracePeriod)

	orders, err := s.orderRepo.ListPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}

		outcome, err := s.expireOrder(ctx, order)
		if err != nil {
			s.logger.Error("failed to expire pending order", zap.String("order_id", order.ID), zap.Error(err))
			continue
		}

		switch outcome {
		case sweepExpired:
			expired++
			if s.notifier != nil {
				s.notifier.NotifyOrderCancelled(ctx, events.OrderPaymentExpired, order)
			}
		case sweepConfirmed:
			s.logger.Warn("confirmed paid order found by sweep", zap.String("order_id", order.ID))
			if s.notifier != nil {
				s.notifier.NotifyOrderConfirmed(ctx, order)
			}
		}
	}

	if expired > 0 {
		s.logger.Info("expired unpaid orders", zap.Int("count", expired), zap.Time("cutoff", cutoff))
	}
	return expired, nil
}

type sweepOutcome int

const (
	sweepSkipped sweepOutcome = iota // left PENDING before the sweep got to it
	sweepExpired
	sweepConfirmed // a successful payment was stored but never confirmed the order
)

func (s *OrderService) expireOrder(ctx context.Context, order *domain.RentalOrder) (sweepOutcome, error) {
	outcome := sweepSkipped
	err := s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		now := s.clock.Now()

		paid, err := hasSuccessfulPayment(ctx, repos.Payments, order.ID)
		if err != nil {
			return err
		}
		if paid {
			ok, err := repos.Orders.TransitionStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusConfirmed, now)
			if err != nil || !ok {
				return err
			}
			order.Status = domain.OrderStatusConfirmed
			order.UpdatedAt = now
			outcome = sweepConfirmed
			return nil
		}

		ok, err := repos.Orders.TransitionStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusPaymentFailed, now)
		if err != nil || !ok {
			return err
		}

		order.Status = domain.OrderStatusPaymentFailed
		order.CancelReason = paymentTimeoutReason
		order.CancelledAt = now
		order.UpdatedAt = now
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}

		if err := cancelRentalDetail(ctx, repos, order.ID); err != nil {
			return err
		}
		outcome = sweepExpired
		return nil
	})
	if err != nil {
		return sweepSkipped, err
	}
	return outcome, nil
}

func hasSuccessfulPayment(ctx context.Context, payments repository.PaymentRepository, orderID string) (bool, error) {
	if payments == nil {
		return false, nil
	}
	list, err := payments.ListByOrderID(ctx, orderID)
	if err != nil {
		return false, err
	}
	for _, p := range list {
		if p.Status == domain.PaymentStatusSuccess {
			return true, nil
		}
	}
	return false, nil
}

// DeleteOrder hard-deletes an order; its details and payments cascade with
// the row. It does not touch the vehicle's status.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ErrInvalidOrderID
	}
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return err
	}
	s.logger.Info("order deleted", zap.String("order_id", orderID))
	return nil
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.RentalOrder, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	return s.orderRepo.GetByID(ctx, orderID)
}

// ListOrders retrieves orders matching the filter.
func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.RentalOrder, error) {
	return s.orderRepo.List(ctx, filter)
}

// GetOrderDetails retrieves the line items of an order.
func (s *OrderService) GetOrderDetails(ctx context.Context, orderID string) ([]*domain.RentalOrderDetail, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.detailRepo.ListByOrderID(ctx, orderID)
}

// GetReceipt builds the receipt of a completed order.
func (s *OrderService) GetReceipt(ctx context.Context, orderID string) (*Receipt, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusCompleted {
		return nil, ErrInvalidOrderTransition
	}

	details, err := s.detailRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return NewReceipt(order, details, order.ReturnedAt), nil
}

// PickupQRCode renders a PNG QR code staff scan at the counter to find the
// order at pickup.
func (s *OrderService) PickupQRCode(ctx context.Context, orderID string) ([]byte, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanPickup() {
		return nil, ErrInvalidOrderTransition
	}
	return qrcode.Encode(pickupQRPrefix+order.ID, qrcode.Medium, pickupQRSize)
}

// lockVehicle serialises bookings of one vehicle across instances. The row
// lock and the exclusion constraint still guard the write if Redis is down,
// so a lock store error only costs the early rejection.
func (s *OrderService) lockVehicle(ctx context.Context, vehicleID, owner string) (func(), error) {
	noop := func() {}
	if s.locks == nil {
		return noop, nil
	}

	acquired, err := s.locks.AcquireVehicleLock(ctx, vehicleID, owner, s.lockTTL)
	if err != nil {
		s.logger.Warn("vehicle lock unavailable", zap.String("vehicle_id", vehicleID), zap.Error(err))
		return noop, nil
	}
	if !acquired {
		return nil, ErrVehicleBusy
	}

	return func() {
		if err := s.locks.ReleaseVehicleLock(context.WithoutCancel(ctx), vehicleID, owner); err != nil {
			s.logger.Warn("failed to release vehicle lock", zap.String("vehicle_id", vehicleID), zap.Error(err))
		}
	}, nil
}

func (s *OrderService) validateCreateRequest(req CreateOrderRequest) error {
	if req.CustomerID == "" {
		return ErrInvalidCustomerID
	}
	if req.VehicleID == "" {
		return ErrInvalidVehicleID
	}
	if err := validateWindow(req.StartTime, req.EndTime); err != nil {
		return err
	}
	if req.PlannedHours < 0 {
		return ErrInvalidHours
	}
	return nil
}

// cancelRentalDetail cancels the order's RENTAL detail, if any, and releases
// its vehicle.
func cancelRentalDetail(ctx context.Context, repos repository.Repositories, orderID string) error {
	detail, err := repos.OrderDetails.GetRentalDetail(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := repos.OrderDetails.UpdateStatus(ctx, detail.ID, domain.DetailStatusCancelled); err != nil {
		return err
	}
	return releaseVehicle(ctx, repos, detail.VehicleID, orderID)
}

// releaseVehicle returns a RENTAL vehicle to AVAILABLE unless another order
// still holds a window on it. A vehicle in MAINTENANCE is left alone.
func releaseVehicle(ctx context.Context, repos repository.Repositories, vehicleID, orderID string) error {
	holding, err := repos.OrderDetails.CountHolding(ctx, vehicleID, orderID)
	if err != nil {
		return err
	}
	if holding > 0 {
		return nil
	}
	_, err = repos.Vehicles.UpdateStatusIf(ctx, vehicleID, domain.VehicleStatusRental, domain.VehicleStatusAvailable)
	return err
}

// translateBookingError maps storage-level conflicts raised while writing a
// booking to their service error.
func translateBookingError(err error) error {
	switch {
	case errors.Is(err, repository.ErrOverlap):
		return ErrVehicleUnavailable
	default:
		return err
	}
}

func hoursBetween(from, to time.Time) float64 {
	return math.Round(to.Sub(from).Hours()*100) / 100
}
