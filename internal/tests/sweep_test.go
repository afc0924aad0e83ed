package tests

import (
	"context"
	"testing"
	"time"

	"carrental/internal/domain"
	"carrental/internal/events"
)

// ──────────────────────────────────────────────
// 4. PAYMENT TIMEOUT SWEEP
// ──────────────────────────────────────────────

func TestSweep_ExpiresUnpaidOrderAfterGracePeriod(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)

	f.clock.Set(T0.Add(11 * time.Minute))
	expired, err := f.orderSvc.AutoCancelPendingOrders(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 1 {
		t.Errorf("expected 1 expired order, got %d", expired)
	}

	stored := f.orders.GetOrder(order.ID)
	if stored.Status != domain.OrderStatusPaymentFailed {
		t.Errorf("expected %s, got %s", domain.OrderStatusPaymentFailed, stored.Status)
	}
	if stored.CancelReason == "" {
		t.Error("expected a cancel reason to be recorded")
	}
	if !stored.CancelledAt.Equal(f.clock.Now()) {
		t.Errorf("expected cancelled_at %v, got %v", f.clock.Now(), stored.CancelledAt)
	}
	if d := f.details.RentalDetail(order.ID); d.Status != domain.DetailStatusCancelled {
		t.Errorf("expected detail cancelled, got %s", d.Status)
	}
	if got := f.vehicles.Status("veh-1"); got != domain.VehicleStatusAvailable {
		t.Errorf("expected vehicle %s, got %s", domain.VehicleStatusAvailable, got)
	}
	if f.publisher.Count(events.OrderPaymentExpired) != 1 {
		t.Errorf("expected one %s event, got %v", events.OrderPaymentExpired, f.publisher.Types())
	}
}

func TestSweep_LeavesOrderInsideGracePeriod(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)

	f.clock.Set(T0.Add(5 * time.Minute))
	expired, err := f.orderSvc.AutoCancelPendingOrders(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 0 {
		t.Errorf("expected nothing expired, got %d", expired)
	}
	if got := f.orders.GetOrder(order.ID).Status; got != domain.OrderStatusPending {
		t.Errorf("expected %s, got %s", domain.OrderStatusPending, got)
	}
	if got := f.vehicles.Status("veh-1"); got != domain.VehicleStatusRental {
		t.Errorf("expected vehicle still %s, got %s", domain.VehicleStatusRental, got)
	}
}

func TestSweep_IgnoresPaidOrders(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)
	if _, err := f.orderSvc.ConfirmPayment(t.Context(), order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.clock.Set(T0.Add(time.Hour))
	expired, err := f.orderSvc.AutoCancelPendingOrders(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 0 {
		t.Errorf("expected confirmed order to survive the sweep, got %d expired", expired)
	}
}

func TestSweep_BackToBackRunsCancelOnce(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)
	f.clock.Set(T0.Add(11 * time.Minute))

	first, err := f.orderSvc.AutoCancelPendingOrders(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.orderSvc.AutoCancelPendingOrders(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != 1 || second != 0 {
		t.Errorf("expected 1 then 0 expirations, got %d then %d", first, second)
	}
	if f.publisher.Count(events.OrderPaymentExpired) != 1 {
		t.Errorf("expected a single expiry event, got %d", f.publisher.Count(events.OrderPaymentExpired))
	}
	if got := f.orders.GetOrder(order.ID).Status; got != domain.OrderStatusPaymentFailed {
		t.Errorf("expected %s, got %s", domain.OrderStatusPaymentFailed, got)
	}
}

func TestSweep_OrderPaidMidSweepIsSkipped(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)
	f.clock.Set(T0.Add(11 * time.Minute))

	// The payment lands after the sweep listed the order but before it expired it.
	f.tx.Repos.Orders = &confirmOnFirstTransition{MockOrderRepository: f.orders, orderID: order.ID}

	expired, err := f.orderSvc.AutoCancelPendingOrders(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 0 {
		t.Errorf("expected 0 expired, got %d", expired)
	}
	if got := f.orders.GetOrder(order.ID).Status; got != domain.OrderStatusConfirmed {
		t.Errorf("expected %s, got %s", domain.OrderStatusConfirmed, got)
	}
	if got := f.vehicles.Status("veh-1"); got != domain.VehicleStatusRental {
		t.Errorf("expected vehicle still %s, got %s", domain.VehicleStatusRental, got)
	}
}

func TestSweep_OrderDeletedMidSweepIsSkipped(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)
	f.clock.Set(T0.Add(11 * time.Minute))

	// A missing row is not moved, the same as the SQL compare-and-set.
	ok, err := f.orders.TransitionStatus(t.Context(), "ord-missing", domain.OrderStatusPending, domain.OrderStatusPaymentFailed, T0)
	if ok || err != nil {
		t.Fatalf("expected (false, nil) for a missing order, got (%v, %v)", ok, err)
	}

	f.tx.Repos.Orders = &deleteOnFirstTransition{MockOrderRepository: f.orders, orderID: order.ID}

	expired, err := f.orderSvc.AutoCancelPendingOrders(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 0 {
		t.Errorf("expected 0 expired, got %d", expired)
	}
	if f.orders.GetOrder(order.ID) != nil {
		t.Errorf("expected order to stay deleted")
	}
}

func TestSweep_KeepsGoingAfterOneFailure(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	f.addVehicle("veh-2", 4, "standard")
	f.mustBook(t, "veh-1", 2, 4)
	f.mustBook(t, "veh-2", 2, 4)
	f.clock.Set(T0.Add(11 * time.Minute))

	f.orders.UpdateError = ErrInjected
	expired, err := f.orderSvc.AutoCancelPendingOrders(t.Context())
	if err != nil {
		t.Fatalf("expected per-order failures to be absorbed, got %v", err)
	}
	if expired != 0 {
		t.Errorf("expected 0 expired, got %d", expired)
	}
	if f.tx.CallCount < 4 {
		t.Errorf("expected each order to get its own transaction, got %d in total", f.tx.CallCount)
	}
}

func TestSweep_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	f.mustBook(t, "veh-1", 2, 4)
	f.clock.Set(T0.Add(11 * time.Minute))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := f.orderSvc.AutoCancelPendingOrders(ctx); err == nil {
		t.Error("expected cancelled context to stop the sweep")
	}
}

// confirmOnFirstTransition simulates a payment callback racing the sweep: the
// first status transition sees the order already CONFIRMED.
type confirmOnFirstTransition struct {
	*MockOrderRepository
	orderID string
	done    bool
}

func (r *confirmOnFirstTransition) TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	if !r.done && id == r.orderID {
		r.done = true
		if _, err := r.MockOrderRepository.TransitionStatus(ctx, id, domain.OrderStatusPending, domain.OrderStatusConfirmed, at); err != nil {
			return false, err
		}
	}
	return r.MockOrderRepository.TransitionStatus(ctx, id, from, to, at)
}

type deleteOnFirstTransition struct {
	*MockOrderRepository
	orderID string
	done    bool
}

func (r *deleteOnFirstTransition) TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	if !r.done && id == r.orderID {
		r.done = true
		if err := r.MockOrderRepository.Delete(ctx, id); err != nil {
			return false, err
		}
	}
	return r.MockOrderRepository.TransitionStatus(ctx, id, from, to, at)
}
