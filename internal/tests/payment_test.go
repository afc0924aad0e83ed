package tests

import (
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"carrental/internal/domain"
	"carrental/internal/events"
	"carrental/internal/service"
)

// ──────────────────────────────────────────────
// 9. GATEWAY CHECKOUT & CALLBACKS
// ──────────────────────────────────────────────

type paymentFixture struct {
	*rentalFixture
	gateway    *MockGateway
	paymentSvc *service.PaymentService
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{rentalFixture: newRentalFixture(t), gateway: &MockGateway{}}
	f.paymentSvc = service.NewPaymentService(f.payments, f.orders, f.orderSvc, f.gateway, f.notifier, f.clock, zap.NewNop())
	return f
}

func callback(txnRef string, amount float64, code string) url.Values {
	return url.Values{
		"vnp_TxnRef":       {txnRef},
		"vnp_Amount":       {strconv.FormatFloat(amount, 'f', -1, 64)},
		"vnp_ResponseCode": {code},
	}
}

func TestCheckout_OpensPendingPayment(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)

	result, err := f.paymentSvc.CreateCheckout(t.Context(), order.ID, "203.0.113.9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Payment.Status != domain.PaymentStatusPending {
		t.Errorf("expected %s, got %s", domain.PaymentStatusPending, result.Payment.Status)
	}
	if result.Payment.Amount != order.TotalPrice {
		t.Errorf("expected amount %v, got %v", order.TotalPrice, result.Payment.Amount)
	}
	if result.PaymentURL == "" {
		t.Error("expected a payment URL")
	}
	if len(f.gateway.Built) != 1 || !f.gateway.Built[0].ExpiresAt.Equal(order.CreatedAt.Add(f.orderSvc.GracePeriod())) {
		t.Errorf("expected gateway link to expire with the grace period, got %+v", f.gateway.Built)
	}
}

func TestCheckout_RequiresPendingOrder(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)
	if _, err := f.orderSvc.ConfirmPayment(t.Context(), order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.paymentSvc.CreateCheckout(t.Context(), order.ID, ""); !errors.Is(err, service.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestCallback_SuccessConfirmsOrderOnce(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)
	checkout, err := f.paymentSvc.CreateCheckout(t.Context(), order.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	params := callback(checkout.Payment.TxnRef, order.TotalPrice, "00")

	payment, err := f.paymentSvc.HandleCallback(t.Context(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected %s, got %s", domain.PaymentStatusSuccess, payment.Status)
	}
	if got := f.orders.GetOrder(order.ID).Status; got != domain.OrderStatusConfirmed {
		t.Errorf("expected order %s, got %s", domain.OrderStatusConfirmed, got)
	}

	// Return URL and IPN both deliver the same result.
	again, err := f.paymentSvc.HandleCallback(t.Context(), params)
	if err != nil {
		t.Fatalf("unexpected error on repeat callback: %v", err)
	}
	if again.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected repeat to report %s, got %s", domain.PaymentStatusSuccess, again.Status)
	}
	if f.payments.CompleteCallCount != 1 {
		t.Errorf("expected payment to be settled once, got %d", f.payments.CompleteCallCount)
	}
	if f.publisher.Count(events.PaymentSucceeded) != 1 || f.publisher.Count(events.OrderConfirmed) != 1 {
		t.Errorf("expected one payment and one confirmation event, got %v", f.publisher.Types())
	}
}

func TestCallback_FailureLeavesOrderPending(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)
	checkout, err := f.paymentSvc.CreateCheckout(t.Context(), order.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payment, err := f.paymentSvc.HandleCallback(t.Context(), callback(checkout.Payment.TxnRef, order.TotalPrice, "24"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("expected %s, got %s", domain.PaymentStatusFailed, payment.Status)
	}
	if got := f.orders.GetOrder(order.ID).Status; got != domain.OrderStatusPending {
		t.Errorf("expected order to stay %s, got %s", domain.OrderStatusPending, got)
	}
}

func TestCallback_Rejections(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)
	checkout, err := f.paymentSvc.CreateCheckout(t.Context(), order.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.paymentSvc.HandleCallback(t.Context(), callback(checkout.Payment.TxnRef, order.TotalPrice+50, "00")); !errors.Is(err, service.ErrPaymentAmountMismatch) {
		t.Errorf("expected ErrPaymentAmountMismatch, got %v", err)
	}
	if _, err := f.paymentSvc.HandleCallback(t.Context(), callback("unknown-ref", order.TotalPrice, "00")); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	f.gateway.Reject = true
	if _, err := f.paymentSvc.HandleCallback(t.Context(), callback(checkout.Payment.TxnRef, order.TotalPrice, "00")); !errors.Is(err, service.ErrInvalidPaymentSignature) {
		t.Errorf("expected ErrInvalidPaymentSignature, got %v", err)
	}
	if got := f.orders.GetOrder(order.ID).Status; got != domain.OrderStatusPending {
		t.Errorf("expected order untouched, got %s", got)
	}
}

func TestCallback_PaymentAfterExpiryKeepsOrderFailed(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)
	checkout, err := f.paymentSvc.CreateCheckout(t.Context(), order.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.clock.Set(T0.Add(11 * time.Minute))
	if _, err := f.orderSvc.AutoCancelPendingOrders(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payment, err := f.paymentSvc.HandleCallback(t.Context(), callback(checkout.Payment.TxnRef, order.TotalPrice, "00"))
	if err != nil {
		t.Fatalf("expected late payment to be recorded, got %v", err)
	}
	if payment.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected payment %s for refund, got %s", domain.PaymentStatusSuccess, payment.Status)
	}
	if got := f.orders.GetOrder(order.ID).Status; got != domain.OrderStatusPaymentFailed {
		t.Errorf("expected order to stay %s, got %s", domain.OrderStatusPaymentFailed, got)
	}
}

func TestCallback_RetryConfirmsAfterFailedConfirmation(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)
	checkout, err := f.paymentSvc.CreateCheckout(t.Context(), order.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	params := callback(checkout.Payment.TxnRef, order.TotalPrice, "00")

	f.orders.TransitionErrorOnce = map[domain.OrderStatus]error{domain.OrderStatusConfirmed: ErrInjected}
	if _, err := f.paymentSvc.HandleCallback(t.Context(), params); !errors.Is(err, ErrInjected) {
		t.Fatalf("expected injected error on first callback, got %v", err)
	}
	if got := f.payments.Only().Status; got != domain.PaymentStatusSuccess {
		t.Fatalf("expected payment stored as %s, got %s", domain.PaymentStatusSuccess, got)
	}
	if got := f.orders.GetOrder(order.ID).Status; got != domain.OrderStatusPending {
		t.Fatalf("expected order still %s after failed confirmation, got %s", domain.OrderStatusPending, got)
	}

	// The gateway retries the notification.
	if _, err := f.paymentSvc.HandleCallback(t.Context(), params); err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if got := f.orders.GetOrder(order.ID).Status; got != domain.OrderStatusConfirmed {
		t.Errorf("expected retry to confirm the order, got %s", got)
	}

	f.clock.Set(T0.Add(11 * time.Minute))
	expired, err := f.orderSvc.AutoCancelPendingOrders(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 0 {
		t.Errorf("expected no expiry for a paid order, got %d", expired)
	}
}

func TestSweep_ConfirmsPaidOrderInsteadOfExpiring(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	order := f.mustBook(t, "veh-1", 2, 4)
	checkout, err := f.paymentSvc.CreateCheckout(t.Context(), order.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Payment stored, confirmation lost, and the gateway never calls back again.
	f.orders.TransitionErrorOnce = map[domain.OrderStatus]error{domain.OrderStatusConfirmed: ErrInjected}
	if _, err := f.paymentSvc.HandleCallback(t.Context(), callback(checkout.Payment.TxnRef, order.TotalPrice, "00")); err == nil {
		t.Fatal("expected first callback to fail")
	}

	f.clock.Set(T0.Add(11 * time.Minute))
	expired, err := f.orderSvc.AutoCancelPendingOrders(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 0 {
		t.Errorf("expected no expiry, got %d", expired)
	}
	if got := f.orders.GetOrder(order.ID).Status; got != domain.OrderStatusConfirmed {
		t.Errorf("expected sweep to confirm the paid order, got %s", got)
	}
	if got := f.vehicles.Status("veh-1"); got != domain.VehicleStatusRental {
		t.Errorf("expected vehicle to stay %s, got %s", domain.VehicleStatusRental, got)
	}
}
