package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carrental/internal/domain"
	"carrental/internal/events"
	"carrental/internal/mail"
	"carrental/internal/repository"
)

// NotificationService fans order and payment lifecycle changes out to the
// event stream and to customer email. Delivery is best effort: failures are
// logged and never fail the operation that triggered them.
type NotificationService struct {
	publisher events.Publisher
	mailer    mail.Mailer
	userRepo  repository.UserRepository
	clock     Clock
	logger    *zap.Logger
}

// NewNotificationService creates a new NotificationService. publisher and
// mailer may be nil.
func NewNotificationService(
	publisher events.Publisher,
	mailer mail.Mailer,
	userRepo repository.UserRepository,
	clock Clock,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		mailer:    mailer,
		userRepo:  userRepo,
		clock:     clock,
		logger:    logger,
	}
}

// NotifyOrderCreated announces a new booking and asks the customer to pay.
func (s *NotificationService) NotifyOrderCreated(ctx context.Context, order *domain.RentalOrder, payWithin time.Duration) {
	s.publishOrder(ctx, events.OrderCreated, order, map[string]any{
		"total_price": order.TotalPrice,
		"start_time":  order.StartTime,
		"end_time":    order.EndTime,
	})
	s.mailCustomer(ctx, order.CustomerID, "Your booking is reserved",
		fmt.Sprintf("Booking %s is reserved from %s to %s. Total: %.2f. Please pay within %s or it will be released.",
			order.ID, formatTime(order.StartTime), formatTime(order.EndTime), order.TotalPrice, payWithin))
}

// NotifyOrderConfirmed tells the customer that payment went through.
func (s *NotificationService) NotifyOrderConfirmed(ctx context.Context, order *domain.RentalOrder) {
	s.publishOrder(ctx, events.OrderConfirmed, order, nil)
	s.mailCustomer(ctx, order.CustomerID, "Your booking is confirmed",
		fmt.Sprintf("Payment received. Booking %s is confirmed, pick-up from %s.", order.ID, formatTime(order.StartTime)))
}

// NotifyOrderPickedUp records the handover.
func (s *NotificationService) NotifyOrderPickedUp(ctx context.Context, order *domain.RentalOrder) {
	s.publishOrder(ctx, events.OrderPickedUp, order, map[string]any{"picked_up_at": order.PickedUpAt})
}

// NotifyOrderReturned records the return and emails the receipt.
func (s *NotificationService) NotifyOrderReturned(ctx context.Context, receipt *Receipt) {
	s.publish(ctx, events.Event{
		Type:       events.OrderReturned,
		OrderID:    receipt.OrderID,
		CustomerID: receipt.CustomerID,
		VehicleID:  receipt.VehicleID,
		Status:     string(domain.OrderStatusCompleted),
		Data:       map[string]any{"total": receipt.Total, "actual_hours": receipt.ActualHours},
		OccurredAt: s.clock.Now(),
	})
	s.mailCustomer(ctx, receipt.CustomerID, "Your rental receipt", receipt.Format())
}

// NotifyOrderCancelled tells the customer the booking was released.
// eventType distinguishes staff cancellation from payment expiry.
func (s *NotificationService) NotifyOrderCancelled(ctx context.Context, eventType events.Type, order *domain.RentalOrder) {
	s.publishOrder(ctx, eventType, order, map[string]any{"reason": order.CancelReason})

	body := fmt.Sprintf("Booking %s has been cancelled.", order.ID)
	if eventType == events.OrderPaymentExpired {
		body = fmt.Sprintf("Booking %s was released because payment was not received in time.", order.ID)
	}
	s.mailCustomer(ctx, order.CustomerID, "Your booking was cancelled", body)
}

// NotifyVehicleChanged records a vehicle swap on a booking.
func (s *NotificationService) NotifyVehicleChanged(ctx context.Context, order *domain.RentalOrder, previousVehicleID string) {
	s.publishOrder(ctx, events.OrderVehicleChanged, order, map[string]any{
		"previous_vehicle_id": previousVehicleID,
		"total_price":         order.TotalPrice,
	})
	s.mailCustomer(ctx, order.CustomerID, "Your booking vehicle changed",
		fmt.Sprintf("Booking %s now uses a different vehicle. New total: %.2f.", order.ID, order.TotalPrice))
}

// NotifyPayment records a settled gateway payment.
func (s *NotificationService) NotifyPayment(ctx context.Context, payment *domain.Payment) {
	eventType := events.PaymentFailed
	if payment.Status == domain.PaymentStatusSuccess {
		eventType = events.PaymentSucceeded
	}
	s.publish(ctx, events.Event{
		Type:    eventType,
		OrderID: payment.OrderID,
		Status:  string(payment.Status),
		Data: map[string]any{
			"payment_id":     payment.ID,
			"amount":         payment.Amount,
			"txn_ref":        payment.TxnRef,
			"response_code":  payment.ResponseCode,
			"gateway_txn_no": payment.GatewayTxnNo,
		},
		OccurredAt: s.clock.Now(),
	})
}

// SendVerificationCode emails an email verification code. Unlike the
// lifecycle notifications its error is returned, since the caller cannot
// proceed without it.
func (s *NotificationService) SendVerificationCode(ctx context.Context, email, code string, ttl time.Duration) error {
	if s.mailer == nil {
		return nil
	}
	return s.mailer.Send(ctx, mail.Message{
		To:        email,
		Subject:   "Your verification code",
		PlainText: fmt.Sprintf("Your verification code is %s. It expires in %s.", code, ttl),
	})
}

func (s *NotificationService) publishOrder(ctx context.Context, eventType events.Type, order *domain.RentalOrder, data map[string]any) {
	s.publish(ctx, events.Event{
		Type:       eventType,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		VehicleID:  order.VehicleID,
		Status:     string(order.Status),
		Data:       data,
		OccurredAt: s.clock.Now(),
	})
}

func (s *NotificationService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

func (s *NotificationService) mailCustomer(ctx context.Context, customerID, subject, body string) {
	if s.mailer == nil || s.userRepo == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, customerID)
	if err != nil {
		s.logger.Warn("failed to load customer for email", zap.String("customer_id", customerID), zap.Error(err))
		return
	}

	err = s.mailer.Send(ctx, mail.Message{
		To:        user.Email,
		ToName:    user.FullName,
		Subject:   subject,
		PlainText: body,
	})
	if err != nil {
		s.logger.Warn("failed to send email", zap.String("customer_id", customerID), zap.String("subject", subject), zap.Error(err))
	}
}

func formatTime(t time.Time) string {
	return t.Format("Jan 02, 2006 15:04 MST")
}
