package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"carrental/internal/domain"
	"carrental/internal/gateway/vnpay"
	"carrental/internal/repository"
)

// PaymentGateway is the hosted payment page provider.
type PaymentGateway interface {
	BuildPaymentURL(req vnpay.PaymentRequest) (string, error)
	VerifyCallback(params url.Values) (*vnpay.Result, error)
}

// OrderConfirmer moves a paid order forward.
type OrderConfirmer interface {
	ConfirmPayment(ctx context.Context, orderID string) (*domain.RentalOrder, error)
	GracePeriod() time.Duration
}

// Ensure OrderService implements OrderConfirmer.
var _ OrderConfirmer = (*OrderService)(nil)

// PaymentService opens gateway payments for orders and settles them from
// gateway callbacks.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	orders      OrderConfirmer
	gateway     PaymentGateway
	notifier    *NotificationService
	clock       Clock
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	orders OrderConfirmer,
	gateway PaymentGateway,
	notifier *NotificationService,
	clock Clock,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		orders:      orders,
		gateway:     gateway,
		notifier:    notifier,
		clock:       clock,
		logger:      logger,
	}
}

// CheckoutResult is a pending payment and where to send the customer.
type CheckoutResult struct {
	Payment    *domain.Payment
	PaymentURL string
}

// CreateCheckout opens a gateway payment for a PENDING order. The gateway
// link expires together with the order's payment grace period.
func (s *PaymentService) CreateCheckout(ctx context.Context, orderID, clientIP string) (*CheckoutResult, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, ErrInvalidOrderTransition
	}

	now := s.clock.Now()
	payment := &domain.Payment{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		Amount:    order.TotalPrice,
		Provider:  domain.PaymentProviderVNPay,
		TxnRef:    ulid.Make().String(),
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
	}

	paymentURL, err := s.gateway.BuildPaymentURL(vnpay.PaymentRequest{
		TxnRef:    payment.TxnRef,
		Amount:    payment.Amount,
		OrderInfo: fmt.Sprintf("Rental order %s", order.ID),
		ClientIP:  clientIP,
		CreatedAt: now,
		ExpiresAt: order.CreatedAt.Add(s.orders.GracePeriod()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment opened",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", order.ID),
		zap.Float64("amount", payment.Amount),
	)
	return &CheckoutResult{Payment: payment, PaymentURL: paymentURL}, nil
}

// HandleCallback settles a payment from a signed gateway callback. Repeated
// callbacks for a settled payment return it unchanged. A successful payment
// confirms the order; if the order already expired the payment is kept as
// SUCCESS and logged for refund.
func (s *PaymentService) HandleCallback(ctx context.Context, params url.Values) (*domain.Payment, error) {
	result, err := s.gateway.VerifyCallback(params)
	if err != nil {
		if errors.Is(err, vnpay.ErrInvalidSignature) {
			return nil, ErrInvalidPaymentSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	payment, err := s.paymentRepo.GetByTxnRef(ctx, result.TxnRef)
	if err != nil {
		return nil, err
	}

	// Already settled. A retried success still has to reach the order in
	// case the first attempt failed after the payment was stored.
	if payment.Status != domain.PaymentStatusPending {
		if payment.Status == domain.PaymentStatusSuccess {
			if err := s.confirmPaidOrder(ctx, payment); err != nil {
				return nil, err
			}
		}
		return payment, nil
	}

	if math.Abs(result.Amount-payment.Amount) >= 1 {
		return nil, ErrPaymentAmountMismatch
	}

	payment.GatewayTxnNo = result.GatewayTxnNo
	payment.ResponseCode = result.ResponseCode
	payment.PaidAt = s.clock.Now()
	payment.Status = domain.PaymentStatusFailed
	if result.Success() {
		payment.Status = domain.PaymentStatusSuccess
	}

	settled, err := s.paymentRepo.Complete(ctx, payment)
	if err != nil {
		return nil, err
	}
	if !settled {
		return s.paymentRepo.GetByID(ctx, payment.ID)
	}

	s.logger.Info("payment settled",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID),
		zap.String("status", string(payment.Status)),
		zap.String("response_code", payment.ResponseCode),
	)
	if s.notifier != nil {
		s.notifier.NotifyPayment(ctx, payment)
	}

	if payment.Status == domain.PaymentStatusSuccess {
		if err := s.confirmPaidOrder(ctx, payment); err != nil {
			return nil, err
		}
	}

	return payment, nil
}

// confirmPaidOrder moves the order of a successful payment to CONFIRMED.
// Repeating it is harmless: an order that already left PENDING is only
// logged when it can no longer be honoured.
func (s *PaymentService) confirmPaidOrder(ctx context.Context, payment *domain.Payment) error {
	order, err := s.orderRepo.GetByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	if order.Status == domain.OrderStatusPending {
		_, err = s.orders.ConfirmPayment(ctx, payment.OrderID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}
	} else if !order.Status.Terminal() || order.Status == domain.OrderStatusCompleted {
		return nil
	}

	s.logger.Warn("payment succeeded for an order that can no longer be confirmed",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID),
	)
	return nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: invalid payment id", ErrBadRequest)
	}
	return s.paymentRepo.GetByID(ctx, paymentID)
}

// ListOrderPayments retrieves the payments of an order.
func (s *PaymentService) ListOrderPayments(ctx context.Context, orderID string) ([]*domain.Payment, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListByOrderID(ctx, orderID)
}
