package repository

import (
	"context"

	"carrental/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByTxnRef retrieves a payment by its gateway reference.
	GetByTxnRef(ctx context.Context, txnRef string) (*domain.Payment, error)

	// ListByOrderID retrieves the payments of an order.
	ListByOrderID(ctx context.Context, orderID string) ([]*domain.Payment, error)

	// Complete records the gateway outcome of a PENDING payment. Returns false
	// when the payment had already been settled.
	Complete(ctx context.Context, payment *domain.Payment) (bool, error)
}
