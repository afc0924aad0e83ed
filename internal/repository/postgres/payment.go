package postgres

import (
	"context"
	"database/sql"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

const paymentColumns = `id, order_id, amount, provider, txn_ref, status, gateway_txn_no, response_code, created_at, paid_at`

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.Amount,
		payment.Provider,
		payment.TxnRef,
		payment.Status,
		nullString(payment.GatewayTxnNo),
		nullString(payment.ResponseCode),
		payment.CreatedAt,
		nullTime(payment.PaidAt),
	)
	return translateError(err)
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.q.QueryRowContext(ctx, query, id))
}

// GetByTxnRef retrieves a payment by its gateway reference.
func (r *PaymentRepository) GetByTxnRef(ctx context.Context, txnRef string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE txn_ref = $1`
	return scanPayment(r.q.QueryRowContext(ctx, query, txnRef))
}

// ListByOrderID retrieves the payments of an order.
func (r *PaymentRepository) ListByOrderID(ctx context.Context, orderID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Complete records the gateway outcome of a PENDING payment.
func (r *PaymentRepository) Complete(ctx context.Context, payment *domain.Payment) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, gateway_txn_no = $2, response_code = $3, paid_at = $4
		WHERE id = $5 AND status = $6
	`

	result, err := r.q.ExecContext(ctx, query,
		payment.Status,
		nullString(payment.GatewayTxnNo),
		nullString(payment.ResponseCode),
		nullTime(payment.PaidAt),
		payment.ID,
		domain.PaymentStatusPending,
	)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	var gatewayTxnNo, responseCode sql.NullString
	var paidAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.Amount,
		&p.Provider,
		&p.TxnRef,
		&p.Status,
		&gatewayTxnNo,
		&responseCode,
		&p.CreatedAt,
		&paidAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	p.GatewayTxnNo = gatewayTxnNo.String
	p.ResponseCode = responseCode.String
	if paidAt.Valid {
		p.PaidAt = paidAt.Time
	}
	return &p, nil
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)
