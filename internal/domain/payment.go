package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// PaymentProvider identifies the gateway that processed a payment.
type PaymentProvider string

const PaymentProviderVNPay PaymentProvider = "VNPAY"

// Payment is a gateway payment attempt for a rental order.
type Payment struct {
	ID           string
	OrderID      string
	Amount       float64
	Provider     PaymentProvider
	TxnRef       string // Merchant reference sent to the gateway
	Status       PaymentStatus
	GatewayTxnNo string
	ResponseCode string
	CreatedAt    time.Time
	PaidAt       time.Time
}
