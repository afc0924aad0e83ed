package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carrental/internal/domain"
	"carrental/internal/middleware"
	"carrental/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
	orderService   *service.OrderService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService, orderService *service.OrderService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, orderService: orderService}
}

// CheckoutRequest is the HTTP request body for opening a gateway payment.
type CheckoutRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	ID           string  `json:"id"`
	OrderID      string  `json:"order_id"`
	Amount       float64 `json:"amount"`
	Provider     string  `json:"provider"`
	TxnRef       string  `json:"txn_ref"`
	Status       string  `json:"status"`
	ResponseCode string  `json:"response_code,omitempty"`
	CreatedAt    string  `json:"created_at"`
	PaidAt       string  `json:"paid_at,omitempty"`
}

// CheckoutResponse carries the gateway redirect.
type CheckoutResponse struct {
	Payment    PaymentResponse `json:"payment"`
	PaymentURL string          `json:"payment_url"`
}

// IPNResponse is the acknowledgement body the gateway expects.
type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// Checkout handles POST /v1/payments
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.canAccessOrder(c, req.OrderID) {
		return
	}

	result, err := h.paymentService.CreateCheckout(c.Request.Context(), req.OrderID, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CheckoutResponse{
		Payment:    toPaymentResponse(result.Payment),
		PaymentURL: result.PaymentURL,
	})
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.canAccessOrder(c, payment.OrderID) {
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// ListOrderPayments handles GET /v1/orders/:id/payments
func (h *PaymentHandler) ListOrderPayments(c *gin.Context) {
	orderID := c.Param("id")
	if !h.canAccessOrder(c, orderID) {
		return
	}

	payments, err := h.paymentService.ListOrderPayments(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		response = append(response, toPaymentResponse(p))
	}
	respondJSON(c, http.StatusOK, response)
}

// VNPayReturn handles GET /v1/payments/vnpay/return
// The browser lands here after the hosted payment page.
func (h *PaymentHandler) VNPayReturn(c *gin.Context) {
	payment, err := h.paymentService.HandleCallback(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// VNPayIPN handles GET /v1/payments/vnpay/ipn
// Server-to-server notification; always answers 200 with a gateway code.
func (h *PaymentHandler) VNPayIPN(c *gin.Context) {
	_, err := h.paymentService.HandleCallback(c.Request.Context(), c.Request.URL.Query())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, IPNResponse{RspCode: "00", Message: "Confirm Success"})
	case errors.Is(err, service.ErrInvalidPaymentSignature):
		c.JSON(http.StatusOK, IPNResponse{RspCode: "97", Message: "Invalid Checksum"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusOK, IPNResponse{RspCode: "01", Message: "Order not found"})
	case errors.Is(err, service.ErrPaymentAmountMismatch):
		c.JSON(http.StatusOK, IPNResponse{RspCode: "04", Message: "Invalid amount"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusOK, IPNResponse{RspCode: "99", Message: "Unknown error"})
	}
}

// canAccessOrder lets staff through and checks that a customer owns orderID.
func (h *PaymentHandler) canAccessOrder(c *gin.Context, orderID string) bool {
	if middleware.IsStaff(c) {
		return true
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if order.CustomerID != middleware.UserID(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "order belongs to another customer"})
		return false
	}
	return true
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID,
		OrderID:      p.OrderID,
		Amount:       p.Amount,
		Provider:     string(p.Provider),
		TxnRef:       p.TxnRef,
		Status:       string(p.Status),
		ResponseCode: p.ResponseCode,
		CreatedAt:    formatTime(p.CreatedAt),
		PaidAt:       formatTime(p.PaidAt),
	}
}
