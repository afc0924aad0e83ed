package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carrental/internal/domain"
	"carrental/internal/middleware"
	"carrental/internal/service"
)

// OrderHandler handles HTTP requests for rental orders.
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrderRequest is the HTTP request body for booking a vehicle.
type CreateOrderRequest struct {
	CustomerID   string    `json:"customer_id"` // Staff only; customers book for themselves
	VehicleID    string    `json:"vehicle_id" binding:"required"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
	PlannedHours float64   `json:"planned_hours" binding:"gte=0"`
	CouponCode   string    `json:"coupon_code,omitempty"`
}

// ReturnRequest is the HTTP request body for returning a vehicle.
type ReturnRequest struct {
	ActualHours *float64 `json:"actual_hours" binding:"omitempty,gte=0"`
}

// CancelRequest is the HTTP request body for cancelling an order.
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ChangeVehicleRequest is the HTTP request body for swapping an order's vehicle.
type ChangeVehicleRequest struct {
	VehicleID string `json:"vehicle_id" binding:"required"`
}

// ListOrdersQuery holds the order listing filters.
type ListOrdersQuery struct {
	CustomerID string `form:"customer_id"`
	VehicleID  string `form:"vehicle_id"`
	Status     string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED ACTIVE COMPLETED PAYMENT_FAILED CANCELLED"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

// OrderResponse is the HTTP representation of an order.
type OrderResponse struct {
	ID           string   `json:"id"`
	CustomerID   string   `json:"customer_id"`
	VehicleID    string   `json:"vehicle_id"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	TotalPrice   float64  `json:"total_price"`
	CouponCode   string   `json:"coupon_code,omitempty"`
	Status       string   `json:"status"`
	PlannedHours float64  `json:"planned_hours"`
	ActualHours  *float64 `json:"actual_hours,omitempty"`
	CancelReason string   `json:"cancel_reason,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
	PickedUpAt   string   `json:"picked_up_at,omitempty"`
	ReturnedAt   string   `json:"returned_at,omitempty"`
	CancelledAt  string   `json:"cancelled_at,omitempty"`
}

// OrderDetailResponse is the HTTP representation of an order line item.
type OrderDetailResponse struct {
	ID          string  `json:"id"`
	VehicleID   string  `json:"vehicle_id"`
	Type        string  `json:"type"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Price       float64 `json:"price"`
	Status      string  `json:"status"`
	Description string  `json:"description,omitempty"`
}

// CreateOrder handles POST /v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	customerID := middleware.UserID(c)
	if middleware.IsStaff(c) && req.CustomerID != "" {
		customerID = req.CustomerID
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), service.CreateOrderRequest{
		CustomerID:   customerID,
		VehicleID:    req.VehicleID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		PlannedHours: req.PlannedHours,
		CouponCode:   req.CouponCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toOrderResponse(order))
}

// GetOrder handles GET /v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, ok := h.loadAccessibleOrder(c)
	if !ok {
		return
	}
	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// ListOrders handles GET /v1/orders
// Customers only ever see their own orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var q ListOrdersQuery
	if !bindQuery(c, &q) {
		return
	}

	filter := domain.OrderFilter{
		CustomerID: q.CustomerID,
		VehicleID:  q.VehicleID,
		Status:     domain.OrderStatus(q.Status),
		Limit:      q.Limit,
	}
	if !middleware.IsStaff(c) {
		filter.CustomerID = middleware.UserID(c)
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}
	respondJSON(c, http.StatusOK, response)
}

// GetOrderDetails handles GET /v1/orders/:id/details
func (h *OrderHandler) GetOrderDetails(c *gin.Context) {
	order, ok := h.loadAccessibleOrder(c)
	if !ok {
		return
	}

	details, err := h.orderService.GetOrderDetails(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]OrderDetailResponse, 0, len(details))
	for _, d := range details {
		response = append(response, OrderDetailResponse{
			ID:          d.ID,
			VehicleID:   d.VehicleID,
			Type:        string(d.Type),
			StartTime:   formatTime(d.StartTime),
			EndTime:     formatTime(d.EndTime),
			Price:       d.Price,
			Status:      string(d.Status),
			Description: d.Description,
		})
	}
	respondJSON(c, http.StatusOK, response)
}

// ConfirmPayment handles POST /v1/orders/:id/confirm-payment
// Used by staff for payments taken outside the gateway.
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	order, err := h.orderService.ConfirmPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// ConfirmPickup handles POST /v1/orders/:id/pickup
func (h *OrderHandler) ConfirmPickup(c *gin.Context) {
	order, err := h.orderService.ConfirmPickup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// ConfirmReturn handles POST /v1/orders/:id/return
func (h *OrderHandler) ConfirmReturn(c *gin.Context) {
	var req ReturnRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.ConfirmReturn(c.Request.Context(), c.Param("id"), req.ActualHours)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// CancelOrder handles POST /v1/orders/:id/cancel. Staff only.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// ChangeVehicle handles PUT /v1/orders/:id/vehicle
func (h *OrderHandler) ChangeVehicle(c *gin.Context) {
	var req ChangeVehicleRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.ChangeVehicle(c.Request.Context(), c.Param("id"), req.VehicleID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// DeleteOrder handles DELETE /v1/orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orderService.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPickupQRCode handles GET /v1/orders/:id/qrcode
func (h *OrderHandler) GetPickupQRCode(c *gin.Context) {
	order, ok := h.loadAccessibleOrder(c)
	if !ok {
		return
	}

	png, err := h.orderService.PickupQRCode(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GetReceipt handles GET /v1/orders/:id/receipt
func (h *OrderHandler) GetReceipt(c *gin.Context) {
	order, ok := h.loadAccessibleOrder(c)
	if !ok {
		return
	}

	receipt, err := h.orderService.GetReceipt(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, receipt.Format())
		return
	}
	respondJSON(c, http.StatusOK, receipt)
}

// loadAccessibleOrder fetches the order in the :id param and checks that the
// caller is staff or the order's customer.
func (h *OrderHandler) loadAccessibleOrder(c *gin.Context) (*domain.RentalOrder, bool) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !middleware.IsStaff(c) && order.CustomerID != middleware.UserID(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "order belongs to another customer"})
		return nil, false
	}
	return order, true
}

func toOrderResponse(o *domain.RentalOrder) OrderResponse {
	return OrderResponse{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		VehicleID:    o.VehicleID,
		StartTime:    formatTime(o.StartTime),
		EndTime:      formatTime(o.EndTime),
		TotalPrice:   o.TotalPrice,
		CouponCode:   o.CouponCode,
		Status:       string(o.Status),
		PlannedHours: o.PlannedHours,
		ActualHours:  o.ActualHours,
		CancelReason: o.CancelReason,
		CreatedAt:    formatTime(o.CreatedAt),
		UpdatedAt:    formatTime(o.UpdatedAt),
		PickedUpAt:   formatTime(o.PickedUpAt),
		ReturnedAt:   formatTime(o.ReturnedAt),
		CancelledAt:  formatTime(o.CancelledAt),
	}
}
