package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carrental/internal/domain"
	"carrental/internal/middleware"
	"carrental/internal/repository"
	"carrental/internal/service"
	"carrental/internal/tests"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func TestMapErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"NotFound", repository.ErrNotFound, http.StatusNotFound},
		{"WrappedNotFound", fmt.Errorf("order: %w", repository.ErrNotFound), http.StatusNotFound},
		{"BadRequest", service.ErrInvalidPaymentSignature, http.StatusBadRequest},
		{"Conflict", service.ErrVehicleUnavailable, http.StatusConflict},
		{"Duplicate", repository.ErrDuplicate, http.StatusConflict},
		{"Overlap", repository.ErrOverlap, http.StatusConflict},
		{"Unauthorized", service.ErrUnauthorized, http.StatusUnauthorized},
		{"Forbidden", service.ErrForbidden, http.StatusForbidden},
		{"TooMany", service.ErrTooManyRequests, http.StatusTooManyRequests},
		{"Unknown", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapErrorToHTTPStatus(tt.err))
		})
	}
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "vehicle_id", toSnake("VehicleID"))
	assert.Equal(t, "start_time", toSnake("StartTime"))
	assert.Equal(t, "status", toSnake("Status"))
}

// withCaller stands in for JWTAuth.
func withCaller(userID string, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, string(role))
		c.Next()
	}
}

type orderRoutes struct {
	orders   *tests.MockOrderRepository
	payments *tests.MockPaymentRepository
	gateway  *tests.MockGateway
	orderSvc *service.OrderService
	router   func(userID string, role domain.Role) *gin.Engine
}

func newOrderRoutes(t *testing.T) *orderRoutes {
	t.Helper()

	users := tests.NewMockUserRepository()
	vehicles := tests.NewMockVehicleRepository()
	rules := tests.NewMockPricingRuleRepository()
	coupons := tests.NewMockCouponRepository()
	orders := tests.NewMockOrderRepository()
	details := tests.NewMockOrderDetailRepository()
	payments := tests.NewMockPaymentRepository()
	incidents := tests.NewMockIncidentRepository()
	clock := tests.NewFixedClock(t0)
	logger := zap.NewNop()

	users.AddUser(&domain.User{ID: "cust-1", Email: "cust1@example.com", Role: domain.RoleCustomer, EmailVerified: true})
	users.AddUser(&domain.User{ID: "cust-2", Email: "cust2@example.com", Role: domain.RoleCustomer, EmailVerified: true})
	vehicles.AddVehicle(&domain.Vehicle{ID: "veh-1", PlateNumber: "51A-1", Seats: 4, Variant: "standard", Status: domain.VehicleStatusAvailable})
	base, daily := 10.0, 5.0
	rules.AddRule(&domain.PricingRule{ID: "rule-1", Seats: 4, Variant: "standard", BaseHours: 4, BaseHoursPrice: &base, DailyPrice: &daily})

	pricing := service.NewPricingService(rules, vehicles, coupons, tests.NewMockCacheStore(), clock, logger)
	notifier := service.NewNotificationService(&tests.MockPublisher{}, &tests.MockMailer{}, users, clock, logger)
	orderSvc := service.NewOrderService(service.OrderServiceDeps{
		TxManager: &tests.MockTxManager{Repos: repository.Repositories{
			Vehicles:     vehicles,
			Orders:       orders,
			OrderDetails: details,
			Coupons:      coupons,
			Payments:     payments,
			Incidents:    incidents,
		}},
		Orders:       orders,
		OrderDetails: details,
		Vehicles:     vehicles,
		Users:        users,
		Coupons:      coupons,
		Pricing:      pricing,
		Locks:        tests.NewMockLockStore(),
		Notifier:     notifier,
		Clock:        clock,
		Logger:       logger,
		GracePeriod:  10 * time.Minute,
	})
	gateway := &tests.MockGateway{}
	paymentSvc := service.NewPaymentService(payments, orders, orderSvc, gateway, notifier, clock, logger)

	orderHandler := NewOrderHandler(orderSvc)
	paymentHandler := NewPaymentHandler(paymentSvc, orderSvc)

	return &orderRoutes{
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		orderSvc: orderSvc,
		router: func(userID string, role domain.Role) *gin.Engine {
			r := gin.New()
			r.GET("/v1/payments/vnpay/ipn", paymentHandler.VNPayIPN)
			v1 := r.Group("/v1", withCaller(userID, role))
			v1.POST("/orders", orderHandler.CreateOrder)
			v1.GET("/orders", orderHandler.ListOrders)
			v1.GET("/orders/:id", orderHandler.GetOrder)
			v1.POST("/orders/:id/cancel", middleware.RequireRole(domain.RoleStaff, domain.RoleAdmin), orderHandler.CancelOrder)
			v1.POST("/payments", paymentHandler.Checkout)
			return r
		},
	}
}

func (o *orderRoutes) do(t *testing.T, userID string, role domain.Role, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	o.router(userID, role).ServeHTTP(w, req)
	return w
}

func bookingBody(startH, endH int) string {
	start := t0.Add(time.Duration(startH) * time.Hour).Format(time.RFC3339)
	end := t0.Add(time.Duration(endH) * time.Hour).Format(time.RFC3339)
	return fmt.Sprintf(`{"vehicle_id":"veh-1","start_time":%q,"end_time":%q}`, start, end)
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	o := newOrderRoutes(t)

	w := o.do(t, "cust-1", domain.RoleCustomer, http.MethodPost, "/v1/orders", bookingBody(2, 4))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "cust-1", created.CustomerID)
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, 15.0, created.TotalPrice)

	t.Run("OverlapIsConflict", func(t *testing.T) {
		w := o.do(t, "cust-2", domain.RoleCustomer, http.MethodPost, "/v1/orders", bookingBody(3, 5))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("ValidationFields", func(t *testing.T) {
		w := o.do(t, "cust-1", domain.RoleCustomer, http.MethodPost, "/v1/orders", `{"vehicle_id":""}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "validation failed", resp.Error)
		assert.Equal(t, "is required", resp.Fields["vehicle_id"])
	})

	t.Run("CustomerCannotBookForOthers", func(t *testing.T) {
		body := strings.Replace(bookingBody(10, 12), `{`, `{"customer_id":"cust-2",`, 1)
		w := o.do(t, "cust-1", domain.RoleCustomer, http.MethodPost, "/v1/orders", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp OrderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "cust-1", resp.CustomerID)
	})

	t.Run("OtherCustomerForbidden", func(t *testing.T) {
		w := o.do(t, "cust-2", domain.RoleCustomer, http.MethodGet, "/v1/orders/"+created.ID, "")
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = o.do(t, "staff-1", domain.RoleStaff, http.MethodGet, "/v1/orders/"+created.ID, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ListScopedToCaller", func(t *testing.T) {
		w := o.do(t, "cust-2", domain.RoleCustomer, http.MethodGet, "/v1/orders?customer_id=cust-1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())

		w = o.do(t, "cust-1", domain.RoleCustomer, http.MethodGet, "/v1/orders?status=BOGUS", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UnknownOrder", func(t *testing.T) {
		w := o.do(t, "staff-1", domain.RoleStaff, http.MethodGet, "/v1/orders/ghost", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderHandler_CancelOrderIsStaffOnly(t *testing.T) {
	o := newOrderRoutes(t)

	w := o.do(t, "cust-1", domain.RoleCustomer, http.MethodPost, "/v1/orders", bookingBody(2, 4))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))

	w = o.do(t, "cust-1", domain.RoleCustomer, http.MethodPost, "/v1/orders/"+order.ID+"/cancel", `{"reason":"changed plans"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, domain.OrderStatusPending, o.orders.GetOrder(order.ID).Status)

	w = o.do(t, "staff-1", domain.RoleStaff, http.MethodPost, "/v1/orders/"+order.ID+"/cancel", `{"reason":"customer called"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cancelled))
	assert.Equal(t, "CANCELLED", cancelled.Status)
}

func TestPaymentHandler_VNPayIPN(t *testing.T) {
	o := newOrderRoutes(t)

	w := o.do(t, "cust-1", domain.RoleCustomer, http.MethodPost, "/v1/orders", bookingBody(2, 4))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))

	w = o.do(t, "cust-1", domain.RoleCustomer, http.MethodPost, "/v1/payments", fmt.Sprintf(`{"order_id":%q}`, order.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var checkout CheckoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &checkout))
	assert.NotEmpty(t, checkout.PaymentURL)

	ipn := func(txnRef, amount string) IPNResponse {
		t.Helper()
		q := url.Values{
			"vnp_TxnRef":       {txnRef},
			"vnp_Amount":       {amount},
			"vnp_ResponseCode": {"00"},
		}
		w := o.do(t, "", "", http.MethodGet, "/v1/payments/vnpay/ipn?"+q.Encode(), "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp IPNResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	assert.Equal(t, "01", ipn("UNKNOWN", "15").RspCode)
	assert.Equal(t, "04", ipn(checkout.Payment.TxnRef, "999").RspCode)

	o.gateway.Reject = true
	assert.Equal(t, "97", ipn(checkout.Payment.TxnRef, "15").RspCode)
	o.gateway.Reject = false

	assert.Equal(t, "00", ipn(checkout.Payment.TxnRef, "15").RspCode)
	stored, err := o.orderSvc.GetOrder(t.Context(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, stored.Status)

	// Replays are acknowledged.
	assert.Equal(t, "00", ipn(checkout.Payment.TxnRef, "15").RspCode)
}
