package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"carrental/internal/domain"
	"carrental/internal/handler"
	"carrental/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	VehicleHandler   *handler.VehicleHandler
	StationHandler   *handler.StationHandler
	PricingHandler   *handler.PricingHandler
	OrderHandler     *handler.OrderHandler
	PaymentHandler   *handler.PaymentHandler
	IncidentHandler  *handler.IncidentHandler
	AnalyticsHandler *handler.AnalyticsHandler
	TokenParser      middleware.TokenParser
	RedisClient      redis.Cmdable
	NewRelicApp      *newrelic.Application
	Logger           *zap.Logger
	AllowedOrigins   []string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware(deps.AllowedOrigins))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	staff := middleware.RequireRole(domain.RoleStaff, domain.RoleAdmin)
	admin := middleware.RequireRole(domain.RoleAdmin)

	v1 := router.Group("/v1")

	// Public routes.
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/resend-code", deps.AuthHandler.ResendCode)
			auth.POST("/verify", deps.AuthHandler.Verify)
			auth.POST("/login", deps.AuthHandler.Login)
		}

		vehicles := v1.Group("/vehicles")
		{
			vehicles.GET("", deps.VehicleHandler.ListVehicles)
			vehicles.GET("/available", deps.VehicleHandler.SearchAvailable)
			vehicles.GET("/:id", deps.VehicleHandler.GetVehicle)
			vehicles.GET("/:id/availability", deps.VehicleHandler.CheckAvailability)
			vehicles.GET("/:id/quote", deps.VehicleHandler.GetQuote)
		}

		stations := v1.Group("/stations")
		{
			stations.GET("", deps.StationHandler.ListStations)
			stations.GET("/nearby", deps.StationHandler.FindNearby)
			stations.GET("/:id", deps.StationHandler.GetStation)
		}

		// Gateway callbacks are authenticated by their signature.
		vnpay := v1.Group("/payments/vnpay")
		{
			vnpay.GET("/return", deps.PaymentHandler.VNPayReturn)
			vnpay.GET("/ipn", deps.PaymentHandler.VNPayIPN)
		}
	}

	// Authenticated routes.
	authed := v1.Group("")
	authed.Use(middleware.JWTAuth(deps.TokenParser))
	authed.Use(middleware.NewRelicAttributes())
	authed.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	{
		authed.GET("/auth/me", deps.AuthHandler.Me)

		orders := authed.Group("/orders")
		{
			orders.POST("", deps.OrderHandler.CreateOrder)
			orders.GET("", deps.OrderHandler.ListOrders)
			orders.GET("/:id", deps.OrderHandler.GetOrder)
			orders.GET("/:id/details", deps.OrderHandler.GetOrderDetails)
			orders.GET("/:id/qrcode", deps.OrderHandler.GetPickupQRCode)
			orders.GET("/:id/receipt", deps.OrderHandler.GetReceipt)
			orders.GET("/:id/payments", deps.PaymentHandler.ListOrderPayments)

			orders.POST("/:id/cancel", staff, deps.OrderHandler.CancelOrder)
			orders.POST("/:id/confirm-payment", staff, deps.OrderHandler.ConfirmPayment)
			orders.POST("/:id/pickup", staff, deps.OrderHandler.ConfirmPickup)
			orders.POST("/:id/return", staff, deps.OrderHandler.ConfirmReturn)
			orders.PUT("/:id/vehicle", staff, deps.OrderHandler.ChangeVehicle)
			orders.DELETE("/:id", admin, deps.OrderHandler.DeleteOrder)
		}

		payments := authed.Group("/payments")
		{
			payments.POST("", deps.PaymentHandler.Checkout)
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
		}

		vehicles := authed.Group("/vehicles", staff)
		{
			vehicles.POST("", deps.VehicleHandler.CreateVehicle)
			vehicles.PATCH("/:id", deps.VehicleHandler.UpdateVehicle)
			vehicles.PUT("/:id/station", deps.VehicleHandler.AssignStation)
			vehicles.DELETE("/:id", admin, deps.VehicleHandler.DeleteVehicle)
		}

		stations := authed.Group("/stations", admin)
		{
			stations.POST("", deps.StationHandler.CreateStation)
			stations.PATCH("/:id", deps.StationHandler.UpdateStation)
			stations.DELETE("/:id", deps.StationHandler.DeleteStation)
		}

		pricing := authed.Group("/pricing-rules", staff)
		{
			pricing.GET("", deps.PricingHandler.ListRules)
			pricing.GET("/:id", deps.PricingHandler.GetRule)
			pricing.POST("", admin, deps.PricingHandler.CreateRule)
			pricing.PATCH("/:id", admin, deps.PricingHandler.UpdateRule)
			pricing.DELETE("/:id", admin, deps.PricingHandler.DeleteRule)
		}

		incidents := authed.Group("/incidents", staff)
		{
			incidents.POST("", deps.IncidentHandler.ReportIncident)
			incidents.GET("", deps.IncidentHandler.ListIncidents)
			incidents.GET("/:id", deps.IncidentHandler.GetIncident)
			incidents.PATCH("/:id", deps.IncidentHandler.UpdateIncident)
		}

		users := authed.Group("/users", admin)
		{
			users.GET("", deps.UserHandler.GetAll)
			users.GET("/:id", deps.UserHandler.Get)
		}

		authed.GET("/admin/dashboard", admin, deps.AnalyticsHandler.Dashboard)
	}

	return router
}
