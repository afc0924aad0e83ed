package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"carrental/internal/app"
	"carrental/internal/config"
	"carrental/internal/database/migrations"
	"carrental/internal/events"
	"carrental/internal/gateway/vnpay"
	"carrental/internal/handler"
	"carrental/internal/mail"
	"carrental/internal/pkg/jwt"
	internalRedis "carrental/internal/redis"
	"carrental/internal/repository/postgres"
	"carrental/internal/scheduler"
	"carrental/internal/service"
)

const sweepTimeout = 30 * time.Second

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
			nrApp = nil
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := migrations.NewRunner(db, logger.Named("migrate")).Up(); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	publisher := newPublisher(cfg.Kafka, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	server, sched := wireServer(db, redisClient, nrApp, publisher, cfg, logger)

	sched.Start()
	logger.Info("scheduler started", zap.String("sweep_schedule", cfg.Rental.SweepSchedule))

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
	if nrApp != nil {
		nrApp.Shutdown(cfg.Server.ShutdownTimeout)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// background scheduler.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	publisher events.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) (*http.Server, *scheduler.Scheduler) {
	clock := service.SystemClock{}

	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	otpStore := internalRedis.NewOTPStore(redisClient)

	// Initialize repositories.
	txManager := postgres.NewTxManager(db)
	userRepo := postgres.NewUserRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	stationRepo := postgres.NewStationRepository(db)
	ruleRepo := postgres.NewPricingRuleRepository(db)
	couponRepo := postgres.NewCouponRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	detailRepo := postgres.NewOrderDetailRepository(db)
	incidentRepo := postgres.NewIncidentRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db)

	// External collaborators.
	tokens := jwt.NewIssuer(jwtSecret(cfg, logger), cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	gateway := vnpay.New(vnpay.Config{
		TmnCode:    cfg.VNPay.TmnCode,
		HashSecret: cfg.VNPay.HashSecret,
		PayURL:     cfg.VNPay.PayURL,
		ReturnURL:  cfg.VNPay.ReturnURL,
		Version:    cfg.VNPay.Version,
		Locale:     cfg.VNPay.Locale,
	})

	// Initialize services.
	notificationService := service.NewNotificationService(publisher, newMailer(cfg.Mail, logger), userRepo, clock, logger.Named("notify"))
	availabilityService := service.NewAvailabilityService(vehicleRepo, detailRepo)
	pricingService := service.NewPricingService(ruleRepo, vehicleRepo, couponRepo, cacheStore, clock, logger.Named("pricing"))
	orderService := service.NewOrderService(service.OrderServiceDeps{
		TxManager:      txManager,
		Orders:         orderRepo,
		OrderDetails:   detailRepo,
		Vehicles:       vehicleRepo,
		Users:          userRepo,
		Coupons:        couponRepo,
		Pricing:        pricingService,
		Locks:          lockStore,
		Notifier:       notificationService,
		Clock:          clock,
		Logger:         logger.Named("orders"),
		GracePeriod:    cfg.Rental.PaymentGracePeriod,
		VehicleLockTTL: cfg.Rental.VehicleLockTTL,
	})
	authService := service.NewAuthService(userRepo, otpStore, notificationService, tokens, service.AuthSettings{
		OTPTTL:         cfg.Auth.OTPTTL,
		OTPCooldown:    cfg.Auth.OTPResendCooldown,
		OTPMaxAttempts: cfg.Auth.OTPMaxAttempts,
	}, clock, logger.Named("auth"))
	vehicleService := service.NewVehicleService(txManager, vehicleRepo, stationRepo, detailRepo, cacheStore, clock, logger.Named("vehicles"))
	stationService := service.NewStationService(stationRepo, vehicleRepo, locationStore, clock, logger.Named("stations"))
	incidentService := service.NewIncidentService(txManager, incidentRepo, vehicleRepo, orderRepo, clock, logger.Named("incidents"))
	paymentService := service.NewPaymentService(paymentRepo, orderRepo, orderService, gateway, notificationService, clock, logger.Named("payments"))
	analyticsService := service.NewAnalyticsService(analyticsRepo, cacheStore, logger.Named("analytics"))

	sched, err := scheduler.NewScheduler(orderService, cfg.Rental.SweepSchedule, sweepTimeout, logger.Named("scheduler"))
	if err != nil {
		logger.Fatal("failed to create scheduler", zap.Error(err))
	}

	router := app.NewRouter(app.RouterDeps{
		AuthHandler:      handler.NewAuthHandler(authService),
		UserHandler:      handler.NewUserHandler(authService),
		VehicleHandler:   handler.NewVehicleHandler(vehicleService, availabilityService, pricingService),
		StationHandler:   handler.NewStationHandler(stationService),
		PricingHandler:   handler.NewPricingHandler(pricingService),
		OrderHandler:     handler.NewOrderHandler(orderService),
		PaymentHandler:   handler.NewPaymentHandler(paymentService, orderService),
		IncidentHandler:  handler.NewIncidentHandler(incidentService),
		AnalyticsHandler: handler.NewAnalyticsHandler(analyticsService),
		TokenParser:      tokens,
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
		Logger:           logger.Named("http"),
		AllowedOrigins:   cfg.Server.AllowedOrigins,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, sched
}

func newPublisher(cfg config.KafkaConfig, logger *zap.Logger) events.Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Info("kafka brokers not configured, logging events instead")
		return events.NewLogPublisher(logger.Named("events"))
	}
	logger.Info("publishing events to kafka", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}

func newMailer(cfg config.MailConfig, logger *zap.Logger) mail.Mailer {
	if cfg.SendGridAPIKey == "" {
		logger.Info("sendgrid api key not configured, logging mail instead")
		return mail.NewLogMailer(logger.Named("mail"))
	}
	return mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
}

// jwtSecret returns the configured secret. Outside production an empty
// secret is replaced by a random one, which invalidates tokens on restart.
func jwtSecret(cfg *config.Config, logger *zap.Logger) string {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		logger.Fatal("failed to generate jwt secret", zap.Error(err))
	}
	logger.Warn("JWT_SECRET not set, using a random secret")
	return hex.EncodeToString(buf)
}
