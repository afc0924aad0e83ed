package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Env      string         `yaml:"env"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	NewRelic NewRelicConfig `yaml:"new_relic"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Rental   RentalConfig   `yaml:"rental"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Mail     MailConfig     `yaml:"mail"`
	VNPay    VNPayConfig    `yaml:"vnpay"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	DBName       string `yaml:"dbname"`
	SSLMode      string `yaml:"sslmode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string `yaml:"app_name"`
	LicenseKey string `yaml:"license_key"`
	Enabled    bool   `yaml:"enabled"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// AuthConfig holds token and email verification settings.
type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	Issuer            string        `yaml:"issuer"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	OTPTTL            time.Duration `yaml:"otp_ttl"`
	OTPResendCooldown time.Duration `yaml:"otp_resend_cooldown"`
	OTPMaxAttempts    int           `yaml:"otp_max_attempts"`
}

// RentalConfig holds order lifecycle settings.
type RentalConfig struct {
	PaymentGracePeriod time.Duration `yaml:"payment_grace_period"`
	SweepSchedule      string        `yaml:"sweep_schedule"` // cron spec with seconds field
	VehicleLockTTL     time.Duration `yaml:"vehicle_lock_ttl"`
}

// KafkaConfig holds event publishing configuration. Empty brokers disable publishing.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// MailConfig holds outgoing email configuration. An empty API key logs mail instead.
type MailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
}

// VNPayConfig holds payment gateway credentials.
type VNPayConfig struct {
	TmnCode    string `yaml:"tmn_code"`
	HashSecret string `yaml:"hash_secret"`
	PayURL     string `yaml:"pay_url"`
	ReturnURL  string `yaml:"return_url"`
	Version    string `yaml:"version"`
	Locale     string `yaml:"locale"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Password:     "postgres",
			DBName:       "car_rental",
			SSLMode:      "disable",
			MaxOpenConns: 50,
			MaxIdleConns: 25,
			AutoMigrate:  true,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		NewRelic: NewRelicConfig{
			AppName: "car-rental-service",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{
			Issuer:            "car-rental",
			TokenTTL:          24 * time.Hour,
			OTPTTL:            5 * time.Minute,
			OTPResendCooldown: time.Minute,
			OTPMaxAttempts:    5,
		},
		Rental: RentalConfig{
			PaymentGracePeriod: 10 * time.Minute,
			SweepSchedule:      "0 * * * * *",
			VehicleLockTTL:     10 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: "rental-orders",
		},
		Mail: MailConfig{
			FromEmail: "no-reply@car-rental.local",
			FromName:  "Car Rental",
		},
		VNPay: VNPayConfig{
			PayURL:  "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
			Version: "2.1.0",
			Locale:  "vn",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = getEnv("APP_ENV", cfg.Env)

	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.AllowedOrigins = getListEnv("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = getIntEnv("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getIntEnv("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.AutoMigrate = getBoolEnv("DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getIntEnv("REDIS_DB", cfg.Redis.DB)

	cfg.NewRelic.AppName = getEnv("NEW_RELIC_APP_NAME", cfg.NewRelic.AppName)
	cfg.NewRelic.LicenseKey = getEnv("NEW_RELIC_LICENSE_KEY", cfg.NewRelic.LicenseKey)
	cfg.NewRelic.Enabled = getBoolEnv("NEW_RELIC_ENABLED", cfg.NewRelic.Enabled)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.Issuer = getEnv("JWT_ISSUER", cfg.Auth.Issuer)
	cfg.Auth.TokenTTL = getDurationEnv("JWT_TTL", cfg.Auth.TokenTTL)
	cfg.Auth.OTPTTL = getDurationEnv("OTP_TTL", cfg.Auth.OTPTTL)
	cfg.Auth.OTPResendCooldown = getDurationEnv("OTP_RESEND_COOLDOWN", cfg.Auth.OTPResendCooldown)
	cfg.Auth.OTPMaxAttempts = getIntEnv("OTP_MAX_ATTEMPTS", cfg.Auth.OTPMaxAttempts)

	cfg.Rental.PaymentGracePeriod = getDurationEnv("RENTAL_PAYMENT_GRACE_PERIOD", cfg.Rental.PaymentGracePeriod)
	cfg.Rental.SweepSchedule = getEnv("RENTAL_SWEEP_SCHEDULE", cfg.Rental.SweepSchedule)
	cfg.Rental.VehicleLockTTL = getDurationEnv("RENTAL_VEHICLE_LOCK_TTL", cfg.Rental.VehicleLockTTL)

	cfg.Kafka.Brokers = getListEnv("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.Mail.SendGridAPIKey = getEnv("SENDGRID_API_KEY", cfg.Mail.SendGridAPIKey)
	cfg.Mail.FromEmail = getEnv("MAIL_FROM_EMAIL", cfg.Mail.FromEmail)
	cfg.Mail.FromName = getEnv("MAIL_FROM_NAME", cfg.Mail.FromName)

	cfg.VNPay.TmnCode = getEnv("VNPAY_TMN_CODE", cfg.VNPay.TmnCode)
	cfg.VNPay.HashSecret = getEnv("VNPAY_HASH_SECRET", cfg.VNPay.HashSecret)
	cfg.VNPay.PayURL = getEnv("VNPAY_PAY_URL", cfg.VNPay.PayURL)
	cfg.VNPay.ReturnURL = getEnv("VNPAY_RETURN_URL", cfg.VNPay.ReturnURL)
	cfg.VNPay.Version = getEnv("VNPAY_VERSION", cfg.VNPay.Version)
	cfg.VNPay.Locale = getEnv("VNPAY_LOCALE", cfg.VNPay.Locale)
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Rental.PaymentGracePeriod <= 0 {
		errs = append(errs, errors.New("rental.payment_grace_period must be positive"))
	}
	if strings.TrimSpace(c.Rental.SweepSchedule) == "" {
		errs = append(errs, errors.New("rental.sweep_schedule is required"))
	}
	if c.Rental.VehicleLockTTL <= 0 {
		errs = append(errs, errors.New("rental.vehicle_lock_ttl must be positive"))
	}
	if c.Auth.OTPMaxAttempts <= 0 {
		errs = append(errs, errors.New("auth.otp_max_attempts must be positive"))
	}
	if c.Auth.OTPTTL <= 0 || c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth ttls must be positive"))
	}
	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("auth.jwt_secret is required in production"))
		}
		if c.VNPay.HashSecret == "" || c.VNPay.TmnCode == "" {
			errs = append(errs, errors.New("vnpay credentials are required in production"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
