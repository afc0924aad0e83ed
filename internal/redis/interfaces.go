package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for station geo lookups.
type LocationStoreInterface interface {
	UpsertStation(ctx context.Context, stationID string, lat, lng float64) error
	FindNearbyStations(ctx context.Context, lat, lng, radiusKm float64) ([]StationLocation, error)
	RemoveStation(ctx context.Context, stationID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireVehicleLock(ctx context.Context, vehicleID, owner string, ttl time.Duration) (bool, error)
	ReleaseVehicleLock(ctx context.Context, vehicleID, owner string) error
}

// CacheStoreInterface defines the interface for entity caching.
type CacheStoreInterface interface {
	GetPricingRule(ctx context.Context, vehicleID string) (*CachedPricingRule, error)
	SetPricingRule(ctx context.Context, rule *CachedPricingRule) error
	InvalidatePricingRules(ctx context.Context) error
	GetDashboard(ctx context.Context, key string, dst any) (bool, error)
	SetDashboard(ctx context.Context, key string, value any) error
}

// OTPStoreInterface defines the interface for expiring verification codes.
type OTPStoreInterface interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	IncrementAttempts(ctx context.Context, email string, ttl time.Duration) (int, error)
	Delete(ctx context.Context, email string) error
	StartCooldown(ctx context.Context, email string, ttl time.Duration) (bool, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ CacheStoreInterface    = (*CacheStore)(nil)
	_ OTPStoreInterface      = (*OTPStore)(nil)
)
