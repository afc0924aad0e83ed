package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTL constants
const (
	PricingRuleCacheTTL = 5 * time.Minute
	DashboardCacheTTL   = time.Minute // Admin KPIs tolerate a minute of staleness
)

// Key prefixes
const (
	pricingRuleCachePrefix = "cache:pricing:vehicle:"
	dashboardCachePrefix   = "cache:dashboard:"
)

// CachedPricingRule is the cached form of a vehicle's resolved pricing rule.
type CachedPricingRule struct {
	RuleID         string   `json:"rule_id"`
	VehicleID      string   `json:"vehicle_id"`
	BaseHours      int      `json:"base_hours"`
	BaseHoursPrice *float64 `json:"base_hours_price,omitempty"`
	ExtraHourPrice *float64 `json:"extra_hour_price,omitempty"`
	DailyPrice     *float64 `json:"daily_price,omitempty"`
}

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetPricingRule retrieves the rule resolved for a vehicle. Returns nil on a miss.
func (s *CacheStore) GetPricingRule(ctx context.Context, vehicleID string) (*CachedPricingRule, error) {
	var rule CachedPricingRule
	hit, err := s.getJSON(ctx, pricingRuleCachePrefix+vehicleID, &rule)
	if err != nil || !hit {
		return nil, err
	}
	return &rule, nil
}

// SetPricingRule caches the rule resolved for a vehicle.
func (s *CacheStore) SetPricingRule(ctx context.Context, rule *CachedPricingRule) error {
	return s.setJSON(ctx, pricingRuleCachePrefix+rule.VehicleID, rule, PricingRuleCacheTTL)
}

// InvalidatePricingRules drops every cached vehicle rule. Rule edits can
// affect a whole vehicle class, so per-key invalidation is not enough.
func (s *CacheStore) InvalidatePricingRules(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, pricingRuleCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// GetDashboard loads a cached dashboard into dst. Returns false on a miss.
func (s *CacheStore) GetDashboard(ctx context.Context, key string, dst any) (bool, error) {
	return s.getJSON(ctx, dashboardCachePrefix+key, dst)
}

// SetDashboard caches a dashboard under key.
func (s *CacheStore) SetDashboard(ctx context.Context, key string, value any) error {
	return s.setJSON(ctx, dashboardCachePrefix+key, value, DashboardCacheTTL)
}

func (s *CacheStore) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // Cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheStore) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}
