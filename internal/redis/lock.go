package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a lock only if it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireVehicleLock attempts to lock a vehicle for a booking mutation.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireVehicleLock(ctx context.Context, vehicleID, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, vehicleLockKey(vehicleID), owner, ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ReleaseVehicleLock releases the vehicle lock if owner still holds it.
func (s *LockStore) ReleaseVehicleLock(ctx context.Context, vehicleID, owner string) error {
	return releaseScript.Run(ctx, s.client, []string{vehicleLockKey(vehicleID)}, owner).Err()
}

func vehicleLockKey(vehicleID string) string {
	return fmt.Sprintf("lock:vehicle:%s", vehicleID)
}
