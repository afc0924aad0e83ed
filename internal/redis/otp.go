package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrOTPNotFound is returned when no live code exists for an email.
var ErrOTPNotFound = errors.New("otp not found or expired")

const (
	otpCodePrefix     = "otp:code:"
	otpAttemptsPrefix = "otp:attempts:"
	otpCooldownPrefix = "otp:cooldown:"
)

// OTPStore keeps one-time email verification codes with explicit expiry.
type OTPStore struct {
	client *redis.Client
}

// NewOTPStore creates a new OTPStore.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

// Save stores code for email for ttl, replacing any previous code and
// resetting its attempt counter.
func (s *OTPStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, otpCodePrefix+email, code, ttl)
	pipe.Del(ctx, otpAttemptsPrefix+email)
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns the live code for email.
func (s *OTPStore) Get(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, otpCodePrefix+email).Result()
	if err == redis.Nil {
		return "", ErrOTPNotFound
	}
	return code, err
}

// IncrementAttempts counts a failed verification and returns the new total.
// The counter expires together with the code.
func (s *OTPStore) IncrementAttempts(ctx context.Context, email string, ttl time.Duration) (int, error) {
	key := otpAttemptsPrefix + email
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, err
		}
	}
	return int(count), nil
}

// Delete evicts the code and its attempt counter.
func (s *OTPStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, otpCodePrefix+email, otpAttemptsPrefix+email).Err()
}

// StartCooldown blocks resends for email during ttl. Returns false when a
// cooldown is already running.
func (s *OTPStore) StartCooldown(ctx context.Context, email string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, otpCooldownPrefix+email, "1", ttl).Result()
}
