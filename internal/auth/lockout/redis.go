package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failureKeyPrefix = "lockout:failures:"
	lockKeyPrefix    = "lockout:locked:"
)

// Redis shares lockout state between instances. Failure counters expire
// after the lock duration so stale failures do not accumulate forever.
type Redis struct {
	client *redis.Client
	policy Policy
}

func NewRedis(client *redis.Client, policy Policy) *Redis {
	return &Redis{client: client, policy: policy}
}

func (s *Redis) Locked(ctx context.Context, key string, now time.Time) (bool, time.Time, error) {
	ttl, err := s.client.PTTL(ctx, lockKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, fmt.Errorf("read lock: %w", err)
	}
	// PTTL reports -2 for a missing key and -1 for one without expiry
	if ttl <= 0 {
		return false, time.Time{}, nil
	}
	return true, now.Add(ttl), nil
}

func (s *Redis) RecordFailure(ctx context.Context, key string, now time.Time) (bool, time.Time, error) {
	failKey := failureKeyPrefix + key
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, failKey)
	pipe.PExpire(ctx, failKey, s.policy.Duration)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, time.Time{}, fmt.Errorf("count failure: %w", err)
	}
	if incr.Val() < int64(s.policy.Threshold) {
		return false, time.Time{}, nil
	}

	pipe = s.client.TxPipeline()
	pipe.Set(ctx, lockKeyPrefix+key, "1", s.policy.Duration)
	pipe.Del(ctx, failKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, time.Time{}, fmt.Errorf("set lock: %w", err)
	}
	return true, now.Add(s.policy.Duration), nil
}

func (s *Redis) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, failureKeyPrefix+key, lockKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	return nil
}
