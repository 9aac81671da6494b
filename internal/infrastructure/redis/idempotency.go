package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"mostrador/internal/config"
)

// keyOrderCreate maps idem:order:create:{user}:{key} to the created order id, or to
// pendingMarker while the create is in flight.
const keyOrderCreate = "idem:order:create:%d:%s"

func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// pendingMarker holds a claimed key until the order it guards is committed.
const pendingMarker = "pending"

// releasePending deletes a key only while it still holds the pending marker.
var releasePending = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim reserves key for the caller with SETNX. When another request owns the
// key it reports the order id stored there, or 0 while that request is still running.
func (s *IdempotencyStore) Claim(ctx context.Context, userID uint, key string) (uint, bool, error) {
	redisKey := OrderCreateKey(userID, key)

	claimed, err := s.client.SetNX(ctx, redisKey, pendingMarker, s.ttl).Result()
	if err != nil {
		return 0, false, fmt.Errorf("claiming idempotency key: %w", err)
	}
	if claimed {
		return 0, true, nil
	}

	raw, err := s.client.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; the caller polls again
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading idempotency key: %w", err)
	}
	if raw == pendingMarker {
		return 0, false, nil
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parsing idempotency value %q: %w", raw, err)
	}
	return uint(id), false, nil
}

// Complete replaces the pending marker with the committed order id.
func (s *IdempotencyStore) Complete(ctx context.Context, userID uint, key string, orderID uint) error {
	err := s.client.Set(ctx, OrderCreateKey(userID, key), strconv.FormatUint(uint64(orderID), 10), s.ttl).Err()
	if err != nil {
		return fmt.Errorf("writing idempotency key: %w", err)
	}
	return nil
}

// Release frees a claim whose order was never created so the client can retry.
func (s *IdempotencyStore) Release(ctx context.Context, userID uint, key string) error {
	err := releasePending.Run(ctx, s.client, []string{OrderCreateKey(userID, key)}, pendingMarker).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("releasing idempotency key: %w", err)
	}
	return nil
}

func OrderCreateKey(userID uint, key string) string {
	return fmt.Sprintf(keyOrderCreate, userID, key)
}
