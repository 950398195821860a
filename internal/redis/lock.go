package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a lock only while it still carries the caller's
// token, so a lock that expired and was taken by another instance survives.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore hands out short-lived, token-owned locks for riders and orders.
type LockStore struct {
	client *redis.Client
	tokens sync.Map // lock key -> token held by this process
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func riderLockKey(riderID string) string { return "lock:rider:" + riderID }
func orderLockKey(orderID string) string { return "lock:order:" + orderID }

// AcquireRiderLock attempts to acquire a lock for the given rider.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireRiderLock(ctx context.Context, riderID string, ttl time.Duration) (bool, error) {
	return s.acquire(ctx, riderLockKey(riderID), ttl)
}

// ReleaseRiderLock releases the lock for the given rider.
func (s *LockStore) ReleaseRiderLock(ctx context.Context, riderID string) error {
	return s.release(ctx, riderLockKey(riderID))
}

// AcquireOrderLock prevents two matching passes over the same order.
func (s *LockStore) AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error) {
	return s.acquire(ctx, orderLockKey(orderID), ttl)
}

// ReleaseOrderLock releases the lock for the given order.
func (s *LockStore) ReleaseOrderLock(ctx context.Context, orderID string) error {
	return s.release(ctx, orderLockKey(orderID))
}

func (s *LockStore) acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}
	s.tokens.Store(key, token)
	return true, nil
}

func (s *LockStore) release(ctx context.Context, key string) error {
	token, ok := s.tokens.LoadAndDelete(key)
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, s.client, []string{key}, token).Err()
}
