package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idempotency:"
	IdempotencyTTL       = 24 * time.Hour
	InFlightTTL          = 30 * time.Second
)

// StoredResponse is a response kept for replay under an idempotency key.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore keeps replayable responses and in-flight markers per
// route and client key.
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func idempotencyKey(scope, key string) string {
	return idempotencyKeyPrefix + scope + ":" + key
}

// Lookup returns the stored response, or nil when none exists.
func (s *IdempotencyStore) Lookup(ctx context.Context, scope, key string) (*StoredResponse, error) {
	data, err := s.client.Get(ctx, idempotencyKey(scope, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stored StoredResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Begin marks the key as in flight. It reports false when another request
// with the same key holds the marker.
func (s *IdempotencyStore) Begin(ctx context.Context, scope, key string) (bool, error) {
	return s.client.SetNX(ctx, idempotencyKey(scope, key)+":inflight", "1", InFlightTTL).Result()
}

// Finish stores resp for replay, when given, and clears the in-flight marker.
func (s *IdempotencyStore) Finish(ctx context.Context, scope, key string, resp *StoredResponse) error {
	base := idempotencyKey(scope, key)

	pipe := s.client.TxPipeline()
	if resp != nil {
		data, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		pipe.Set(ctx, base, data, IdempotencyTTL)
	}
	pipe.Del(ctx, base+":inflight")
	_, err := pipe.Exec(ctx)
	return err
}
