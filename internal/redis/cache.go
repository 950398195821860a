package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	RiderCacheTTL   = 30 * time.Second // Availability flips on every assignment
	CompanyCacheTTL = 10 * time.Minute
)

// Key prefixes
const (
	riderCachePrefix   = "cache:rider:"
	companyCachePrefix = "cache:company:"
)

// CachedRider represents a cached rider entity.
type CachedRider struct {
	ID               string  `json:"id"`
	CompanyID        string  `json:"company_id"`
	Name             string  `json:"name"`
	Phone            string  `json:"phone"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
	IsAvailable      bool    `json:"is_available"`
	CreatedAt        int64   `json:"created_at"`
}

// CachedCompany represents a cached company entity.
type CachedCompany struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Phone            string  `json:"phone"`
	Email            string  `json:"email,omitempty"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
	CreatedAt        int64   `json:"created_at"`
}

// GetRider retrieves a rider from cache. A miss returns nil, nil.
func (s *CacheStore) GetRider(ctx context.Context, riderID string) (*CachedRider, error) {
	var rider CachedRider
	ok, err := s.get(ctx, riderCachePrefix+riderID, &rider)
	if err != nil || !ok {
		return nil, err
	}
	return &rider, nil
}

// SetRider stores a rider in cache.
func (s *CacheStore) SetRider(ctx context.Context, rider *CachedRider) error {
	return s.set(ctx, riderCachePrefix+rider.ID, rider, RiderCacheTTL)
}

// InvalidateRider removes a rider from cache.
func (s *CacheStore) InvalidateRider(ctx context.Context, riderID string) error {
	return s.client.Del(ctx, riderCachePrefix+riderID).Err()
}

// GetCompany retrieves a company from cache. A miss returns nil, nil.
func (s *CacheStore) GetCompany(ctx context.Context, companyID string) (*CachedCompany, error) {
	var company CachedCompany
	ok, err := s.get(ctx, companyCachePrefix+companyID, &company)
	if err != nil || !ok {
		return nil, err
	}
	return &company, nil
}

// SetCompany stores a company in cache.
func (s *CacheStore) SetCompany(ctx context.Context, company *CachedCompany) error {
	return s.set(ctx, companyCachePrefix+company.ID, company, CompanyCacheTTL)
}

// GetRidersBatch retrieves multiple riders from cache using pipeline.
// Returns a map of riderID -> CachedRider, and a slice of missing IDs.
func (s *CacheStore) GetRidersBatch(ctx context.Context, riderIDs []string) (map[string]*CachedRider, []string, error) {
	result := make(map[string]*CachedRider, len(riderIDs))
	if len(riderIDs) == 0 {
		return result, nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(riderIDs))
	for i, id := range riderIDs {
		cmds[i] = pipe.Get(ctx, riderCachePrefix+id)
	}

	// Exec reports redis.Nil when any key is missing; per-command errors are checked below.
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, nil, err
	}

	var missing []string
	for i, cmd := range cmds {
		id := riderIDs[i]
		data, err := cmd.Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}

		var rider CachedRider
		if err := json.Unmarshal(data, &rider); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = &rider
	}

	return result, missing, nil
}

func (s *CacheStore) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheStore) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}
