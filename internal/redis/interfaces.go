package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for the available-rider geo index.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, riderID string, lat, lng float64) error
	FindNearbyRiders(ctx context.Context, lat, lng, radiusKm float64) ([]RiderLocation, error)
	RemoveLocation(ctx context.Context, riderID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireRiderLock(ctx context.Context, riderID string, ttl time.Duration) (bool, error)
	ReleaseRiderLock(ctx context.Context, riderID string) error
	AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error)
	ReleaseOrderLock(ctx context.Context, orderID string) error
}

// CacheStoreInterface defines the interface for entity caching.
type CacheStoreInterface interface {
	GetRider(ctx context.Context, riderID string) (*CachedRider, error)
	SetRider(ctx context.Context, rider *CachedRider) error
	InvalidateRider(ctx context.Context, riderID string) error
	GetRidersBatch(ctx context.Context, riderIDs []string) (map[string]*CachedRider, []string, error)
	GetCompany(ctx context.Context, companyID string) (*CachedCompany, error)
	SetCompany(ctx context.Context, company *CachedCompany) error
}

// IdempotencyStoreInterface defines the interface for idempotent request replay.
type IdempotencyStoreInterface interface {
	Lookup(ctx context.Context, scope, key string) (*StoredResponse, error)
	Begin(ctx context.Context, scope, key string) (bool, error)
	Finish(ctx context.Context, scope, key string, resp *StoredResponse) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface    = (*LocationStore)(nil)
	_ LockStoreInterface        = (*LockStore)(nil)
	_ CacheStoreInterface       = (*CacheStore)(nil)
	_ IdempotencyStoreInterface = (*IdempotencyStore)(nil)
)
