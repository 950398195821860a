package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/geo"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK COMPANY REPOSITORY
// ──────────────────────────────────────────────

// MockCompanyRepository is a mock implementation of CompanyRepository.
type MockCompanyRepository struct {
	mu        sync.RWMutex
	companies map[string]*domain.Company

	// Counters for verification
	CreateCallCount  int32
	GetByIDCallCount int32

	// Error injection
	CreateError error
}

// NewMockCompanyRepository creates a new mock company repository.
func NewMockCompanyRepository() *MockCompanyRepository {
	return &MockCompanyRepository{
		companies: make(map[string]*domain.Company),
	}
}

// AddCompany adds a company to the mock repository.
func (m *MockCompanyRepository) AddCompany(company *domain.Company) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[company.ID] = company
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[company.ID] = company
	return nil
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	company, ok := m.companies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *company
	return &copy, nil
}

func (m *MockCompanyRepository) GetAll(ctx context.Context) ([]*domain.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Company, 0, len(m.companies))
	for _, c := range m.companies {
		copy := *c
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// CountCompanies returns the number of stored companies.
func (m *MockCompanyRepository) CountCompanies() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.companies)
}

// ──────────────────────────────────────────────
// MOCK RIDER REPOSITORY
// ──────────────────────────────────────────────

// MockRiderRepository is a mock implementation of RiderRepository. Listings
// follow insertion order.
type MockRiderRepository struct {
	mu     sync.RWMutex
	riders map[string]*domain.Rider
	order  []string

	// Counters for verification
	CreateCallCount             int32
	UpdateAvailabilityCallCount int32

	// Error injection
	CreateError             error
	GetAvailableError       error
	UpdateAvailabilityError error
}

// NewMockRiderRepository creates a new mock rider repository.
func NewMockRiderRepository() *MockRiderRepository {
	return &MockRiderRepository{
		riders: make(map[string]*domain.Rider),
	}
}

// AddRider adds a rider to the mock repository.
func (m *MockRiderRepository) AddRider(rider *domain.Rider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(rider)
}

func (m *MockRiderRepository) put(rider *domain.Rider) {
	if _, exists := m.riders[rider.ID]; !exists {
		m.order = append(m.order, rider.ID)
	}
	m.riders[rider.ID] = rider
}

func (m *MockRiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(rider)
	return nil
}

func (m *MockRiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rider, ok := m.riders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *rider
	return &copy, nil
}

func (m *MockRiderRepository) GetAll(ctx context.Context) ([]*domain.Rider, error) {
	return m.filter(func(*domain.Rider) bool { return true }), nil
}

func (m *MockRiderRepository) GetByCompany(ctx context.Context, companyID string) ([]*domain.Rider, error) {
	return m.filter(func(r *domain.Rider) bool { return r.CompanyID == companyID }), nil
}

func (m *MockRiderRepository) GetAvailable(ctx context.Context, companyID string) ([]*domain.Rider, error) {
	if m.GetAvailableError != nil {
		return nil, m.GetAvailableError
	}
	return m.filter(func(r *domain.Rider) bool {
		return r.IsAvailable && (companyID == "" || r.CompanyID == companyID)
	}), nil
}

func (m *MockRiderRepository) filter(keep func(*domain.Rider) bool) []*domain.Rider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Rider, 0, len(m.order))
	for _, id := range m.order {
		r := m.riders[id]
		if keep(r) {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result
}

func (m *MockRiderRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	atomic.AddInt32(&m.UpdateAvailabilityCallCount, 1)
	if m.UpdateAvailabilityError != nil {
		return m.UpdateAvailabilityError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rider, ok := m.riders[id]
	if !ok {
		return repository.ErrNotFound
	}
	rider.IsAvailable = available
	return nil
}

// GetRider returns rider for test assertions.
func (m *MockRiderRepository) GetRider(id string) *domain.Rider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.riders[id]
}

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *order
	m.orders[order.ID] = &copy
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *order
	return &copy, nil
}

func (m *MockOrderRepository) GetAll(ctx context.Context) ([]*domain.Order, error) {
	return m.filter(func(*domain.Order) bool { return true }), nil
}

func (m *MockOrderRepository) GetByCompany(ctx context.Context, companyID string) ([]*domain.Order, error) {
	return m.filter(func(o *domain.Order) bool { return o.CompanyID == companyID }), nil
}

func (m *MockOrderRepository) GetByRider(ctx context.Context, riderID string) ([]*domain.Order, error) {
	return m.filter(func(o *domain.Order) bool { return o.AssignedRiderID == riderID }), nil
}

func (m *MockOrderRepository) filter(keep func(*domain.Order) bool) []*domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Order, 0)
	for _, o := range m.orders {
		if keep(o) {
			copy := *o
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// GetOrder returns order for test assertions.
func (m *MockOrderRepository) GetOrder(id string) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[id]
}

// CountOrders returns the number of stored orders.
func (m *MockOrderRepository) CountOrders() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

// ──────────────────────────────────────────────
// MOCK ASSIGNMENT REPOSITORY
// ──────────────────────────────────────────────

// MockAssignmentRepository applies the conditional claim and release writes
// to the mock rider and order repositories under one lock.
type MockAssignmentRepository struct {
	mu     sync.Mutex
	riders *MockRiderRepository
	orders *MockOrderRepository

	// Counters for verification
	AssignCallCount  int32
	ReleaseCallCount int32

	// Error injection
	AssignError error

	// BeforeAssign runs inside the claim, before the rider is checked.
	BeforeAssign func(riderID string)

	// BeforeRelease runs before the stored order is read.
	BeforeRelease func(orderID string)
}

// NewMockAssignmentRepository creates a new mock assignment repository.
func NewMockAssignmentRepository(riders *MockRiderRepository, orders *MockOrderRepository) *MockAssignmentRepository {
	return &MockAssignmentRepository{
		riders: riders,
		orders: orders,
	}
}

func (m *MockAssignmentRepository) Assign(ctx context.Context, order *domain.Order, riderID string) error {
	atomic.AddInt32(&m.AssignCallCount, 1)
	if m.AssignError != nil {
		return m.AssignError
	}
	if m.BeforeAssign != nil {
		m.BeforeAssign(riderID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.riders.mu.Lock()
	defer m.riders.mu.Unlock()
	m.orders.mu.Lock()
	defer m.orders.mu.Unlock()

	rider, ok := m.riders.riders[riderID]
	if !ok || !rider.IsAvailable {
		return repository.ErrRiderUnavailable
	}
	stored, ok := m.orders.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != domain.OrderStatusPending {
		return repository.ErrStatusConflict
	}

	now := time.Now().UTC()
	rider.IsAvailable = false
	stored.Status = domain.OrderStatusAssigned
	stored.AssignedRiderID = riderID
	stored.CompanyID = rider.CompanyID
	stored.AssignedAt = now

	order.Status = stored.Status
	order.AssignedRiderID = riderID
	order.CompanyID = rider.CompanyID
	order.AssignedAt = now
	return nil
}

func (m *MockAssignmentRepository) Release(ctx context.Context, order *domain.Order, status domain.OrderStatus) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	if m.BeforeRelease != nil {
		m.BeforeRelease(order.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.riders.mu.Lock()
	defer m.riders.mu.Unlock()
	m.orders.mu.Lock()
	defer m.orders.mu.Unlock()

	stored, ok := m.orders.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !stored.Status.CanCloseAs(status) {
		return repository.ErrStatusConflict
	}

	now := time.Now().UTC()
	stored.Status = status
	stored.ClosedAt = now
	if stored.AssignedRiderID != "" {
		if rider, ok := m.riders.riders[stored.AssignedRiderID]; ok {
			rider.IsAvailable = true
		}
	}

	order.AssignedRiderID = stored.AssignedRiderID
	order.CompanyID = stored.CompanyID
	order.Status = status
	order.ClosedAt = now
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStore.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations []redis.RiderLocation

	// Counters
	UpdateLocationCallCount int32
	RemoveLocationCallCount int32

	// Error injection
	FindNearbyRidersError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make([]redis.RiderLocation, 0),
	}
}

// SetLocations sets all locations (for test setup).
func (m *MockLocationStore) SetLocations(locations []redis.RiderLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = locations
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, riderID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.RiderID == riderID {
			m.locations[i].Lat = lat
			m.locations[i].Lng = lng
			return nil
		}
	}
	m.locations = append(m.locations, redis.RiderLocation{
		RiderID: riderID,
		Lat:     lat,
		Lng:     lng,
	})
	return nil
}

func (m *MockLocationStore) FindNearbyRiders(ctx context.Context, lat, lng, radiusKm float64) ([]redis.RiderLocation, error) {
	if m.FindNearbyRidersError != nil {
		return nil, m.FindNearbyRidersError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return all locations (mock doesn't do real geo filtering).
	result := make([]redis.RiderLocation, len(m.locations))
	copy(result, m.locations)
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, riderID string) error {
	atomic.AddInt32(&m.RemoveLocationCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.RiderID == riderID {
			m.locations = append(m.locations[:i], m.locations[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasLocation checks if a rider location exists.
func (m *MockLocationStore) HasLocation(riderID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.RiderID == riderID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) acquire(key string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if expiry, exists := m.locks[key]; exists && time.Now().Before(expiry) {
		return false, nil // Lock still held.
	}
	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) release(key string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *MockLockStore) AcquireRiderLock(ctx context.Context, riderID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:rider:"+riderID, ttl)
}

func (m *MockLockStore) ReleaseRiderLock(ctx context.Context, riderID string) error {
	return m.release("lock:rider:" + riderID)
}

func (m *MockLockStore) AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:order:"+orderID, ttl)
}

func (m *MockLockStore) ReleaseOrderLock(ctx context.Context, orderID string) error {
	return m.release("lock:order:" + orderID)
}

// HoldRider locks a rider as if another matching pass held it.
func (m *MockLockStore) HoldRider(riderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks["lock:rider:"+riderID] = time.Now().Add(time.Minute)
}

// IsRiderLocked checks if a rider is locked (for test assertions).
func (m *MockLockStore) IsRiderLocked(riderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:rider:"+riderID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is an in-memory implementation of CacheStore.
type MockCacheStore struct {
	mu        sync.RWMutex
	riders    map[string]*redis.CachedRider
	companies map[string]*redis.CachedCompany

	// Counters
	InvalidateCallCount int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		riders:    make(map[string]*redis.CachedRider),
		companies: make(map[string]*redis.CachedCompany),
	}
}

func (m *MockCacheStore) GetRider(ctx context.Context, riderID string) (*redis.CachedRider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.riders[riderID]
	if !ok {
		return nil, nil
	}
	copy := *r
	return &copy, nil
}

func (m *MockCacheStore) SetRider(ctx context.Context, rider *redis.CachedRider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *rider
	m.riders[rider.ID] = &copy
	return nil
}

func (m *MockCacheStore) InvalidateRider(ctx context.Context, riderID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.riders, riderID)
	return nil
}

func (m *MockCacheStore) GetRidersBatch(ctx context.Context, riderIDs []string) (map[string]*redis.CachedRider, []string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hits := make(map[string]*redis.CachedRider)
	var missing []string
	for _, id := range riderIDs {
		if r, ok := m.riders[id]; ok {
			copy := *r
			hits[id] = &copy
			continue
		}
		missing = append(missing, id)
	}
	return hits, missing, nil
}

func (m *MockCacheStore) GetCompany(ctx context.Context, companyID string) (*redis.CachedCompany, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[companyID]
	if !ok {
		return nil, nil
	}
	copy := *c
	return &copy, nil
}

func (m *MockCacheStore) SetCompany(ctx context.Context, company *redis.CachedCompany) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *company
	m.companies[company.ID] = &copy
	return nil
}

// HasRider reports whether a rider is cached.
func (m *MockCacheStore) HasRider(riderID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.riders[riderID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// MockNotifier records every published event.
type MockNotifier struct {
	mu     sync.Mutex
	events []domain.Event

	// Error injection
	NotifyError error
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, e domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.NotifyError
}

// Types returns the recorded event types in publish order.
func (m *MockNotifier) Types() []domain.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]domain.EventType, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}

// Last returns the most recent event.
func (m *MockNotifier) Last() (domain.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return domain.Event{}, false
	}
	return m.events[len(m.events)-1], true
}

// ──────────────────────────────────────────────
// MOCK GEOCODER
// ──────────────────────────────────────────────

// MockGeocoder resolves addresses from a fixed table.
type MockGeocoder struct {
	Results map[string]domain.GeoPoint

	// Counters
	GeocodeCallCount int32
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (domain.GeoPoint, string, error) {
	atomic.AddInt32(&m.GeocodeCallCount, 1)
	p, ok := m.Results[address]
	if !ok {
		return domain.GeoPoint{}, "", geo.ErrAddressNotFound
	}
	return p, address + ", Nigeria", nil
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
