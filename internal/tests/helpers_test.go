package tests

import (
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/geo"
	"dispatch/internal/service"
)

// testEnv wires the services against the in-memory mocks.
type testEnv struct {
	companies *MockCompanyRepository
	riders    *MockRiderRepository
	orders    *MockOrderRepository
	assign    *MockAssignmentRepository
	locks     *MockLockStore
	cache     *MockCacheStore
	locations *MockLocationStore
	notifier  *MockNotifier

	companySvc *service.CompanyService
	riderSvc   *service.RiderService
	matcher    *service.AssignmentService
	orderSvc   *service.OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithGeocoder(t, nil)
}

func newTestEnvWithGeocoder(t *testing.T, geocoder *MockGeocoder) *testEnv {
	t.Helper()

	env := &testEnv{
		companies: NewMockCompanyRepository(),
		riders:    NewMockRiderRepository(),
		orders:    NewMockOrderRepository(),
		locks:     NewMockLockStore(),
		cache:     NewMockCacheStore(),
		locations: NewMockLocationStore(),
		notifier:  NewMockNotifier(),
	}
	env.assign = NewMockAssignmentRepository(env.riders, env.orders)

	// A nil *MockGeocoder must not reach the services as a non-nil interface.
	var gc geo.Geocoder
	if geocoder != nil {
		gc = geocoder
	}

	env.companySvc = service.NewCompanyService(env.companies, env.cache, gc, env.notifier)
	env.riderSvc = service.NewRiderService(env.riders, env.orders, env.companySvc, env.locations, env.cache, gc, env.notifier)
	env.matcher = service.NewAssignmentService(env.riders, env.assign, env.locks, env.cache, env.locations)
	env.orderSvc = service.NewOrderService(service.OrderServiceDeps{
		OrderRepo:     env.orders,
		RiderRepo:     env.riders,
		AssignRepo:    env.assign,
		Matcher:       env.matcher,
		Companies:     env.companySvc,
		LocationStore: env.locations,
		CacheStore:    env.cache,
		Geocoder:      gc,
		Notifier:      env.notifier,
	})
	return env
}

func (e *testEnv) addCompany(id string) *domain.Company {
	c := &domain.Company{
		ID:               id,
		Name:             "Company " + id,
		Location:         domain.GeoPoint{Lat: 6.45, Lng: 3.39},
		Phone:            "+2348000000000",
		FormattedAddress: "Marina, Lagos",
		CreatedAt:        time.Now().UTC(),
	}
	e.companies.AddCompany(c)
	return c
}

func (e *testEnv) addRider(id, companyID string, lat, lng float64, available bool) *domain.Rider {
	r := &domain.Rider{
		ID:               id,
		CompanyID:        companyID,
		Name:             "Rider " + id,
		Location:         domain.GeoPoint{Lat: lat, Lng: lng},
		FormattedAddress: "Lagos",
		IsAvailable:      available,
		CreatedAt:        time.Now().UTC(),
	}
	e.riders.AddRider(r)
	return r
}

func (e *testEnv) addPendingOrder(id, companyID string, lat, lng float64) *domain.Order {
	o := &domain.Order{
		ID:        id,
		Pickup:    domain.GeoPoint{Lat: lat, Lng: lng},
		Details:   "parcel",
		CompanyID: companyID,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	e.orders.AddOrder(o)
	copy := *o
	return &copy
}

func hasEvent(types []domain.EventType, want domain.EventType) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
