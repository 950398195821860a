package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func TestAssignment_NearestRiderWins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r-far", "c1", 6.60, 3.50, true)
	env.addRider("r-near", "c1", 6.451, 3.391, true)
	env.addRider("r-mid", "c1", 6.50, 3.42, true)

	resp, err := env.orderSvc.Place(ctx, service.PlaceOrderRequest{
		Pickup:    &domain.GeoPoint{Lat: 6.45, Lng: 3.39},
		Details:   "documents",
		CompanyID: "c1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.RiderAssigned {
		t.Fatal("expected a rider to be assigned")
	}
	if resp.Rider.ID != "r-near" {
		t.Errorf("expected r-near, got %s", resp.Rider.ID)
	}
	if resp.Rider.IsAvailable {
		t.Error("expected returned rider to be unavailable")
	}
	if resp.DistanceKm <= 0 || resp.DistanceKm > 1 {
		t.Errorf("expected sub-kilometer distance, got %f", resp.DistanceKm)
	}

	// The assignment is persisted on both sides.
	if env.riders.GetRider("r-near").IsAvailable {
		t.Error("expected r-near to be stored as unavailable")
	}
	stored := env.orders.GetOrder(resp.Order.ID)
	if stored.Status != domain.OrderStatusAssigned {
		t.Errorf("expected status assigned, got %s", stored.Status)
	}
	if stored.AssignedRiderID != "r-near" {
		t.Errorf("expected assigned rider r-near, got %s", stored.AssignedRiderID)
	}
	if stored.AssignedAt.IsZero() {
		t.Error("expected assigned_at to be set")
	}

	// Other riders are untouched.
	if !env.riders.GetRider("r-far").IsAvailable || !env.riders.GetRider("r-mid").IsAvailable {
		t.Error("expected unmatched riders to stay available")
	}

	types := env.notifier.Types()
	if !hasEvent(types, domain.EventOrderPlaced) || !hasEvent(types, domain.EventOrderAssigned) {
		t.Errorf("expected placed and assigned events, got %v", types)
	}
}

func TestAssignment_ExcludesOtherCompaniesAndUnavailableRiders(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addCompany("c2")
	env.addRider("r-other-company", "c2", 6.4501, 3.3901, true)
	env.addRider("r-off-shift", "c1", 6.4502, 3.3902, false)
	env.addRider("r-far", "c1", 6.70, 3.60, true)

	order := env.addPendingOrder("o1", "c1", 6.45, 3.39)

	result, err := env.matcher.Match(ctx, order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rider.ID != "r-far" {
		t.Errorf("expected r-far, got %s", result.Rider.ID)
	}
	if !env.riders.GetRider("r-other-company").IsAvailable {
		t.Error("expected rider of another company to stay available")
	}
}

func TestAssignment_OrderWithoutCompanyMatchesAnyCompany(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addCompany("c2")
	env.addRider("r-c1", "c1", 6.60, 3.50, true)
	env.addRider("r-c2", "c2", 6.451, 3.391, true)

	order := env.addPendingOrder("o1", "", 6.45, 3.39)

	result, err := env.matcher.Match(ctx, order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rider.ID != "r-c2" {
		t.Errorf("expected r-c2, got %s", result.Rider.ID)
	}
	if order.CompanyID != "c2" {
		t.Errorf("expected order to take the rider's company c2, got %q", order.CompanyID)
	}
	if env.orders.GetOrder("o1").CompanyID != "c2" {
		t.Error("expected stored order to carry the rider's company")
	}
}

func TestAssignment_TieKeepsFirstListedRider(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r-first", "c1", 6.46, 3.40, true)
	env.addRider("r-second", "c1", 6.46, 3.40, true)

	order := env.addPendingOrder("o1", "c1", 6.45, 3.39)

	result, err := env.matcher.Match(ctx, order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rider.ID != "r-first" {
		t.Errorf("expected r-first, got %s", result.Rider.ID)
	}
}

func TestAssignment_LostClaimFallsThroughToNextNearest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r-near", "c1", 6.451, 3.391, true)
	env.addRider("r-next", "c1", 6.47, 3.41, true)

	// Another order takes r-near between the listing and the claim.
	var once sync.Once
	env.assign.BeforeAssign = func(riderID string) {
		if riderID == "r-near" {
			once.Do(func() {
				_ = env.riders.UpdateAvailability(ctx, "r-near", false)
			})
		}
	}

	order := env.addPendingOrder("o1", "c1", 6.45, 3.39)

	result, err := env.matcher.Match(ctx, order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rider.ID != "r-next" {
		t.Errorf("expected r-next, got %s", result.Rider.ID)
	}
	if env.assign.AssignCallCount != 2 {
		t.Errorf("expected 2 claim attempts, got %d", env.assign.AssignCallCount)
	}
}

func TestAssignment_SkipsRiderLockedByAnotherMatch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r-near", "c1", 6.451, 3.391, true)
	env.addRider("r-next", "c1", 6.47, 3.41, true)
	env.locks.HoldRider("r-near")

	order := env.addPendingOrder("o1", "c1", 6.45, 3.39)

	result, err := env.matcher.Match(ctx, order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rider.ID != "r-next" {
		t.Errorf("expected r-next, got %s", result.Rider.ID)
	}
	if !env.riders.GetRider("r-near").IsAvailable {
		t.Error("expected locked rider to stay available")
	}
	if env.locks.IsRiderLocked("r-next") {
		t.Error("expected rider lock to be released after the claim")
	}
}

func TestAssignment_NoAvailableRider(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r-off", "c1", 6.451, 3.391, false)

	order := env.addPendingOrder("o1", "c1", 6.45, 3.39)

	_, err := env.matcher.Match(ctx, order)
	if !errors.Is(err, service.ErrNoRiderAvailable) {
		t.Fatalf("expected ErrNoRiderAvailable, got %v", err)
	}
	if env.orders.GetOrder("o1").Status != domain.OrderStatusPending {
		t.Error("expected order to remain pending")
	}
}

func TestAssignment_RejectsNonPendingOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r1", "c1", 6.451, 3.391, true)

	order := env.addPendingOrder("o1", "c1", 6.45, 3.39)
	order.Status = domain.OrderStatusCompleted

	_, err := env.matcher.Match(ctx, order)
	if !errors.Is(err, service.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending, got %v", err)
	}
	if env.assign.AssignCallCount != 0 {
		t.Error("expected no claim attempt")
	}
}

func TestAssignment_StoredOrderAlreadyAssigned(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r1", "c1", 6.451, 3.391, true)

	// The caller holds a stale pending copy of an order that was assigned meanwhile.
	stale := env.addPendingOrder("o1", "c1", 6.45, 3.39)
	env.orders.GetOrder("o1").Status = domain.OrderStatusAssigned

	_, err := env.matcher.Match(ctx, stale)
	if !errors.Is(err, service.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending, got %v", err)
	}
	if !env.riders.GetRider("r1").IsAvailable {
		t.Error("expected rider to stay available")
	}
}

func TestAssignment_OrderAlreadyBeingMatched(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r1", "c1", 6.451, 3.391, true)

	order := env.addPendingOrder("o1", "c1", 6.45, 3.39)
	if ok, _ := env.locks.AcquireOrderLock(ctx, "o1", time.Minute); !ok {
		t.Fatal("failed to hold order lock")
	}

	_, err := env.matcher.Match(ctx, order)
	if !errors.Is(err, service.ErrOrderBeingMatched) {
		t.Fatalf("expected ErrOrderBeingMatched, got %v", err)
	}
}

func TestAssignment_ClaimedRiderLeavesIndexAndCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	r := env.addRider("r1", "c1", 6.451, 3.391, true)
	_ = env.locations.UpdateLocation(ctx, r.ID, r.Location.Lat, r.Location.Lng)
	if _, err := env.riderSvc.Get(ctx, r.ID); err != nil {
		t.Fatalf("failed to warm cache: %v", err)
	}

	order := env.addPendingOrder("o1", "c1", 6.45, 3.39)
	if _, err := env.matcher.Match(ctx, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if env.locations.HasLocation("r1") {
		t.Error("expected assigned rider to be removed from the geo index")
	}
	if env.cache.HasRider("r1") {
		t.Error("expected assigned rider to be evicted from the cache")
	}
}

func TestAssignment_ConcurrentOrdersNeverShareRider(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")

	const riders = 10
	const orders = 20
	for i := 0; i < riders; i++ {
		env.addRider(fmt.Sprintf("r%02d", i), "c1", 6.45+float64(i)*0.001, 3.39, true)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	assigned := make(map[string]string)
	var noRider int

	for i := 0; i < orders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := env.orderSvc.Place(ctx, service.PlaceOrderRequest{
				Pickup:    &domain.GeoPoint{Lat: 6.45, Lng: 3.39},
				Details:   fmt.Sprintf("parcel %d", i),
				CompanyID: "c1",
			})
			if err != nil {
				t.Errorf("order %d: unexpected error: %v", i, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if !resp.RiderAssigned {
				noRider++
				return
			}
			if prev, dup := assigned[resp.Rider.ID]; dup {
				t.Errorf("rider %s assigned to both %s and %s", resp.Rider.ID, prev, resp.Order.ID)
			}
			assigned[resp.Rider.ID] = resp.Order.ID
		}(i)
	}
	wg.Wait()

	if len(assigned) != riders {
		t.Errorf("expected %d assignments, got %d", riders, len(assigned))
	}
	if noRider != orders-riders {
		t.Errorf("expected %d orders without rider, got %d", orders-riders, noRider)
	}
	for id := range assigned {
		if env.riders.GetRider(id).IsAvailable {
			t.Errorf("expected %s to be unavailable", id)
		}
	}
}
