package tests

import (
	"context"
	"errors"
	"testing"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

func TestOrderPlace_NoRiderKeepsOrderPending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")

	resp, err := env.orderSvc.Place(ctx, service.PlaceOrderRequest{
		CustomerName: "Ada",
		Pickup:       &domain.GeoPoint{Lat: 6.45, Lng: 3.39},
		Details:      "two boxes",
		CompanyID:    "c1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.RiderAssigned {
		t.Fatal("expected no rider to be assigned")
	}
	if resp.Rider != nil {
		t.Error("expected no rider in response")
	}

	stored := env.orders.GetOrder(resp.Order.ID)
	if stored == nil {
		t.Fatal("expected order to be persisted")
	}
	if stored.Status != domain.OrderStatusPending {
		t.Errorf("expected pending, got %s", stored.Status)
	}
	if stored.AssignedRiderID != "" {
		t.Errorf("expected no assigned rider, got %s", stored.AssignedRiderID)
	}
	if stored.CustomerName != "Ada" {
		t.Errorf("expected customer name Ada, got %s", stored.CustomerName)
	}
}

func TestOrderPlace_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")

	tests := []struct {
		name    string
		req     service.PlaceOrderRequest
		wantErr error
	}{
		{
			name:    "missing details",
			req:     service.PlaceOrderRequest{Pickup: &domain.GeoPoint{Lat: 6.45, Lng: 3.39}, Details: "  "},
			wantErr: service.ErrMissingDetails,
		},
		{
			name:    "missing pickup",
			req:     service.PlaceOrderRequest{Details: "parcel"},
			wantErr: service.ErrMissingLocation,
		},
		{
			name:    "latitude out of range",
			req:     service.PlaceOrderRequest{Pickup: &domain.GeoPoint{Lat: 91, Lng: 3.39}, Details: "parcel"},
			wantErr: service.ErrInvalidLocation,
		},
		{
			name:    "longitude out of range",
			req:     service.PlaceOrderRequest{Pickup: &domain.GeoPoint{Lat: 6.45, Lng: -181}, Details: "parcel"},
			wantErr: service.ErrInvalidLocation,
		},
		{
			name:    "unknown company",
			req:     service.PlaceOrderRequest{Pickup: &domain.GeoPoint{Lat: 6.45, Lng: 3.39}, Details: "parcel", CompanyID: "nope"},
			wantErr: service.ErrCompanyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orderSvc.Place(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if env.orders.CountOrders() != 0 {
		t.Errorf("expected no orders persisted, got %d", env.orders.CountOrders())
	}
}

func TestOrderPlace_GeocodesAddressWithoutPickup(t *testing.T) {
	ctx := context.Background()
	geocoder := &MockGeocoder{Results: map[string]domain.GeoPoint{
		"12 Broad Street, Lagos": {Lat: 6.452, Lng: 3.392},
	}}
	env := newTestEnvWithGeocoder(t, geocoder)
	env.addCompany("c1")
	env.addRider("r1", "c1", 6.451, 3.391, true)

	resp, err := env.orderSvc.Place(ctx, service.PlaceOrderRequest{
		Details:          "parcel",
		FormattedAddress: "12 Broad Street, Lagos",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geocoder.GeocodeCallCount != 1 {
		t.Errorf("expected one geocode call, got %d", geocoder.GeocodeCallCount)
	}
	if resp.Order.Pickup.Lat != 6.452 || resp.Order.Pickup.Lng != 3.392 {
		t.Errorf("unexpected pickup %+v", resp.Order.Pickup)
	}
	if resp.Order.FormattedAddress != "12 Broad Street, Lagos, Nigeria" {
		t.Errorf("expected provider's formatted address, got %s", resp.Order.FormattedAddress)
	}
	if !resp.RiderAssigned {
		t.Error("expected geocoded order to be matched")
	}
}

func TestOrderPlace_UnknownAddressIsMissingLocation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvWithGeocoder(t, &MockGeocoder{})

	_, err := env.orderSvc.Place(ctx, service.PlaceOrderRequest{
		Details:          "parcel",
		FormattedAddress: "nowhere",
	})
	if !errors.Is(err, service.ErrMissingLocation) {
		t.Fatalf("expected ErrMissingLocation, got %v", err)
	}
}

func TestOrderComplete_ReleasesRider(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r1", "c1", 6.451, 3.391, true)

	resp, err := env.orderSvc.Place(ctx, service.PlaceOrderRequest{
		Pickup:    &domain.GeoPoint{Lat: 6.45, Lng: 3.39},
		Details:   "parcel",
		CompanyID: "c1",
	})
	if err != nil || !resp.RiderAssigned {
		t.Fatalf("expected assignment, got %+v, %v", resp, err)
	}

	order, err := env.orderSvc.Complete(ctx, resp.Order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusCompleted {
		t.Errorf("expected completed, got %s", order.Status)
	}
	if order.ClosedAt.IsZero() {
		t.Error("expected closed_at to be set")
	}
	if !env.riders.GetRider("r1").IsAvailable {
		t.Error("expected rider to be available again")
	}
	if !env.locations.HasLocation("r1") {
		t.Error("expected rider to be back in the geo index")
	}
	if last, _ := env.notifier.Last(); last.Type != domain.EventOrderCompleted || last.RiderID != "r1" {
		t.Errorf("expected order.completed for r1, got %+v", last)
	}

	// The released rider takes the next order.
	next, err := env.orderSvc.Place(ctx, service.PlaceOrderRequest{
		Pickup:    &domain.GeoPoint{Lat: 6.45, Lng: 3.39},
		Details:   "another parcel",
		CompanyID: "c1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.RiderAssigned || next.Rider.ID != "r1" {
		t.Errorf("expected r1 to take the next order, got %+v", next)
	}
}

func TestOrderComplete_PendingOrderRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addPendingOrder("o1", "", 6.45, 3.39)

	_, err := env.orderSvc.Complete(ctx, "o1")
	if !errors.Is(err, service.ErrOrderNotAssigned) {
		t.Fatalf("expected ErrOrderNotAssigned, got %v", err)
	}
	if env.assign.ReleaseCallCount != 0 {
		t.Error("expected no release attempt")
	}
}

func TestOrderComplete_Twice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r1", "c1", 6.451, 3.391, true)
	order := env.addPendingOrder("o1", "c1", 6.45, 3.39)

	if _, err := env.matcher.Match(ctx, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.orderSvc.Complete(ctx, "o1"); err != nil {
		t.Fatalf("first complete failed: %v", err)
	}

	_, err := env.orderSvc.Complete(ctx, "o1")
	if !errors.Is(err, service.ErrOrderNotAssigned) {
		t.Fatalf("expected ErrOrderNotAssigned, got %v", err)
	}
}

func TestOrderCancel_PendingOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addPendingOrder("o1", "", 6.45, 3.39)

	order, err := env.orderSvc.Cancel(ctx, "o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", order.Status)
	}
	if env.orders.GetOrder("o1").Status != domain.OrderStatusCancelled {
		t.Error("expected stored order to be cancelled")
	}
	if env.assign.ReleaseCallCount != 1 {
		t.Errorf("expected one release, got %d", env.assign.ReleaseCallCount)
	}
}

func TestOrderCancel_AssignedOrderReleasesRider(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r1", "c1", 6.451, 3.391, true)
	order := env.addPendingOrder("o1", "c1", 6.45, 3.39)

	if _, err := env.matcher.Match(ctx, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := env.orderSvc.Cancel(ctx, "o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.AssignedRiderID != "r1" {
		t.Errorf("expected assignment to be kept for history, got %q", cancelled.AssignedRiderID)
	}
	if !env.riders.GetRider("r1").IsAvailable {
		t.Error("expected rider to be available again")
	}
}

func TestOrderCancel_ReleasesRiderClaimedAfterRead(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r1", "c1", 6.451, 3.391, true)
	pending := env.addPendingOrder("o1", "c1", 6.45, 3.39)

	// The order is read as pending by Cancel, then matched before the close runs.
	var matchErr error
	env.assign.BeforeRelease = func(orderID string) {
		_, matchErr = env.matcher.Match(ctx, pending)
	}

	cancelled, err := env.orderSvc.Cancel(ctx, "o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matchErr != nil {
		t.Fatalf("concurrent match failed: %v", matchErr)
	}
	if cancelled.AssignedRiderID != "r1" {
		t.Errorf("expected stored rider r1 on the cancelled order, got %q", cancelled.AssignedRiderID)
	}
	if !env.riders.GetRider("r1").IsAvailable {
		t.Error("expected rider claimed after the read to be available again")
	}
	if !env.locations.HasLocation("r1") {
		t.Error("expected released rider to be back in the location index")
	}

	last, ok := env.notifier.Last()
	if !ok || last.Type != domain.EventOrderCancelled || last.RiderID != "r1" {
		t.Errorf("expected cancel event naming r1, got %+v", last)
	}
}

func TestOrderComplete_RejectedWhenStoredOrderIsPending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	order := env.addPendingOrder("o1", "", 6.45, 3.39)
	order.Status = domain.OrderStatusAssigned

	err := env.assign.Release(ctx, order, domain.OrderStatusCompleted)
	if !errors.Is(err, repository.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}
	if got := env.orders.GetOrder("o1").Status; got != domain.OrderStatusPending {
		t.Errorf("expected order to stay pending, got %s", got)
	}
}

func TestOrderCancel_ClosedOrderRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addPendingOrder("o1", "", 6.45, 3.39)

	if _, err := env.orderSvc.Cancel(ctx, "o1"); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}

	_, err := env.orderSvc.Cancel(ctx, "o1")
	if !errors.Is(err, service.ErrOrderClosed) {
		t.Fatalf("expected ErrOrderClosed, got %v", err)
	}

	_, err = env.orderSvc.Assign(ctx, "o1")
	if !errors.Is(err, service.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending, got %v", err)
	}
}

func TestOrderAssign_RetryAfterRiderJoins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addCompany("c1")

	resp, err := env.orderSvc.Place(ctx, service.PlaceOrderRequest{
		Pickup:    &domain.GeoPoint{Lat: 6.45, Lng: 3.39},
		Details:   "parcel",
		CompanyID: "c1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.RiderAssigned {
		t.Fatal("expected no rider yet")
	}

	_, err = env.orderSvc.Assign(ctx, resp.Order.ID)
	if !errors.Is(err, service.ErrNoRiderAvailable) {
		t.Fatalf("expected ErrNoRiderAvailable, got %v", err)
	}

	env.addRider("r1", "c1", 6.451, 3.391, true)

	retried, err := env.orderSvc.Assign(ctx, resp.Order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !retried.RiderAssigned || retried.Rider.ID != "r1" {
		t.Errorf("expected r1 to be assigned, got %+v", retried)
	}

	_, err = env.orderSvc.Assign(ctx, resp.Order.ID)
	if !errors.Is(err, service.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending, got %v", err)
	}
}

func TestOrderGet_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.orderSvc.Get(ctx, ""); !errors.Is(err, service.ErrInvalidOrderID) {
		t.Errorf("expected ErrInvalidOrderID, got %v", err)
	}
	if _, err := env.orderSvc.Get(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOrderList_FiltersByCompany(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addPendingOrder("o1", "c1", 6.45, 3.39)
	env.addPendingOrder("o2", "c2", 6.45, 3.39)
	env.addPendingOrder("o3", "c1", 6.45, 3.39)

	all, err := env.orderSvc.List(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 orders, got %d", len(all))
	}

	c1, err := env.orderSvc.List(ctx, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c1) != 2 {
		t.Errorf("expected 2 orders for c1, got %d", len(c1))
	}
}
