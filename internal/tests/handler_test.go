package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispatch/internal/app"
	"dispatch/internal/handler"
	"dispatch/internal/redis"
)

func newTestRouter(t *testing.T, env *testEnv) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	return app.NewRouter(app.RouterDeps{
		CompanyHandler: handler.NewCompanyHandler(env.companySvc, env.riderSvc, env.orderSvc),
		RiderHandler:   handler.NewRiderHandler(env.riderSvc),
		OrderHandler:   handler.NewOrderHandler(env.orderSvc),
		LegacyHandler:  handler.NewLegacyHandler(env.companySvc, env.riderSvc, env.orderSvc),
		Logger:         zap.NewNop(),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}
}

func TestHTTP_Health(t *testing.T) {
	router := newTestRouter(t, newTestEnv(t))

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}

func TestHTTP_LegacyCompanyRegistration(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(t, env)

	w := doJSON(t, router, http.MethodPost, "/api/companies/register", map[string]any{
		"companyName":      "Swift Logistics",
		"location":         map[string]float64{"lat": 6.45, "lng": 3.39},
		"whatsapp":         "+2348012345678",
		"formattedAddress": "1 Marina, Lagos",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created handler.LegacyMessage
	decode(t, w, &created)
	if created.Message != "Company added successfully" || created.ID == "" {
		t.Errorf("unexpected reply %+v", created)
	}

	w = doJSON(t, router, http.MethodGet, "/api/companies/get-all", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var listed struct {
		Data []handler.LegacyCompany `json:"data"`
	}
	decode(t, w, &listed)
	if len(listed.Data) != 1 || listed.Data[0].CompanyName != "Swift Logistics" {
		t.Errorf("unexpected listing %+v", listed.Data)
	}
	if listed.Data[0].Email != nil {
		t.Error("expected null email")
	}
}

func TestHTTP_LegacyCompanyMissingFields(t *testing.T) {
	router := newTestRouter(t, newTestEnv(t))

	w := doJSON(t, router, http.MethodPost, "/api/companies/new", map[string]any{
		"companyName": "Swift Logistics",
		"location":    map[string]float64{"lat": 6.45, "lng": 3.39},
		"whatsapp":    "+2348012345678",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without locationObject, got %d", w.Code)
	}
	var resp handler.ErrorResponse
	decode(t, w, &resp)
	if resp.Error != "Missing required fields: name, location, or whatsapp" {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestHTTP_LegacyRiderAndOrder(t *testing.T) {
	env := newTestEnv(t)
	env.addCompany("c1")
	router := newTestRouter(t, env)

	// No riders yet: the order is kept but the reply is 404.
	w := doJSON(t, router, http.MethodPost, "/api/dispatch-riders/order", map[string]any{
		"orderLocation": map[string]float64{"lat": 6.45, "lng": 3.39},
		"details":       "parcel",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if env.orders.CountOrders() != 1 {
		t.Errorf("expected pending order to be stored, got %d", env.orders.CountOrders())
	}

	w = doJSON(t, router, http.MethodPost, "/api/dispatch-riders/register", map[string]any{
		"companyId":        "c1",
		"name":             "Tunde",
		"location":         map[string]float64{"lat": 6.451, "lng": 3.391},
		"formattedAddress": "Yaba, Lagos",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/dispatch-riders/order", map[string]any{
		"orderLocation": map[string]float64{"lat": 6.45, "lng": 3.39},
		"details":       "parcel",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var assigned handler.LegacyMessage
	decode(t, w, &assigned)
	if assigned.Message != "Rider assigned successfully" || assigned.Rider == nil {
		t.Fatalf("unexpected reply %+v", assigned)
	}
	if assigned.Rider.Name != "Tunde" || assigned.Rider.IsAvailable {
		t.Errorf("unexpected rider %+v", assigned.Rider)
	}
}

func TestHTTP_LegacyValidationMessages(t *testing.T) {
	router := newTestRouter(t, newTestEnv(t))

	w := doJSON(t, router, http.MethodPost, "/api/dispatch-riders/register", map[string]any{"name": "Tunde"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp handler.ErrorResponse
	decode(t, w, &resp)
	if resp.Error != "Missing fields" {
		t.Errorf("unexpected error %q", resp.Error)
	}

	w = doJSON(t, router, http.MethodPost, "/api/dispatch-riders/order", map[string]any{"details": "parcel"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	decode(t, w, &resp)
	if resp.Error != "Missing order details" {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestHTTP_V1OrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addRider("r1", "c1", 6.451, 3.391, true)
	router := newTestRouter(t, env)

	w := doJSON(t, router, http.MethodPost, "/v1/orders", map[string]any{
		"pickup":     map[string]float64{"lat": 6.45, "lng": 3.39},
		"details":    "parcel",
		"company_id": "c1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var placed handler.PlaceOrderResponse
	decode(t, w, &placed)
	if !placed.RiderAssigned || placed.Order.Status != "assigned" || placed.Order.AssignedRiderID != "r1" {
		t.Fatalf("unexpected placement %+v", placed)
	}

	// Putting the busy rider back on shift conflicts.
	w = doJSON(t, router, http.MethodPost, "/v1/riders/r1/availability", map[string]any{"is_available": true})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/v1/orders/"+placed.Order.ID+"/complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var completed handler.OrderResponse
	decode(t, w, &completed)
	if completed.Status != "completed" || completed.ClosedAt == "" {
		t.Errorf("unexpected order %+v", completed)
	}

	w = doJSON(t, router, http.MethodPost, "/v1/orders/"+placed.Order.ID+"/cancel", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 cancelling a completed order, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/riders/r1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var rider handler.RiderResponse
	decode(t, w, &rider)
	if !rider.IsAvailable {
		t.Error("expected rider to be available after completion")
	}
}

func TestHTTP_V1ErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addPendingOrder("o-pending", "c1", 6.45, 3.39)
	router := newTestRouter(t, env)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown order", http.MethodGet, "/v1/orders/missing", nil, http.StatusNotFound},
		{"unknown company", http.MethodGet, "/v1/companies/missing", nil, http.StatusNotFound},
		{"company missing phone", http.MethodPost, "/v1/companies", map[string]any{
			"name": "X", "location": map[string]float64{"lat": 6, "lng": 3}, "formatted_address": "Lagos",
		}, http.StatusBadRequest},
		{"rider for unknown company", http.MethodPost, "/v1/riders", map[string]any{
			"company_id": "ghost", "name": "A", "location": map[string]float64{"lat": 6, "lng": 3}, "formatted_address": "Lagos",
		}, http.StatusNotFound},
		{"order without details", http.MethodPost, "/v1/orders", map[string]any{
			"pickup": map[string]float64{"lat": 6, "lng": 3},
		}, http.StatusBadRequest},
		{"complete pending order", http.MethodPost, "/v1/orders/o-pending/complete", nil, http.StatusConflict},
		{"assign with no riders", http.MethodPost, "/v1/orders/o-pending/assign", nil, http.StatusServiceUnavailable},
		{"availability without flag", http.MethodPost, "/v1/riders/r1/availability", map[string]any{}, http.StatusBadRequest},
		{"nearby without coordinates", http.MethodGet, "/v1/riders/nearby", nil, http.StatusBadRequest},
		{"nearby radius too large", http.MethodGet, "/v1/riders/nearby?lat=6.45&lng=3.39&radius_km=500", nil, http.StatusBadRequest},
		{"nearby radius not a number", http.MethodGet, "/v1/riders/nearby?lat=6.45&lng=3.39&radius_km=NaN", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestHTTP_CompanyScopedListings(t *testing.T) {
	env := newTestEnv(t)
	env.addCompany("c1")
	env.addCompany("c2")
	env.addRider("r1", "c1", 6.451, 3.391, true)
	env.addRider("r2", "c2", 6.451, 3.391, true)
	env.locations.SetLocations([]redis.RiderLocation{
		{RiderID: "r1", Lat: 6.451, Lng: 3.391},
		{RiderID: "r2", Lat: 6.451, Lng: 3.391},
	})
	router := newTestRouter(t, env)

	w := doJSON(t, router, http.MethodGet, "/v1/companies/c1/riders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var riders []handler.RiderResponse
	decode(t, w, &riders)
	if len(riders) != 1 || riders[0].ID != "r1" {
		t.Errorf("unexpected riders %+v", riders)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/companies/missing/riders", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown company, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/riders/nearby?lat=6.45&lng=3.39", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var nearby []handler.NearbyRiderResponse
	decode(t, w, &nearby)
	if len(nearby) != 2 {
		t.Errorf("expected 2 nearby riders, got %d", len(nearby))
	}
}
