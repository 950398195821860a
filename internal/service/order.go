package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/events"
	"dispatch/internal/geo"
	"dispatch/internal/observability"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// MatchingServiceInterface defines the matching service contract.
// This interface allows for testing with mock implementations.
type MatchingServiceInterface interface {
	Match(ctx context.Context, order *domain.Order) (*MatchResult, error)
}

// Ensure AssignmentService implements MatchingServiceInterface.
var _ MatchingServiceInterface = (*AssignmentService)(nil)

// OrderService handles the order lifecycle.
type OrderService struct {
	orderRepo     repository.OrderRepository
	riderRepo     repository.RiderRepository
	assignRepo    repository.AssignmentRepository
	matcher       MatchingServiceInterface
	companies     *CompanyService
	locationStore redis.LocationStoreInterface
	cacheStore    redis.CacheStoreInterface
	geocoder      geo.Geocoder
	notifier      events.Notifier
}

// OrderServiceDeps holds the collaborators of an OrderService. The Redis
// stores, geocoder and notifier are optional.
type OrderServiceDeps struct {
	OrderRepo     repository.OrderRepository
	RiderRepo     repository.RiderRepository
	AssignRepo    repository.AssignmentRepository
	Matcher       MatchingServiceInterface
	Companies     *CompanyService
	LocationStore redis.LocationStoreInterface
	CacheStore    redis.CacheStoreInterface
	Geocoder      geo.Geocoder
	Notifier      events.Notifier
}

// NewOrderService creates a new OrderService.
func NewOrderService(deps OrderServiceDeps) *OrderService {
	return &OrderService{
		orderRepo:     deps.OrderRepo,
		riderRepo:     deps.RiderRepo,
		assignRepo:    deps.AssignRepo,
		matcher:       deps.Matcher,
		companies:     deps.Companies,
		locationStore: deps.LocationStore,
		cacheStore:    deps.CacheStore,
		geocoder:      deps.Geocoder,
		notifier:      deps.Notifier,
	}
}

// PlaceOrderRequest contains the parameters for placing an order.
type PlaceOrderRequest struct {
	CustomerName     string
	CustomerPhone    string
	Pickup           *domain.GeoPoint // nil geocodes FormattedAddress
	Details          string
	FormattedAddress string
	CompanyID        string // Optional: empty matches riders of every company
}

// PlaceOrderResponse contains the result of placing an order.
type PlaceOrderResponse struct {
	Order         *domain.Order
	RiderAssigned bool
	Rider         *domain.Rider
	DistanceKm    float64
}

// Place stores a new pending order and matches it synchronously. When no
// rider is available the order stays pending and RiderAssigned is false.
func (s *OrderService) Place(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	details := strings.TrimSpace(req.Details)
	if details == "" {
		return nil, ErrMissingDetails
	}

	pickup, address, err := resolveLocation(ctx, s.geocoder, req.Pickup, req.FormattedAddress)
	if err != nil {
		return nil, err
	}

	companyID := strings.TrimSpace(req.CompanyID)
	if companyID != "" {
		if _, err := s.companies.Get(ctx, companyID); err != nil {
			return nil, err
		}
	}

	order := &domain.Order{
		ID:               uuid.New().String(),
		CustomerName:     strings.TrimSpace(req.CustomerName),
		CustomerPhone:    strings.TrimSpace(req.CustomerPhone),
		Pickup:           pickup,
		Details:          details,
		CompanyID:        companyID,
		Status:           domain.OrderStatusPending,
		FormattedAddress: address,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	observability.OrdersTotal.WithLabelValues(string(domain.OrderStatusPending)).Inc()
	publish(ctx, s.notifier, domain.Event{
		Type:      domain.EventOrderPlaced,
		CompanyID: order.CompanyID,
		OrderID:   order.ID,
		Location:  order.Pickup,
	})

	return s.match(ctx, order)
}

// Assign retries matching for a pending order.
func (s *OrderService) Assign(ctx context.Context, orderID string) (*PlaceOrderResponse, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, ErrOrderNotPending
	}

	resp, err := s.match(ctx, order)
	if err != nil {
		return nil, err
	}
	if !resp.RiderAssigned {
		return nil, ErrNoRiderAvailable
	}
	return resp, nil
}

// Complete closes an assigned order and puts its rider back on shift.
func (s *OrderService) Complete(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusAssigned {
		return nil, ErrOrderNotAssigned
	}

	if err := s.assignRepo.Release(ctx, order, domain.OrderStatusCompleted); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrOrderNotAssigned
		}
		return nil, err
	}

	s.afterRelease(ctx, order, domain.EventOrderCompleted)
	return order, nil
}

// Cancel closes a pending or assigned order, releasing its rider if any.
func (s *OrderService) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Open() {
		return nil, ErrOrderClosed
	}

	if err := s.assignRepo.Release(ctx, order, domain.OrderStatusCancelled); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrOrderClosed
		}
		return nil, err
	}

	s.afterRelease(ctx, order, domain.EventOrderCancelled)
	return order, nil
}

// Get retrieves an order by ID.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	return s.orderRepo.GetByID(ctx, orderID)
}

// List returns every order, or the orders of one company when companyID is set.
func (s *OrderService) List(ctx context.Context, companyID string) ([]*domain.Order, error) {
	if companyID == "" {
		return s.orderRepo.GetAll(ctx)
	}
	return s.orderRepo.GetByCompany(ctx, companyID)
}

func (s *OrderService) match(ctx context.Context, order *domain.Order) (*PlaceOrderResponse, error) {
	result, err := s.matcher.Match(ctx, order)
	if err != nil {
		if errors.Is(err, ErrNoRiderAvailable) {
			return &PlaceOrderResponse{Order: order, RiderAssigned: false}, nil
		}
		return nil, err
	}

	observability.OrdersTotal.WithLabelValues(string(domain.OrderStatusAssigned)).Inc()
	publish(ctx, s.notifier, domain.Event{
		Type:      domain.EventOrderAssigned,
		CompanyID: result.Order.CompanyID,
		OrderID:   result.Order.ID,
		RiderID:   result.Rider.ID,
		Location:  result.Rider.Location,
	})

	return &PlaceOrderResponse{
		Order:         result.Order,
		RiderAssigned: true,
		Rider:         result.Rider,
		DistanceKm:    result.DistanceKm,
	}, nil
}

// afterRelease refreshes the released rider's cache and index entries and
// publishes the closing event.
func (s *OrderService) afterRelease(ctx context.Context, order *domain.Order, eventType domain.EventType) {
	observability.OrdersTotal.WithLabelValues(string(order.Status)).Inc()

	if order.AssignedRiderID != "" {
		if s.cacheStore != nil {
			_ = s.cacheStore.InvalidateRider(ctx, order.AssignedRiderID)
		}
		if rider, err := s.riderRepo.GetByID(ctx, order.AssignedRiderID); err == nil {
			syncRiderIndex(ctx, s.locationStore, rider)
		}
	}

	publish(ctx, s.notifier, domain.Event{
		Type:      eventType,
		CompanyID: order.CompanyID,
		OrderID:   order.ID,
		RiderID:   order.AssignedRiderID,
		Location:  order.Pickup,
	})
}
