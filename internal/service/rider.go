package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/events"
	"dispatch/internal/geo"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

const (
	defaultNearbyRadiusKm = 5.0
	maxNearbyRadiusKm     = 50.0
)

// RiderService handles rider registration, availability and lookup.
type RiderService struct {
	riderRepo     repository.RiderRepository
	orderRepo     repository.OrderRepository
	companies     *CompanyService
	locationStore redis.LocationStoreInterface
	cacheStore    redis.CacheStoreInterface
	geocoder      geo.Geocoder
	notifier      events.Notifier
}

// NewRiderService creates a new RiderService. locationStore, cacheStore,
// geocoder and notifier may be nil.
func NewRiderService(
	riderRepo repository.RiderRepository,
	orderRepo repository.OrderRepository,
	companies *CompanyService,
	locationStore redis.LocationStoreInterface,
	cacheStore redis.CacheStoreInterface,
	geocoder geo.Geocoder,
	notifier events.Notifier,
) *RiderService {
	return &RiderService{
		riderRepo:     riderRepo,
		orderRepo:     orderRepo,
		companies:     companies,
		locationStore: locationStore,
		cacheStore:    cacheStore,
		geocoder:      geocoder,
		notifier:      notifier,
	}
}

// RegisterRiderRequest contains the parameters for registering a rider.
type RegisterRiderRequest struct {
	CompanyID        string
	Name             string
	Location         *domain.GeoPoint // nil geocodes FormattedAddress
	Phone            string           // Optional
	FormattedAddress string
}

// Register stores a new rider under an existing company. New riders are available.
func (s *RiderService) Register(ctx context.Context, req RegisterRiderRequest) (*domain.Rider, error) {
	companyID := strings.TrimSpace(req.CompanyID)
	name := strings.TrimSpace(req.Name)

	if companyID == "" {
		return nil, ErrInvalidCompanyID
	}
	if name == "" {
		return nil, ErrMissingName
	}

	location, address, err := resolveLocation(ctx, s.geocoder, req.Location, req.FormattedAddress)
	if err != nil {
		return nil, err
	}
	if address == "" {
		return nil, ErrMissingAddress
	}

	if _, err := s.companies.Get(ctx, companyID); err != nil {
		return nil, err
	}

	rider := &domain.Rider{
		ID:               uuid.New().String(),
		CompanyID:        companyID,
		Name:             name,
		Location:         location,
		Phone:            strings.TrimSpace(req.Phone),
		FormattedAddress: address,
		IsAvailable:      true,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.riderRepo.Create(ctx, rider); err != nil {
		return nil, err
	}

	syncRiderIndex(ctx, s.locationStore, rider)
	publish(ctx, s.notifier, domain.Event{
		Type:      domain.EventRiderRegistered,
		CompanyID: rider.CompanyID,
		RiderID:   rider.ID,
		Location:  rider.Location,
	})

	return rider, nil
}

// Get retrieves a rider by ID.
func (s *RiderService) Get(ctx context.Context, riderID string) (*domain.Rider, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetRider(ctx, riderID); err == nil && cached != nil {
			return cachedToRider(cached), nil
		}
	}

	rider, err := s.riderRepo.GetByID(ctx, riderID)
	if err != nil {
		return nil, err
	}
	s.cacheRider(ctx, rider)
	return rider, nil
}

// List returns every rider, or the riders of one company when companyID is set.
func (s *RiderService) List(ctx context.Context, companyID string) ([]*domain.Rider, error) {
	if companyID == "" {
		return s.riderRepo.GetAll(ctx)
	}
	return s.riderRepo.GetByCompany(ctx, companyID)
}

// SetAvailability takes a rider on or off shift. A rider holding an
// assigned order cannot be made available until that order closes.
func (s *RiderService) SetAvailability(ctx context.Context, riderID string, available bool) (*domain.Rider, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	if available {
		orders, err := s.orderRepo.GetByRider(ctx, riderID)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			if o.Status == domain.OrderStatusAssigned {
				return nil, ErrRiderHasOpenOrder
			}
		}
	}

	if err := s.riderRepo.UpdateAvailability(ctx, riderID, available); err != nil {
		return nil, err
	}

	s.invalidateRider(ctx, riderID)

	rider, err := s.riderRepo.GetByID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	syncRiderIndex(ctx, s.locationStore, rider)
	publish(ctx, s.notifier, domain.Event{
		Type:      domain.EventRiderAvailability,
		CompanyID: rider.CompanyID,
		RiderID:   rider.ID,
		Location:  rider.Location,
	})

	return rider, nil
}

// NearbyRequest contains the parameters for a nearby-riders search.
type NearbyRequest struct {
	Lat      float64
	Lng      float64
	RadiusKm float64 // Optional: 0 uses default
}

// NearbyRider is an available rider with its distance to the search point.
type NearbyRider struct {
	Rider      *domain.Rider
	DistanceKm float64
}

// Nearby returns available riders within the radius, nearest first. It reads
// the Redis geo index and falls back to scanning available riders when no
// index is configured.
func (s *RiderService) Nearby(ctx context.Context, req NearbyRequest) ([]NearbyRider, error) {
	origin := domain.GeoPoint{Lat: req.Lat, Lng: req.Lng}
	if !origin.Valid() {
		return nil, ErrInvalidLocation
	}

	radiusKm := req.RadiusKm
	if radiusKm == 0 {
		radiusKm = defaultNearbyRadiusKm
	}
	if math.IsNaN(radiusKm) || radiusKm < 0 || radiusKm > maxNearbyRadiusKm {
		return nil, ErrInvalidRadius
	}

	var riders []*domain.Rider
	if s.locationStore != nil {
		found, err := s.lookupIndexed(ctx, origin, radiusKm)
		if err != nil {
			return nil, err
		}
		riders = found
	} else {
		all, err := s.riderRepo.GetAvailable(ctx, "")
		if err != nil {
			return nil, err
		}
		riders = all
	}

	var result []NearbyRider
	for _, c := range geo.RankByDistance(origin, riders) {
		if !c.Rider.IsAvailable || c.DistanceKm > radiusKm {
			continue
		}
		result = append(result, NearbyRider{Rider: c.Rider, DistanceKm: c.DistanceKm})
	}
	return result, nil
}

// lookupIndexed loads riders found in the geo index, from cache first.
func (s *RiderService) lookupIndexed(ctx context.Context, origin domain.GeoPoint, radiusKm float64) ([]*domain.Rider, error) {
	locations, err := s.locationStore.FindNearbyRiders(ctx, origin.Lat, origin.Lng, radiusKm)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, nil
	}

	ids := make([]string, len(locations))
	for i, loc := range locations {
		ids[i] = loc.RiderID
	}

	cached := map[string]*redis.CachedRider{}
	missing := ids
	if s.cacheStore != nil {
		if hits, miss, err := s.cacheStore.GetRidersBatch(ctx, ids); err == nil {
			cached, missing = hits, miss
		}
	}

	fetched := make(map[string]*domain.Rider, len(missing))
	for _, id := range missing {
		rider, err := s.riderRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Stale index entry.
				_ = s.locationStore.RemoveLocation(ctx, id)
				continue
			}
			return nil, err
		}
		fetched[id] = rider
		s.cacheRider(ctx, rider)
	}

	riders := make([]*domain.Rider, 0, len(ids))
	for _, id := range ids {
		if c, ok := cached[id]; ok {
			riders = append(riders, cachedToRider(c))
		} else if r, ok := fetched[id]; ok {
			riders = append(riders, r)
		}
	}
	return riders, nil
}

func (s *RiderService) cacheRider(ctx context.Context, rider *domain.Rider) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.SetRider(ctx, riderToCached(rider))
}

func (s *RiderService) invalidateRider(ctx context.Context, riderID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateRider(ctx, riderID)
}

// syncRiderIndex adds available riders to the geo index and removes the rest.
func syncRiderIndex(ctx context.Context, store redis.LocationStoreInterface, rider *domain.Rider) {
	if store == nil {
		return
	}
	if rider.IsAvailable {
		_ = store.UpdateLocation(ctx, rider.ID, rider.Location.Lat, rider.Location.Lng)
		return
	}
	_ = store.RemoveLocation(ctx, rider.ID)
}

func riderToCached(r *domain.Rider) *redis.CachedRider {
	return &redis.CachedRider{
		ID:               r.ID,
		CompanyID:        r.CompanyID,
		Name:             r.Name,
		Phone:            r.Phone,
		Lat:              r.Location.Lat,
		Lng:              r.Location.Lng,
		FormattedAddress: r.FormattedAddress,
		IsAvailable:      r.IsAvailable,
		CreatedAt:        r.CreatedAt.UnixMilli(),
	}
}

func cachedToRider(c *redis.CachedRider) *domain.Rider {
	return &domain.Rider{
		ID:               c.ID,
		CompanyID:        c.CompanyID,
		Name:             c.Name,
		Location:         domain.GeoPoint{Lat: c.Lat, Lng: c.Lng},
		Phone:            c.Phone,
		FormattedAddress: c.FormattedAddress,
		IsAvailable:      c.IsAvailable,
		CreatedAt:        time.UnixMilli(c.CreatedAt).UTC(),
	}
}
