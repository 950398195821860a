package service

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/geo"
	"dispatch/internal/observability"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

const (
	riderLockTTL = 10 * time.Second
	orderLockTTL = 30 * time.Second // Lock order during matching
)

// AssignmentService matches pending orders to the nearest available rider.
type AssignmentService struct {
	riderRepo     repository.RiderRepository
	assignRepo    repository.AssignmentRepository
	lockStore     redis.LockStoreInterface
	cacheStore    redis.CacheStoreInterface
	locationStore redis.LocationStoreInterface
}

// NewAssignmentService creates a new AssignmentService. lockStore,
// cacheStore and locationStore may be nil.
func NewAssignmentService(
	riderRepo repository.RiderRepository,
	assignRepo repository.AssignmentRepository,
	lockStore redis.LockStoreInterface,
	cacheStore redis.CacheStoreInterface,
	locationStore redis.LocationStoreInterface,
) *AssignmentService {
	return &AssignmentService{
		riderRepo:     riderRepo,
		assignRepo:    assignRepo,
		lockStore:     lockStore,
		cacheStore:    cacheStore,
		locationStore: locationStore,
	}
}

// MatchResult contains the result of a successful match.
type MatchResult struct {
	Order      *domain.Order
	Rider      *domain.Rider
	DistanceKm float64
}

// Match assigns the nearest available rider to a pending order. Candidates
// are the available riders of the order's company, or of every company when
// the order has none. A candidate lost to a concurrent order is skipped and
// the next-nearest is tried.
func (s *AssignmentService) Match(ctx context.Context, order *domain.Order) (result *MatchResult, err error) {
	start := time.Now()
	defer func() {
		observability.AssignmentLatency.Observe(time.Since(start).Seconds())
		switch {
		case err == nil:
			observability.AssignmentsTotal.WithLabelValues(observability.OutcomeAssigned).Inc()
		case errors.Is(err, ErrNoRiderAvailable):
			observability.AssignmentsTotal.WithLabelValues(observability.OutcomeNoRider).Inc()
		default:
			observability.AssignmentsTotal.WithLabelValues(observability.OutcomeError).Inc()
		}
	}()

	if order.Status != domain.OrderStatusPending {
		return nil, ErrOrderNotPending
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireOrderLock(ctx, order.ID, orderLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrOrderBeingMatched
		}
		defer s.lockStore.ReleaseOrderLock(ctx, order.ID)
	}

	riders, err := s.riderRepo.GetAvailable(ctx, order.CompanyID)
	if err != nil {
		return nil, err
	}
	observability.CandidateRiders.Observe(float64(len(riders)))

	for _, candidate := range geo.RankByDistance(order.Pickup, riders) {
		rider := candidate.Rider

		assigned, err := s.claim(ctx, order, rider.ID)
		if err != nil {
			return nil, err
		}
		if !assigned {
			continue
		}

		rider.IsAvailable = false
		s.afterClaim(ctx, rider)

		return &MatchResult{
			Order:      order,
			Rider:      rider,
			DistanceKm: candidate.DistanceKm,
		}, nil
	}

	return nil, ErrNoRiderAvailable
}

// claim runs the conditional assignment for one candidate under its rider
// lock. It reports false when the candidate was taken by another order.
func (s *AssignmentService) claim(ctx context.Context, order *domain.Order, riderID string) (bool, error) {
	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireRiderLock(ctx, riderID, riderLockTTL)
		if err != nil {
			return false, err
		}
		if !locked {
			// Rider is being assigned to another order.
			observability.ClaimConflictsTotal.Inc()
			return false, nil
		}
		defer s.lockStore.ReleaseRiderLock(ctx, riderID)
	}

	err := s.assignRepo.Assign(ctx, order, riderID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrRiderUnavailable):
		observability.ClaimConflictsTotal.Inc()
		s.invalidateRider(ctx, riderID)
		return false, nil
	case errors.Is(err, repository.ErrStatusConflict):
		return false, ErrOrderNotPending
	default:
		return false, err
	}
}

// afterClaim drops the claimed rider from the cache and the geo index.
func (s *AssignmentService) afterClaim(ctx context.Context, rider *domain.Rider) {
	s.invalidateRider(ctx, rider.ID)
	syncRiderIndex(ctx, s.locationStore, rider)
}

func (s *AssignmentService) invalidateRider(ctx context.Context, riderID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateRider(ctx, riderID)
}
