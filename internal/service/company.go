package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/events"
	"dispatch/internal/geo"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// CompanyService handles company registration and lookup.
type CompanyService struct {
	companyRepo repository.CompanyRepository
	cacheStore  redis.CacheStoreInterface
	geocoder    geo.Geocoder
	notifier    events.Notifier
}

// NewCompanyService creates a new CompanyService. cacheStore, geocoder and
// notifier may be nil.
func NewCompanyService(
	companyRepo repository.CompanyRepository,
	cacheStore redis.CacheStoreInterface,
	geocoder geo.Geocoder,
	notifier events.Notifier,
) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
		cacheStore:  cacheStore,
		geocoder:    geocoder,
		notifier:    notifier,
	}
}

// RegisterCompanyRequest contains the parameters for registering a company.
type RegisterCompanyRequest struct {
	Name             string
	Location         *domain.GeoPoint // nil geocodes FormattedAddress
	Phone            string
	Email            string // Optional
	FormattedAddress string
}

// Register validates and stores a new company.
func (s *CompanyService) Register(ctx context.Context, req RegisterCompanyRequest) (*domain.Company, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	email := strings.TrimSpace(req.Email)

	if name == "" {
		return nil, ErrMissingName
	}
	if phone == "" {
		return nil, ErrMissingPhone
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidEmail
		}
	}

	location, address, err := resolveLocation(ctx, s.geocoder, req.Location, req.FormattedAddress)
	if err != nil {
		return nil, err
	}
	if address == "" {
		return nil, ErrMissingAddress
	}

	company := &domain.Company{
		ID:               uuid.New().String(),
		Name:             name,
		Location:         location,
		Phone:            phone,
		Email:            email,
		FormattedAddress: address,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}

	s.cacheCompany(ctx, company)
	publish(ctx, s.notifier, domain.Event{
		Type:      domain.EventCompanyRegistered,
		CompanyID: company.ID,
		Location:  company.Location,
	})

	return company, nil
}

// Get retrieves a company, reading through the cache.
func (s *CompanyService) Get(ctx context.Context, companyID string) (*domain.Company, error) {
	if companyID == "" {
		return nil, ErrInvalidCompanyID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetCompany(ctx, companyID); err == nil && cached != nil {
			return cachedToCompany(cached), nil
		}
	}

	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	s.cacheCompany(ctx, company)
	return company, nil
}

// List returns all companies, newest first.
func (s *CompanyService) List(ctx context.Context) ([]*domain.Company, error) {
	return s.companyRepo.GetAll(ctx)
}

func (s *CompanyService) cacheCompany(ctx context.Context, c *domain.Company) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.SetCompany(ctx, &redis.CachedCompany{
		ID:               c.ID,
		Name:             c.Name,
		Phone:            c.Phone,
		Email:            c.Email,
		Lat:              c.Location.Lat,
		Lng:              c.Location.Lng,
		FormattedAddress: c.FormattedAddress,
		CreatedAt:        c.CreatedAt.UnixMilli(),
	})
}

func cachedToCompany(c *redis.CachedCompany) *domain.Company {
	return &domain.Company{
		ID:               c.ID,
		Name:             c.Name,
		Location:         domain.GeoPoint{Lat: c.Lat, Lng: c.Lng},
		Phone:            c.Phone,
		Email:            c.Email,
		FormattedAddress: c.FormattedAddress,
		CreatedAt:        time.UnixMilli(c.CreatedAt).UTC(),
	}
}
