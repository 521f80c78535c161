package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"estatenexus/auth"
	"estatenexus/identity"
	"estatenexus/models"
	"estatenexus/search"
	"estatenexus/storage"
)

const cacheKeyProperties = "properties:all"

// ListingStore is the slice of the Postgres store the listing service needs.
type ListingStore interface {
	ListProperties(ctx context.Context) ([]models.Property, error)
	GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	GetPropertyByFingerprint(ctx context.Context, fingerprint string) (*models.Property, error)
	InsertProperty(ctx context.Context, p *models.Property, fingerprint string) error
	UpdateProperty(ctx context.Context, id uuid.UUID, p *models.Property) (*models.Property, error)
	DeleteProperty(ctx context.Context, id uuid.UUID) error
	InsertActivity(ctx context.Context, ev *models.ActivityEvent) error
}

// ListingService owns the listing lifecycle: faceted reads, creation with
// dedup, and permission-checked mutation.
type ListingService struct {
	store ListingStore
	cache *storage.Cache
}

func NewListingService(store ListingStore, cache *storage.Cache) *ListingService {
	return &ListingService{store: store, cache: cache}
}

// SearchResult is one page of filtered, sorted listings.
type SearchResult struct {
	Properties []models.Property `json:"properties"`
	Total      int               `json:"total"`
	TotalPages int               `json:"total_pages"`
	Page       int               `json:"page"`
}

// Search runs the facet pipeline over the full listing set: filter, sort,
// paginate. The bulk read is cached; everything after it is pure.
func (s *ListingService) Search(ctx context.Context, filters search.PropertyFilters, sortKey search.SortKey, pageSize, pageIndex int) (*SearchResult, error) {
	all, err := s.allProperties(ctx)
	if err != nil {
		return nil, err
	}

	matched := search.FilterProperties(all, filters)
	sorted := search.SortProperties(matched, sortKey)
	page, totalPages := search.Paginate(sorted, pageSize, pageIndex)

	return &SearchResult{
		Properties: page,
		Total:      len(sorted),
		TotalPages: totalPages,
		Page:       pageIndex,
	}, nil
}

func (s *ListingService) allProperties(ctx context.Context) ([]models.Property, error) {
	var all []models.Property
	if s.cache.Get(ctx, cacheKeyProperties, &all) {
		return all, nil
	}
	all, err := s.store.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	s.cache.Set(ctx, cacheKeyProperties, all)
	return all, nil
}

func (s *ListingService) Get(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// Create publishes a new listing. Requires agent capability, a minimally
// complete listing, and no existing listing at the same address.
func (s *ListingService) Create(ctx context.Context, snap auth.Snapshot, p *models.Property) (*models.Property, error) {
	if !snap.IsPlatformAgent() {
		return nil, ErrForbidden
	}
	if err := validateListing(p); err != nil {
		return nil, err
	}

	fp := identity.Fingerprint(p.Location, p.Type)
	existing, err := s.store.GetPropertyByFingerprint(ctx, fp)
	if err != nil {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, existing.ID)
	}

	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	p.Available = true
	principalID := snap.Principal.ID
	p.AgentID = &principalID
	if snap.Membership != nil && snap.Membership.Status == models.MembershipActive {
		companyID := snap.Membership.CompanyID
		p.CompanyID = &companyID
	}

	if err := s.store.InsertProperty(ctx, p, fp); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, models.ActivityListingCreated, snap, p,
		fmt.Sprintf("Listed %q at $%.0f", p.Title, p.Price))
	s.cache.Delete(ctx, cacheKeyProperties)
	return p, nil
}

// Update rewrites a listing's mutable fields. Allowed for the listing owner,
// a manager of the listing's company, or a platform admin.
func (s *ListingService) Update(ctx context.Context, snap auth.Snapshot, id uuid.UUID, p *models.Property) (*models.Property, error) {
	existing, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if !canManageListing(snap, existing) {
		return nil, ErrForbidden
	}
	if err := validateListing(p); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateProperty(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	s.recordActivity(ctx, models.ActivityListingUpdated, snap, updated,
		fmt.Sprintf("Updated %q", updated.Title))
	s.cache.Delete(ctx, cacheKeyProperties)
	return updated, nil
}

func (s *ListingService) Delete(ctx context.Context, snap auth.Snapshot, id uuid.UUID) error {
	existing, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if !canManageListing(snap, existing) {
		return ErrForbidden
	}

	if err := s.store.DeleteProperty(ctx, id); err != nil {
		return err
	}

	s.recordActivity(ctx, models.ActivityListingDeleted, snap, existing,
		fmt.Sprintf("Removed %q", existing.Title))
	s.cache.Delete(ctx, cacheKeyProperties)
	return nil
}

// canManageListing is the mutation rule: own listing, manager of the
// listing's company, or platform admin. Plain company agents cannot touch
// colleagues' listings.
func canManageListing(snap auth.Snapshot, p *models.Property) bool {
	if snap.IsPlatformAdmin() {
		return true
	}
	if snap.Principal != nil && p.AgentID != nil && *p.AgentID == snap.Principal.ID {
		return true
	}
	if p.CompanyID != nil && snap.IsCompanyManager() && snap.SameCompany(p.CompanyID.String()) {
		return true
	}
	return false
}

func validateListing(p *models.Property) error {
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if _, err := models.ParsePropertyType(string(p.Type)); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if p.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if p.Beds < 0 || p.Baths < 0 || p.Area < 0 {
		return fmt.Errorf("%w: beds, baths and area cannot be negative", ErrValidation)
	}
	if len(p.Images) == 0 {
		return fmt.Errorf("%w: at least one image is required", ErrValidation)
	}
	if p.Location.Address == "" || p.Location.City == "" {
		return fmt.Errorf("%w: address and city are required", ErrValidation)
	}
	return nil
}

func (s *ListingService) recordActivity(ctx context.Context, typ models.ActivityType, snap auth.Snapshot, p *models.Property, msg string) {
	ev := &models.ActivityEvent{
		Type:       typ,
		PropertyID: &p.ID,
		CompanyID:  p.CompanyID,
		Message:    msg,
		CreatedAt:  time.Now().UTC(),
	}
	if snap.Principal != nil {
		actorID := snap.Principal.ID
		ev.ActorID = &actorID
	}
	if err := s.store.InsertActivity(ctx, ev); err != nil {
		log.Printf("activity record failed: %v", err)
	}
}
