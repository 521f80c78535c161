package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"estatenexus/auth"
	"estatenexus/models"
	"estatenexus/search"
	"estatenexus/storage"
)

const (
	cacheKeyAgents = "agents:all"
	cacheKeyStats  = "dashboard:stats"
)

// DirectoryStore is the slice of the Postgres store the directory needs.
type DirectoryStore interface {
	ListAgents(ctx context.Context) ([]models.Agent, error)
	GetAgent(ctx context.Context, id uuid.UUID) (*models.Agent, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	ListActivity(ctx context.Context, companyID *uuid.UUID, limit int) ([]models.ActivityEvent, error)
	ListActivityByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]models.ActivityEvent, error)
}

// MessageQueue is where buyer inquiries wait for delivery.
type MessageQueue interface {
	EnqueueContactMessage(m *models.ContactMessage) error
}

// DirectoryService serves the agent directory, the dashboard, and buyer
// contact requests.
type DirectoryService struct {
	store DirectoryStore
	queue MessageQueue
	cache *storage.Cache
}

func NewDirectoryService(store DirectoryStore, queue MessageQueue, cache *storage.Cache) *DirectoryService {
	return &DirectoryService{store: store, queue: queue, cache: cache}
}

// AgentResult is one page of filtered, sorted agents.
type AgentResult struct {
	Agents     []models.Agent `json:"agents"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
	Page       int            `json:"page"`
}

// SearchAgents runs the directory facet pipeline over the cached agent set.
func (s *DirectoryService) SearchAgents(ctx context.Context, filters search.AgentFilters, sortKey search.SortKey, pageSize, pageIndex int) (*AgentResult, error) {
	var all []models.Agent
	if !s.cache.Get(ctx, cacheKeyAgents, &all) {
		var err error
		all, err = s.store.ListAgents(ctx)
		if err != nil {
			return nil, fmt.Errorf("load agents: %w", err)
		}
		s.cache.Set(ctx, cacheKeyAgents, all)
	}

	matched := search.FilterAgents(all, filters)
	sorted := search.SortAgents(matched, sortKey)
	page, totalPages := search.Paginate(sorted, pageSize, pageIndex)

	return &AgentResult{
		Agents:     page,
		Total:      len(sorted),
		TotalPages: totalPages,
		Page:       pageIndex,
	}, nil
}

func (s *DirectoryService) GetAgent(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	a, err := s.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// Contact queues a buyer inquiry for an agent. No authentication required,
// buyers are anonymous by default.
func (s *DirectoryService) Contact(ctx context.Context, m *models.ContactMessage) error {
	if m.AgentID == uuid.Nil {
		return fmt.Errorf("%w: agent is required", ErrValidation)
	}
	if m.Name == "" || m.Email == "" || m.Body == "" {
		return fmt.Errorf("%w: name, email and message are required", ErrValidation)
	}
	m.CreatedAt = time.Now().UTC()
	return s.queue.EnqueueContactMessage(m)
}

// Stats returns the dashboard counters. Agent capability required, the feed
// exposes marketplace-wide numbers.
func (s *DirectoryService) Stats(ctx context.Context, snap auth.Snapshot) (*models.DashboardStats, error) {
	if !snap.IsPlatformAgent() {
		return nil, ErrForbidden
	}
	var st models.DashboardStats
	if s.cache.Get(ctx, cacheKeyStats, &st) {
		return &st, nil
	}
	fresh, err := s.store.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKeyStats, fresh)
	return fresh, nil
}

// Activity returns the recent event feed. Platform admins see everything,
// company members see their company's events, and agents without a company
// see the events they produced themselves.
func (s *DirectoryService) Activity(ctx context.Context, snap auth.Snapshot, limit int) ([]models.ActivityEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if snap.IsPlatformAdmin() {
		return s.store.ListActivity(ctx, nil, limit)
	}
	if snap.Membership != nil && snap.Membership.Status == models.MembershipActive {
		companyID := snap.Membership.CompanyID
		return s.store.ListActivity(ctx, &companyID, limit)
	}
	if snap.IsPlatformAgent() && snap.Principal != nil {
		return s.store.ListActivityByActor(ctx, snap.Principal.ID, limit)
	}
	return nil, ErrForbidden
}

// RefreshStats recomputes and caches the dashboard counters. Called by the
// stats worker on its cron schedule.
func (s *DirectoryService) RefreshStats(ctx context.Context) error {
	fresh, err := s.store.DashboardStats(ctx)
	if err != nil {
		return err
	}
	s.cache.Set(ctx, cacheKeyStats, fresh)
	s.cache.Delete(ctx, cacheKeyAgents)
	return nil
}
