package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"estatenexus/auth"
	"estatenexus/models"
)

func adminSnapshot() auth.Snapshot {
	return auth.Snapshot{Principal: &models.Profile{
		ID:    uuid.New(),
		Email: "admin@example.com",
		Role:  models.RoleAdmin,
	}}
}

type fakeDirectoryStore struct {
	agents []models.Agent
	events []models.ActivityEvent
}

func (f *fakeDirectoryStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	return f.agents, nil
}

func (f *fakeDirectoryStore) GetAgent(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	for i := range f.agents {
		if f.agents[i].ID == id {
			return &f.agents[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDirectoryStore) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return &models.DashboardStats{}, nil
}

func (f *fakeDirectoryStore) ListActivity(ctx context.Context, companyID *uuid.UUID, limit int) ([]models.ActivityEvent, error) {
	var out []models.ActivityEvent
	for _, ev := range f.events {
		if companyID == nil || (ev.CompanyID != nil && *ev.CompanyID == *companyID) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeDirectoryStore) ListActivityByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]models.ActivityEvent, error) {
	var out []models.ActivityEvent
	for _, ev := range f.events {
		if ev.ActorID != nil && *ev.ActorID == actorID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func TestActivityScopesFeedByStanding(t *testing.T) {
	store := &fakeDirectoryStore{}
	svc := NewDirectoryService(store, nil, nil)

	companyID := uuid.New()
	solo := agentSnapshot()
	store.events = []models.ActivityEvent{
		{ID: 1, Type: models.ActivityListingCreated, CompanyID: &companyID, Message: "company listing"},
		{ID: 2, Type: models.ActivityListingCreated, ActorID: &solo.Principal.ID, Message: "solo listing"},
		{ID: 3, Type: models.ActivityMemberJoined, Message: "platform event"},
	}

	admin := adminSnapshot()
	events, err := svc.Activity(context.Background(), admin, 0)
	if err != nil {
		t.Fatalf("admin feed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("admin sees %d events, want all 3", len(events))
	}

	member := memberSnapshot(companyID, models.CompanyRoleAgent, models.MembershipActive)
	events, err = svc.Activity(context.Background(), member, 0)
	if err != nil {
		t.Fatalf("member feed: %v", err)
	}
	if len(events) != 1 || events[0].Message != "company listing" {
		t.Fatalf("member feed = %v, want only company events", events)
	}
}

func TestActivityAgentWithoutCompanyGetsOwnFeed(t *testing.T) {
	store := &fakeDirectoryStore{}
	svc := NewDirectoryService(store, nil, nil)

	solo := agentSnapshot()
	other := uuid.New()
	store.events = []models.ActivityEvent{
		{ID: 1, Type: models.ActivityListingCreated, ActorID: &solo.Principal.ID, Message: "mine"},
		{ID: 2, Type: models.ActivityListingCreated, ActorID: &other, Message: "someone else"},
	}

	events, err := svc.Activity(context.Background(), solo, 0)
	if err != nil {
		t.Fatalf("solo agent feed: %v", err)
	}
	if len(events) != 1 || events[0].Message != "mine" {
		t.Fatalf("solo feed = %v, want only own events", events)
	}

	if _, err := svc.Activity(context.Background(), buyerSnapshot(), 0); !errors.Is(err, ErrForbidden) {
		t.Fatalf("buyer feed: expected ErrForbidden, got %v", err)
	}
}
