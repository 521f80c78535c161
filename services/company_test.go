package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"estatenexus/auth"
	"estatenexus/models"
)

type fakeCompanyStore struct {
	companies   map[uuid.UUID]*models.Company
	members     map[uuid.UUID]*models.CompanyMember
	invitations map[string]*models.Invitation
	profiles    map[uuid.UUID]*uuid.UUID // user -> company
	activity    []models.ActivityEvent

	updateRoleErr error
}

func newFakeCompanyStore() *fakeCompanyStore {
	return &fakeCompanyStore{
		companies:   make(map[uuid.UUID]*models.Company),
		members:     make(map[uuid.UUID]*models.CompanyMember),
		invitations: make(map[string]*models.Invitation),
		profiles:    make(map[uuid.UUID]*uuid.UUID),
	}
}

func (f *fakeCompanyStore) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (f *fakeCompanyStore) CreateCompany(ctx context.Context, c *models.Company, founderID uuid.UUID) error {
	f.companies[c.ID] = c
	m := &models.CompanyMember{
		ID: uuid.New(), CompanyID: c.ID, UserID: founderID,
		Role: models.CompanyRoleAdmin, Status: models.MembershipActive,
		CreatedAt: c.CreatedAt,
	}
	f.members[m.ID] = m
	companyID := c.ID
	f.profiles[founderID] = &companyID
	return nil
}

func (f *fakeCompanyStore) ListCompanyMembers(ctx context.Context, companyID uuid.UUID) ([]models.CompanyMember, error) {
	var out []models.CompanyMember
	for _, m := range f.members {
		if m.CompanyID == companyID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeCompanyStore) GetMembership(ctx context.Context, companyID, userID uuid.UUID) (*models.CompanyMember, error) {
	for _, m := range f.members {
		if m.CompanyID == companyID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeCompanyStore) InsertMembership(ctx context.Context, m *models.CompanyMember) error {
	cp := *m
	f.members[m.ID] = &cp
	return nil
}

func (f *fakeCompanyStore) UpdateMemberRole(ctx context.Context, memberID uuid.UUID, role models.CompanyRole) (bool, error) {
	if f.updateRoleErr != nil {
		return false, f.updateRoleErr
	}
	m, ok := f.members[memberID]
	if !ok {
		return false, nil
	}
	m.Role = role
	return true, nil
}

func (f *fakeCompanyStore) RemoveMember(ctx context.Context, memberID uuid.UUID) error {
	m, ok := f.members[memberID]
	if !ok {
		return errors.New("no rows")
	}
	m.Status = models.MembershipInactive
	delete(f.profiles, m.UserID)
	return nil
}

func (f *fakeCompanyStore) SetProfileCompany(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) error {
	f.profiles[userID] = companyID
	return nil
}

func (f *fakeCompanyStore) InsertInvitation(ctx context.Context, inv *models.Invitation) error {
	cp := *inv
	f.invitations[inv.Token] = &cp
	return nil
}

func (f *fakeCompanyStore) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	inv, ok := f.invitations[token]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeCompanyStore) ListCompanyInvitations(ctx context.Context, companyID uuid.UUID) ([]models.Invitation, error) {
	var out []models.Invitation
	for _, inv := range f.invitations {
		if inv.CompanyID == companyID && inv.Status == models.InvitationPending {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeCompanyStore) SetInvitationStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error {
	for _, inv := range f.invitations {
		if inv.ID == id {
			inv.Status = status
			return nil
		}
	}
	return errors.New("no rows")
}

func (f *fakeCompanyStore) ExpireInvitations(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, inv := range f.invitations {
		if inv.Status == models.InvitationPending && inv.ExpiresAt.Before(now) {
			inv.Status = models.InvitationExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeCompanyStore) InsertActivity(ctx context.Context, ev *models.ActivityEvent) error {
	f.activity = append(f.activity, *ev)
	return nil
}

func memberSnapshot(companyID uuid.UUID, role models.CompanyRole, status models.MembershipStatus) auth.Snapshot {
	userID := uuid.New()
	return auth.Snapshot{
		Principal: &models.Profile{ID: userID, Email: "member@example.com", Role: models.RoleBuyer},
		Membership: &models.CompanyMember{
			ID: uuid.New(), CompanyID: companyID, UserID: userID,
			Role: role, Status: status,
		},
	}
}

func TestRegisterMakesFounderAdmin(t *testing.T) {
	store := newFakeCompanyStore()
	svc := NewCompanyService(store)
	founder := buyerSnapshot()

	c, err := svc.Register(context.Background(), founder, &models.Company{Name: "Acme Realty"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	m, err := store.GetMembership(context.Background(), c.ID, founder.Principal.ID)
	if err != nil || m == nil {
		t.Fatalf("founder membership missing: %v", err)
	}
	if m.Role != models.CompanyRoleAdmin || m.Status != models.MembershipActive {
		t.Fatalf("founder should be active admin, got %s/%s", m.Role, m.Status)
	}
}

func TestRegisterRejectsExistingMember(t *testing.T) {
	svc := NewCompanyService(newFakeCompanyStore())
	snap := memberSnapshot(uuid.New(), models.CompanyRoleAgent, models.MembershipActive)

	_, err := svc.Register(context.Background(), snap, &models.Company{Name: "Second Co"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestInviteRequiresManagerTier(t *testing.T) {
	store := newFakeCompanyStore()
	svc := NewCompanyService(store)
	companyID := uuid.New()

	agent := memberSnapshot(companyID, models.CompanyRoleAgent, models.MembershipActive)
	if _, err := svc.Invite(context.Background(), agent, companyID, "x@y.com", models.CompanyRoleAgent); !errors.Is(err, ErrForbidden) {
		t.Fatalf("agent invite: expected ErrForbidden, got %v", err)
	}

	manager := memberSnapshot(companyID, models.CompanyRoleManager, models.MembershipActive)
	inv, err := svc.Invite(context.Background(), manager, companyID, "x@y.com", models.CompanyRoleAgent)
	if err != nil {
		t.Fatalf("manager invite: %v", err)
	}
	if inv.Token == "" || inv.Status != models.InvitationPending {
		t.Fatalf("bad invitation: %+v", inv)
	}
	if until := time.Until(inv.ExpiresAt); until < 6*24*time.Hour || until > 8*24*time.Hour {
		t.Fatalf("expiry should be about a week out, got %v", until)
	}
}

func TestInviteDeniedForInactiveManager(t *testing.T) {
	svc := NewCompanyService(newFakeCompanyStore())
	companyID := uuid.New()
	inactive := memberSnapshot(companyID, models.CompanyRoleManager, models.MembershipInactive)
	if _, err := svc.Invite(context.Background(), inactive, companyID, "x@y.com", models.CompanyRoleAgent); !errors.Is(err, ErrForbidden) {
		t.Fatalf("inactive manager invite: expected ErrForbidden, got %v", err)
	}
}

func TestInviteDeniedAcrossCompanies(t *testing.T) {
	svc := NewCompanyService(newFakeCompanyStore())
	manager := memberSnapshot(uuid.New(), models.CompanyRoleManager, models.MembershipActive)
	if _, err := svc.Invite(context.Background(), manager, uuid.New(), "x@y.com", models.CompanyRoleAgent); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-company invite: expected ErrForbidden, got %v", err)
	}
}

func TestAcceptInvitation(t *testing.T) {
	store := newFakeCompanyStore()
	svc := NewCompanyService(store)
	companyID := uuid.New()

	manager := memberSnapshot(companyID, models.CompanyRoleManager, models.MembershipActive)
	inv, err := svc.Invite(context.Background(), manager, companyID, "new@x.com", models.CompanyRoleEmployee)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	joiner := buyerSnapshot()
	m, err := svc.Accept(context.Background(), joiner, inv.Token)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if m.Role != models.CompanyRoleEmployee || m.Status != models.MembershipActive {
		t.Fatalf("expected active employee membership, got %s/%s", m.Role, m.Status)
	}
	if got, _ := store.GetInvitationByToken(context.Background(), inv.Token); got.Status != models.InvitationAccepted {
		t.Fatalf("invitation should be accepted, got %s", got.Status)
	}
	if cid := store.profiles[joiner.Principal.ID]; cid == nil || *cid != companyID {
		t.Fatalf("profile not attached to company")
	}

	// A second redemption fails.
	if _, err := svc.Accept(context.Background(), buyerSnapshot(), inv.Token); !errors.Is(err, ErrValidation) {
		t.Fatalf("reuse: expected ErrValidation, got %v", err)
	}
}

func TestAcceptExpiredInvitation(t *testing.T) {
	store := newFakeCompanyStore()
	svc := NewCompanyService(store)
	companyID := uuid.New()

	manager := memberSnapshot(companyID, models.CompanyRoleManager, models.MembershipActive)
	inv, err := svc.Invite(context.Background(), manager, companyID, "late@x.com", models.CompanyRoleAgent)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	store.invitations[inv.Token].ExpiresAt = time.Now().Add(-time.Hour)

	if _, err := svc.Accept(context.Background(), buyerSnapshot(), inv.Token); !errors.Is(err, ErrValidation) {
		t.Fatalf("expired accept: expected ErrValidation, got %v", err)
	}
	if got, _ := store.GetInvitationByToken(context.Background(), inv.Token); got.Status != models.InvitationExpired {
		t.Fatalf("invitation should be marked expired, got %s", got.Status)
	}
}

func TestChangeRoleAndRemoveAreAdminOnly(t *testing.T) {
	store := newFakeCompanyStore()
	svc := NewCompanyService(store)
	companyID := uuid.New()

	target := &models.CompanyMember{
		ID: uuid.New(), CompanyID: companyID, UserID: uuid.New(),
		Role: models.CompanyRoleAgent, Status: models.MembershipActive,
	}
	store.members[target.ID] = target

	manager := memberSnapshot(companyID, models.CompanyRoleManager, models.MembershipActive)
	if err := svc.ChangeRole(context.Background(), manager, companyID, target.ID, models.CompanyRoleManager); !errors.Is(err, ErrForbidden) {
		t.Fatalf("manager change-role: expected ErrForbidden, got %v", err)
	}
	if err := svc.Remove(context.Background(), manager, companyID, target.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("manager remove: expected ErrForbidden, got %v", err)
	}

	admin := memberSnapshot(companyID, models.CompanyRoleAdmin, models.MembershipActive)
	if err := svc.ChangeRole(context.Background(), admin, companyID, target.ID, models.CompanyRoleManager); err != nil {
		t.Fatalf("admin change-role: %v", err)
	}
	if target.Role != models.CompanyRoleManager {
		t.Fatalf("role not changed: %s", target.Role)
	}
	if err := svc.Remove(context.Background(), admin, companyID, target.ID); err != nil {
		t.Fatalf("admin remove: %v", err)
	}
	if target.Status != models.MembershipInactive {
		t.Fatalf("member should be inactive, got %s", target.Status)
	}
}

func TestChangeRoleDistinguishesStoreFailureFromMissingMember(t *testing.T) {
	store := newFakeCompanyStore()
	svc := NewCompanyService(store)
	companyID := uuid.New()
	admin := memberSnapshot(companyID, models.CompanyRoleAdmin, models.MembershipActive)

	if err := svc.ChangeRole(context.Background(), admin, companyID, uuid.New(), models.CompanyRoleManager); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing member: expected ErrNotFound, got %v", err)
	}

	store.updateRoleErr = errors.New("connection refused")
	err := svc.ChangeRole(context.Background(), admin, companyID, uuid.New(), models.CompanyRoleManager)
	if err == nil {
		t.Fatal("expected store error to propagate")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("store failure reported as not-found: %v", err)
	}
}

func TestAdminCannotRemoveSelf(t *testing.T) {
	store := newFakeCompanyStore()
	svc := NewCompanyService(store)
	companyID := uuid.New()

	admin := memberSnapshot(companyID, models.CompanyRoleAdmin, models.MembershipActive)
	store.members[admin.Membership.ID] = admin.Membership

	if err := svc.Remove(context.Background(), admin, companyID, admin.Membership.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("self-remove: expected ErrValidation, got %v", err)
	}
}

func TestExpireInvitationsSweep(t *testing.T) {
	store := newFakeCompanyStore()
	svc := NewCompanyService(store)
	companyID := uuid.New()
	manager := memberSnapshot(companyID, models.CompanyRoleManager, models.MembershipActive)

	fresh, _ := svc.Invite(context.Background(), manager, companyID, "a@x.com", models.CompanyRoleAgent)
	stale, _ := svc.Invite(context.Background(), manager, companyID, "b@x.com", models.CompanyRoleAgent)
	store.invitations[stale.Token].ExpiresAt = time.Now().Add(-time.Hour)

	n, err := svc.ExpireInvitations(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}
	if got, _ := store.GetInvitationByToken(context.Background(), fresh.Token); got.Status != models.InvitationPending {
		t.Fatalf("fresh invitation should stay pending")
	}
}
