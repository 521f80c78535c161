package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"estatenexus/auth"
	"estatenexus/models"
)

const invitationTTL = 7 * 24 * time.Hour

// CompanyStore is the slice of the Postgres store the company service needs.
type CompanyStore interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	CreateCompany(ctx context.Context, c *models.Company, founderID uuid.UUID) error
	ListCompanyMembers(ctx context.Context, companyID uuid.UUID) ([]models.CompanyMember, error)
	GetMembership(ctx context.Context, companyID, userID uuid.UUID) (*models.CompanyMember, error)
	InsertMembership(ctx context.Context, m *models.CompanyMember) error
	UpdateMemberRole(ctx context.Context, memberID uuid.UUID, role models.CompanyRole) (bool, error)
	RemoveMember(ctx context.Context, memberID uuid.UUID) error
	SetProfileCompany(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) error
	InsertInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
	ListCompanyInvitations(ctx context.Context, companyID uuid.UUID) ([]models.Invitation, error)
	SetInvitationStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error
	ExpireInvitations(ctx context.Context, now time.Time) (int64, error)
	InsertActivity(ctx context.Context, ev *models.ActivityEvent) error
}

// CompanyService manages brokerages: registration, the invitation flow, and
// team membership. Capability checks follow the company tier ladder: managers
// run invitations, only admins change roles or remove members.
type CompanyService struct {
	store CompanyStore
}

func NewCompanyService(store CompanyStore) *CompanyService {
	return &CompanyService{store: store}
}

// Register creates a company with the caller as its active admin. Any
// authenticated user can found a company, provided they are not already in
// one.
func (s *CompanyService) Register(ctx context.Context, snap auth.Snapshot, c *models.Company) (*models.Company, error) {
	if !snap.IsAuthenticated() {
		return nil, ErrForbidden
	}
	if snap.Membership != nil && snap.Membership.Status == models.MembershipActive {
		return nil, fmt.Errorf("%w: already a member of a company", ErrValidation)
	}
	if c.Name == "" {
		return nil, fmt.Errorf("%w: company name is required", ErrValidation)
	}

	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	if err := s.store.CreateCompany(ctx, c, snap.Principal.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CompanyService) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	c, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// Members lists the team. Any active member of the company may see it.
func (s *CompanyService) Members(ctx context.Context, snap auth.Snapshot, companyID uuid.UUID) ([]models.CompanyMember, error) {
	if !snap.IsPlatformAdmin() && !snap.SameCompany(companyID.String()) {
		return nil, ErrForbidden
	}
	return s.store.ListCompanyMembers(ctx, companyID)
}

// Invite issues a tokened invitation. Manager tier or above.
func (s *CompanyService) Invite(ctx context.Context, snap auth.Snapshot, companyID uuid.UUID, email string, role models.CompanyRole) (*models.Invitation, error) {
	if !snap.IsCompanyManager() || !snap.SameCompany(companyID.String()) {
		return nil, ErrForbidden
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := models.ParseCompanyRole(string(role)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}
	inv := &models.Invitation{
		ID:        uuid.New(),
		CompanyID: companyID,
		Email:     email,
		Role:      role,
		Token:     token,
		InvitedBy: snap.Principal.ID,
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().UTC().Add(invitationTTL),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertInvitation(ctx, inv); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, models.ActivityInviteSent, snap, companyID,
		fmt.Sprintf("Invited %s as %s", email, role))
	return inv, nil
}

// Invitations lists a company's pending invitations. Manager tier or above.
func (s *CompanyService) Invitations(ctx context.Context, snap auth.Snapshot, companyID uuid.UUID) ([]models.Invitation, error) {
	if !snap.IsCompanyManager() || !snap.SameCompany(companyID.String()) {
		return nil, ErrForbidden
	}
	return s.store.ListCompanyInvitations(ctx, companyID)
}

// RevokeInvite withdraws a pending invitation. Manager tier or above.
func (s *CompanyService) RevokeInvite(ctx context.Context, snap auth.Snapshot, token string) error {
	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound
	}
	if !snap.IsCompanyManager() || !snap.SameCompany(inv.CompanyID.String()) {
		return ErrForbidden
	}
	if inv.Status != models.InvitationPending {
		return fmt.Errorf("%w: invitation is %s", ErrValidation, inv.Status)
	}
	return s.store.SetInvitationStatus(ctx, inv.ID, models.InvitationRevoked)
}

// Accept redeems an invitation token for the calling user. The membership is
// created active and the profile is attached to the company.
func (s *CompanyService) Accept(ctx context.Context, snap auth.Snapshot, token string) (*models.CompanyMember, error) {
	if !snap.IsAuthenticated() {
		return nil, ErrForbidden
	}

	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	if inv.Status != models.InvitationPending {
		return nil, fmt.Errorf("%w: invitation is %s", ErrValidation, inv.Status)
	}
	if time.Now().UTC().After(inv.ExpiresAt) {
		_ = s.store.SetInvitationStatus(ctx, inv.ID, models.InvitationExpired)
		return nil, fmt.Errorf("%w: invitation has expired", ErrValidation)
	}

	existing, err := s.store.GetMembership(ctx, inv.CompanyID, snap.Principal.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == models.MembershipActive {
		return nil, fmt.Errorf("%w: already a member", ErrValidation)
	}

	m := &models.CompanyMember{
		ID:        uuid.New(),
		CompanyID: inv.CompanyID,
		UserID:    snap.Principal.ID,
		Role:      inv.Role,
		Status:    models.MembershipActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertMembership(ctx, m); err != nil {
		return nil, err
	}
	if err := s.store.SetProfileCompany(ctx, snap.Principal.ID, &inv.CompanyID); err != nil {
		return nil, err
	}
	if err := s.store.SetInvitationStatus(ctx, inv.ID, models.InvitationAccepted); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, models.ActivityMemberJoined, snap, inv.CompanyID,
		fmt.Sprintf("%s joined as %s", snap.Principal.Email, inv.Role))
	return m, nil
}

// ChangeRole moves a member to a new tier. Company admin only.
func (s *CompanyService) ChangeRole(ctx context.Context, snap auth.Snapshot, companyID, memberID uuid.UUID, role models.CompanyRole) error {
	if !snap.IsCompanyAdmin() || !snap.SameCompany(companyID.String()) {
		return ErrForbidden
	}
	if _, err := models.ParseCompanyRole(string(role)); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	found, err := s.store.UpdateMemberRole(ctx, memberID, role)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Remove deactivates a membership. Company admin only; admins cannot remove
// themselves so a company always keeps at least one admin.
func (s *CompanyService) Remove(ctx context.Context, snap auth.Snapshot, companyID, memberID uuid.UUID) error {
	if !snap.IsCompanyAdmin() || !snap.SameCompany(companyID.String()) {
		return ErrForbidden
	}
	if snap.Membership != nil && snap.Membership.ID == memberID {
		return fmt.Errorf("%w: cannot remove yourself", ErrValidation)
	}
	if err := s.store.RemoveMember(ctx, memberID); err != nil {
		return err
	}

	s.recordActivity(ctx, models.ActivityMemberRemoved, snap, companyID, "Member removed")
	return nil
}

// ExpireInvitations is the hourly sweep entry point for the scheduler.
func (s *CompanyService) ExpireInvitations(ctx context.Context) (int64, error) {
	return s.store.ExpireInvitations(ctx, time.Now().UTC())
}

func newInviteToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *CompanyService) recordActivity(ctx context.Context, typ models.ActivityType, snap auth.Snapshot, companyID uuid.UUID, msg string) {
	ev := &models.ActivityEvent{
		Type:      typ,
		CompanyID: &companyID,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	if snap.Principal != nil {
		actorID := snap.Principal.ID
		ev.ActorID = &actorID
	}
	if err := s.store.InsertActivity(ctx, ev); err != nil {
		log.Printf("activity record failed: %v", err)
	}
}
