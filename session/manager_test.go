package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"estatenexus/models"
)

type fakeAuth struct {
	mu       sync.Mutex
	users    map[string]Identity // email -> identity
	failAll  bool
	signOuts int
	resumeWait chan struct{} // when set, Resume blocks until closed
}

func (f *fakeAuth) SignIn(_ context.Context, email, _ string) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return Identity{}, errors.New("auth unavailable")
	}
	id, ok := f.users[email]
	if !ok {
		return Identity{}, errors.New("invalid credentials")
	}
	return id, nil
}

func (f *fakeAuth) SignUp(_ context.Context, email, _, _ string) (Identity, error) {
	return Identity{Email: email}, nil
}

func (f *fakeAuth) SignOut(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("auth unavailable")
	}
	f.signOuts++
	return nil
}

func (f *fakeAuth) Resume(_ context.Context, token string) (Identity, error) {
	if f.resumeWait != nil {
		<-f.resumeWait
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return Identity{}, errors.New("auth unavailable")
	}
	for _, id := range f.users {
		if id.AccessToken == token {
			return id, nil
		}
	}
	return Identity{}, errors.New("unknown token")
}

type fakeIdentitySource struct {
	profiles    map[uuid.UUID]*models.Profile
	memberships map[uuid.UUID]*models.CompanyMember
	profileErr  error
}

func (f *fakeIdentitySource) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profiles[id], nil
}

func (f *fakeIdentitySource) GetActiveMembership(_ context.Context, userID uuid.UUID) (*models.CompanyMember, error) {
	return f.memberships[userID], nil
}

func waitForPhase(t *testing.T, ch <-chan State, want Phase) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				t.Fatalf("subscription closed before reaching %s", want)
			}
			if st.Phase == want {
				return st
			}
		case <-deadline:
			t.Fatalf("timed out waiting for phase %s", want)
		}
	}
}

func testFixture() (*fakeAuth, *fakeIdentitySource, Identity) {
	userID := uuid.New()
	companyID := uuid.New()
	id := Identity{UserID: userID, Email: "agent@example.com", AccessToken: "tok-1"}

	authn := &fakeAuth{users: map[string]Identity{"agent@example.com": id}}
	ids := &fakeIdentitySource{
		profiles: map[uuid.UUID]*models.Profile{
			userID: {ID: userID, Email: "agent@example.com", Role: models.RoleBuyer, CompanyID: &companyID},
		},
		memberships: map[uuid.UUID]*models.CompanyMember{
			userID: {CompanyID: companyID, UserID: userID, Role: models.CompanyRoleAgent, Status: models.MembershipActive},
		},
	}
	return authn, ids, id
}

func TestManager_StartWithoutTokenResolvesSignedOut(t *testing.T) {
	authn, ids, _ := testFixture()
	m := NewManager(authn, ids)
	defer m.Close()

	ch, cancel := m.Subscribe()
	defer cancel()

	if st := m.State(); st.Phase != PhaseResolving {
		t.Fatalf("initial phase must be resolving, got %s", st.Phase)
	}

	m.Start(context.Background(), "")
	st := waitForPhase(t, ch, PhaseSignedOut)
	if st.Snapshot.IsAuthenticated() {
		t.Fatal("signed-out state must carry no principal")
	}
}

func TestManager_SignInPublishesAtomicSnapshot(t *testing.T) {
	authn, ids, _ := testFixture()
	m := NewManager(authn, ids)
	defer m.Close()

	ch, cancel := m.Subscribe()
	defer cancel()
	m.Start(context.Background(), "")
	waitForPhase(t, ch, PhaseSignedOut)

	if err := m.SignIn(context.Background(), "agent@example.com", "pw"); err != nil {
		t.Fatalf("sign in failed: %v", err)
	}

	st := waitForPhase(t, ch, PhaseSignedIn)
	if st.Snapshot.Principal == nil {
		t.Fatal("signed-in state must carry a principal")
	}
	// Role data must arrive in the same transition as the principal.
	if !st.Snapshot.IsPlatformAgent() {
		t.Fatal("membership must be resolved within the sign-in transition")
	}
	if m.Token() != "tok-1" {
		t.Fatalf("token not retained, got %q", m.Token())
	}
}

func TestManager_ResumeFailureFailsClosed(t *testing.T) {
	authn, ids, _ := testFixture()
	authn.failAll = true
	m := NewManager(authn, ids)
	defer m.Close()

	ch, cancel := m.Subscribe()
	defer cancel()
	m.Start(context.Background(), "tok-1")

	st := waitForPhase(t, ch, PhaseSignedOut)
	if st.Snapshot.IsAuthenticated() {
		t.Fatal("auth failure must resolve to signed out")
	}
}

func TestManager_ProfileFetchFailureDegradesToLeastPrivilege(t *testing.T) {
	authn, ids, _ := testFixture()
	ids.profileErr = errors.New("database down")
	m := NewManager(authn, ids)
	defer m.Close()

	if err := m.SignIn(context.Background(), "agent@example.com", "pw"); err != nil {
		t.Fatalf("sign in failed: %v", err)
	}

	st := m.State()
	if st.Phase != PhaseSignedIn {
		t.Fatalf("principal resolved, browsing must stay available; got %s", st.Phase)
	}
	if st.Snapshot.IsPlatformAgent() || st.Snapshot.IsPlatformAdmin() {
		t.Fatal("failed role fetch must yield least privilege")
	}
	if !st.Snapshot.IsAuthenticated() {
		t.Fatal("principal itself did resolve")
	}
}

func TestManager_SignOutClearsState(t *testing.T) {
	authn, ids, _ := testFixture()
	m := NewManager(authn, ids)
	defer m.Close()

	if err := m.SignIn(context.Background(), "agent@example.com", "pw"); err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if err := m.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}

	st := m.State()
	if st.Phase != PhaseSignedOut || st.Snapshot.IsAuthenticated() {
		t.Fatalf("sign out must clear the snapshot, got %s", st.Phase)
	}
	if m.Token() != "" {
		t.Fatal("token must be cleared on sign out")
	}
	if authn.signOuts != 1 {
		t.Fatalf("auth service must be told exactly once, got %d", authn.signOuts)
	}
}

func TestManager_SignOutFailureKeepsState(t *testing.T) {
	authn, ids, _ := testFixture()
	m := NewManager(authn, ids)
	defer m.Close()

	if err := m.SignIn(context.Background(), "agent@example.com", "pw"); err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	authn.mu.Lock()
	authn.failAll = true
	authn.mu.Unlock()

	if err := m.SignOut(context.Background()); err == nil {
		t.Fatal("sign out must report the collaborator failure")
	}
	if st := m.State(); st.Phase != PhaseSignedIn {
		t.Fatalf("state must not change until the collaborator confirms, got %s", st.Phase)
	}
}

func TestManager_StaleResumeDiscardedAfterSignIn(t *testing.T) {
	authn, ids, _ := testFixture()
	authn.resumeWait = make(chan struct{})
	m := NewManager(authn, ids)
	defer m.Close()

	// Handshake hangs in flight...
	m.Start(context.Background(), "tok-1")

	// ...while an explicit sign-in completes and bumps the generation.
	if err := m.SignIn(context.Background(), "agent@example.com", "pw"); err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if err := m.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}

	// Now the stale handshake lands; its result must be discarded.
	close(authn.resumeWait)
	time.Sleep(50 * time.Millisecond)

	if st := m.State(); st.Phase != PhaseSignedOut {
		t.Fatalf("stale resume result must not overwrite newer state, got %s", st.Phase)
	}
}

func TestManager_CloseDiscardsInFlightResolution(t *testing.T) {
	authn, ids, _ := testFixture()
	authn.resumeWait = make(chan struct{})
	m := NewManager(authn, ids)

	ch, cancel := m.Subscribe()
	defer cancel()

	m.Start(context.Background(), "tok-1")
	m.Close()
	close(authn.resumeWait)
	time.Sleep(50 * time.Millisecond)

	if st := m.State(); st.Phase != PhaseResolving {
		t.Fatalf("no transition may land after teardown, got %s", st.Phase)
	}
	// Subscription channel is closed on teardown.
	for {
		if _, ok := <-ch; !ok {
			return
		}
	}
}
