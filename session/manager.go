// Package session owns the resolved-identity lifecycle for a long-lived
// session: an asynchronous handshake with the auth service, followed by
// profile and membership fetches that are published as a single atomic
// snapshot transition. Consumers subscribe to an ordered sequence of states
// and can never observe a principal without its role data.
package session

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"estatenexus/auth"
	"estatenexus/models"
)

type Phase int

const (
	// PhaseResolving is the initial state while the handshake with the auth
	// service is in flight.
	PhaseResolving Phase = iota
	PhaseSignedOut
	PhaseSignedIn
)

func (p Phase) String() string {
	switch p {
	case PhaseResolving:
		return "resolving"
	case PhaseSignedOut:
		return "signed-out"
	case PhaseSignedIn:
		return "signed-in"
	}
	return "unknown"
}

// State is one point in the session's monotonic lifecycle.
type State struct {
	Phase    Phase
	Snapshot auth.Snapshot
}

// Identity is the minimal result of an auth-service handshake.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	AccessToken string
}

// Authenticator is the external auth collaborator.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, email, password, fullName string) (Identity, error)
	SignOut(ctx context.Context, accessToken string) error
	Resume(ctx context.Context, accessToken string) (Identity, error)
}

// IdentitySource resolves the profile and active membership behind an
// authenticated user id.
type IdentitySource interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetActiveMembership(ctx context.Context, userID uuid.UUID) (*models.CompanyMember, error)
}

// Manager is the single publish point for session state. All transitions go
// through publish(), so every subscriber observes the same ordered sequence.
type Manager struct {
	authn Authenticator
	ids   IdentitySource

	mu      sync.Mutex
	state   State
	gen     uint64
	token   string
	closed  bool
	subs    map[int]chan State
	nextSub int
}

func NewManager(authn Authenticator, ids IdentitySource) *Manager {
	return &Manager{
		authn: authn,
		ids:   ids,
		state: State{Phase: PhaseResolving},
		subs:  make(map[int]chan State),
	}
}

// Start kicks off the asynchronous handshake. With an empty token the session
// resolves directly to signed-out. Resume failures resolve to signed-out as
// well: unknown identity is treated as no identity.
func (m *Manager) Start(ctx context.Context, accessToken string) {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()

	go func() {
		if accessToken == "" {
			m.publish(gen, State{Phase: PhaseSignedOut})
			return
		}
		id, err := m.authn.Resume(ctx, accessToken)
		if err != nil {
			log.Printf("session: resume failed, treating as signed out: %v", err)
			m.publish(gen, State{Phase: PhaseSignedOut})
			return
		}
		snap := m.resolveSnapshot(ctx, id)
		if m.publish(gen, State{Phase: PhaseSignedIn, Snapshot: snap}) {
			m.setToken(id.AccessToken)
		}
	}()
}

// SignIn authenticates and publishes the fully resolved snapshot as one
// transition. No intermediate state is observable.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	id, err := m.authn.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.token = id.AccessToken
	m.mu.Unlock()

	snap := m.resolveSnapshot(ctx, id)
	m.publish(gen, State{Phase: PhaseSignedIn, Snapshot: snap})
	return nil
}

// SignUp registers a new account and, when the auth service returns a live
// session, resolves it like SignIn.
func (m *Manager) SignUp(ctx context.Context, email, password, fullName string) error {
	id, err := m.authn.SignUp(ctx, email, password, fullName)
	if err != nil {
		return err
	}
	if id.AccessToken == "" {
		// Account pending email confirmation; session stays as it was.
		return nil
	}

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.token = id.AccessToken
	m.mu.Unlock()

	snap := m.resolveSnapshot(ctx, id)
	m.publish(gen, State{Phase: PhaseSignedIn, Snapshot: snap})
	return nil
}

// SignOut revokes the session with the auth service and clears local state.
// Local state is only cleared once the collaborator confirms.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if err := m.authn.SignOut(ctx, token); err != nil {
		return err
	}

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.token = ""
	m.mu.Unlock()

	m.publish(gen, State{Phase: PhaseSignedOut})
	return nil
}

// Refresh re-resolves profile and membership for the current principal, for
// example after the user accepts a company invitation.
func (m *Manager) Refresh(ctx context.Context) {
	m.mu.Lock()
	st := m.state
	gen := m.gen
	token := m.token
	m.mu.Unlock()

	if st.Phase != PhaseSignedIn || st.Snapshot.Principal == nil {
		return
	}
	id := Identity{UserID: st.Snapshot.Principal.ID, Email: st.Snapshot.Principal.Email, AccessToken: token}
	snap := m.resolveSnapshot(ctx, id)
	m.publish(gen, State{Phase: PhaseSignedIn, Snapshot: snap})
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the current access token, empty when signed out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Subscribe returns a channel of ordered state transitions and a cancel
// function. The current state is delivered first.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan State, 8)
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.state

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close tears the manager down. Any in-flight resolution result is discarded.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.gen++
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}

// resolveSnapshot performs the two dependent fetches behind one published
// transition. Profile failure degrades to a least-privileged principal;
// membership failure degrades to no membership. Neither blocks sign-in.
func (m *Manager) resolveSnapshot(ctx context.Context, id Identity) auth.Snapshot {
	profile, err := m.ids.GetProfile(ctx, id.UserID)
	if err != nil {
		log.Printf("session: profile fetch failed for %s: %v", id.UserID, err)
	}
	if profile == nil {
		profile = &models.Profile{ID: id.UserID, Email: id.Email, Role: models.RoleBuyer}
	}

	var membership *models.CompanyMember
	if profile.CompanyID != nil {
		membership, err = m.ids.GetActiveMembership(ctx, id.UserID)
		if err != nil {
			log.Printf("session: membership fetch failed for %s: %v", id.UserID, err)
			membership = nil
		}
	}

	return auth.Snapshot{Principal: profile, Membership: membership}
}

// publish installs a new state iff gen is still current, returning whether
// the transition took effect. Stale async results are dropped here.
func (m *Manager) publish(gen uint64, st State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		return false
	}
	m.state = st
	for _, ch := range m.subs {
		select {
		case ch <- st:
		default:
			// Slow subscriber; it will catch up from State().
		}
	}
	return true
}

func (m *Manager) setToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// Resolving reports whether the session handshake is still in flight, for
// guard evaluation.
func (m *Manager) Resolving() bool {
	return m.State().Phase == PhaseResolving
}
