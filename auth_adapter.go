package main

import (
	"context"

	"estatenexus/session"
	"estatenexus/storage"
)

// gotrueAuthenticator adapts the Supabase auth client to the session
// manager's collaborator interface.
type gotrueAuthenticator struct {
	api *storage.SupabaseAuth
}

func (g *gotrueAuthenticator) SignIn(ctx context.Context, email, password string) (session.Identity, error) {
	s, err := g.api.SignIn(ctx, email, password)
	if err != nil {
		return session.Identity{}, err
	}
	return session.Identity{
		UserID:      s.User.ID,
		Email:       s.User.Email,
		AccessToken: s.AccessToken,
	}, nil
}

func (g *gotrueAuthenticator) SignUp(ctx context.Context, email, password, fullName string) (session.Identity, error) {
	s, err := g.api.SignUp(ctx, email, password)
	if err != nil {
		return session.Identity{}, err
	}
	return session.Identity{
		UserID:      s.User.ID,
		Email:       s.User.Email,
		AccessToken: s.AccessToken,
	}, nil
}

func (g *gotrueAuthenticator) SignOut(ctx context.Context, accessToken string) error {
	return g.api.SignOut(ctx, accessToken)
}

// Resume validates a stored access token by asking the auth server who it
// belongs to.
func (g *gotrueAuthenticator) Resume(ctx context.Context, accessToken string) (session.Identity, error) {
	user, err := g.api.User(ctx, accessToken)
	if err != nil {
		return session.Identity{}, err
	}
	return session.Identity{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: accessToken,
	}, nil
}
