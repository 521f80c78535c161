package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"estatenexus/httputil"
)

// SupabaseAuth talks to the GoTrue endpoints of a Supabase project. Postgres
// rows are read through the pool directly, only authentication goes over
// REST.
type SupabaseAuth struct {
	url     string
	anonKey string
	client  *http.Client
}

func NewSupabaseAuth(url, anonKey string) *SupabaseAuth {
	return &SupabaseAuth{
		url:     url,
		anonKey: anonKey,
		client:  httputil.AuthClient(),
	}
}

type AuthUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type AuthSession struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	User         AuthUser `json:"user"`
}

type authError struct {
	Message          string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

// SignIn exchanges email/password credentials for a session.
func (a *SupabaseAuth) SignIn(ctx context.Context, email, password string) (*AuthSession, error) {
	body := map[string]string{"email": email, "password": password}
	var session AuthSession
	err := a.post(ctx, "/auth/v1/token?grant_type=password", "", body, &session)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return &session, nil
}

// SignUp registers a new user. Depending on project settings the session may
// come back empty until the email is confirmed.
func (a *SupabaseAuth) SignUp(ctx context.Context, email, password string) (*AuthSession, error) {
	body := map[string]string{"email": email, "password": password}
	var session AuthSession
	err := a.post(ctx, "/auth/v1/signup", "", body, &session)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return &session, nil
}

// SignOut revokes the session's refresh tokens server-side.
func (a *SupabaseAuth) SignOut(ctx context.Context, accessToken string) error {
	if err := a.post(ctx, "/auth/v1/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// User fetches the user behind an access token, proving the token is still
// live on the auth server.
func (a *SupabaseAuth) User(ctx context.Context, accessToken string) (*AuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	a.setHeaders(req, accessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, readAuthError(resp)
	}

	var user AuthUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

func (a *SupabaseAuth) post(ctx context.Context, path, accessToken string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url+path, reader)
	if err != nil {
		return err
	}
	a.setHeaders(req, accessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return readAuthError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (a *SupabaseAuth) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", a.anonKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+a.anonKey)
	}
}

func readAuthError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var ae authError
	if json.Unmarshal(body, &ae) == nil {
		if ae.Message != "" {
			return fmt.Errorf("auth error %d: %s", resp.StatusCode, ae.Message)
		}
		if ae.ErrorDescription != "" {
			return fmt.Errorf("auth error %d: %s", resp.StatusCode, ae.ErrorDescription)
		}
	}
	return fmt.Errorf("auth error %d: %s", resp.StatusCode, string(body))
}
