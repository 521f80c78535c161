package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"estatenexus/auth"
	"estatenexus/models"
	"estatenexus/storage"
)

const snapshotKey = "auth_snapshot"

// IdentityReader loads the principal rows backing a verified token.
type IdentityReader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetActiveMembership(ctx context.Context, userID uuid.UUID) (*models.CompanyMember, error)
}

// AuditSink records denied guard decisions.
type AuditSink interface {
	RecordAccessDecision(userID *uuid.UUID, path, decision, reason string) error
}

// bearerToken extracts the credentials from an Authorization header. Only
// the Bearer scheme is accepted.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// cachedIdentity is the Redis representation of a resolved principal.
type cachedIdentity struct {
	Profile    *models.Profile       `json:"profile"`
	Membership *models.CompanyMember `json:"membership"`
}

// ResolveSnapshot turns a bearer token into an auth.Snapshot on the request
// context. Requests without a token, or with one that fails verification or
// resolution, proceed as Anonymous; route guards decide what that means.
func ResolveSnapshot(verifier *auth.TokenVerifier, ids IdentityReader, cache *storage.Cache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(snapshotKey, auth.Anonymous)

			token, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return next(c)
			}

			userID, email, err := verifier.Verify(token)
			if err != nil {
				return next(c)
			}

			ctx := c.Request().Context()
			snap := resolveIdentity(ctx, ids, cache, userID, email)
			c.Set(snapshotKey, snap)
			return next(c)
		}
	}
}

func resolveIdentity(ctx context.Context, ids IdentityReader, cache *storage.Cache, userID uuid.UUID, email string) auth.Snapshot {
	key := "identity:" + userID.String()

	var cached cachedIdentity
	if cache.Get(ctx, key, &cached) && cached.Profile != nil {
		return auth.Snapshot{Principal: cached.Profile, Membership: cached.Membership}
	}

	profile, err := ids.GetProfile(ctx, userID)
	if err != nil {
		log.Printf("profile lookup failed for %s: %v", userID, err)
		// Token is valid but the principal is unknown: authenticated with
		// the least-privileged role, never guessed upward.
		return auth.Snapshot{Principal: &models.Profile{ID: userID, Email: email, Role: models.RoleBuyer}}
	}
	if profile == nil {
		return auth.Snapshot{Principal: &models.Profile{ID: userID, Email: email, Role: models.RoleBuyer}}
	}

	var membership *models.CompanyMember
	if profile.CompanyID != nil {
		membership, err = ids.GetActiveMembership(ctx, userID)
		if err != nil {
			log.Printf("membership lookup failed for %s: %v", userID, err)
			membership = nil
		}
	}

	cache.Set(ctx, key, cachedIdentity{Profile: profile, Membership: membership})
	return auth.Snapshot{Principal: profile, Membership: membership}
}

// Snapshot returns the resolved snapshot for the request.
func Snapshot(c echo.Context) auth.Snapshot {
	if snap, ok := c.Get(snapshotKey).(auth.Snapshot); ok {
		return snap
	}
	return auth.Anonymous
}

// Require enforces guard requirements on a route group. RedirectToLogin maps
// to 401 with the original path so clients can return after login;
// RedirectToHome maps to 403.
func Require(req auth.Requirements, audit AuditSink) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := Snapshot(c)
			path := c.Request().URL.Path

			decision := auth.Guard(false, snap, path, req)
			switch decision.Action {
			case auth.Proceed:
				return next(c)
			case auth.RedirectToLogin:
				recordDenial(audit, snap, path, decision.Action, "authentication required")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "authentication required",
					"from":  decision.From,
				})
			default:
				recordDenial(audit, snap, path, decision.Action, "insufficient role")
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "insufficient permissions",
				})
			}
		}
	}
}

func recordDenial(audit AuditSink, snap auth.Snapshot, path string, action auth.Action, reason string) {
	if audit == nil {
		return
	}
	var userID *uuid.UUID
	if snap.Principal != nil {
		id := snap.Principal.ID
		userID = &id
	}
	if err := audit.RecordAccessDecision(userID, path, action.String(), reason); err != nil {
		log.Printf("audit write failed: %v", err)
	}
}
