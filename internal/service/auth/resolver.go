package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	model "github.com/sortify-app/sortify/backend/internal/model/auth"
	"github.com/sortify-app/sortify/backend/pkg/logger"
)

// refreshLeeway refreshes tokens slightly before they expire.
const refreshLeeway = 10 * time.Second

// IdentityProvider is the subset of the auth provider needed to resolve sessions.
type IdentityProvider interface {
	GetUser(ctx context.Context, accessToken string) (*model.User, error)
	Refresh(ctx context.Context, refreshToken string) (*model.Session, error)
}

// IdentityResolver resolves the identity of one request.
type IdentityResolver interface {
	Resolve(w http.ResponseWriter, r *http.Request) model.Identity
}

// Resolver verifies the request's tokens with the provider. A nil provider
// means the provider is not configured and every request is anonymous.
type Resolver struct {
	provider IdentityProvider
	cookies  Cookies
	now      func() time.Time
}

// NewResolver creates a Resolver.
func NewResolver(provider IdentityProvider, cookies Cookies) *Resolver {
	return &Resolver{provider: provider, cookies: cookies, now: time.Now}
}

// Resolve returns the verified identity, refreshing an expiring access token
// when a refresh token is available. Any failure yields an anonymous identity.
func (res *Resolver) Resolve(w http.ResponseWriter, r *http.Request) model.Identity {
	if res == nil || res.provider == nil {
		return model.Identity{}
	}

	ctx := r.Context()
	access, refresh := ReadTokens(r)
	if access == "" && refresh == "" {
		return model.Identity{}
	}

	expiresAt, known := tokenExpiry(access)
	if refresh != "" && (access == "" || (known && !expiresAt.After(res.now().Add(refreshLeeway)))) {
		session, err := res.provider.Refresh(ctx, refresh)
		if err != nil {
			logger.WithCtx(ctx).Debug("session refresh failed", zap.Error(err))
			res.cookies.ClearSession(w)
			return model.Identity{}
		}
		res.cookies.SetSession(w, session)
		access, refresh, expiresAt = session.AccessToken, session.RefreshToken, session.ExpiresAt
	}

	user, err := res.provider.GetUser(ctx, access)
	if err != nil || user == nil {
		logger.WithCtx(ctx).Debug("session user lookup failed", zap.Error(err))
		return model.Identity{}
	}

	return model.Identity{
		Session: &model.Session{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt, User: user},
		User:    user,
	}
}

// tokenExpiry reads exp from a JWT without verifying it. The provider's
// GetUser call is the verification step.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
