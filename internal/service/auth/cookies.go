package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	model "github.com/sortify-app/sortify/backend/internal/model/auth"
)

const (
	AccessCookie   = "sb-access-token"
	RefreshCookie  = "sb-refresh-token"
	VerifierCookie = "sb-code-verifier"

	sessionMaxAge = 30 * 24 * time.Hour
)

// Verifier lifetimes. E-mail links stay valid for up to a day on the
// provider side; the OAuth round trip is immediate.
const (
	OAuthVerifierTTL = 10 * time.Minute
	EmailVerifierTTL = 24 * time.Hour
)

// Cookies writes and clears the auth cookies.
type Cookies struct {
	Secure bool
}

func (c Cookies) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSession stores a provider session.
func (c Cookies) SetSession(w http.ResponseWriter, s *model.Session) {
	if s == nil {
		return
	}
	c.set(w, AccessCookie, s.AccessToken, sessionMaxAge)
	c.set(w, RefreshCookie, s.RefreshToken, sessionMaxAge)
}

// ClearSession removes the session cookies.
func (c Cookies) ClearSession(w http.ResponseWriter) {
	c.clear(w, AccessCookie)
	c.clear(w, RefreshCookie)
}

// SetVerifier stores a PKCE verifier until the provider redirects back.
func (c Cookies) SetVerifier(w http.ResponseWriter, verifier string, ttl time.Duration) {
	c.set(w, VerifierCookie, verifier, ttl)
}

// ClearVerifier removes the PKCE verifier; codes are single-use.
func (c Cookies) ClearVerifier(w http.ResponseWriter) {
	c.clear(w, VerifierCookie)
}

// ReadTokens returns the access and refresh tokens carried by r. A bearer
// Authorization header wins over cookies and carries no refresh token.
func ReadTokens(r *http.Request) (access, refresh string) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), ""
	}
	if ck, err := r.Cookie(AccessCookie); err == nil {
		access = ck.Value
	}
	if ck, err := r.Cookie(RefreshCookie); err == nil {
		refresh = ck.Value
	}
	return access, refresh
}

// ReadVerifier returns the stored PKCE verifier, if any.
func ReadVerifier(r *http.Request) string {
	if ck, err := r.Cookie(VerifierCookie); err == nil {
		return ck.Value
	}
	return ""
}

// NewVerifier returns a random PKCE code verifier (43 url-safe characters).
func NewVerifier() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Challenge derives the S256 code challenge of verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
