package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/sortify-app/sortify/backend/internal/model/auth"
)

// gotrueFor returns the SDK client bound to one exchange.
func (c *Client) gotrueFor(ex *exchange) gotrue.Client {
	return c.auth.WithClient(http.Client{Transport: ex})
}

func toUser(u types.User) *auth.User {
	if u.ID == uuid.Nil {
		return nil
	}
	return &auth.User{ID: u.ID.String(), Email: u.Email}
}

func toSession(s types.Session) *auth.Session {
	if s.AccessToken == "" {
		return nil
	}
	expires := time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	if s.ExpiresAt > 0 {
		expires = time.Unix(s.ExpiresAt, 0)
	}
	return &auth.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expires,
		User:         toUser(s.User),
	}
}

func (c *Client) token(ctx context.Context, grant string, call func(gotrue.Client) (*types.TokenResponse, error)) (*auth.Session, error) {
	ex, cancel := c.exchange(ctx, apiAuth)
	defer cancel()

	resp, err := call(c.gotrueFor(ex))
	if err != nil {
		return nil, ex.result(err)
	}
	session := toSession(resp.Session)
	if session == nil {
		return nil, fmt.Errorf("%s grant returned no session", grant)
	}
	return session, nil
}

// SignInWithPassword exchanges e-mail and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	return c.token(ctx, "password", func(g gotrue.Client) (*types.TokenResponse, error) {
		return g.SignInWithEmailPassword(email, password)
	})
}

// Refresh rotates a refresh token into a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	return c.token(ctx, "refresh_token", func(g gotrue.Client) (*types.TokenResponse, error) {
		return g.RefreshToken(refreshToken)
	})
}

// GetUser verifies accessToken with the provider and returns its user.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*auth.User, error) {
	ex, cancel := c.exchange(ctx, apiAuth)
	defer cancel()

	resp, err := c.gotrueFor(ex).WithToken(accessToken).GetUser()
	if err != nil {
		return nil, ex.result(err)
	}
	user := toUser(resp.User)
	if user == nil {
		return nil, errors.New("provider returned a user without id")
	}
	return user, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	ex, cancel := c.exchange(ctx, apiAuth)
	defer cancel()

	return ex.result(c.gotrueFor(ex).WithToken(accessToken).Logout())
}

// UpdatePassword sets a new password for the signed-in user.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	ex, cancel := c.exchange(ctx, apiAuth)
	defer cancel()

	_, err := c.gotrueFor(ex).WithToken(accessToken).UpdateUser(types.UpdateUserRequest{Password: &password})
	return ex.result(err)
}

// The calls below carry redirect_to, code_challenge, auth_code or token_hash,
// none of which the GoTrue SDK sends.

// SignUp registers an account. The session is nil when e-mail confirmation
// is required; the confirmation link then returns a PKCE code for codeChallenge.
func (c *Client) SignUp(ctx context.Context, email, password, redirectTo, codeChallenge string) (*auth.Session, error) {
	var resp types.SignupResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		query:  url.Values{"redirect_to": {redirectTo}},
		body: map[string]string{
			"email":                 email,
			"password":              password,
			"code_challenge":        codeChallenge,
			"code_challenge_method": "s256",
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return toSession(resp.Session), nil
}

// SignInWithOTP sends a magic link to email. The link returns a PKCE code
// for codeChallenge.
func (c *Client) SignInWithOTP(ctx context.Context, email, redirectTo, codeChallenge string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/otp",
		query:  url.Values{"redirect_to": {redirectTo}},
		body: map[string]any{
			"email":                 email,
			"create_user":           true,
			"code_challenge":        codeChallenge,
			"code_challenge_method": "s256",
		},
	}, nil)
}

// AuthorizeURL builds the OAuth entry URL for provider with a PKCE challenge.
func (c *Client) AuthorizeURL(provider, redirectTo, codeChallenge string, extra map[string]string) string {
	q := url.Values{
		"provider":              {provider},
		"redirect_to":           {redirectTo},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"s256"},
	}
	for k, v := range extra {
		q.Set(k, v)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}

// ExchangeCode trades a PKCE auth code for a session.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*auth.Session, error) {
	return c.sessionCall(ctx, "pkce grant", request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"pkce"}},
		body:   map[string]string{"auth_code": code, "code_verifier": verifier},
	})
}

// VerifyOTP verifies an e-mail token hash from a magic or confirmation link.
func (c *Client) VerifyOTP(ctx context.Context, tokenHash, otpType string) (*auth.Session, error) {
	return c.sessionCall(ctx, "verify", request{
		method: http.MethodPost,
		path:   "/auth/v1/verify",
		body:   map[string]string{"token_hash": tokenHash, "type": otpType},
	})
}

func (c *Client) sessionCall(ctx context.Context, name string, r request) (*auth.Session, error) {
	var resp types.Session
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	session := toSession(resp)
	if session == nil {
		return nil, fmt.Errorf("%s returned no session", name)
	}
	return session, nil
}
