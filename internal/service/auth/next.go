package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// DefaultLanding is where users go after login when no usable next is given.
const DefaultLanding = "/start"

// LoginRoute is the login page path.
const LoginRoute = "/auth/login"

// NormalizeNext accepts only same-origin, path-rooted targets outside /auth.
func NormalizeNext(raw string) string {
	if !strings.HasPrefix(raw, "/") {
		return DefaultLanding
	}
	// "//host" and "/\host" are protocol-relative in browsers.
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return DefaultLanding
	}
	// Avoid loops back into auth routes after a successful login.
	if raw == "/auth" || strings.HasPrefix(raw, "/auth/") || strings.HasPrefix(raw, "/auth?") {
		return DefaultLanding
	}
	return raw
}

// CallbackURL is the provider redirect target for magic links and OAuth.
func CallbackURL(origin, next string) string {
	return origin + "/auth/callback?next=" + url.QueryEscape(next)
}

// CompletionPath is the post-login landing that forwards to next.
func CompletionPath(next string) string {
	return "/auth/complete?next=" + url.QueryEscape(next)
}

// LoginPath builds the login URL carrying next and an optional error marker.
func LoginPath(next, errMarker string) string {
	params := make([]string, 0, 2)
	if next != "" {
		params = append(params, "next="+url.QueryEscape(next))
	}
	if errMarker != "" {
		params = append(params, "error="+url.QueryEscape(errMarker))
	}
	if len(params) == 0 {
		return LoginRoute
	}
	return LoginRoute + "?" + strings.Join(params, "&")
}

// RequestPath returns the path and query of r, as carried in next.
func RequestPath(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + r.URL.RawQuery
}

// Origin returns siteURL when set, otherwise the scheme and host of r.
func Origin(r *http.Request, siteURL string) string {
	if siteURL != "" {
		return siteURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
