// Package supabase is the client for the parts of a Supabase project the
// service uses: GoTrue auth, PostgREST tables and Storage.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go"

	"github.com/sortify-app/sortify/backend/internal/apperr"
	"github.com/sortify-app/sortify/backend/internal/config"
	"github.com/sortify-app/sortify/backend/internal/observability"
)

const (
	apiAuth    = "auth"
	apiRest    = "rest"
	apiStorage = "storage"

	maxResponseBytes = 4 << 20
)

// Client talks to one Supabase project with the public anon key.
type Client struct {
	baseURL    string
	anonKey    string
	timeout    time.Duration
	transport  http.RoundTripper
	httpClient *http.Client
	auth       gotrue.Client
	metrics    *observability.Metrics
}

// New creates a client. cfg must be Configured.
func New(cfg config.ProviderConfig, metrics *observability.Metrics) (*Client, error) {
	baseURL, anonKey, err := cfg.Env()
	if err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid PUBLIC_SUPABASE_URL %q: %w", baseURL, err)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		baseURL:    baseURL,
		anonKey:    anonKey,
		timeout:    cfg.Timeout,
		transport:  http.DefaultTransport,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		auth:       gotrue.New("", anonKey).WithCustomGoTrueURL(baseURL + "/auth/v1"),
		metrics:    metrics,
	}, nil
}

// URL returns the project URL.
func (c *Client) URL() string {
	return c.baseURL
}

// exchange is the transport of one SDK call. The SDKs build requests without
// a context; exchange binds ctx, counts the response and keeps the body of a
// failed response so decodeError sees the provider's own message.
type exchange struct {
	ctx     context.Context
	api     string
	base    http.RoundTripper
	metrics *observability.Metrics

	status int
	body   []byte
}

func (c *Client) exchange(ctx context.Context, api string) (*exchange, context.CancelFunc) {
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	return &exchange{ctx: ctx, api: api, base: c.transport, metrics: c.metrics}, cancel
}

func (e *exchange) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := e.base.RoundTrip(req.WithContext(e.ctx))
	if err != nil {
		e.metrics.ProviderRequest(e.api, 0)
		return nil, err
	}
	e.status = resp.StatusCode
	e.metrics.ProviderRequest(e.api, resp.StatusCode)

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()
		e.body = data
		resp.Body = io.NopCloser(bytes.NewReader(data))
	}
	return resp, nil
}

// result maps an SDK error to a ProviderError when the provider answered.
func (e *exchange) result(err error) error {
	if err == nil {
		return nil
	}
	if e.status >= http.StatusBadRequest {
		return decodeError(e.status, e.body)
	}
	return fmt.Errorf("%s request failed: %w", e.api, err)
}

// request is a hand-built GoTrue call for the parameters the SDK cannot send.
type request struct {
	method string
	path   string
	query  url.Values
	token  string
	body   any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", apiAuth, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", apiAuth, err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ProviderRequest(apiAuth, 0)
		return fmt.Errorf("%s request %s %s failed: %w", apiAuth, r.method, r.path, err)
	}
	defer resp.Body.Close()
	c.metrics.ProviderRequest(apiAuth, resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", apiAuth, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", apiAuth, err)
	}
	return nil
}

// errorBody covers the GoTrue, PostgREST and Storage error shapes.
type errorBody struct {
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	ErrorDescription string          `json:"error_description"`
	Error            string          `json:"error"`
	ErrorCode        string          `json:"error_code"`
	Code             json.RawMessage `json:"code"`
}

func decodeError(status int, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	pe := &apperr.ProviderError{Status: status, Code: body.ErrorCode}
	if pe.Code == "" && len(body.Code) > 0 {
		var code string
		if json.Unmarshal(body.Code, &code) == nil {
			pe.Code = code
		}
	}

	for _, candidate := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
		if strings.TrimSpace(candidate) != "" {
			pe.Message = candidate
			break
		}
	}
	if pe.Message == "" {
		pe.Message = http.StatusText(status)
	}
	return pe
}
