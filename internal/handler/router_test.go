package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sortify-app/sortify/backend/internal/model/persona"
	"github.com/sortify-app/sortify/backend/internal/observability"
	accountService "github.com/sortify-app/sortify/backend/internal/service/account"
	"github.com/sortify-app/sortify/backend/internal/service/ai"
	authService "github.com/sortify-app/sortify/backend/internal/service/auth"
	chatService "github.com/sortify-app/sortify/backend/internal/service/chat"
)

// newOfflineRouter is the service as started with no provider credentials.
func newOfflineRouter() (http.Handler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	personas := persona.Default()
	completer := ai.NewService(nil, ai.NewPromptManager(personas), metrics)

	return NewRouter(Deps{
		Personas: personas,
		Resolver: authService.NewResolver(nil, authService.Cookies{}),
		Chat:     chatService.NewService(completer, nil, metrics),
		Accounts: accountService.NewService(nil),
		Metrics:  metrics,
		Gatherer: reg,
	}), reg
}

func TestHealthz(t *testing.T) {
	r, _ := newOfflineRouter()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestChatRequiresSessionAndCountsMetric(t *testing.T) {
	r, _ := newOfflineRouter()

	body, _ := json.Marshal(map[string]any{
		"voice":    "coach",
		"messages": []map[string]string{{"role": "user", "content": "Hej"}},
	})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body)))
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	metrics := httptest.NewRecorder()
	r.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metrics.Body.String(), `sortify_chat_requests_total{outcome="unauthorized"} 1`)
}

func TestPublicRoutes(t *testing.T) {
	r, _ := newOfflineRouter()

	for path, want := range map[string]int{
		"/api/voices":       http.StatusOK,
		"/chat?voice=coach": http.StatusOK,
		"/api/layout":       http.StatusOK,
		"/auth/login":       http.StatusOK,
		"/auth":             http.StatusSeeOther,
		"/account":          http.StatusSeeOther,
	} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, resp.Code, path)
	}
}

func TestSignOutWithoutProvider(t *testing.T) {
	r, _ := newOfflineRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/auth/signout", strings.NewReader("")))
	assert.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/", resp.Header().Get("Location"))
}
