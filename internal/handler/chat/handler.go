package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sortify-app/sortify/backend/internal/apperr"
	"github.com/sortify-app/sortify/backend/internal/model/auth"
	"github.com/sortify-app/sortify/backend/internal/model/chat"
	"github.com/sortify-app/sortify/backend/internal/observability"
	authService "github.com/sortify-app/sortify/backend/internal/service/auth"
	chatService "github.com/sortify-app/sortify/backend/internal/service/chat"
	"github.com/sortify-app/sortify/backend/pkg/logger"
	"github.com/sortify-app/sortify/backend/pkg/utils"
)

const (
	maxBodyBytes = 1 << 20

	msgSessionsNotConfigured = "Supabase är inte konfigurerat"
)

// Handler serves the chat, takeaway and sessions JSON API.
type Handler struct {
	chatSvc  *chatService.Service
	resolver authService.IdentityResolver
	metrics  *observability.Metrics
}

// New creates the chat API handler.
func New(chatSvc *chatService.Service, resolver authService.IdentityResolver, metrics *observability.Metrics) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		resolver: resolver,
		metrics:  metrics,
	}
}

// RegisterRoutes mounts the API routes on the root router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.handleChat)
	r.Post("/api/takeaway", h.handleTakeaway)
	r.Get("/api/sessions", h.handleSessions)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	id, ok := authService.RequireAPISession(w, r, h.resolver)
	if !ok {
		h.metrics.ChatOutcome("unauthorized")
		return
	}
	r = withUser(r, id)

	var req chat.ChatRequest
	if err := decode(r, w, &req); err != nil {
		h.metrics.ChatOutcome("invalid")
		utils.RespondError(w, http.StatusBadRequest, chatService.MsgInvalidRequest)
		return
	}

	resp, err := h.chatSvc.Reply(r.Context(), req)
	if err != nil {
		utils.RespondError(w, apperr.Status(err), apperr.Message(err))
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTakeaway(w http.ResponseWriter, r *http.Request) {
	id, ok := authService.RequireAPISession(w, r, h.resolver)
	if !ok {
		return
	}
	r = withUser(r, id)

	var req chat.TakeawayRequest
	if err := decode(r, w, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, chatService.MsgInvalidRequest)
		return
	}

	resp, err := h.chatSvc.Takeaway(r.Context(), req)
	if err != nil {
		utils.RespondError(w, apperr.Status(err), apperr.Message(err))
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := authService.RequireAPISession(w, r, h.resolver)
	if !ok {
		return
	}
	r = withUser(r, id)

	sessions, err := h.chatSvc.ListSessions(r.Context(), id)
	switch {
	case errors.Is(err, apperr.ErrProviderUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, msgSessionsNotConfigured)
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, apperr.Message(err))
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string][]chat.Session{"sessions": sessions})
}

func withUser(r *http.Request, id auth.Identity) *http.Request {
	return r.WithContext(logger.WithUserID(r.Context(), id.User.ID))
}

func decode(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
