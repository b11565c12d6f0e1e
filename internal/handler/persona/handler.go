package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sortify-app/sortify/backend/internal/model/persona"
	"github.com/sortify-app/sortify/backend/pkg/utils"
)

// Handler serves the voice catalogue.
type Handler struct {
	personas persona.Store
}

// New creates the voice handler.
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes mounts the catalogue and the chat page loader on the root router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/voices", h.handleListVoices)
	r.Get("/chat", h.handleChatPage)
}

func (h *Handler) handleListVoices(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string][]persona.Persona{"voices": h.personas.List()})
}

// handleChatPage resolves ?voice= with the default-voice fallback.
func (h *Handler) handleChatPage(w http.ResponseWriter, r *http.Request) {
	voice := h.personas.Get(r.URL.Query().Get("voice"))
	utils.RespondJSON(w, http.StatusOK, map[string]persona.Persona{"voice": voice})
}
