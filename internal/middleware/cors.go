package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows cross-origin calls. With an empty origin any origin is allowed
// without credentials; otherwise only origin is allowed, with credentials.
func CORS(origin string) func(http.Handler) http.Handler {
	allowed := []string{"*"}
	if origin != "" {
		allowed = []string{origin}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: origin != "",
		MaxAge:           86400,
	})
}
