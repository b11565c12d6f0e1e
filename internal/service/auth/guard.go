package auth

import (
	"net/http"

	model "github.com/sortify-app/sortify/backend/internal/model/auth"
	"github.com/sortify-app/sortify/backend/pkg/utils"
)

// UnauthorizedMessage is the API error body for missing sessions.
const UnauthorizedMessage = "Ej behörig"

// RequireSession resolves the identity for a page request. Without one it
// redirects (303) to the login page carrying the original path and query as
// next, and reports false.
func RequireSession(w http.ResponseWriter, r *http.Request, resolver IdentityResolver) (model.Identity, bool) {
	id := resolver.Resolve(w, r)
	if !id.Authenticated() {
		http.Redirect(w, r, LoginPath(RequestPath(r), ""), http.StatusSeeOther)
		return model.Identity{}, false
	}
	return id, true
}

// RequireAPISession is RequireSession for JSON endpoints: it answers 401.
func RequireAPISession(w http.ResponseWriter, r *http.Request, resolver IdentityResolver) (model.Identity, bool) {
	id := resolver.Resolve(w, r)
	if !id.Authenticated() {
		utils.RespondError(w, http.StatusUnauthorized, UnauthorizedMessage)
		return model.Identity{}, false
	}
	return id, true
}
