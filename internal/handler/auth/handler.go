package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sortify-app/sortify/backend/internal/apperr"
	model "github.com/sortify-app/sortify/backend/internal/model/auth"
	authService "github.com/sortify-app/sortify/backend/internal/service/auth"
	"github.com/sortify-app/sortify/backend/pkg/logger"
	"github.com/sortify-app/sortify/backend/pkg/utils"
)

const (
	msgNotConfigured = "Supabase är inte konfigurerat. Lägg till PUBLIC_SUPABASE_URL och PUBLIC_SUPABASE_ANON_KEY."
	msgInvalidEmail  = "Ange en giltig e-postadress."

	callbackErrorMarker = "callback"
)

// Provider is the auth surface of the auth/storage provider.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password, redirectTo, codeChallenge string) (*model.Session, error)
	SignInWithOTP(ctx context.Context, email, redirectTo, codeChallenge string) error
	AuthorizeURL(provider, redirectTo, codeChallenge string, extra map[string]string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*model.Session, error)
	VerifyOTP(ctx context.Context, tokenHash, otpType string) (*model.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Config carries the public settings the auth pages need.
type Config struct {
	SiteURL     string
	Cookies     authService.Cookies
	SupabaseURL string
	AnonKey     string
}

// Handler serves the login, signup, callback and signout flows. A nil
// provider means the provider is not configured.
type Handler struct {
	provider Provider
	resolver authService.IdentityResolver
	cfg      Config
	validate *validator.Validate
}

// New creates the auth flow handler.
func New(provider Provider, resolver authService.IdentityResolver, cfg Config) *Handler {
	return &Handler{
		provider: provider,
		resolver: resolver,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// flow holds what differs between the login and signup pages.
type flow struct {
	signup          bool
	invalidPassword string
	googleFailure   string
}

var (
	loginFlow = flow{
		invalidPassword: "Ange en giltig e-postadress och lösenord (minst 8 tecken).",
		googleFailure:   "Kunde inte starta Google-inloggning. Försök igen.",
	}
	signupFlow = flow{
		signup:          true,
		invalidPassword: "Ange en giltig e-postadress och ett lösenord med minst 8 tecken.",
		googleFailure:   "Kunde inte starta Google-registrering. Försök igen.",
	}
)

// RegisterRoutes mounts the /auth routes and the layout loader on the root router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/layout", h.handleLayout)

	r.Route("/auth", func(ar chi.Router) {
		ar.Get("/", h.handleIndex)
		ar.Get("/callback", h.handleCallback)
		ar.Get("/complete", h.handleComplete)
		ar.Post("/signout", h.handleSignOut)

		for path, f := range map[string]flow{"/login": loginFlow, "/signup": signupFlow} {
			ar.Get(path, h.handleLoad(f))
			ar.Post(path+"/password", h.handlePassword(f))
			ar.Post(path+"/magic", h.handleMagic)
			ar.Post(path+"/google", h.handleGoogle(f))
		}
	})
}

// handleIndex forwards to the login page keeping next and error as given.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	utils.SeeOther(w, r, authService.LoginPath(q.Get("next"), q.Get("error")))
}

func (h *Handler) handleLoad(f flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := authService.NormalizeNext(r.URL.Query().Get("next"))
		if h.resolver.Resolve(w, r).Authenticated() {
			utils.SeeOther(w, r, next)
			return
		}

		body := map[string]any{
			"next":               next,
			"supabaseConfigured": h.provider != nil,
		}
		if !f.signup {
			body["callbackError"] = r.URL.Query().Get("error") == callbackErrorMarker
		}
		utils.RespondJSON(w, http.StatusOK, body)
	}
}

func (h *Handler) handlePassword(f flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := authService.NormalizeNext(r.PostFormValue("next"))
		creds := model.Credentials{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}

		if err := h.validate.Struct(creds); err != nil {
			utils.RespondForm(w, http.StatusBadRequest, utils.FormResult{Mode: "password", Error: f.invalidPassword, Next: next})
			return
		}
		if h.provider == nil {
			utils.RespondForm(w, http.StatusInternalServerError, utils.FormResult{Mode: "password", Error: msgNotConfigured, Next: next, Email: creds.Email})
			return
		}

		ctx := r.Context()
		var (
			session  *model.Session
			verifier string
			err      error
		)
		if f.signup {
			// The confirmation link comes back as a PKCE code.
			if verifier, err = authService.NewVerifier(); err != nil {
				logger.WithCtx(ctx).Error("failed to start signup", zap.Error(err))
				utils.RespondForm(w, http.StatusInternalServerError, utils.FormResult{Mode: "password", Error: apperr.Message(err), Next: next, Email: creds.Email})
				return
			}
			session, err = h.provider.SignUp(ctx, creds.Email, creds.Password, h.callbackURL(r, next), authService.Challenge(verifier))
		} else {
			session, err = h.provider.SignInWithPassword(ctx, creds.Email, creds.Password)
		}
		if err != nil {
			logger.WithCtx(ctx).Info("password auth rejected", zap.Bool("signup", f.signup), zap.Error(err))
			utils.RespondForm(w, http.StatusBadRequest, utils.FormResult{Mode: "password", Error: apperr.Message(err), Next: next, Email: creds.Email})
			return
		}

		// Signups awaiting e-mail confirmation get no session.
		if session == nil {
			h.cfg.Cookies.SetVerifier(w, verifier, authService.EmailVerifierTTL)
			utils.RespondForm(w, http.StatusOK, utils.FormResult{Mode: "password", Success: true, Email: creds.Email, Next: next})
			return
		}

		h.cfg.Cookies.SetSession(w, session)
		utils.SeeOther(w, r, authService.CompletionPath(next))
	}
}

func (h *Handler) handleMagic(w http.ResponseWriter, r *http.Request) {
	next := authService.NormalizeNext(r.PostFormValue("next"))
	form := model.EmailOnly{Email: r.PostFormValue("email")}

	if err := h.validate.Struct(form); err != nil {
		utils.RespondForm(w, http.StatusBadRequest, utils.FormResult{Mode: "magic", Error: msgInvalidEmail, Next: next})
		return
	}
	if h.provider == nil {
		utils.RespondForm(w, http.StatusInternalServerError, utils.FormResult{Mode: "magic", Error: msgNotConfigured, Next: next, Email: form.Email})
		return
	}

	verifier, err := authService.NewVerifier()
	if err != nil {
		logger.WithCtx(r.Context()).Error("failed to start magic link", zap.Error(err))
		utils.RespondForm(w, http.StatusInternalServerError, utils.FormResult{Mode: "magic", Error: apperr.Message(err), Next: next, Email: form.Email})
		return
	}

	if err := h.provider.SignInWithOTP(r.Context(), form.Email, h.callbackURL(r, next), authService.Challenge(verifier)); err != nil {
		logger.WithCtx(r.Context()).Info("magic link rejected", zap.Error(err))
		utils.RespondForm(w, http.StatusBadRequest, utils.FormResult{Mode: "magic", Error: apperr.Message(err), Next: next, Email: form.Email})
		return
	}

	h.cfg.Cookies.SetVerifier(w, verifier, authService.EmailVerifierTTL)
	utils.RespondForm(w, http.StatusOK, utils.FormResult{Mode: "magic", Success: true, Email: form.Email, Next: next})
}

func (h *Handler) handleGoogle(f flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := authService.NormalizeNext(r.PostFormValue("next"))
		if h.provider == nil {
			utils.RespondForm(w, http.StatusInternalServerError, utils.FormResult{Mode: "google", Error: msgNotConfigured, Next: next})
			return
		}

		verifier, err := authService.NewVerifier()
		if err != nil {
			logger.WithCtx(r.Context()).Error("failed to start oauth", zap.Error(err))
			utils.RespondForm(w, http.StatusInternalServerError, utils.FormResult{Mode: "google", Error: f.googleFailure, Next: next})
			return
		}

		target := h.provider.AuthorizeURL("google", h.callbackURL(r, next), authService.Challenge(verifier), map[string]string{
			"prompt": "select_account",
		})
		if target == "" {
			utils.RespondForm(w, http.StatusInternalServerError, utils.FormResult{Mode: "google", Error: f.googleFailure, Next: next})
			return
		}

		h.cfg.Cookies.SetVerifier(w, verifier, authService.OAuthVerifierTTL)
		utils.SeeOther(w, r, target)
	}
}

// handleCallback exchanges a PKCE code (OAuth, magic link or signup
// confirmation) or verifies an e-mail token hash.
// Failures, including replayed codes, land on the login page with an error marker.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	next := authService.NormalizeNext(q.Get("next"))
	failure := authService.LoginPath(next, callbackErrorMarker)

	if h.provider == nil {
		utils.SeeOther(w, r, failure)
		return
	}

	ctx := r.Context()
	if code := q.Get("code"); code != "" {
		verifier := authService.ReadVerifier(r)
		h.cfg.Cookies.ClearVerifier(w)

		if verifier == "" {
			logger.WithCtx(ctx).Info("code callback without verifier")
		} else if session, err := h.provider.ExchangeCode(ctx, code, verifier); err == nil {
			h.cfg.Cookies.SetSession(w, session)
			utils.SeeOther(w, r, authService.CompletionPath(next))
			return
		} else {
			logger.WithCtx(ctx).Info("code exchange failed", zap.Error(err))
		}
	}

	if tokenHash, otpType := q.Get("token_hash"), q.Get("type"); tokenHash != "" && otpType != "" {
		session, err := h.provider.VerifyOTP(ctx, tokenHash, otpType)
		if err == nil {
			h.cfg.Cookies.SetSession(w, session)
			utils.SeeOther(w, r, authService.CompletionPath(next))
			return
		}
		logger.WithCtx(ctx).Info("otp verification failed", zap.Error(err))
	}

	utils.SeeOther(w, r, failure)
}

// handleComplete forwards signed-in users to next.
func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	next := authService.NormalizeNext(r.URL.Query().Get("next"))
	if h.resolver.Resolve(w, r).Authenticated() {
		utils.SeeOther(w, r, next)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"next": next})
}

// handleSignOut revokes the session when possible and always lands on "/".
func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if h.provider != nil {
		if access, _ := authService.ReadTokens(r); access != "" {
			if err := h.provider.SignOut(r.Context(), access); err != nil {
				logger.WithCtx(r.Context()).Info("sign out failed", zap.Error(err))
			}
		}
	}
	h.cfg.Cookies.ClearSession(w)
	utils.SeeOther(w, r, "/")
}

// handleLayout exposes the signed-in user and the public provider settings.
// Tokens stay in HttpOnly cookies.
func (h *Handler) handleLayout(w http.ResponseWriter, r *http.Request) {
	id := h.resolver.Resolve(w, r)

	body := map[string]any{
		"user":            nil,
		"supabaseUrl":     "",
		"supabaseAnonKey": "",
	}
	if id.Authenticated() {
		body["user"] = id.User
		body["expiresAt"] = id.Session.ExpiresAt
	}
	if h.provider != nil {
		body["supabaseUrl"] = h.cfg.SupabaseURL
		body["supabaseAnonKey"] = h.cfg.AnonKey
	}
	utils.RespondJSON(w, http.StatusOK, body)
}

func (h *Handler) callbackURL(r *http.Request, next string) string {
	return authService.CallbackURL(authService.Origin(r, h.cfg.SiteURL), next)
}
