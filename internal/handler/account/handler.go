package account

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sortify-app/sortify/backend/internal/model/account"
	"github.com/sortify-app/sortify/backend/internal/model/auth"
	accountService "github.com/sortify-app/sortify/backend/internal/service/account"
	authService "github.com/sortify-app/sortify/backend/internal/service/auth"
	"github.com/sortify-app/sortify/backend/pkg/logger"
	"github.com/sortify-app/sortify/backend/pkg/utils"
)

const (
	// maxFormBytes leaves room for the avatar plus the text fields.
	maxFormBytes = account.AvatarMaxBytes + 1<<20
	// Longer values fail validation anyway.
	maxFieldBytes = 64 << 10
)

// Handler serves the account and library pages.
type Handler struct {
	accounts *accountService.Service
	resolver authService.IdentityResolver
}

// New creates the account handler.
func New(accounts *accountService.Service, resolver authService.IdentityResolver) *Handler {
	return &Handler{accounts: accounts, resolver: resolver}
}

// RegisterRoutes mounts the guarded page routes on the root router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/library", h.handleLibrary)
	r.Get("/account", h.handleAccount)
	r.Post("/account/profile", h.handleProfile)
	r.Post("/account/password", h.handlePassword)
}

func (h *Handler) handleLibrary(w http.ResponseWriter, r *http.Request) {
	if _, ok := authService.RequireSession(w, r, h.resolver); !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{})
}

func (h *Handler) handleAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := authService.RequireSession(w, r, h.resolver)
	if !ok {
		return
	}
	r = r.WithContext(logger.WithUserID(r.Context(), id.User.ID))
	utils.RespondJSON(w, http.StatusOK, h.accounts.Load(r.Context(), id))
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := authService.RequireSession(w, r, h.resolver)
	if !ok {
		return
	}
	r = r.WithContext(logger.WithUserID(r.Context(), id.User.ID))

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	raw, avatar, err := readProfileForm(r)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("failed to read profile form", zap.Error(err))
		message := accountService.MsgAvatarType
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			message = accountService.MsgAvatarSize
		}
		h.profileFailed(w, http.StatusBadRequest, message, raw)
		return
	}

	form := accountService.NormalizeForm(raw.DisplayName, raw.AboutMe)
	if err := h.accounts.UpdateProfile(r.Context(), id, form, avatar); err != nil {
		h.profileFailed(w, accountService.FailureStatus(err), accountService.FailureMessage(err), raw)
		return
	}
	utils.RespondForm(w, http.StatusOK, utils.FormResult{Mode: "profile", Success: true})
}

// profileFailed echoes the fields as submitted, before trimming.
func (h *Handler) profileFailed(w http.ResponseWriter, status int, message string, form account.Form) {
	utils.RespondForm(w, status, utils.FormResult{
		Mode:        "profile",
		Error:       message,
		DisplayName: &form.DisplayName,
		AboutMe:     &form.AboutMe,
	})
}

func (h *Handler) handlePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := authService.RequireSession(w, r, h.resolver)
	if !ok {
		return
	}
	r = r.WithContext(logger.WithUserID(r.Context(), id.User.ID))

	change := auth.PasswordChange{
		NewPassword:     r.PostFormValue("newPassword"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	if err := h.accounts.ChangePassword(r.Context(), id, change); err != nil {
		utils.RespondForm(w, accountService.FailureStatus(err), utils.FormResult{Mode: "password", Error: accountService.FailureMessage(err)})
		return
	}
	utils.RespondForm(w, http.StatusOK, utils.FormResult{Mode: "password", Success: true})
}

// readProfileForm streams the profile form. Fields read before a failure are
// returned with the error.
func readProfileForm(r *http.Request) (account.Form, *account.Avatar, error) {
	var raw account.Form
	mr, err := r.MultipartReader()
	if errors.Is(err, http.ErrNotMultipart) {
		raw.DisplayName = r.PostFormValue("displayName")
		raw.AboutMe = r.PostFormValue("aboutMe")
		return raw, nil, nil
	}
	if err != nil {
		return raw, nil, err
	}

	var avatar *account.Avatar
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return raw, avatar, nil
		}
		if err != nil {
			return raw, nil, err
		}

		switch part.FormName() {
		case "displayName":
			raw.DisplayName, err = readField(part)
		case "aboutMe":
			raw.AboutMe, err = readField(part)
		case "avatar":
			avatar, err = readAvatar(part)
		}
		part.Close()
		if err != nil {
			return raw, nil, err
		}
	}
}

func readField(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
	return string(data), err
}

// readAvatar returns the uploaded avatar, or nil when the file input was empty.
func readAvatar(part *multipart.Part) (*account.Avatar, error) {
	data, err := io.ReadAll(io.LimitReader(part, account.AvatarMaxBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	avatar := &account.Avatar{ContentType: part.Header.Get("Content-Type"), Size: int64(len(data))}
	// Oversized files are rejected by the service before upload.
	if avatar.Size <= account.AvatarMaxBytes {
		avatar.Data = data
	}
	return avatar, nil
}
