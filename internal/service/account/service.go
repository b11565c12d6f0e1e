// Package account loads and updates the signed-in user's profile, avatar and
// password through the auth/storage provider.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sortify-app/sortify/backend/internal/apperr"
	"github.com/sortify-app/sortify/backend/internal/model/account"
	"github.com/sortify-app/sortify/backend/internal/model/auth"
	"github.com/sortify-app/sortify/backend/pkg/logger"
)

const (
	MsgNotConfigured     = "Supabase är inte konfigurerat. Lägg till PUBLIC_SUPABASE_URL och PUBLIC_SUPABASE_ANON_KEY."
	MsgLoadNotConfigured = "Supabase är inte konfigurerat. Lägg till PUBLIC_SUPABASE_URL och PUBLIC_SUPABASE_ANON_KEY i .env."
	MsgProfileInvalid    = "Visningsnamn eller Om mig är ogiltigt."
	MsgAvatarType        = "Avatar måste vara JPG, PNG, WEBP eller GIF."
	MsgAvatarSize        = "Avatar måste vara 2 MB eller mindre."
	MsgPasswordLength    = "Lösenordet måste vara mellan 8 och 128 tecken."
	MsgPasswordMismatch  = "Nytt lösenord och bekräftelse stämmer inte överens."
)

// Store is the provider surface used for profiles.
type Store interface {
	GetProfile(ctx context.Context, accessToken, userID string) (*account.Record, error)
	UpsertProfile(ctx context.Context, accessToken string, upsert account.Upsert) error
	Upload(ctx context.Context, accessToken, bucket, path, contentType string, data []byte) error
	PublicURL(bucket, path string) string
	UpdatePassword(ctx context.Context, accessToken, password string) error
}

// Service implements the account page. A nil store means the provider is
// not configured.
type Service struct {
	store    Store
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates the account service.
func NewService(store Store) *Service {
	return &Service{store: store, validate: validator.New(), now: time.Now}
}

// Load returns the account page view. Provider failures are reported in
// LoadError rather than failing the page.
func (s *Service) Load(ctx context.Context, id auth.Identity) account.View {
	view := account.View{Email: id.User.Email}

	if s.store == nil {
		msg := MsgLoadNotConfigured
		view.LoadError = &msg
		return view
	}

	rec, err := s.store.GetProfile(ctx, id.Session.AccessToken, id.User.ID)
	if err != nil {
		logger.WithCtx(ctx).Warn("failed to load profile", zap.Error(err))
		msg := apperr.Message(err)
		view.LoadError = &msg
		return view
	}
	if rec == nil {
		return view
	}

	view.Profile.DisplayName = deref(rec.DisplayName)
	view.Profile.AboutMe = deref(rec.AboutMe)
	if path := deref(rec.AvatarPath); path != "" {
		u := s.store.PublicURL(account.AvatarBucket, path)
		if rec.UpdatedAt != nil {
			u = fmt.Sprintf("%s?t=%d", u, rec.UpdatedAt.UnixMilli())
		}
		view.Profile.AvatarURL = &u
	}
	return view
}

// NormalizeForm trims the profile fields the way they are validated and stored.
func NormalizeForm(displayName, aboutMe string) account.Form {
	return account.Form{
		DisplayName: strings.TrimSpace(displayName),
		AboutMe:     strings.TrimSpace(aboutMe),
	}
}

// UpdateProfile validates the form, uploads the avatar when one is given and
// upserts the profile row. Empty fields are stored as null.
func (s *Service) UpdateProfile(ctx context.Context, id auth.Identity, form account.Form, avatar *account.Avatar) error {
	if err := s.validate.Struct(form); err != nil {
		return apperr.Invalid(MsgProfileInvalid, err)
	}
	if s.store == nil {
		return apperr.ErrProviderUnavailable
	}

	upsert := account.Upsert{
		UserID:      id.User.ID,
		DisplayName: nullable(form.DisplayName),
		AboutMe:     nullable(form.AboutMe),
	}

	if avatar != nil && avatar.Size > 0 {
		path, err := s.storeAvatar(ctx, id, avatar)
		if err != nil {
			return err
		}
		upsert.AvatarPath = path
	}

	upsert.UpdatedAt = s.now().UTC()
	if err := s.store.UpsertProfile(ctx, id.Session.AccessToken, upsert); err != nil {
		logger.WithCtx(ctx).Warn("failed to upsert profile", zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) storeAvatar(ctx context.Context, id auth.Identity, avatar *account.Avatar) (string, error) {
	if !account.AvatarContentTypes[avatar.ContentType] {
		return "", &apperr.ValidationError{Message: MsgAvatarType, Fields: map[string]string{"avatar": "type"}}
	}
	if avatar.Size > account.AvatarMaxBytes {
		return "", &apperr.ValidationError{Message: MsgAvatarSize, Fields: map[string]string{"avatar": "max"}}
	}

	// The user id becomes an object path segment.
	uid, err := uuid.Parse(id.User.ID)
	if err != nil {
		return "", apperr.Invalid(MsgProfileInvalid, fmt.Errorf("user id: %w", err))
	}

	path := uid.String() + "/avatar"
	if err := s.store.Upload(ctx, id.Session.AccessToken, account.AvatarBucket, path, avatar.ContentType, avatar.Data); err != nil {
		logger.WithCtx(ctx).Warn("failed to upload avatar", zap.Error(err))
		return "", err
	}
	return path, nil
}

// ChangePassword sets a new password for the signed-in user.
func (s *Service) ChangePassword(ctx context.Context, id auth.Identity, change auth.PasswordChange) error {
	if err := s.validate.Struct(change); err != nil {
		return apperr.Invalid(MsgPasswordLength, err)
	}
	if change.NewPassword != change.ConfirmPassword {
		return &apperr.ValidationError{Message: MsgPasswordMismatch, Fields: map[string]string{"ConfirmPassword": "eqfield"}}
	}
	if s.store == nil {
		return apperr.ErrProviderUnavailable
	}
	if err := s.store.UpdatePassword(ctx, id.Session.AccessToken, change.NewPassword); err != nil {
		logger.WithCtx(ctx).Warn("failed to update password", zap.Error(err))
		return err
	}
	return nil
}

// FailureStatus is the form-action status for an UpdateProfile or
// ChangePassword error: 500 when the provider is missing, 400 otherwise.
func FailureStatus(err error) int {
	if errors.Is(err, apperr.ErrProviderUnavailable) {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// FailureMessage is the user-facing text for an UpdateProfile or
// ChangePassword error.
func FailureMessage(err error) string {
	if errors.Is(err, apperr.ErrProviderUnavailable) {
		return MsgNotConfigured
	}
	return apperr.Message(err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
