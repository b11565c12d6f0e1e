package account

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sortify-app/sortify/backend/internal/apperr"
	"github.com/sortify-app/sortify/backend/internal/model/account"
	"github.com/sortify-app/sortify/backend/internal/model/auth"
)

const testUserID = "6f1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"

type fakeStore struct {
	record    *account.Record
	getErr    error
	upserts   []account.Upsert
	uploads   []string
	uploadErr error
	passwords []string
}

func (f *fakeStore) GetProfile(context.Context, string, string) (*account.Record, error) {
	return f.record, f.getErr
}

func (f *fakeStore) UpsertProfile(_ context.Context, _ string, u account.Upsert) error {
	f.upserts = append(f.upserts, u)
	return nil
}

func (f *fakeStore) Upload(_ context.Context, _ string, bucket, path, _ string, _ []byte) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, bucket+"/"+path)
	return nil
}

func (f *fakeStore) PublicURL(bucket, path string) string {
	return "https://x.supabase.co/storage/v1/object/public/" + bucket + "/" + path
}

func (f *fakeStore) UpdatePassword(_ context.Context, _ string, password string) error {
	f.passwords = append(f.passwords, password)
	return nil
}

func identity() auth.Identity {
	user := &auth.User{ID: testUserID, Email: "a@b.se"}
	return auth.Identity{Session: &auth.Session{AccessToken: "at", User: user}, User: user}
}

func ptr(s string) *string { return &s }

func TestLoadWithAvatar(t *testing.T) {
	updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{record: &account.Record{
		DisplayName: ptr("Alex"),
		AvatarPath:  ptr(testUserID + "/avatar"),
		UpdatedAt:   &updated,
	}}

	view := NewService(store).Load(context.Background(), identity())
	assert.Equal(t, "a@b.se", view.Email)
	assert.Equal(t, "Alex", view.Profile.DisplayName)
	assert.Equal(t, "", view.Profile.AboutMe)
	require.NotNil(t, view.Profile.AvatarURL)
	assert.True(t, strings.HasSuffix(*view.Profile.AvatarURL, "/avatars/"+testUserID+"/avatar?t=1714557600000"))
	assert.Nil(t, view.LoadError)
}

func TestLoadFailures(t *testing.T) {
	view := NewService(nil).Load(context.Background(), identity())
	require.NotNil(t, view.LoadError)
	assert.Equal(t, MsgLoadNotConfigured, *view.LoadError)

	store := &fakeStore{getErr: &apperr.ProviderError{Status: 401, Message: "JWT expired"}}
	view = NewService(store).Load(context.Background(), identity())
	require.NotNil(t, view.LoadError)
	assert.Equal(t, "JWT expired", *view.LoadError)
	assert.Nil(t, view.Profile.AvatarURL)
}

func TestUpdateProfileStoresNulls(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	err := svc.UpdateProfile(context.Background(), identity(), NormalizeForm("  Alex  ", "   "), nil)
	require.NoError(t, err)
	require.Len(t, store.upserts, 1)
	u := store.upserts[0]
	assert.Equal(t, testUserID, u.UserID)
	assert.Equal(t, "Alex", *u.DisplayName)
	assert.Nil(t, u.AboutMe)
	assert.Empty(t, u.AvatarPath)
	assert.Empty(t, store.uploads)
}

func TestUpdateProfileValidation(t *testing.T) {
	svc := NewService(&fakeStore{})

	err := svc.UpdateProfile(context.Background(), identity(), NormalizeForm(strings.Repeat("a", 81), ""), nil)
	assert.Equal(t, MsgProfileInvalid, apperr.Message(err))
	assert.Equal(t, http.StatusBadRequest, FailureStatus(err))

	err = svc.UpdateProfile(context.Background(), identity(), NormalizeForm("", ""), &account.Avatar{ContentType: "image/svg+xml", Size: 10})
	assert.Equal(t, MsgAvatarType, apperr.Message(err))

	err = svc.UpdateProfile(context.Background(), identity(), NormalizeForm("", ""), &account.Avatar{ContentType: "image/png", Size: account.AvatarMaxBytes + 1})
	assert.Equal(t, MsgAvatarSize, apperr.Message(err))
}

func TestUpdateProfileWithAvatar(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	avatar := &account.Avatar{ContentType: "image/webp", Size: 4, Data: []byte("RIFF")}
	require.NoError(t, svc.UpdateProfile(context.Background(), identity(), NormalizeForm("Alex", "Hej"), avatar))
	assert.Equal(t, []string{"avatars/" + testUserID + "/avatar"}, store.uploads)
	assert.Equal(t, testUserID+"/avatar", store.upserts[0].AvatarPath)
}

func TestUpdateProfileUploadFailure(t *testing.T) {
	store := &fakeStore{uploadErr: &apperr.ProviderError{Status: 413, Message: "Payload too large"}}
	err := NewService(store).UpdateProfile(context.Background(), identity(), NormalizeForm("", ""), &account.Avatar{ContentType: "image/png", Size: 4})

	assert.Equal(t, "Payload too large", FailureMessage(err))
	assert.Equal(t, http.StatusBadRequest, FailureStatus(err))
	assert.Empty(t, store.upserts)
}

func TestUpdateProfileUnconfigured(t *testing.T) {
	err := NewService(nil).UpdateProfile(context.Background(), identity(), NormalizeForm("Alex", ""), nil)
	assert.True(t, errors.Is(err, apperr.ErrProviderUnavailable))
	assert.Equal(t, http.StatusInternalServerError, FailureStatus(err))
	assert.Equal(t, MsgNotConfigured, FailureMessage(err))
}

func TestChangePassword(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	err := svc.ChangePassword(context.Background(), identity(), auth.PasswordChange{NewPassword: "kort", ConfirmPassword: "kort"})
	assert.Equal(t, MsgPasswordLength, apperr.Message(err))

	err = svc.ChangePassword(context.Background(), identity(), auth.PasswordChange{NewPassword: "hemligt123", ConfirmPassword: "hemligt124"})
	assert.Equal(t, MsgPasswordMismatch, apperr.Message(err))
	assert.Empty(t, store.passwords)

	require.NoError(t, svc.ChangePassword(context.Background(), identity(), auth.PasswordChange{NewPassword: "hemligt123", ConfirmPassword: "hemligt123"}))
	assert.Equal(t, []string{"hemligt123"}, store.passwords)
}
