package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/supabase-community/postgrest-go"
	storage "github.com/supabase-community/storage-go"

	"github.com/sortify-app/sortify/backend/internal/apperr"
	"github.com/sortify-app/sortify/backend/internal/model/account"
	"github.com/sortify-app/sortify/backend/internal/model/chat"
)

const (
	profilesTable = "profiles"
	sessionsTable = "sessions"

	profileColumns = "display_name,about_me,avatar_path,updated_at"
	sessionColumns = "id,voice,title,status,started_at,ended_at,created_at"
)

// rest returns a PostgREST client acting as the owner of accessToken.
func (c *Client) rest(ex *exchange, accessToken string) (*postgrest.Client, error) {
	pg := postgrest.NewClient(c.baseURL+"/rest/v1", "", map[string]string{
		"apikey":        c.anonKey,
		"Authorization": "Bearer " + accessToken,
	})
	if pg.ClientError != nil {
		return nil, fmt.Errorf("failed to create rest client: %w", pg.ClientError)
	}
	pg.Transport.Parent = ex
	return pg, nil
}

// GetProfile loads the profile row of userID, or nil when none exists.
func (c *Client) GetProfile(ctx context.Context, accessToken, userID string) (*account.Record, error) {
	ex, cancel := c.exchange(ctx, apiRest)
	defer cancel()

	pg, err := c.rest(ex, accessToken)
	if err != nil {
		return nil, err
	}

	var rows []account.Record
	_, err = pg.From(profilesTable).
		Select(profileColumns, "", false).
		Eq("user_id", userID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, ex.result(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UpsertProfile inserts or updates the profile row keyed by user_id.
func (c *Client) UpsertProfile(ctx context.Context, accessToken string, upsert account.Upsert) error {
	ex, cancel := c.exchange(ctx, apiRest)
	defer cancel()

	pg, err := c.rest(ex, accessToken)
	if err != nil {
		return err
	}

	_, _, err = pg.From(profilesTable).Upsert(upsert, "user_id", "minimal", "").Execute()
	return ex.result(err)
}

// ListSessions returns the caller's sessions, newest first.
func (c *Client) ListSessions(ctx context.Context, accessToken string, limit int) ([]chat.Session, error) {
	ex, cancel := c.exchange(ctx, apiRest)
	defer cancel()

	pg, err := c.rest(ex, accessToken)
	if err != nil {
		return nil, err
	}

	sessions := []chat.Session{}
	_, err = pg.From(sessionsTable).
		Select(sessionColumns, "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		ExecuteTo(&sessions)
	if err != nil {
		return nil, ex.result(err)
	}
	return sessions, nil
}

func (c *Client) storageFor(accessToken string) *storage.Client {
	return storage.NewClient(c.baseURL+"/storage/v1", accessToken, map[string]string{"apikey": c.anonKey})
}

// Upload stores data at bucket/path, replacing any existing object.
func (c *Client) Upload(ctx context.Context, accessToken, bucket, path, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	upsert := true
	opts := storage.FileOptions{ContentType: &contentType, Upsert: &upsert}
	sc := c.storageFor(accessToken)

	// The storage SDK takes no context; the upload is abandoned, not
	// aborted, when ctx ends first.
	done := make(chan error, 1)
	go func() {
		_, err := sc.UploadFile(bucket, path, bytes.NewReader(data), opts)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return c.storageResult(err)
	}
}

// storageResult counts a storage call and maps its error. The SDK reports
// the status only when the body carries one.
func (c *Client) storageResult(err error) error {
	var se *storage.StorageError
	switch {
	case err == nil:
		c.metrics.ProviderRequest(apiStorage, http.StatusOK)
		return nil
	case errors.As(err, &se):
		status := se.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		c.metrics.ProviderRequest(apiStorage, status)
		pe := &apperr.ProviderError{Status: status, Message: se.Message}
		if pe.Message == "" {
			pe.Message = http.StatusText(status)
		}
		return pe
	default:
		c.metrics.ProviderRequest(apiStorage, 0)
		return fmt.Errorf("%s request failed: %w", apiStorage, err)
	}
}

// PublicURL returns the public download URL of bucket/path.
func (c *Client) PublicURL(bucket, path string) string {
	return c.storageFor(c.anonKey).GetPublicUrl(bucket, path).SignedURL
}
