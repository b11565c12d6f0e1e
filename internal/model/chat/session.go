package chat

import "time"

// Session is a stored conversation summary row owned by the provider's
// record store. Only metadata lives there; transcripts stay client-side.
type Session struct {
	ID        string     `json:"id"`
	Voice     string     `json:"voice"`
	Title     *string    `json:"title"`
	Status    string     `json:"status"`
	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// MaxSessionsListed caps GET /api/sessions.
const MaxSessionsListed = 50
