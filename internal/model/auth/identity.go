package auth

import "time"

// User is the provider's view of an authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Session is a provider-issued token pair. The service stores it in cookies
// but never mints one itself.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user,omitempty"`
}

// Identity is the resolved session/user pair for one request. Both are nil
// for anonymous requests.
type Identity struct {
	Session *Session
	User    *User
}

// Authenticated reports whether both halves of the identity are present.
func (i Identity) Authenticated() bool {
	return i.Session != nil && i.User != nil
}

// Credentials are the e-mail/password pair of the password login and signup forms.
type Credentials struct {
	Email    string `validate:"required,email,max=320"`
	Password string `validate:"min=8,max=128"`
}

// EmailOnly is the magic-link form.
type EmailOnly struct {
	Email string `validate:"required,email,max=320"`
}

// PasswordChange is the account password form.
type PasswordChange struct {
	NewPassword     string `validate:"min=8,max=128"`
	ConfirmPassword string `validate:"min=8,max=128"`
}
