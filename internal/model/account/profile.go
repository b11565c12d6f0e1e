package account

import "time"

const (
	// AvatarBucket is the object-store bucket holding avatars.
	AvatarBucket = "avatars"
	// AvatarMaxBytes bounds an uploaded avatar.
	AvatarMaxBytes = 2 * 1024 * 1024
)

// AvatarContentTypes lists the accepted avatar MIME types.
var AvatarContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Record is a row of the provider's profiles table.
type Record struct {
	DisplayName *string    `json:"display_name"`
	AboutMe     *string    `json:"about_me"`
	AvatarPath  *string    `json:"avatar_path"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// Upsert is the payload written to the profiles table. AvatarPath is only
// sent when a new avatar was uploaded.
type Upsert struct {
	UserID      string    `json:"user_id"`
	DisplayName *string   `json:"display_name"`
	AboutMe     *string   `json:"about_me"`
	UpdatedAt   time.Time `json:"updated_at"`
	AvatarPath  string    `json:"avatar_path,omitempty"`
}

// Form is the validated profile form input, already trimmed.
type Form struct {
	DisplayName string `validate:"max=80"`
	AboutMe     string `validate:"max=800"`
}

// Avatar is an uploaded image awaiting storage.
type Avatar struct {
	ContentType string
	Size        int64
	Data        []byte
}

// View is what the account page shows.
type View struct {
	Email     string  `json:"email"`
	Profile   Profile `json:"profile"`
	LoadError *string `json:"loadError"`
}

// Profile is the display form of a Record.
type Profile struct {
	DisplayName string  `json:"displayName"`
	AboutMe     string  `json:"aboutMe"`
	AvatarURL   *string `json:"avatarUrl"`
}
