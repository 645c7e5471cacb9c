package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	AvatarURL      string
	CoverURL       string

	// Currently persisted refresh token, empty if user has no session
	RefreshToken string
}

// PublicUser is the representation safe to return to callers:
// the password hash and refresh token never leave the service.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatar"`
	CoverURL  string    `json:"coverImage,omitempty"`
}

func (u User) Sanitized() PublicUser {
	return PublicUser{
		ID:        u.ID,
		CreatedAt: u.CreatedAt,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CoverURL:  u.CoverURL,
	}
}
