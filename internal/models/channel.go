package models

import (
	"github.com/google/uuid"
)

// ChannelProfile is the channel read model: public user fields
// plus subscription counters relative to the requesting viewer
type ChannelProfile struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	FullName         string    `json:"fullName"`
	Email            string    `json:"email"`
	AvatarURL        string    `json:"avatar"`
	CoverURL         string    `json:"coverImage,omitempty"`
	Subscribers      int64     `json:"subscribersCount"`
	SubscribedTo     int64     `json:"channelsSubscribedToCount"`
	ViewerSubscribed bool      `json:"isSubscribed"`
}
