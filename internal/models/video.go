package models

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID           uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	OwnerID      uuid.UUID `json:"ownerId"`
	Title        string    `json:"title"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnail"`
	Duration     int64     `json:"duration"` // seconds
}

// OwnerSummary is the short owner projection embedded in watch history
type OwnerSummary struct {
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatar"`
}

// WatchEntry is one watch history record: the video plus its owner summary
type WatchEntry struct {
	VideoID      uuid.UUID    `json:"videoId"`
	Title        string       `json:"title"`
	VideoURL     string       `json:"videoUrl"`
	ThumbnailURL string       `json:"thumbnail"`
	Duration     int64        `json:"duration"`
	WatchedAt    time.Time    `json:"watchedAt"`
	Owner        OwnerSummary `json:"owner"`
}
