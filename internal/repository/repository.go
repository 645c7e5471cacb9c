package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/avolkov/viewtube/internal/models"
)

type CreateUserParams struct {
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	AvatarURL      string
	CoverURL       string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If username or email is taken already has to return
	// apperrors.ErrUserAlreadyExists or apperrors.ErrEmailAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id, or by login which matches username or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByLogin(ctx context.Context, login string) (models.User, error)

	// Set or rotate persisted refresh token. Empty token unsets it (NULL),
	// so a logged out user is indistinguishable from a never logged in one
	UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token string) error

	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
	UpdateAccount(ctx context.Context, userID uuid.UUID, fullName string, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) (models.User, error)
	UpdateCover(ctx context.Context, userID uuid.UUID, url string) (models.User, error)
}

// Subscription repository interface
type SubscriptionRepo interface {
	// Subscribe is idempotent: repeated subscribe to same channel is no error
	Subscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error

	// Unsubscribe must return apperrors.ErrNotSubscribed if no subscription exists
	Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error

	// Channel profile read model: counters are computed relative to viewerID
	// If channel not found must return apperrors.ErrChannelNotFound
	GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error)
}

type CreateVideoParams struct {
	OwnerID      uuid.UUID
	Title        string
	VideoURL     string
	ThumbnailURL string
	Duration     int64
}

// Video and watch history repository interface
type VideoRepo interface {
	CreateVideo(ctx context.Context, arg CreateVideoParams) (models.Video, error)

	// Record a watch: re-watching bumps the entry to the top of the history
	// If video not found must return apperrors.ErrVideoNotFound
	AddToHistory(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) error

	// Watch history read model with owner summaries, most recent first
	GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchEntry, error)
}

type Storage interface {
	User() UserRepo
	Subscription() SubscriptionRepo
	Video() VideoRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}
