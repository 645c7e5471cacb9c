package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/avolkov/viewtube/internal/apperrors"
	"github.com/avolkov/viewtube/internal/models"
	"github.com/avolkov/viewtube/internal/repository"
	"github.com/avolkov/viewtube/internal/service/media"
)

// UserService covers profile updates and the channel / watch history
// read models
type UserService struct {
	storage  repository.Storage
	uploader media.Uploader
}

func NewService(storage repository.Storage, uploader media.Uploader) *UserService {
	return &UserService{
		storage:  storage,
		uploader: uploader,
	}
}

func (s *UserService) CurrentUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

func (s *UserService) UpdateAccount(ctx context.Context, userID uuid.UUID, fullName string, email string) (models.User, error) {
	var user models.User

	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" {
		return user, fmt.Errorf("fullName: %w", apperrors.ErrFieldRequired)
	}
	if email == "" {
		return user, fmt.Errorf("email: %w", apperrors.ErrFieldRequired)
	}

	return s.storage.User().UpdateAccount(ctx, userID, fullName, email)
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, file media.File) (models.User, error) {
	var user models.User

	url, err := s.uploader.Upload(ctx, "avatars", file)
	if err != nil {
		return user, fmt.Errorf("avatar upload: %w", err)
	}

	return s.storage.User().UpdateAvatar(ctx, userID, url)
}

func (s *UserService) UpdateCover(ctx context.Context, userID uuid.UUID, file media.File) (models.User, error) {
	var user models.User

	url, err := s.uploader.Upload(ctx, "covers", file)
	if err != nil {
		return user, fmt.Errorf("cover upload: %w", err)
	}

	return s.storage.User().UpdateCover(ctx, userID, url)
}

func (s *UserService) ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error) {
	var profile models.ChannelProfile

	username = strings.TrimSpace(username)
	if username == "" {
		return profile, fmt.Errorf("username: %w", apperrors.ErrFieldRequired)
	}

	return s.storage.Subscription().GetChannelProfile(ctx, username, viewerID)
}

func (s *UserService) Subscribe(ctx context.Context, subscriberID uuid.UUID, channelUsername string) error {
	channel, err := s.storage.User().GetUserByLogin(ctx, channelUsername)
	if err != nil {
		return apperrors.ErrChannelNotFound
	}

	if channel.ID == subscriberID {
		return apperrors.ErrSelfSubscription
	}

	return s.storage.Subscription().Subscribe(ctx, subscriberID, channel.ID)
}

func (s *UserService) Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelUsername string) error {
	channel, err := s.storage.User().GetUserByLogin(ctx, channelUsername)
	if err != nil {
		return apperrors.ErrChannelNotFound
	}

	return s.storage.Subscription().Unsubscribe(ctx, subscriberID, channel.ID)
}

type PublishVideoParams struct {
	Title        string
	VideoURL     string
	ThumbnailURL string
	Duration     int64
}

func (s *UserService) PublishVideo(ctx context.Context, ownerID uuid.UUID, p PublishVideoParams) (models.Video, error) {
	var video models.Video

	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return video, fmt.Errorf("title: %w", apperrors.ErrFieldRequired)
	}
	if p.VideoURL == "" {
		return video, fmt.Errorf("videoUrl: %w", apperrors.ErrFieldRequired)
	}

	return s.storage.Video().CreateVideo(ctx, repository.CreateVideoParams{
		OwnerID:      ownerID,
		Title:        p.Title,
		VideoURL:     p.VideoURL,
		ThumbnailURL: p.ThumbnailURL,
		Duration:     p.Duration,
	})
}

func (s *UserService) WatchVideo(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) error {
	return s.storage.Video().AddToHistory(ctx, userID, videoID)
}

func (s *UserService) WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchEntry, error) {
	return s.storage.Video().GetWatchHistory(ctx, userID)
}
