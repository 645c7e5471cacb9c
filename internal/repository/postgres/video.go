package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkov/viewtube/internal/apperrors"
	"github.com/avolkov/viewtube/internal/models"
	"github.com/avolkov/viewtube/internal/repository"
)

type VideoRepo struct {
	DB DBTX
}

const createVideo = `-- name: CreateVideo
INSERT INTO videos (id, owner_id, title, video_url, thumbnail_url, duration)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, owner_id, title, video_url, thumbnail_url, duration
`

func (r *VideoRepo) CreateVideo(ctx context.Context, arg repository.CreateVideoParams) (models.Video, error) {
	rows, _ := r.DB.Query(ctx, createVideo,
		uuid.New(),
		arg.OwnerID,
		arg.Title,
		arg.VideoURL,
		arg.ThumbnailURL,
		arg.Duration,
	)
	video, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Video, error) {
		var v models.Video
		err := row.Scan(&v.ID, &v.CreatedAt, &v.OwnerID, &v.Title, &v.VideoURL, &v.ThumbnailURL, &v.Duration)
		return v, err
	})
	if err != nil {
		return video, fmt.Errorf("db error: %w", err)
	}

	return video, nil
}

const addToHistory = `-- name: AddToHistory
INSERT INTO watch_history (user_id, video_id, watched_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = EXCLUDED.watched_at
`

func (r *VideoRepo) AddToHistory(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, addToHistory, userID, videoID, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperrors.ErrVideoNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const getWatchHistory = `-- name: GetWatchHistory
SELECT
    v.id,
    v.title,
    v.video_url,
    v.thumbnail_url,
    v.duration,
    h.watched_at,
    o.username,
    o.full_name,
    o.avatar_url
FROM watch_history h
JOIN videos v ON v.id = h.video_id
JOIN users o ON o.id = v.owner_id
WHERE h.user_id = $1
ORDER BY h.watched_at DESC
`

func (r *VideoRepo) GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchEntry, error) {
	rows, _ := r.DB.Query(ctx, getWatchHistory, userID)
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.WatchEntry, error) {
		var e models.WatchEntry
		err := row.Scan(
			&e.VideoID,
			&e.Title,
			&e.VideoURL,
			&e.ThumbnailURL,
			&e.Duration,
			&e.WatchedAt,
			&e.Owner.Username,
			&e.Owner.FullName,
			&e.Owner.AvatarURL,
		)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}
