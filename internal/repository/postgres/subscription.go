package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkov/viewtube/internal/apperrors"
	"github.com/avolkov/viewtube/internal/models"
)

type SubscriptionRepo struct {
	DB DBTX
}

const subscribe = `-- name: Subscribe
INSERT INTO subscriptions (subscriber_id, channel_id)
VALUES ($1, $2)
ON CONFLICT (subscriber_id, channel_id) DO NOTHING
`

func (r *SubscriptionRepo) Subscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, subscribe, subscriberID, channelID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return apperrors.ErrSelfSubscription
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const unsubscribe = `-- name: Unsubscribe
DELETE FROM subscriptions
WHERE subscriber_id = $1 AND channel_id = $2
`

func (r *SubscriptionRepo) Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, unsubscribe, subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotSubscribed
	}

	return nil
}

const getChannelProfile = `-- name: GetChannelProfile
SELECT
    u.id,
    u.username,
    u.full_name,
    u.email,
    u.avatar_url,
    COALESCE(u.cover_url, ''),
    (SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id)    AS subscribers,
    (SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to,
    EXISTS (
        SELECT 1 FROM subscriptions s
        WHERE s.channel_id = u.id AND s.subscriber_id = $2
    ) AS viewer_subscribed
FROM users u
WHERE u.username = lower($1)
`

func (r *SubscriptionRepo) GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error) {
	rows, _ := r.DB.Query(ctx, getChannelProfile, username, viewerID)
	profile, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.ChannelProfile, error) {
		var p models.ChannelProfile
		err := row.Scan(
			&p.ID,
			&p.Username,
			&p.FullName,
			&p.Email,
			&p.AvatarURL,
			&p.CoverURL,
			&p.Subscribers,
			&p.SubscribedTo,
			&p.ViewerSubscribed,
		)
		return p, err
	})

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, apperrors.ErrChannelNotFound
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}
