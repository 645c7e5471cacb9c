package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/viewtube/internal/apperrors"
	"github.com/avolkov/viewtube/internal/testutil"
)

func Test_SubscriptionRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("subscribe ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := UserRepo{DB: tx}
			r := SubscriptionRepo{DB: tx}
			viewer := mustCreateUser(t, &users, "viewer", "viewer@example.com")
			channel := mustCreateUser(t, &users, "channel", "channel@example.com")

			err := r.Subscribe(t.Context(), viewer.ID, channel.ID)
			require.NoError(t, err)

			profile, err := r.GetChannelProfile(t.Context(), "channel", viewer.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), profile.Subscribers)
			assert.True(t, profile.ViewerSubscribed)
		})
	})

	t.Run("subscribe twice is idempotent", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := UserRepo{DB: tx}
			r := SubscriptionRepo{DB: tx}
			viewer := mustCreateUser(t, &users, "viewer", "viewer@example.com")
			channel := mustCreateUser(t, &users, "channel", "channel@example.com")

			require.NoError(t, r.Subscribe(t.Context(), viewer.ID, channel.ID))
			require.NoError(t, r.Subscribe(t.Context(), viewer.ID, channel.ID))

			profile, err := r.GetChannelProfile(t.Context(), "channel", viewer.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), profile.Subscribers, "duplicate subscribe should not add rows")
		})
	})

	t.Run("subscribe to self fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := UserRepo{DB: tx}
			r := SubscriptionRepo{DB: tx}
			viewer := mustCreateUser(t, &users, "viewer", "viewer@example.com")

			err := r.Subscribe(t.Context(), viewer.ID, viewer.ID)

			assert.ErrorIs(t, err, apperrors.ErrSelfSubscription)
		})
	})

	t.Run("unsubscribe ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := UserRepo{DB: tx}
			r := SubscriptionRepo{DB: tx}
			viewer := mustCreateUser(t, &users, "viewer", "viewer@example.com")
			channel := mustCreateUser(t, &users, "channel", "channel@example.com")

			require.NoError(t, r.Subscribe(t.Context(), viewer.ID, channel.ID))
			require.NoError(t, r.Unsubscribe(t.Context(), viewer.ID, channel.ID))

			profile, err := r.GetChannelProfile(t.Context(), "channel", viewer.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), profile.Subscribers)
			assert.False(t, profile.ViewerSubscribed)
		})
	})

	t.Run("unsubscribe without subscription fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := UserRepo{DB: tx}
			r := SubscriptionRepo{DB: tx}
			viewer := mustCreateUser(t, &users, "viewer", "viewer@example.com")
			channel := mustCreateUser(t, &users, "channel", "channel@example.com")

			err := r.Unsubscribe(t.Context(), viewer.ID, channel.ID)

			assert.ErrorIs(t, err, apperrors.ErrNotSubscribed)
		})
	})

	t.Run("channel profile", func(t *testing.T) {
		t.Run("counts and flags", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				users := UserRepo{DB: tx}
				r := SubscriptionRepo{DB: tx}
				channel := mustCreateUser(t, &users, "channel", "channel@example.com")
				first := mustCreateUser(t, &users, "first", "first@example.com")
				second := mustCreateUser(t, &users, "second", "second@example.com")
				other := mustCreateUser(t, &users, "other", "other@example.com")

				require.NoError(t, r.Subscribe(t.Context(), first.ID, channel.ID))
				require.NoError(t, r.Subscribe(t.Context(), second.ID, channel.ID))
				require.NoError(t, r.Subscribe(t.Context(), channel.ID, other.ID))

				profile, err := r.GetChannelProfile(t.Context(), "channel", first.ID)
				require.NoError(t, err)

				assert.Equal(t, channel.ID, profile.ID)
				assert.Equal(t, "channel", profile.Username)
				assert.Equal(t, int64(2), profile.Subscribers)
				assert.Equal(t, int64(1), profile.SubscribedTo)
				assert.True(t, profile.ViewerSubscribed)

				profile, err = r.GetChannelProfile(t.Context(), "channel", other.ID)
				require.NoError(t, err)
				assert.False(t, profile.ViewerSubscribed, "other viewer is not subscribed")
			})
		})

		t.Run("anonymous viewer", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				users := UserRepo{DB: tx}
				r := SubscriptionRepo{DB: tx}
				mustCreateUser(t, &users, "channel", "channel@example.com")

				profile, err := r.GetChannelProfile(t.Context(), "channel", uuid.Nil)

				require.NoError(t, err)
				assert.False(t, profile.ViewerSubscribed)
			})
		})

		t.Run("username case insensitive", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				users := UserRepo{DB: tx}
				r := SubscriptionRepo{DB: tx}
				channel := mustCreateUser(t, &users, "channel", "channel@example.com")

				profile, err := r.GetChannelProfile(t.Context(), "Channel", uuid.Nil)

				require.NoError(t, err)
				assert.Equal(t, channel.ID, profile.ID)
			})
		})

		t.Run("not found", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				r := SubscriptionRepo{DB: tx}

				_, err := r.GetChannelProfile(t.Context(), "ghost", uuid.Nil)

				assert.ErrorIs(t, err, apperrors.ErrChannelNotFound)
			})
		})
	})
}
