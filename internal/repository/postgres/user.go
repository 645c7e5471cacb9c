package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkov/viewtube/internal/apperrors"
	"github.com/avolkov/viewtube/internal/models"
	"github.com/avolkov/viewtube/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, username, email, full_name, hashed_password, avatar_url, COALESCE(cover_url, ''), COALESCE(refresh_token, '')`

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, email, full_name, hashed_password, avatar_url, cover_url)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		uuid.New(),
		strings.ToLower(arg.Username),
		strings.ToLower(arg.Email),
		arg.FullName,
		arg.HashedPassword,
		arg.AvatarURL,
		arg.CoverURL,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == "users_email_unique" {
				return user, apperrors.ErrEmailAlreadyExists
			}
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByLogin = `-- name: GetUserByLogin
SELECT ` + userColumns + `
FROM users
WHERE username = lower($1) OR email = lower($1)
`

// GetUserByLogin finds user by username or email, case insensitively
func (r *UserRepo) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByLogin, login)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updateRefreshToken = `-- name: UpdateRefreshToken
UPDATE users
SET refresh_token = NULLIF($2, '')
WHERE id = $1
`

func (r *UserRepo) UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	tag, err := r.DB.Exec(ctx, updateRefreshToken, userID, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

const updatePassword = `-- name: UpdatePassword
UPDATE users
SET hashed_password = $2
WHERE id = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	tag, err := r.DB.Exec(ctx, updatePassword, userID, hashedPassword)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

const updateAccount = `-- name: UpdateAccount
UPDATE users
SET full_name = $2, email = lower($3)
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateAccount(ctx context.Context, userID uuid.UUID, fullName string, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateAccount, userID, fullName, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrEmailAlreadyExists
		}
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updateAvatar = `-- name: UpdateAvatar
UPDATE users
SET avatar_url = $2
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateAvatar, userID, url)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updateCover = `-- name: UpdateCover
UPDATE users
SET cover_url = $2
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateCover(ctx context.Context, userID uuid.UUID, url string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateCover, userID, url)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.CreatedAt,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.HashedPassword,
		&u.AvatarURL,
		&u.CoverURL,
		&u.RefreshToken,
	)
	return u, err
}
