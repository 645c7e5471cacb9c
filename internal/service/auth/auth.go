package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/avolkov/viewtube/internal/apperrors"
	"github.com/avolkov/viewtube/internal/models"
	"github.com/avolkov/viewtube/internal/repository"
	"github.com/avolkov/viewtube/internal/service/auth/tokenmanager"
	"github.com/avolkov/viewtube/internal/service/media"
)

const (
	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"
	defaultAccessAuthScheme  = "Bearer"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Cookie names for both tokens
	// If not set than default is used
	AccessCookieName  string
	RefreshCookieName string

	// Hasher to use during registration or login
	// Defaults to bcrypt
	Hasher PasswordHasher
}

// AuthService orchestrates registration, login, logout and token refresh.
// It owns the invariant that a user has at most one valid refresh token:
// every issued pair overwrites the persisted token, logout unsets it.
type AuthService struct {
	token  *tokenmanager.TokenManager
	hasher PasswordHasher

	// Repository to access long term data
	// User records are re-fetched on every operation, never cached
	userRepo repository.UserRepo

	// Sink for avatar and cover uploads
	uploader media.Uploader

	accessCookieName  string
	refreshCookieName string
	accessAuthScheme  string
}

func NewService(cfg Config, tm *tokenmanager.TokenManager, userRepo repository.UserRepo, uploader media.Uploader) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if cfg.AccessCookieName == "" {
		cfg.AccessCookieName = defaultAccessCookieName
	}
	if cfg.RefreshCookieName == "" {
		cfg.RefreshCookieName = defaultRefreshCookieName
	}

	return &AuthService{
		token:             tm,
		hasher:            hasher,
		userRepo:          userRepo,
		uploader:          uploader,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
		accessAuthScheme:  defaultAccessAuthScheme,
	}, nil
}

type RegisterParams struct {
	FullName string
	Email    string
	Username string
	Password string

	// Avatar is required, cover is optional
	Avatar *media.File
	Cover  *media.File
}

// Register creates the user record: required fields trimmed and checked,
// username and email taken case insensitively, avatar uploaded to the media
// sink before anything is persisted. The new user has no session yet.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (models.User, error) {
	var user models.User

	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(p.Email)
	p.Username = strings.TrimSpace(p.Username)

	for field, value := range map[string]string{
		"fullName": p.FullName,
		"email":    p.Email,
		"username": p.Username,
		"password": p.Password,
	} {
		if value == "" {
			return user, fmt.Errorf("%s: %w", field, apperrors.ErrFieldRequired)
		}
	}

	if p.Avatar == nil {
		return user, fmt.Errorf("avatar: %w", apperrors.ErrFieldRequired)
	}

	// Reject duplicates before touching the media sink, so a doomed
	// registration leaves no orphan objects behind. The unique indexes
	// still guard the race between check and insert.
	if _, err := s.userRepo.GetUserByLogin(ctx, p.Username); err == nil {
		return user, apperrors.ErrUserAlreadyExists
	}
	if _, err := s.userRepo.GetUserByLogin(ctx, p.Email); err == nil {
		return user, apperrors.ErrEmailAlreadyExists
	}

	avatarURL, err := s.uploader.Upload(ctx, "avatars", *p.Avatar)
	if err != nil {
		return user, fmt.Errorf("avatar upload: %w", err)
	}

	coverURL := ""
	if p.Cover != nil {
		coverURL, err = s.uploader.Upload(ctx, "covers", *p.Cover)
		if err != nil {
			s.discardUploads(ctx, avatarURL)
			return user, fmt.Errorf("cover upload: %w", err)
		}
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		s.discardUploads(ctx, avatarURL, coverURL)
		return user, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err = s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Username:       p.Username,
		Email:          p.Email,
		FullName:       p.FullName,
		HashedPassword: hash,
		AvatarURL:      avatarURL,
		CoverURL:       coverURL,
	})
	if err != nil {
		// Unique index fired between the duplicate pre-check and the insert
		s.discardUploads(ctx, avatarURL, coverURL)
		return user, err
	}

	return user, nil
}

// discardUploads removes objects uploaded for a registration that
// did not go through. Best effort, delete errors are dropped
func (s *AuthService) discardUploads(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		_ = s.uploader.Delete(ctx, url)
	}
}

// Login verifies credentials and opens a session: a fresh pair is issued and
// the refresh token is persisted on the user record, overwriting any prior
// value. This is the single rotation point besides RefreshPair.
func (s *AuthService) Login(ctx context.Context, login string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair
	var user models.User

	login = strings.TrimSpace(login)
	if login == "" {
		return user, pair, fmt.Errorf("username or email: %w", apperrors.ErrFieldRequired)
	}
	if password == "" {
		return user, pair, fmt.Errorf("password: %w", apperrors.ErrFieldRequired)
	}

	user, err := s.userRepo.GetUserByLogin(ctx, login)
	if err != nil {
		return user, pair, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return user, pair, apperrors.ErrInvalidCredentials
	}

	pair, err = s.token.GeneratePair(user)
	if err != nil {
		return user, pair, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, pair.Refresh.Value); err != nil {
		return user, pair, fmt.Errorf("error while persisting refresh token. Err: %w", err)
	}

	return user, pair, nil
}

// Logout unsets the persisted refresh token, closing the session.
// The access token stays valid until its expiry, there is no server side
// revocation for it.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("error while clearing refresh token. Err: %w", err)
	}
	return nil
}

// RefreshPair exchanges a valid refresh token for a fresh pair.
// The presented token must match the persisted one byte for byte: a mismatch
// means it was rotated away already (replay of a superseded token) or the
// user logged out. This is the sole reuse detection mechanism.
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair

	if refresh == "" {
		return pair, fmt.Errorf("refresh token not provided: %w", apperrors.ErrTokenInvalid)
	}

	userID, err := s.token.ParseRefresh(refresh)
	if err != nil {
		return pair, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		// A token for a vanished user is an auth failure, not a 404
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return pair, fmt.Errorf("user not found: %w", apperrors.ErrTokenInvalid)
		}
		return pair, err
	}

	if user.RefreshToken == "" || user.RefreshToken != refresh {
		return pair, apperrors.ErrTokenSuperseded
	}

	pair, err = s.token.GeneratePair(user)
	if err != nil {
		return pair, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, pair.Refresh.Value); err != nil {
		return pair, fmt.Errorf("error while rotating refresh token. Err: %w", err)
	}

	return pair, nil
}

// ChangePassword verifies the old password and persists a new hash
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("newPassword: %w", apperrors.ErrFieldRequired)
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, oldPassword); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("error while updating password. Err: %w", err)
	}

	return nil
}

// SetTokenPairToResponse sets both tokens as secure HTTP-only cookies
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.accessCookieName,
		Value:    pair.Access.Value,
		Path:     "/",
		MaxAge:   int(s.token.AccessTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    pair.Refresh.Value,
		Path:     "/",
		MaxAge:   int(s.token.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearTokenPair expires both token cookies
func (s *AuthService) ClearTokenPair(w http.ResponseWriter) {
	for _, name := range []string{s.accessCookieName, s.refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// GetRefreshString extracts the refresh token from the cookie,
// falling back to a JSON body for non-cookie clients
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(s.refreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.RefreshToken != "" {
		return body.RefreshToken, nil
	}

	return "", fmt.Errorf("refresh token not found in request: %w", apperrors.ErrTokenInvalid)
}

// GetUserFromRequest authorizes the request: access token is taken from the
// Authorization header or the access cookie, and the user record is re-fetched
// so the caller always acts on current state
func (s *AuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	var user models.User

	access := ""
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, s.accessAuthScheme) {
			return user, fmt.Errorf("malformed authorization header: %w", apperrors.ErrTokenInvalid)
		}
		access = token
	} else if cookie, err := r.Cookie(s.accessCookieName); err == nil {
		access = cookie.Value
	}

	if access == "" {
		return user, fmt.Errorf("access token not found in request: %w", apperrors.ErrTokenInvalid)
	}

	claims, err := s.token.ParseAccess(access)
	if err != nil {
		return user, err
	}

	user, err = s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return user, fmt.Errorf("user not found: %w", apperrors.ErrTokenInvalid)
		}
		return user, err
	}

	return user, nil
}
