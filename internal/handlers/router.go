package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/avolkov/viewtube/internal/handlers/middleware"
	"github.com/avolkov/viewtube/internal/logger"
	"github.com/avolkov/viewtube/internal/models"
	"github.com/avolkov/viewtube/internal/service/auth"
	"github.com/avolkov/viewtube/internal/service/media"
	"github.com/avolkov/viewtube/internal/service/user"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	apiusers := http.NewServeMux()

	apiusers.Handle("POST /register", handleRegister(authService, logger))
	apiusers.Handle("POST /login", handleLogin(authService, logger))
	apiusers.Handle("POST /refresh-token", handleTokenRefresh(authService, logger))

	apiusers.Handle("POST /logout", withAuth(handleLogout(authService, logger)))
	apiusers.Handle("POST /change-password", withAuth(handleChangePassword(authService, logger)))
	apiusers.Handle("GET /current-user", withAuth(handleCurrentUser()))
	apiusers.Handle("PATCH /update-account", withAuth(handleUpdateAccount(userService, logger)))
	apiusers.Handle("PATCH /avatar", withAuth(handleUpdateAvatar(userService, logger)))
	apiusers.Handle("PATCH /cover-image", withAuth(handleUpdateCover(userService, logger)))

	apiusers.Handle("GET /c/{username}", withAuth(handleChannelProfile(userService, logger)))
	apiusers.Handle("POST /c/{username}/subscribe", withAuth(handleSubscribe(userService, logger)))
	apiusers.Handle("DELETE /c/{username}/subscribe", withAuth(handleUnsubscribe(userService, logger)))

	apiusers.Handle("GET /history", withAuth(handleWatchHistory(userService, logger)))
	apiusers.Handle("POST /history/{videoID}", withAuth(handleWatchVideo(userService, logger)))
	apiusers.Handle("POST /videos", withAuth(handlePublishVideo(userService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/v1/users/", http.StripPrefix("/api/v1/users", apiusers))

	handler := chain(root,
		middleware.RequestLogger(logger),
	)

	return handler
}

type authService interface {
	// Register creates a new user record with uploaded media
	// Has to return apperrors.ErrUserAlreadyExists / ErrEmailAlreadyExists
	// on duplicate identity
	Register(ctx context.Context, p auth.RegisterParams) (models.User, error)

	// Login with username or email and open a session
	// Has to return apperrors.ErrUserNotFound if user not found and
	// apperrors.ErrInvalidCredentials on bad password
	Login(ctx context.Context, login string, password string) (models.User, models.TokenPair, error)

	// Logout closes the session: the persisted refresh token is unset
	Logout(ctx context.Context, userID uuid.UUID) error

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrTokenExpired
	// If token was rotated away already: apperrors.ErrTokenSuperseded
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Expire both token cookies
	ClearTokenPair(w http.ResponseWriter)

	// Get refresh token from request
	GetRefreshString(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	UpdateAccount(ctx context.Context, userID uuid.UUID, fullName string, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, file media.File) (models.User, error)
	UpdateCover(ctx context.Context, userID uuid.UUID, file media.File) (models.User, error)

	ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error)
	Subscribe(ctx context.Context, subscriberID uuid.UUID, channelUsername string) error
	Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelUsername string) error

	PublishVideo(ctx context.Context, ownerID uuid.UUID, p user.PublishVideoParams) (models.Video, error)
	WatchVideo(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) error
	WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchEntry, error)
}
