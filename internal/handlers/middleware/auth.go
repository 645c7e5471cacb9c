package middleware

import (
	"context"
	"net/http"

	"github.com/avolkov/viewtube/internal/handlers/render"
	"github.com/avolkov/viewtube/internal/handlers/userctx"
	"github.com/avolkov/viewtube/internal/models"
)

type authService interface {
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware validates the access token and puts the current user
// into the request context
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.GetUserFromRequest(r.Context(), r)
			if err != nil {
				render.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
