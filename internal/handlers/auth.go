package handlers

import (
	"net/http"

	"github.com/avolkov/viewtube/internal/handlers/render"
	"github.com/avolkov/viewtube/internal/handlers/userctx"
	"github.com/avolkov/viewtube/internal/logger"
	"github.com/avolkov/viewtube/internal/models"
	"github.com/avolkov/viewtube/internal/service/auth"
)

// handleRegister creates a new account from a multipart form:
// text fields plus the avatar file (required) and cover image (optional)
func handleRegister(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxImageBytes * 2); err != nil {
			render.Error(w, "Expected multipart form data", http.StatusBadRequest)
			return
		}

		avatar, err := imageFromForm(r, "avatar")
		if err != nil {
			render.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cover, err := imageFromForm(r, "coverImage")
		if err != nil {
			render.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		user, err := as.Register(r.Context(), auth.RegisterParams{
			FullName: r.FormValue("fullName"),
			Email:    r.FormValue("email"),
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
			Avatar:   avatar,
			Cover:    cover,
		})
		if err != nil {
			l.Info("registration rejected", "error", err.Error())
			render.FromError(w, err)
			return
		}

		render.JSONWithStatus(w, http.StatusCreated, user.Sanitized(), "User registered successfully")
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		User         models.PublicUser `json:"user"`
		AccessToken  string            `json:"accessToken"`
		RefreshToken string            `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		login := data.Username
		if login == "" {
			login = data.Email
		}

		user, pair, err := as.Login(r.Context(), login, data.Password)
		if err != nil {
			l.Info("login rejected", "error", err.Error())
			render.FromError(w, err)
			return
		}

		as.SetTokenPairToResponse(w, pair)
		render.JSON(w, response{
			User:         user.Sanitized(),
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		}, "User logged in successfully")
	})
}

func handleLogout(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		if err := as.Logout(r.Context(), user.ID); err != nil {
			l.Error("logout failed", "error", err.Error(), "user", user.ID)
			render.FromError(w, err)
			return
		}

		as.ClearTokenPair(w)
		render.JSON(w, nil, "User logged out successfully")
	})
}

func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	type response struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := as.GetRefreshString(r)
		if err != nil {
			render.Error(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		pair, err := as.RefreshPair(r.Context(), refresh)
		if err != nil {
			l.Info("token refresh rejected", "error", err.Error())
			render.FromError(w, err)
			return
		}

		as.SetTokenPairToResponse(w, pair)
		render.JSON(w, response{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		}, "Access token refreshed successfully")
	})
}

func handleChangePassword(as authService, l logger.Logger) http.Handler {
	type request struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, _ := userctx.FromContext(r.Context())

		if err := as.ChangePassword(r.Context(), user.ID, data.OldPassword, data.NewPassword); err != nil {
			l.Info("password change rejected", "error", err.Error(), "user", user.ID)
			render.FromError(w, err)
			return
		}

		render.JSON(w, nil, "Password changed successfully")
	})
}
