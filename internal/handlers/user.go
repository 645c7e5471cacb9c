package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/avolkov/viewtube/internal/handlers/render"
	"github.com/avolkov/viewtube/internal/handlers/userctx"
	"github.com/avolkov/viewtube/internal/logger"
	"github.com/avolkov/viewtube/internal/models"
	"github.com/avolkov/viewtube/internal/service/media"
	"github.com/avolkov/viewtube/internal/service/user"
)

func handleCurrentUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())
		render.JSON(w, u.Sanitized(), "Current user fetched successfully")
	})
}

func handleUpdateAccount(us userService, l logger.Logger) http.Handler {
	type request struct {
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		u, _ := userctx.FromContext(r.Context())

		updated, err := us.UpdateAccount(r.Context(), u.ID, data.FullName, data.Email)
		if err != nil {
			l.Info("account update rejected", "error", err.Error(), "user", u.ID)
			render.FromError(w, err)
			return
		}

		render.JSON(w, updated.Sanitized(), "Account details updated successfully")
	})
}

func handleUpdateAvatar(us userService, l logger.Logger) http.Handler {
	return updateImageHandler(l, "avatar", us.UpdateAvatar)
}

func handleUpdateCover(us userService, l logger.Logger) http.Handler {
	return updateImageHandler(l, "coverImage", us.UpdateCover)
}

type imageUpdateFn func(ctx context.Context, userID uuid.UUID, file media.File) (models.User, error)

// updateImageHandler is the shared shape of the avatar and cover endpoints:
// one required image in a multipart form, uploaded and persisted on the record
func updateImageHandler(l logger.Logger, field string, update imageUpdateFn) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			render.Error(w, "Expected multipart form data", http.StatusBadRequest)
			return
		}

		file, err := imageFromForm(r, field)
		if err != nil {
			render.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if file == nil {
			render.Error(w, field+" file is missing", http.StatusBadRequest)
			return
		}

		u, _ := userctx.FromContext(r.Context())

		updated, err := update(r.Context(), u.ID, *file)
		if err != nil {
			l.Info("image update rejected", "error", err.Error(), "user", u.ID, "field", field)
			render.FromError(w, err)
			return
		}

		render.JSON(w, updated.Sanitized(), "Image updated successfully")
	})
}

func handleWatchHistory(us userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		history, err := us.WatchHistory(r.Context(), u.ID)
		if err != nil {
			l.Error("watch history fetch failed", "error", err.Error(), "user", u.ID)
			render.FromError(w, err)
			return
		}

		render.JSON(w, history, "Watch history fetched successfully")
	})
}

func handleWatchVideo(us userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		videoID, err := uuid.Parse(r.PathValue("videoID"))
		if err != nil {
			render.Error(w, "Invalid video id", http.StatusBadRequest)
			return
		}

		if err := us.WatchVideo(r.Context(), u.ID, videoID); err != nil {
			l.Info("watch record rejected", "error", err.Error(), "user", u.ID)
			render.FromError(w, err)
			return
		}

		render.JSON(w, nil, "Watch recorded")
	})
}

func handlePublishVideo(us userService, l logger.Logger) http.Handler {
	type request struct {
		Title        string `json:"title" validate:"required"`
		VideoURL     string `json:"videoUrl" validate:"required"`
		ThumbnailURL string `json:"thumbnail"`
		Duration     int64  `json:"duration" validate:"gte=0"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		u, _ := userctx.FromContext(r.Context())

		video, err := us.PublishVideo(r.Context(), u.ID, user.PublishVideoParams{
			Title:        data.Title,
			VideoURL:     data.VideoURL,
			ThumbnailURL: data.ThumbnailURL,
			Duration:     data.Duration,
		})
		if err != nil {
			l.Info("video publish rejected", "error", err.Error(), "user", u.ID)
			render.FromError(w, err)
			return
		}

		render.JSONWithStatus(w, http.StatusCreated, video, "Video published successfully")
	})
}
