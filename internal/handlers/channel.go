package handlers

import (
	"net/http"

	"github.com/avolkov/viewtube/internal/handlers/render"
	"github.com/avolkov/viewtube/internal/handlers/userctx"
	"github.com/avolkov/viewtube/internal/logger"
)

func handleChannelProfile(us userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := userctx.FromContext(r.Context())

		profile, err := us.ChannelProfile(r.Context(), r.PathValue("username"), viewer.ID)
		if err != nil {
			l.Info("channel profile fetch rejected", "error", err.Error())
			render.FromError(w, err)
			return
		}

		render.JSON(w, profile, "User channel fetched successfully")
	})
}

func handleSubscribe(us userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := userctx.FromContext(r.Context())

		if err := us.Subscribe(r.Context(), viewer.ID, r.PathValue("username")); err != nil {
			l.Info("subscribe rejected", "error", err.Error(), "user", viewer.ID)
			render.FromError(w, err)
			return
		}

		render.JSON(w, nil, "Subscribed successfully")
	})
}

func handleUnsubscribe(us userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := userctx.FromContext(r.Context())

		if err := us.Unsubscribe(r.Context(), viewer.ID, r.PathValue("username")); err != nil {
			l.Info("unsubscribe rejected", "error", err.Error(), "user", viewer.ID)
			render.FromError(w, err)
			return
		}

		render.JSON(w, nil, "Unsubscribed successfully")
	})
}
