package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/viewtube/internal/handlers/render"
	"github.com/avolkov/viewtube/internal/logger"
	"github.com/avolkov/viewtube/internal/repository/postgres"
	"github.com/avolkov/viewtube/internal/service/auth"
	"github.com/avolkov/viewtube/internal/service/auth/tokenmanager"
	"github.com/avolkov/viewtube/internal/service/media"
	"github.com/avolkov/viewtube/internal/service/user"
	"github.com/avolkov/viewtube/internal/testutil"
)

// Authenticated client helpers for the profile endpoints.
// Every test creates its own users and sessions inside a rolled back tx.
type userTestEnv struct {
	URL  string
	Auth *auth.AuthService
}

func (e *userTestEnv) registerAndLogin(t *testing.T, username string) []*http.Cookie {
	t.Helper()

	_, err := e.Auth.Register(t.Context(), auth.RegisterParams{
		FullName: "Test User",
		Email:    username + "@example.com",
		Username: username,
		Password: "StrongEnoughPassword",
		Avatar: &media.File{
			Name:        "avatar.png",
			ContentType: "image/png",
			Size:        4,
			Content:     strings.NewReader("fake"),
		},
	})
	require.NoError(t, err)

	data := `{"username": "` + username + `", "password": "StrongEnoughPassword"}`
	resp, err := http.Post(e.URL+"/login", "application/json", strings.NewReader(data))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return resp.Cookies()
}

func (e *userTestEnv) do(t *testing.T, method string, path string, body string, cookies []*http.Cookie) (*http.Response, render.Envelope) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequest(method, e.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	var envelope render.Envelope
	err = json.NewDecoder(resp.Body).Decode(&envelope)
	_ = resp.Body.Close()
	require.NoError(t, err, "response should be a json envelope")

	return resp, envelope
}

func Test_UserHandlers(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(dbpool *pgxpool.Pool, t *testing.T, fn func(env *userTestEnv)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			tokenManager, err := tokenmanager.New(tokenmanager.Config{
				AccessSecret:  "test-access-secret",
				RefreshSecret: "test-refresh-secret",
			})
			require.NoError(t, err)

			uploader := testutil.NewMemoryUploader()

			as, err := auth.NewService(auth.Config{}, tokenManager, storage.User(), uploader)
			require.NoError(t, err)

			us := user.NewService(storage, uploader)

			srv := httptest.NewServer(NewRouter(as, us, logger.NewNoOpLogger()))
			defer srv.Close()

			fn(&userTestEnv{URL: srv.URL + "/api/v1/users", Auth: as})
		})
	}

	t.Run("current user ok", func(t *testing.T) {
		withTx(pg.Pool, t, func(env *userTestEnv) {
			cookies := env.registerAndLogin(t, "testuser")

			resp, envelope := env.do(t, http.MethodGet, "/current-user", "", cookies)

			require.Equal(t, http.StatusOK, resp.StatusCode)
			data, ok := envelope.Data.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "testuser", data["username"])
		})
	})

	t.Run("current user unauthorized", func(t *testing.T) {
		withTx(pg.Pool, t, func(env *userTestEnv) {
			resp, envelope := env.do(t, http.MethodGet, "/current-user", "", nil)

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.False(t, envelope.Success)
		})
	})

	t.Run("update account ok", func(t *testing.T) {
		withTx(pg.Pool, t, func(env *userTestEnv) {
			cookies := env.registerAndLogin(t, "testuser")

			body := `{"fullName": "Brand New Name", "email": "newmail@example.com"}`
			resp, envelope := env.do(t, http.MethodPatch, "/update-account", body, cookies)

			require.Equal(t, http.StatusOK, resp.StatusCode)
			data, ok := envelope.Data.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "Brand New Name", data["fullName"])
			assert.Equal(t, "newmail@example.com", data["email"])
		})
	})

	t.Run("update account invalid email fails", func(t *testing.T) {
		withTx(pg.Pool, t, func(env *userTestEnv) {
			cookies := env.registerAndLogin(t, "testuser")

			body := `{"fullName": "Name", "email": "not-an-email"}`
			resp, envelope := env.do(t, http.MethodPatch, "/update-account", body, cookies)

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, envelope.Message, "email is not a valid email")
		})
	})

	t.Run("update avatar ok", func(t *testing.T) {
		withTx(pg.Pool, t, func(env *userTestEnv) {
			cookies := env.registerAndLogin(t, "testuser")

			buf := &bytes.Buffer{}
			mw := multipart.NewWriter(buf)
			header := textproto.MIMEHeader{}
			header.Set("Content-Disposition", `form-data; name="avatar"; filename="new.png"`)
			header.Set("Content-Type", "image/png")
			part, err := mw.CreatePart(header)
			require.NoError(t, err)
			_, err = part.Write([]byte("new avatar bytes"))
			require.NoError(t, err)
			require.NoError(t, mw.Close())

			req, err := http.NewRequest(http.MethodPatch, env.URL+"/avatar", buf)
			require.NoError(t, err)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			for _, c := range cookies {
				req.AddCookie(c)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			var envelope render.Envelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
			_ = resp.Body.Close()

			require.Equal(t, http.StatusOK, resp.StatusCode)
			data, ok := envelope.Data.(map[string]any)
			require.True(t, ok)
			assert.NotEmpty(t, data["avatar"])
		})
	})

	t.Run("channel", func(t *testing.T) {
		t.Run("subscribe and profile", func(t *testing.T) {
			withTx(pg.Pool, t, func(env *userTestEnv) {
				env.registerAndLogin(t, "channel")
				cookies := env.registerAndLogin(t, "viewer")

				resp, _ := env.do(t, http.MethodPost, "/c/channel/subscribe", "", cookies)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				resp, envelope := env.do(t, http.MethodGet, "/c/channel", "", cookies)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				data, ok := envelope.Data.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "channel", data["username"])
				assert.Equal(t, float64(1), data["subscribersCount"])
				assert.Equal(t, true, data["isSubscribed"])
			})
		})

		t.Run("unsubscribe", func(t *testing.T) {
			withTx(pg.Pool, t, func(env *userTestEnv) {
				env.registerAndLogin(t, "channel")
				cookies := env.registerAndLogin(t, "viewer")

				resp, _ := env.do(t, http.MethodPost, "/c/channel/subscribe", "", cookies)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				resp, _ = env.do(t, http.MethodDelete, "/c/channel/subscribe", "", cookies)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				resp, envelope := env.do(t, http.MethodDelete, "/c/channel/subscribe", "", cookies)
				require.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Contains(t, envelope.Message, "not subscribed")
			})
		})

		t.Run("subscribe to self fails", func(t *testing.T) {
			withTx(pg.Pool, t, func(env *userTestEnv) {
				cookies := env.registerAndLogin(t, "testuser")

				resp, envelope := env.do(t, http.MethodPost, "/c/testuser/subscribe", "", cookies)

				require.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Contains(t, envelope.Message, "own channel")
			})
		})

		t.Run("unknown channel 404", func(t *testing.T) {
			withTx(pg.Pool, t, func(env *userTestEnv) {
				cookies := env.registerAndLogin(t, "testuser")

				resp, _ := env.do(t, http.MethodGet, "/c/ghost", "", cookies)

				require.Equal(t, http.StatusNotFound, resp.StatusCode)
			})
		})
	})

	t.Run("videos and history", func(t *testing.T) {
		withTx(pg.Pool, t, func(env *userTestEnv) {
			ownerCookies := env.registerAndLogin(t, "owner")
			viewerCookies := env.registerAndLogin(t, "viewer")

			body := `{"title": "My video", "videoUrl": "https://media.test/videos/my.mp4", "thumbnail": "https://media.test/t/my.png", "duration": 42}`
			resp, envelope := env.do(t, http.MethodPost, "/videos", body, ownerCookies)
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			video, ok := envelope.Data.(map[string]any)
			require.True(t, ok)
			videoID, ok := video["id"].(string)
			require.True(t, ok, "video id should be in response")

			resp, _ = env.do(t, http.MethodPost, "/history/"+videoID, "", viewerCookies)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resp, envelope = env.do(t, http.MethodGet, "/history", "", viewerCookies)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			entries, ok := envelope.Data.([]any)
			require.True(t, ok)
			require.Len(t, entries, 1)

			entry, ok := entries[0].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "My video", entry["title"])

			owner, ok := entry["owner"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "owner", owner["username"])
		})
	})

	t.Run("watch unknown video 404", func(t *testing.T) {
		withTx(pg.Pool, t, func(env *userTestEnv) {
			cookies := env.registerAndLogin(t, "testuser")

			resp, _ := env.do(t, http.MethodPost, "/history/6a6bcd56-2f9c-4c5c-a7f3-2f0b1f0a9c1d", "", cookies)

			require.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	})

	t.Run("watch with malformed id fails", func(t *testing.T) {
		withTx(pg.Pool, t, func(env *userTestEnv) {
			cookies := env.registerAndLogin(t, "testuser")

			resp, _ := env.do(t, http.MethodPost, "/history/not-a-uuid", "", cookies)

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	})
}
