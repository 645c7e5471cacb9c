package media

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/viewtube/internal/apperrors"
)

func testFile() File {
	return File{
		Name:        "avatar.png",
		ContentType: "image/png",
		Size:        10,
		Content:     strings.NewReader("fake bytes"),
	}
}

func Test_S3Uploader(t *testing.T) {
	t.Parallel()

	newUploader := func(t *testing.T, endpoint string) *S3Uploader {
		t.Helper()

		u, err := NewS3Uploader(t.Context(), S3Config{
			Endpoint:  endpoint,
			Region:    "us-east-1",
			Bucket:    "viewtube-media",
			AccessKey: "test-access",
			SecretKey: "test-secret",
		})
		require.NoError(t, err)
		return u
	}

	t.Run("bucket required", func(t *testing.T) {
		_, err := NewS3Uploader(t.Context(), S3Config{})

		require.Error(t, err)
	})

	t.Run("upload ok", func(t *testing.T) {
		type putRequest struct {
			method      string
			path        string
			contentType string
			body        string
		}
		requests := make(chan putRequest, 1)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			requests <- putRequest{
				method:      r.Method,
				path:        r.URL.Path,
				contentType: r.Header.Get("Content-Type"),
				body:        string(body),
			}
			w.Header().Set("ETag", `"fake-etag"`)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		u := newUploader(t, srv.URL)

		url, err := u.Upload(t.Context(), "avatars", testFile())
		require.NoError(t, err)

		got := <-requests
		assert.Equal(t, http.MethodPut, got.method)
		assert.True(t, strings.HasPrefix(got.path, "/viewtube-media/avatars/"), "path style key should start with bucket and kind, got %q", got.path)
		assert.Equal(t, "image/png", got.contentType)
		assert.Equal(t, "fake bytes", got.body)

		assert.True(t, strings.HasPrefix(url, srv.URL+"/viewtube-media/avatars/"), "object url should be endpoint based, got %q", url)
	})

	t.Run("upload error wraps sentinel", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}))
		defer srv.Close()

		u := newUploader(t, srv.URL)

		_, err := u.Upload(t.Context(), "avatars", testFile())

		require.ErrorIs(t, err, apperrors.ErrUploadFailed)
	})

	t.Run("delete ok", func(t *testing.T) {
		type deleteRequest struct {
			method string
			path   string
		}
		requests := make(chan deleteRequest, 1)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests <- deleteRequest{method: r.Method, path: r.URL.Path}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		u := newUploader(t, srv.URL)

		err := u.Delete(t.Context(), srv.URL+"/viewtube-media/avatars/2024/1/1/key")
		require.NoError(t, err)

		got := <-requests
		assert.Equal(t, http.MethodDelete, got.method)
		assert.Equal(t, "/viewtube-media/avatars/2024/1/1/key", got.path)
	})

	t.Run("delete rejects foreign url", func(t *testing.T) {
		u := newUploader(t, "http://localhost:9000")

		err := u.Delete(t.Context(), "https://elsewhere.example/other-bucket/key")

		require.Error(t, err, "url from another bucket must not be deletable")
	})

	t.Run("object url without endpoint", func(t *testing.T) {
		u := newUploader(t, "")

		url := u.objectURL("avatars/2024/1/1/key")

		assert.Equal(t, "https://viewtube-media.s3.amazonaws.com/avatars/2024/1/1/key", url)
	})

	t.Run("storage key is kind prefixed and unique", func(t *testing.T) {
		first := randomStorageKey("covers")
		second := randomStorageKey("covers")

		assert.True(t, strings.HasPrefix(first, "covers/"))
		assert.NotEqual(t, first, second)
	})
}
