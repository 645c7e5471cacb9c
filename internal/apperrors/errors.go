package apperrors

import (
	"errors"
	"net/http"
)

var (
	ErrFieldRequired = errors.New("required field is missing or empty")

	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrEmailAlreadyExists = errors.New("email already taken")
	ErrUserNotFound       = errors.New("user not found")

	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
	// Returned when the presented refresh token does not match the persisted
	// one: either it was rotated away already or the user logged out
	ErrTokenSuperseded = errors.New("refresh token is expired or already used")

	ErrUploadFailed = errors.New("media upload failed")

	ErrChannelNotFound  = errors.New("channel not found")
	ErrVideoNotFound    = errors.New("video not found")
	ErrSelfSubscription = errors.New("can't subscribe to own channel")
	ErrNotSubscribed    = errors.New("not subscribed to this channel")
)

// Status maps an error to the HTTP status the response envelope should carry.
// Unknown errors are treated as internal.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrFieldRequired),
		errors.Is(err, ErrUploadFailed),
		errors.Is(err, ErrSelfSubscription):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenSuperseded):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrChannelNotFound),
		errors.Is(err, ErrVideoNotFound),
		errors.Is(err, ErrNotSubscribed):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrEmailAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
