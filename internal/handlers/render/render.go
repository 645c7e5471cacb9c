package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/avolkov/viewtube/internal/apperrors"
)

var validate = validator.New()

func init() {
	configureValidator(validate)
}

// Envelope is the wire format of every response:
// {success, data, message} on success, {success, message} on error
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// JSON sends data wrapped in the success envelope with status 200
func JSON(w http.ResponseWriter, data any, message string) {
	JSONWithStatus(w, http.StatusOK, data, message)
}

// JSONWithStatus sends data wrapped in the success envelope
func JSONWithStatus(w http.ResponseWriter, code int, data any, message string) {
	jsonWithStatus(w, Envelope{Success: true, Data: data, Message: message}, code)
}

// Error sends the error envelope with the given message and status
func Error(w http.ResponseWriter, message string, code int) {
	jsonWithStatus(w, Envelope{Success: false, Message: message}, code)
}

// FromError maps a service error to the envelope: status comes from the error
// kind, unknown errors collapse to a plain 500 so no internals leak out
func FromError(w http.ResponseWriter, err error) {
	code := apperrors.Status(err)
	message := "Internal server error"
	if code != http.StatusInternalServerError {
		message = publicMessage(err)
	}

	Error(w, message, code)
}

// publicMessage unwraps to the sentinel, dropping the internal wrapping chain.
// Missing-field errors keep one wrapping level so the response names the field
func publicMessage(err error) string {
	if errors.Is(err, apperrors.ErrFieldRequired) {
		return fieldMessage(err)
	}

	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}

// fieldMessage returns the "field: reason" message sitting directly
// above the sentinel
func fieldMessage(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil || errors.Unwrap(unwrapped) == nil {
			return err.Error()
		}
		err = unwrapped
	}
}

// DecodeError renders a json decoding failure
func DecodeError(w http.ResponseWriter, err error) {
	message := ""

	// Try to provide more specific error message based on error type
	switch err := err.(type) {
	case *json.UnmarshalTypeError:
		message = fmt.Sprintf("Invalid data type for field '%s'", err.Field)
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	Error(w, message, http.StatusBadRequest)
}

// ValidationErrors renders field validation failures as one message
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	fields := make([]string, 0, len(errs))

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var reason string
		switch fieldError.Tag() {
		case "required":
			reason = "is required"
		case "min":
			reason = fmt.Sprintf("is too short (minimum %s)", fieldError.Param())
		case "email":
			reason = "is not a valid email"
		default:
			reason = "is invalid"
		}

		fields = append(fields, fmt.Sprintf("%s %s", fieldError.Field(), reason))
	}

	Error(w, "Request validation failed: "+strings.Join(fields, "; "), http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into type T and validates it using
// struct tags. Writes the appropriate error response on failure, so the caller
// only has to bail out.
func BindAndValidate[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// jsonWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
