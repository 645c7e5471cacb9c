package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/avolkov/viewtube/internal/service/media"
)

// Image uploads are capped the same way for every endpoint
const maxImageBytes = 5 << 20

var (
	errNotAnImage  = errors.New("only image files are allowed")
	errImageTooBig = fmt.Errorf("image file is too large (max %d bytes)", maxImageBytes)
)

// imageFromForm pulls one image file out of a multipart form.
// A missing file is not an error: the caller decides whether it is required.
// The underlying temp file is cleaned up by the server after the handler ends.
func imageFromForm(r *http.Request, field string) (*media.File, error) {
	file, header, err := r.FormFile(field)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("can't read form file %q: %w", field, err)
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%s: %w", field, errNotAnImage)
	}
	if header.Size > maxImageBytes {
		return nil, fmt.Errorf("%s: %w", field, errImageTooBig)
	}

	return &media.File{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     file,
	}, nil
}
