package media

import (
	"context"
	"io"
)

// File is an inbound upload: content stream plus what little metadata
// the HTTP boundary knows about it
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Uploader stores a file durably and returns the public URL.
// Delete takes that URL back, so a failed operation can undo its uploads
type Uploader interface {
	Upload(ctx context.Context, kind string, file File) (url string, err error)
	Delete(ctx context.Context, url string) error
}
