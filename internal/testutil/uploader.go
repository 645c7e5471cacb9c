package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/avolkov/viewtube/internal/service/media"
)

// In memory media uploader
// Stores uploaded content by generated url so tests may assert on it
type MemoryUploader struct {
	mu      sync.Mutex
	counter int
	Objects map[string][]byte

	// If set Upload returns this error without storing anything
	Err error
}

func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{
		Objects: make(map[string][]byte),
	}
}

func (u *MemoryUploader) Upload(ctx context.Context, kind string, file media.File) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.Err != nil {
		return "", u.Err
	}

	content, err := io.ReadAll(file.Content)
	if err != nil {
		return "", err
	}

	u.counter++
	url := fmt.Sprintf("https://media.test/%s/%d-%s", kind, u.counter, file.Name)
	u.Objects[url] = content
	return url, nil
}

func (u *MemoryUploader) Delete(ctx context.Context, url string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.Objects[url]; !ok {
		return fmt.Errorf("no object stored under %q", url)
	}

	delete(u.Objects, url)
	return nil
}
