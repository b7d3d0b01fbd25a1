package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Uploader is the blob store surface the binder needs.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// Binder associates an uploaded image with its owner under a stable,
// collision-resistant key: {ownerID}/{submission millis}.{extension}.
type Binder struct {
	store Uploader
}

// NewBinder creates a new Binder
func NewBinder(store Uploader) *Binder {
	return &Binder{store: store}
}

// Bind uploads the image and returns its public URL. All-or-nothing: on any
// upload failure no URL is produced and the caller must not persist the
// proposal row.
func (b *Binder) Bind(ctx context.Context, ownerID uuid.UUID, filename, contentType string, data []byte) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		ext = "bin"
	}

	key := fmt.Sprintf("%s/%d.%s", ownerID, time.Now().UnixMilli(), ext)

	if err := b.store.Upload(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return b.store.PublicURL(key), nil
}
