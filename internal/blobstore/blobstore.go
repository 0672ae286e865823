// Package blobstore provides the object store holding pronunciation audio.
// Supports local-directory, Redis and in-memory backends; blob lifetime is
// owned by the metadata rows that point at the keys.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("blob not found")

const (
	// PronunciationPrefix namespaces pronunciation audio keys.
	PronunciationPrefix = "pronunciations/"

	// ContentTypeMPEG is the content type of synthesized pronunciation audio.
	ContentTypeMPEG = "audio/mpeg"
)

// Store defines the object store operations used by the caches.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the object bytes or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// PronunciationKey returns the object key for a pronunciation clip,
// e.g. "pronunciations/<hash>.mp3".
func PronunciationKey(hash, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "mp3"
	}
	return PronunciationPrefix + hash + "." + ext
}

// validateKey rejects keys that could escape the store namespace.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("blob key is required")
	}
	if strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.HasPrefix(key, "..") {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}
