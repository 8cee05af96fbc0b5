// Package cache stores chunk lists under caller-chosen keys.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/pdfchunk/internal/doctree"
)

// Store is a keyed chunk-list store. Get reports a miss as (nil, false, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]doctree.Chunk, bool, error)
	Put(ctx context.Context, key string, chunks []doctree.Chunk) error
	Delete(ctx context.Context, key string) error
}

// ErrInvalidKey is returned for keys that cannot be stored safely.
var ErrInvalidKey = errors.New("invalid cache key")

const maxKeyLen = 200

// ValidateKey rejects empty keys, path separators and traversal segments,
// so the same key is safe for every backend.
func ValidateKey(key string) error {
	switch {
	case key == "", key == ".", key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case len(key) > maxKeyLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxKeyLen)
	case strings.ContainsAny(key, `/\`), strings.ContainsRune(key, 0):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	}
	return nil
}

// ContentKey derives a stable key from document bytes and the table flag.
func ContentKey(data []byte, extractTables bool) string {
	sum := sha256.Sum256(data)
	key := "sha256-" + hex.EncodeToString(sum[:])
	if !extractTables {
		key += "-notables"
	}
	return key
}
