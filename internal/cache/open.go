package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgallion1/pdfchunk/internal/pathstore"
)

// Backends accepted by Open.
const (
	BackendNone      = "none"
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendRedis     = "redis"
	BackendPathstore = "pathstore"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Dir           string
	RedisURL      string
	Prefix        string
	TTL           time.Duration
	PathstoreURL  string
	PathstoreKey  string
	RetryAttempts uint
	RetryDelay    time.Duration
}

// Open builds the configured store wrapped with write retries. The none
// backend returns a nil Store.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Backend {
	case BackendNone, "":
		return nil, nil
	case BackendMemory:
		s = NewMemoryStore()
	case BackendFile:
		s, err = NewFileStore(opts.Dir)
	case BackendRedis:
		s, err = OpenRedis(ctx, opts.RedisURL, opts.Prefix, opts.TTL)
	case BackendPathstore:
		s = NewPathstoreStore(pathstore.NewClient(opts.PathstoreURL, opts.PathstoreKey), opts.Prefix, opts.TTL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(s, opts.RetryAttempts, opts.RetryDelay), nil
}
