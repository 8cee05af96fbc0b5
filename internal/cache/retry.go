package cache

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/dgallion1/pdfchunk/internal/doctree"
)

// RetryStore retries failed writes and deletes of the wrapped store with
// exponential backoff. Reads are not retried: a failed read is treated as a
// miss by callers.
type RetryStore struct {
	Store
	attempts uint
	delay    time.Duration
}

func WithRetry(s Store, attempts uint, delay time.Duration) *RetryStore {
	if attempts == 0 {
		attempts = 1
	}
	return &RetryStore{Store: s, attempts: attempts, delay: delay}
}

func (s *RetryStore) Put(ctx context.Context, key string, chunks []doctree.Chunk) error {
	return s.do(ctx, func() error { return s.Store.Put(ctx, key, chunks) })
}

func (s *RetryStore) Delete(ctx context.Context, key string) error {
	return s.do(ctx, func() error { return s.Store.Delete(ctx, key) })
}

func (s *RetryStore) do(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrInvalidKey) && !errors.Is(err, context.Canceled)
		}),
	)
}

// Close closes the wrapped store when it holds a connection.
func (s *RetryStore) Close() error {
	if c, ok := s.Store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
