package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgallion1/pdfchunk/internal/doctree"
	"github.com/dgallion1/pdfchunk/internal/pathstore"
)

// PathstoreStore keeps chunk lists as pathstore nodes under Prefix/key.
type PathstoreStore struct {
	client *pathstore.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewPathstoreStore(client *pathstore.Client, prefix string, ttl time.Duration) *PathstoreStore {
	return &PathstoreStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (s *PathstoreStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + "/" + k
}

func (s *PathstoreStore) Get(ctx context.Context, key string) ([]doctree.Chunk, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}
	node, err := s.client.GetNode(ctx, s.key(key))
	if err != nil {
		return nil, false, err
	}
	if node == nil {
		return nil, false, nil
	}
	var chunks []doctree.Chunk
	if err := json.Unmarshal(node.Value, &chunks); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return chunks, true, nil
}

func (s *PathstoreStore) Put(ctx context.Context, key string, chunks []doctree.Chunk) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	raw, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	req := pathstore.NodeRequest{Value: raw, Source: "pdfchunk"}
	if s.ttl > 0 {
		req.ExpiresAt = s.now().Add(s.ttl).UTC().Format(time.RFC3339)
	}
	return s.client.PutNode(ctx, s.key(key), req)
}

func (s *PathstoreStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.client.DeleteNode(ctx, s.key(key))
}
