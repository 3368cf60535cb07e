package redis

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Store is a session.Store over Redis strings. Keys live under
// "{namespace}:{key}"; values never expire.
type Store struct {
	db        redis.UniversalClient
	namespace string
	batch     int64
}

func NewStore(client redis.UniversalClient, cfg Config) *Store {
	batch := cfg.ScanBatchSize
	if batch <= 0 {
		batch = 500
	}
	return &Store{db: client, namespace: cfg.Namespace, batch: batch}
}

func (s *Store) fullKey(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

// Get returns nil, nil for missing keys.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.db.Get(ctx, s.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.db.Set(ctx, s.fullKey(key), value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.Del(ctx, s.fullKey(key)).Err()
}

// Keys scans for keys starting with prefix and returns them without the
// namespace, sorted.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := s.fullKey(escapeGlob(prefix)) + "*"
	strip := s.fullKey("")

	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.db.Scan(ctx, cursor, pattern, s.batch).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, strip))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

var globEscaper = strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`, `\`, `\\`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
