package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "scribe:"

// farFuture scores index entries of documents that never expire (2100-01-01).
const farFuture = 4102444800

// DocumentStore implements ports.DocumentStore using Redis.
// Each record is a JSON value; a ZSET scored by expiry indexes the IDs.
type DocumentStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*DocumentStore)

// WithTTL sets the expiration for archived documents.
func WithTTL(ttl time.Duration) Option {
	return func(s *DocumentStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *DocumentStore) {
		s.prefix = prefix
	}
}

// New creates a new Redis document store with options.
func New(address, password string, db int, opts ...Option) *DocumentStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis document store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *DocumentStore {
	store := &DocumentStore{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client so a Locker can share the connection.
func (s *DocumentStore) Client() *backend.Client {
	return s.client
}

func (s *DocumentStore) key(id string) string {
	return s.prefix + "document:" + id
}

func (s *DocumentStore) indexKey() string {
	return s.prefix + "document:index"
}

// Save persists the record to Redis.
func (s *DocumentStore) Save(ctx context.Context, rec domain.DocumentRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	score := float64(farFuture)
	if s.ttl > 0 {
		score = float64(time.Now().Add(s.ttl).Unix())
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(rec.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: rec.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves a record from Redis.
func (s *DocumentStore) Load(ctx context.Context, id string) (domain.DocumentRecord, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.DocumentRecord{}, domain.ErrDocumentNotFound
		}
		return domain.DocumentRecord{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var rec domain.DocumentRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return rec, nil
}

// Delete removes the record and its index entry.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns archived IDs ordered by expiry, pruning expired index entries first.
func (s *DocumentStore) List(ctx context.Context) ([]string, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired documents: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return ids, nil
}

// Ping checks connectivity.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *DocumentStore) Close() error {
	return s.client.Close()
}
