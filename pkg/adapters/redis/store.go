// Package redis provides a FlowStore backed by Redis, with optional key
// expiration and a ZSET index for listing.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/fable/pkg/domain"
)

// Store implements ports.FlowStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for stored flows.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for stored flows.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "fable:flow:",
		ttl:    0, // no expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(flowID string) string {
	return s.prefix + flowID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the definition to Redis: the JSON payload with TTL plus a
// ZSET index entry scored by expiry for lazy cleanup on List.
func (s *Store) Save(ctx context.Context, def *domain.FlowDefinition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("definition must have a flow id")
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(def.ID), data, s.ttl)

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01, effectively never expires
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: def.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the definition from Redis.
func (s *Store) Load(ctx context.Context, flowID string) (*domain.FlowDefinition, error) {
	val, err := s.client.Get(ctx, s.key(flowID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrFlowNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var def domain.FlowDefinition
	if err := json.Unmarshal([]byte(val), &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
	}
	return &def, nil
}

// Delete removes the definition and its index entry.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(flowID))
	pipe.ZRem(ctx, s.indexKey(), flowID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored flow ids. Expired index entries are pruned lazily
// with ZREMRANGEBYSCORE before reading.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired flows: %w", err)
	}

	flows, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	return flows, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
