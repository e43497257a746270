// Package redisstore stores submission records as JSON values in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akashicode/solvesafe/internal/apperr"
	"github.com/akashicode/solvesafe/internal/models"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "solvesafe:submission:"

// Store implements submission persistence on Redis.
type Store struct {
	client *redis.Client
	prefix string
}

// Open parses a redis:// URL and checks the connection.
func Open(ctx context.Context, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return New(ctx, redis.NewClient(opts), DefaultPrefix)
}

// New wraps an existing client.
func New(ctx context.Context, client *redis.Client, prefix string) (*Store, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}, nil
}

func (s *Store) key(token string) string {
	return s.prefix + token
}

// Create writes sub only if its token is unused.
func (s *Store) Create(ctx context.Context, sub *models.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(sub.Token), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return fmt.Errorf("create %s: %w", sub.Token, apperr.ErrDuplicate)
	}
	return nil
}

// FindByToken reads the record for token.
func (s *Store) FindByToken(ctx context.Context, token string) (*models.Submission, error) {
	val, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var sub models.Submission
	if err := json.Unmarshal(val, &sub); err != nil {
		return nil, fmt.Errorf("unmarshal submission: %w", err)
	}
	return &sub, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
