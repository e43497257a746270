// Package store persists submission records and the documents they point at.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/akashicode/solvesafe/internal/models"
	"github.com/akashicode/solvesafe/internal/store/redisstore"
	"github.com/akashicode/solvesafe/internal/store/sqlite"
)

// Store holds one immutable record per submission token.
//
// Create fails with apperr.ErrDuplicate when the token is taken.
// FindByToken fails with apperr.ErrNotFound when no record exists.
type Store interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByToken(ctx context.Context, token string) (*models.Submission, error)
	Close() error
}

// Open connects to the store named by url. Supported schemes are
// sqlite://<path>, redis://<host>:<port>/<db> and memory://.
func Open(ctx context.Context, url string) (Store, error) {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return nil, fmt.Errorf("store url %q has no scheme", url)
	}

	switch strings.ToLower(scheme) {
	case "memory", "mem":
		return NewMemory(), nil
	case "sqlite", "sqlite3", "file":
		s, err := sqlite.Open(ctx, rest)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis", "rediss":
		s, err := redisstore.Open(ctx, url)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", scheme)
	}
}
