package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/akashicode/solvesafe/internal/apperr"
	"github.com/akashicode/solvesafe/internal/models"
)

// Memory is an in-process Store for tests and local runs.
type Memory struct {
	mu   sync.RWMutex
	subs map[string]models.Submission
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string]models.Submission)}
}

func (m *Memory) Create(ctx context.Context, sub *models.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.subs[sub.Token]; exists {
		return fmt.Errorf("create %s: %w", sub.Token, apperr.ErrDuplicate)
	}
	m.subs[sub.Token] = *sub
	return nil
}

func (m *Memory) FindByToken(ctx context.Context, token string) (*models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subs[token]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &sub, nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

func (m *Memory) Close() error {
	return nil
}
