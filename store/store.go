// Package store persists generation interactions for audit and review, and
// caches results to spare the model backends repeated work.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gentext/gentext/statement"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Interaction is one completed generation request and its outcome.
type Interaction struct {
	ID             string         `json:"id"`
	RequestID      string         `json:"request_id"`
	Kind           statement.Kind `json:"kind"`
	PartialText    string         `json:"partial_sentence"`
	FullText       string         `json:"full_sentence"`
	Count          int            `json:"num_statements"`
	FalseSentences []string       `json:"false_sentences"`
	CreatedAt      time.Time      `json:"created_at"`
}

// InteractionStore persists interactions. Implementations are safe for
// concurrent use.
type InteractionStore interface {
	// Add persists one interaction, assigning ID and CreatedAt when unset.
	Add(ctx context.Context, in *Interaction) error

	// Recent returns up to limit interactions, newest first.
	Recent(ctx context.Context, limit int) ([]*Interaction, error)

	// Count returns the number of stored interactions.
	Count(ctx context.Context) (int, error)

	// Ping checks backend liveness.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close(ctx context.Context) error
}

// stamp fills in identity and timestamp defaults.
func stamp(in *Interaction) error {
	if in == nil {
		return fmt.Errorf("interaction cannot be nil")
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	return nil
}

// InMemoryStore keeps interactions in process memory. Used in tests and when
// no database is configured.
type InMemoryStore struct {
	mu    sync.RWMutex
	items []*Interaction
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Add persists one interaction.
func (s *InMemoryStore) Add(_ context.Context, in *Interaction) error {
	if err := stamp(in); err != nil {
		return err
	}
	cp := *in
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, &cp)
	return nil
}

// Recent returns up to limit interactions, newest first.
func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]*Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Interaction, len(s.items))
	copy(out, s.items)
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of stored interactions.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *InMemoryStore) Close(_ context.Context) error { return nil }
