package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
)

// MemoryStore keeps trees in a map. Trees are cloned on the way in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	rules  map[string]*rule.Node
	closed bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rules: make(map[string]*rule.Node)}
}

func (s *MemoryStore) Save(ctx context.Context, tree *rule.Node) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if tree == nil {
		return "", rule.ErrMalformedTree
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}

	id := uuid.NewString()
	s.rules[id] = tree.Clone()
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*rule.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	tree, ok := s.rules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return tree.Clone(), nil
}

func (s *MemoryStore) FetchMany(ctx context.Context, ids []string) ([]*rule.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	out := make([]*rule.Node, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		if tree, ok := s.rules[id]; ok {
			out = append(out, tree.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
