// Package store keeps rule trees under opaque ids so clients can combine once
// and evaluate later by reference.
package store

import (
	"context"
	"errors"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
)

// Store persists rule trees. Implementations must be safe for concurrent use.
type Store interface {
	// Save stores the tree and returns its new id.
	Save(ctx context.Context, tree *rule.Node) (string, error)

	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*rule.Node, error)

	// FetchMany returns the trees for ids in input order. Repeated ids
	// yield one tree; unknown ids are skipped.
	FetchMany(ctx context.Context, ids []string) ([]*rule.Node, error)

	Close() error
}

var (
	ErrNotFound    = errors.New("rule not found")
	ErrStoreClosed = errors.New("rule store closed")
)

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
