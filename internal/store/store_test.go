// Tests in this package use testify assert/require.

package store_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
	"github.com/awmpietro/golang-rule-engine-case/internal/store"
)

func mustRule(t *testing.T, s string) *rule.Node {
	t.Helper()
	n, err := rule.NewEngine().CreateRule(s)
	require.NoError(t, err)
	return n
}

func backends(t *testing.T) map[string]func(t *testing.T) store.Store {
	return map[string]func(t *testing.T) store.Store{
		"memory": func(t *testing.T) store.Store {
			return store.NewMemoryStore()
		},
		"sqlite": func(t *testing.T) store.Store {
			s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "rules.db"))
			require.NoError(t, err)
			return s
		},
		"sqlite memory": func(t *testing.T) store.Store {
			s, err := store.NewSQLiteStore(":memory:")
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			tree := mustRule(t, "(age > 30 AND department = 'Marketing') OR salary > 20000")
			id, err := s.Save(ctx, tree)
			require.NoError(t, err)
			_, err = uuid.Parse(id)
			assert.NoError(t, err, "id should be a uuid")

			got, err := s.Get(ctx, id)
			require.NoError(t, err)
			assert.True(t, tree.Equal(got), "got %s", got)

			_, err = s.Get(ctx, uuid.NewString())
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestStore_SavesLeftOnlyRoot(t *testing.T) {
	ctx := context.Background()
	combined, err := rule.NewEngine().CombineRules([]string{"age > 30"})
	require.NoError(t, err)

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			id, err := s.Save(ctx, combined)
			require.NoError(t, err)
			got, err := s.Get(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, got.Right)
			assert.True(t, combined.Equal(got))
		})
	}
}

func TestStore_FetchMany(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			a := mustRule(t, "a = 1")
			b := mustRule(t, "b = 2")
			idA, err := s.Save(ctx, a)
			require.NoError(t, err)
			idB, err := s.Save(ctx, b)
			require.NoError(t, err)

			got, err := s.FetchMany(ctx, []string{idB, "missing", idA, idB})
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.True(t, b.Equal(got[0]))
			assert.True(t, a.Equal(got[1]))

			got, err = s.FetchMany(ctx, nil)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			require.NoError(t, s.Close())
			require.NoError(t, s.Close())

			_, err := s.Save(ctx, mustRule(t, "a = 1"))
			assert.ErrorIs(t, err, store.ErrStoreClosed)
			_, err = s.Get(ctx, "x")
			assert.ErrorIs(t, err, store.ErrStoreClosed)
			_, err = s.FetchMany(ctx, []string{"x"})
			assert.ErrorIs(t, err, store.ErrStoreClosed)
		})
	}
}

func TestStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			tree := mustRule(t, "a = 1 AND b = 2")
			const workers = 16
			ids := make([]string, workers)
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id, err := s.Save(ctx, tree)
					assert.NoError(t, err)
					ids[i] = id
					_, err = s.Get(ctx, id)
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			got, err := s.FetchMany(ctx, ids)
			require.NoError(t, err)
			assert.Len(t, got, workers)
		})
	}
}

func TestMemoryStore_ClonesTrees(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	tree := mustRule(t, "a = 1")
	id, err := s.Save(ctx, tree)
	require.NoError(t, err)
	tree.Left.Value = "mutated"

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Left.Value)

	got.Left.Value = "mutated again"
	again, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Left.Value)
}

func TestSQLiteStore_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rules.db")

	s1, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	tree := mustRule(t, "department = 'Sales' OR experience >= 5")
	id, err := s1.Save(ctx, tree)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, tree.Equal(got))
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := store.NewSQLiteStore("/nonexistent/path/rules.db")
	assert.Error(t, err)
}

func TestStore_SaveNil(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			_, err := s.Save(ctx, nil)
			assert.ErrorIs(t, err, rule.ErrMalformedTree)
		})
	}
}
