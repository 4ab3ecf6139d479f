package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

type call[V any] struct {
	wg  sync.WaitGroup
	val V
	err error
}

// InMemory keeps up to max computed values. Concurrent callers asking for the
// same key share a single computation; failed computations are not kept.
type InMemory[V any] struct {
	mu       sync.RWMutex
	max      int
	items    map[string]V
	inflight map[string]*call[V]
}

func NewInMemory[V any](max int) *InMemory[V] {
	if max < 0 {
		max = 0
	}
	return &InMemory[V]{
		max:      max,
		items:    make(map[string]V, max),
		inflight: make(map[string]*call[V]),
	}
}

func (c *InMemory[V]) GetOrCompute(key string, fn func() (V, error)) (V, error) {
	k := hash(key)

	c.mu.RLock()
	if v, ok := c.items[k]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	if v, ok := c.items[k]; ok {
		c.mu.Unlock()
		return v, nil
	}
	if cl, ok := c.inflight[k]; ok {
		c.mu.Unlock()
		cl.wg.Wait()
		return cl.val, cl.err
	}
	cl := &call[V]{}
	cl.wg.Add(1)
	c.inflight[k] = cl
	c.mu.Unlock()

	run(cl, fn)

	c.mu.Lock()
	delete(c.inflight, k)
	if cl.err == nil && len(c.items) < c.max {
		c.items[k] = cl.val
	}
	c.mu.Unlock()
	cl.wg.Done()

	return cl.val, cl.err
}

func (c *InMemory[V]) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func run[V any](cl *call[V], fn func() (V, error)) {
	defer func() {
		if r := recover(); r != nil {
			var zero V
			cl.val = zero
			cl.err = fmt.Errorf("cache compute panicked: %v", r)
		}
	}()
	cl.val, cl.err = fn()
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
