package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/iqac-smarttrack/apiserver/internal/kv"
)

type record interface {
	RecordID() string
}

// collection is the in-memory image of one persisted key. items keeps the
// persisted order; index maps ids to positions in items.
type collection[T record] struct {
	key   string
	items []T
	index map[string]int
}

func newCollection[T record](key string) collection[T] {
	return collection[T]{key: key, index: map[string]int{}}
}

// load reads the collection from the backend. It reports false when the
// key has never been written.
func (c *collection[T]) load(ctx context.Context, backend kv.Backend) (bool, error) {
	data, err := backend.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", c.key, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return false, fmt.Errorf("decode %s: %w", c.key, err)
	}
	c.set(items)
	return true, nil
}

// refresh replaces the in-memory image with the persisted collection so
// that writes made by other processes are seen. A key that is missing reads
// as an empty collection.
func (c *collection[T]) refresh(ctx context.Context, backend kv.Backend) error {
	found, err := c.load(ctx, backend)
	if err != nil {
		return err
	}
	if !found {
		c.set(nil)
	}
	return nil
}

// commit writes items as the whole collection and adopts them in memory
// only once the write succeeded.
func (c *collection[T]) commit(ctx context.Context, backend kv.Backend, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := backend.Put(ctx, c.key, data); err != nil {
		return fmt.Errorf("write %s: %w", c.key, err)
	}
	c.set(items)
	return nil
}

func (c *collection[T]) set(items []T) {
	c.items = items
	c.index = make(map[string]int, len(items))
	for i, item := range items {
		c.index[item.RecordID()] = i
	}
}

func (c *collection[T]) get(id string) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

func (c *collection[T]) all() []T {
	return slices.Clone(c.items)
}

// prepended returns a copy of the collection with item in front.
func (c *collection[T]) prepended(item T) []T {
	next := make([]T, 0, len(c.items)+1)
	next = append(next, item)
	return append(next, c.items...)
}

// replaced returns a copy of the collection with the record at id swapped
// for item.
func (c *collection[T]) replaced(id string, item T) []T {
	next := slices.Clone(c.items)
	next[c.index[id]] = item
	return next
}

// without returns a copy of the collection minus the record with id.
func (c *collection[T]) without(id string) []T {
	return slices.DeleteFunc(slices.Clone(c.items), func(item T) bool {
		return item.RecordID() == id
	})
}
