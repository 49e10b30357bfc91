// Package store persists carriers and products. Lists come back in creation
// order.
package store

import (
	"context"
	"sync"

	"appetite/internal/catalog/models"
	"appetite/pkg/domain"
	"appetite/pkg/platform/sentinel"
)

// collection is an insertion-ordered map guarded by a RWMutex. Values are
// cloned on the way in and out.
type collection[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
	clone func(T) T
	seq   domain.Counter
}

func newCollection[T any](prefix string, clone func(T) T) *collection[T] {
	return &collection[T]{items: make(map[string]T), clone: clone, seq: domain.NewCounter(prefix)}
}

func (c *collection[T]) create(id string, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[id]; exists {
		return sentinel.ErrConflict
	}
	c.items[id] = c.clone(v)
	c.order = append(c.order, id)
	c.seq.Observe(id)
	return nil
}

func (c *collection[T]) next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.Next()
}

func (c *collection[T]) get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[id]
	if !ok {
		var zero T
		return zero, sentinel.ErrNotFound
	}
	return c.clone(v), nil
}

func (c *collection[T]) update(id string, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return sentinel.ErrNotFound
	}
	c.items[id] = c.clone(v)
	return nil
}

func (c *collection[T]) delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *collection[T]) list() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.clone(c.items[id]))
	}
	return out
}

func (c *collection[T]) count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// CarriersInMemory is the in-memory carrier store.
type CarriersInMemory struct {
	c *collection[*models.Carrier]
}

func NewCarriersInMemory() *CarriersInMemory {
	return &CarriersInMemory{c: newCollection(domain.PrefixCarrier, (*models.Carrier).Clone)}
}

func (s *CarriersInMemory) Create(_ context.Context, carrier *models.Carrier) error {
	return s.c.create(carrier.ID, carrier)
}

func (s *CarriersInMemory) GetByID(_ context.Context, id string) (*models.Carrier, error) {
	return s.c.get(id)
}

func (s *CarriersInMemory) Update(_ context.Context, carrier *models.Carrier) error {
	return s.c.update(carrier.ID, carrier)
}

func (s *CarriersInMemory) Delete(_ context.Context, id string) error {
	return s.c.delete(id)
}

func (s *CarriersInMemory) List(_ context.Context) ([]*models.Carrier, error) {
	return s.c.list(), nil
}

func (s *CarriersInMemory) Count(_ context.Context) (int, error) {
	return s.c.count(), nil
}

// NextSequence reserves the next carrier sequence number.
func (s *CarriersInMemory) NextSequence(_ context.Context) (int, error) {
	return s.c.next(), nil
}

// ProductsInMemory is the in-memory product store.
type ProductsInMemory struct {
	c *collection[*models.Product]
}

func NewProductsInMemory() *ProductsInMemory {
	return &ProductsInMemory{c: newCollection(domain.PrefixProduct, (*models.Product).Clone)}
}

func (s *ProductsInMemory) Create(_ context.Context, product *models.Product) error {
	return s.c.create(product.ID, product)
}

func (s *ProductsInMemory) GetByID(_ context.Context, id string) (*models.Product, error) {
	return s.c.get(id)
}

func (s *ProductsInMemory) List(_ context.Context) ([]*models.Product, error) {
	return s.c.list(), nil
}

func (s *ProductsInMemory) Count(_ context.Context) (int, error) {
	return s.c.count(), nil
}

func (s *ProductsInMemory) NextSequence(_ context.Context) (int, error) {
	return s.c.next(), nil
}
