// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// memory.go provides an in-memory category store with the same contract as
// CategoryStore. It backs the "memory" storage driver and the tests of the
// packages above the store.
package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"zbase/internal/category"
	"zbase/internal/models"
)

// MemoryStore keeps categories and products in maps guarded by a mutex.
// WithTx holds the mutex for the whole callback and works on a copy of the
// state, so a failed callback leaves nothing behind.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

var (
	_ category.Storage = (*MemoryStore)(nil)
	_ category.Storage = (*memTx)(nil)
)

// memState is the table data.
type memState struct {
	categories map[uuid.UUID]models.Category
	products   map[uuid.UUID]models.Product
}

func newMemState() *memState {
	return &memState{
		categories: make(map[uuid.UUID]models.Category),
		products:   make(map[uuid.UUID]models.Product),
	}
}

func (st *memState) clone() *memState {
	return &memState{
		categories: maps.Clone(st.categories),
		products:   maps.Clone(st.products),
	}
}

// Load stores categories verbatim, keeping their IDs and parent links
// without any checks. Used for fixtures and seeding.
func (m *MemoryStore) Load(categories ...models.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, c := range categories {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt, c.UpdatedAt = now, now
		}
		m.state.categories[c.ID] = copyCategory(c)
	}
}

// AddProduct assigns a new product to categoryID and returns it.
func (m *MemoryStore) AddProduct(name string, categoryID *uuid.UUID) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := models.Product{
		ID:         uuid.New(),
		Name:       name,
		CategoryID: copyID(categoryID),
		CreatedAt:  time.Now().UTC(),
	}
	m.state.products[p.ID] = p
	return p
}

func (m *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: m.state}).FindByID(ctx, id)
}

func (m *MemoryStore) FindMany(ctx context.Context, filter models.CategoryFilter) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: m.state}).FindMany(ctx, filter)
}

func (m *MemoryStore) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: m.state}).CountChildren(ctx, id)
}

func (m *MemoryStore) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: m.state}).CountProducts(ctx, id)
}

func (m *MemoryStore) Insert(ctx context.Context, c *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: m.state}).Insert(ctx, c)
}

func (m *MemoryStore) UpdateByID(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: m.state}).UpdateByID(ctx, id, patch)
}

func (m *MemoryStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: m.state}).DeleteByID(ctx, id)
}

// WithTx runs fn with exclusive access to a copy of the state and commits
// the copy only when fn succeeds.
func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx category.Storage) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{st: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.st
	return nil
}

// memTx operates on a memState without locking; the owner holds the lock.
type memTx struct {
	st *memState
}

func (t *memTx) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := t.st.categories[id]
	if !ok {
		return nil, nil
	}
	c = copyCategory(c)
	return &c, nil
}

func (t *memTx) FindMany(ctx context.Context, filter models.CategoryFilter) ([]models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var items []models.Category
	for _, c := range t.st.categories {
		if filter.ByParent && !c.HasParent(filter.ParentID) {
			continue
		}
		items = append(items, copyCategory(c))
	}
	slices.SortFunc(items, func(a, b models.Category) int {
		if n := cmp.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return items, nil
}

func (t *memTx) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	for _, c := range t.st.categories {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (t *memTx) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	for _, p := range t.st.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			n++
		}
	}
	return n, nil
}

func (t *memTx) Insert(ctx context.Context, c *models.Category) (*models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	stored := models.Category{
		ID:          uuid.New(),
		Name:        c.Name,
		Slug:        c.Slug,
		Description: copyString(c.Description),
		ParentID:    copyID(c.ParentID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.st.categories[stored.ID] = stored
	result := copyCategory(stored)
	return &result, nil
}

func (t *memTx) UpdateByID(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := t.st.categories[id]
	if !ok {
		return nil, fmt.Errorf("update category %s: %w", id, ErrNotFound)
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Slug != nil {
		c.Slug = *patch.Slug
	}
	if patch.SetDescription {
		c.Description = copyString(patch.Description)
	}
	if patch.SetParent {
		c.ParentID = copyID(patch.ParentID)
	}
	c.UpdatedAt = time.Now().UTC()
	t.st.categories[id] = c

	result := copyCategory(c)
	return &result, nil
}

func (t *memTx) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.st.categories[id]; !ok {
		return fmt.Errorf("delete category %s: %w", id, ErrNotFound)
	}
	delete(t.st.categories, id)
	return nil
}

// WithTx inside a transaction runs fn on the same transaction.
func (t *memTx) WithTx(ctx context.Context, fn func(tx category.Storage) error) error {
	return fn(t)
}

// copyCategory returns c with only stored fields and no shared pointers.
func copyCategory(c models.Category) models.Category {
	return models.Category{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: copyString(c.Description),
		ParentID:    copyID(c.ParentID),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
