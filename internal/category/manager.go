// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package category manages the hierarchical product-category tree. The
// Manager enforces the tree invariants: no cycles, no self-parenting, parents
// must exist, and only empty leaves can be deleted. Every operation is a
// fresh read-then-write against the Storage it was built with.
package category

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"zbase/internal/models"
	"zbase/internal/slug"
)

// Manager owns creation, update, reparenting, and deletion of categories.
type Manager struct {
	store Storage
}

// NewManager returns a Manager backed by store.
func NewManager(store Storage) *Manager {
	return &Manager{store: store}
}

// CreateInput holds the fields for a new category. Name is expected to be
// validated by the caller.
type CreateInput struct {
	Name        string
	Description *string
	ParentID    *uuid.UUID
}

// Create inserts a new category, optionally under an existing parent.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.Category, error) {
	var created *models.Category
	err := m.store.WithTx(ctx, func(tx Storage) error {
		if in.ParentID != nil {
			parent, err := tx.FindByID(ctx, *in.ParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return notFound(msgParentNotFound)
			}
		}

		c, err := tx.Insert(ctx, &models.Category{
			Name:        in.Name,
			Slug:        slug.Generate(in.Name),
			Description: in.Description,
			ParentID:    in.ParentID,
		})
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindAll lists categories. The zero filter returns every category as a flat
// list ordered by name. A parent filter returns only the direct children of
// that parent (or the roots), each annotated with its parent summary and its
// child and product counts.
func (m *Manager) FindAll(ctx context.Context, filter models.CategoryFilter) ([]models.Category, error) {
	items, err := m.store.FindMany(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Category{}
	}
	if !filter.ByParent {
		return items, nil
	}

	// All matches share the same parent, so it is looked up once.
	var parent *models.CategoryRef
	if filter.ParentID != nil {
		p, err := m.store.FindByID(ctx, *filter.ParentID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			parent = &models.CategoryRef{ID: p.ID, Name: p.Name}
		}
	}

	for i := range items {
		items[i].Parent = parent
		if err := annotateCounts(ctx, m.store, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// FindOne returns a category with its parent summary, its direct children
// (with their product counts), and its own child and product counts.
func (m *Manager) FindOne(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return findOne(ctx, m.store, id)
}

// Update applies a partial update. Changing the parent is rejected when the
// new parent is the category itself, one of its descendants, or missing.
func (m *Manager) Update(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error) {
	var updated *models.Category
	err := m.store.WithTx(ctx, func(tx Storage) error {
		current, err := findOne(ctx, tx, id)
		if err != nil {
			return err
		}

		if patch.SetParent && patch.ParentID != nil {
			candidate := *patch.ParentID
			if candidate == id {
				return invalid(msgSelfParent)
			}
			if !current.HasParent(patch.ParentID) {
				if err := checkReparent(ctx, tx, id, candidate); err != nil {
					return err
				}
			}
		}

		if patch.Name != nil {
			s := slug.Generate(*patch.Name)
			patch.Slug = &s
		}

		result := current
		if !patch.IsEmpty() {
			result, err = tx.UpdateByID(ctx, id, patch)
			if err != nil {
				return err
			}
		}

		updated, err = attachParent(ctx, tx, result)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove deletes a category that has no child categories and no products.
func (m *Manager) Remove(ctx context.Context, id uuid.UUID) error {
	return m.store.WithTx(ctx, func(tx Storage) error {
		c, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return notFound(msgCategoryNotFound)
		}

		children, err := tx.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return invalid(msgHasChildren)
		}

		products, err := tx.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if products > 0 {
			return invalid(msgHasProducts)
		}

		return tx.DeleteByID(ctx, id)
	})
}

// Descendants returns the IDs of every category below id, breadth first.
func (m *Manager) Descendants(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	c, err := m.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound(msgCategoryNotFound)
	}

	ids := []uuid.UUID{}
	err = walkDescendants(ctx, m.store, id, func(d models.Category) bool {
		ids = append(ids, d.ID)
		return true
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// checkReparent verifies that candidate can become the parent of id: it must
// not lie in id's subtree and it must exist.
func checkReparent(ctx context.Context, s Storage, id, candidate uuid.UUID) error {
	var cycle bool
	err := walkDescendants(ctx, s, id, func(d models.Category) bool {
		if d.ID == candidate {
			cycle = true
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if cycle {
		slog.Debug("category reparent rejected", "id", id, "parent_id", candidate, "reason", "cycle")
		return invalid(msgCircular)
	}

	parent, err := s.FindByID(ctx, candidate)
	if err != nil {
		return err
	}
	if parent == nil {
		return notFound(msgParentNotFound)
	}
	return nil
}

// findOne loads a category with its full read annotations.
func findOne(ctx context.Context, s Storage, id uuid.UUID) (*models.Category, error) {
	c, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound(msgCategoryNotFound)
	}

	c, err = attachParent(ctx, s, c)
	if err != nil {
		return nil, err
	}

	children, err := s.FindMany(ctx, models.ChildrenOf(id))
	if err != nil {
		return nil, err
	}
	c.Children = make([]models.CategoryChild, 0, len(children))
	for _, ch := range children {
		n, err := s.CountProducts(ctx, ch.ID)
		if err != nil {
			return nil, err
		}
		c.Children = append(c.Children, models.CategoryChild{ID: ch.ID, Name: ch.Name, ProductCount: n})
	}

	childCount := len(children)
	productCount, err := s.CountProducts(ctx, id)
	if err != nil {
		return nil, err
	}
	c.ChildCount = &childCount
	c.ProductCount = &productCount
	return c, nil
}

// attachParent sets the parent summary on c. A dangling parent reference
// leaves Parent nil.
func attachParent(ctx context.Context, s Storage, c *models.Category) (*models.Category, error) {
	if c.IsRoot() {
		c.Parent = nil
		return c, nil
	}
	p, err := s.FindByID(ctx, *c.ParentID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		c.Parent = &models.CategoryRef{ID: p.ID, Name: p.Name}
	}
	return c, nil
}

// annotateCounts sets the child and product counts on c.
func annotateCounts(ctx context.Context, s Storage, c *models.Category) error {
	children, err := s.CountChildren(ctx, c.ID)
	if err != nil {
		return err
	}
	products, err := s.CountProducts(ctx, c.ID)
	if err != nil {
		return err
	}
	c.ChildCount = &children
	c.ProductCount = &products
	return nil
}
