// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"context"

	"github.com/google/uuid"

	"zbase/internal/models"
)

// Storage is the record store the manager reads and mutates. Implementations
// own the persisted categories; the manager keeps nothing between calls.
type Storage interface {
	// FindByID returns the category, or nil and no error when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)

	// FindMany returns the categories matching filter ordered by name.
	FindMany(ctx context.Context, filter models.CategoryFilter) ([]models.Category, error)

	// CountChildren returns the number of categories whose parent is id.
	CountChildren(ctx context.Context, id uuid.UUID) (int, error)

	// CountProducts returns the number of products assigned to id.
	CountProducts(ctx context.Context, id uuid.UUID) (int, error)

	// Insert stores a new category and returns it with its assigned ID.
	Insert(ctx context.Context, c *models.Category) (*models.Category, error)

	// UpdateByID applies a partial update and returns the stored result.
	UpdateByID(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error)

	// DeleteByID removes a category.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// WithTx runs fn against a Storage whose reads and writes commit or
	// roll back together, isolated from concurrent WithTx calls.
	WithTx(ctx context.Context, fn func(tx Storage) error) error
}
