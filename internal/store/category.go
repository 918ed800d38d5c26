// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"zbase/internal/category"
	"zbase/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CategoryStore manages categories in PostgreSQL.
type CategoryStore struct {
	db   *sql.DB
	q    querier
	inTx bool
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db, q: db}
}

var _ category.Storage = (*CategoryStore)(nil)

const categoryColumns = `id, name, slug, description, parent_id, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description,
		&c.ParentID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindMany returns the categories matching filter ordered by name.
func (s *CategoryStore) FindMany(ctx context.Context, filter models.CategoryFilter) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	var args []any
	switch {
	case !filter.ByParent:
	case filter.ParentID == nil:
		query += ` WHERE parent_id IS NULL`
	default:
		query += ` WHERE parent_id = $1`
		args = append(args, *filter.ParentID)
	}
	query += ` ORDER BY name, id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// CountChildren returns the number of direct children of id.
func (s *CategoryStore) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE parent_id = $1`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count child categories: %w", err)
	}
	return n, nil
}

// CountProducts returns the number of products assigned to id.
func (s *CategoryStore) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category products: %w", err)
	}
	return n, nil
}

// Insert creates a new category and returns it.
func (s *CategoryStore) Insert(ctx context.Context, c *models.Category) (*models.Category, error) {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.Description, c.ParentID,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// UpdateByID applies the supplied fields of patch and returns the result.
func (s *CategoryStore) UpdateByID(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error) {
	var sets []string
	var args []any
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Slug != nil {
		set("slug", *patch.Slug)
	}
	if patch.SetDescription {
		set("description", patch.Description)
	}
	if patch.SetParent {
		set("parent_id", patch.ParentID)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	row := s.q.QueryRowContext(ctx,
		`UPDATE categories SET `+strings.Join(sets, ", ")+
			fmt.Sprintf(` WHERE id = $%d RETURNING `, len(args))+categoryColumns,
		args...,
	)
	result, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return result, nil
}

// DeleteByID removes a category by ID.
func (s *CategoryStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete category %s: %w", id, ErrNotFound)
	}
	return nil
}

// WithTx runs fn inside a SERIALIZABLE transaction. Nested calls reuse the
// outer transaction. A serialization failure is reported as ErrSerialization.
func (s *CategoryStore) WithTx(ctx context.Context, fn func(tx category.Storage) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&CategoryStore{db: s.db, q: tx, inTx: true}); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}
