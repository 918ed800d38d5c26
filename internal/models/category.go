// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and the plain request/response types shared across the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the hierarchical product-category tree.
// A nil ParentID marks a root category.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Derived fields, never stored. Populated by the category manager
	// depending on the read operation.
	Parent        *CategoryRef    `json:"parent,omitempty"`
	Children      []CategoryChild `json:"children,omitempty"`
	ChildCount    *int            `json:"child_count,omitempty"`
	ProductCount  *int            `json:"product_count,omitempty"`
	Depth         int             `json:"depth,omitempty"`
	Subcategories []Category      `json:"subcategories,omitempty"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// HasParent reports whether the category's parent is id.
func (c *Category) HasParent(id *uuid.UUID) bool {
	return SameID(c.ParentID, id)
}

// CategoryRef is the {id, name} summary used for parent references.
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CategoryChild summarizes a direct child in a single-category read.
type CategoryChild struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ProductCount int       `json:"product_count"`
}

// CategoryFilter selects categories for listing. The zero value selects
// every category. With ByParent set, only direct children of ParentID are
// selected; a nil ParentID then selects root categories.
type CategoryFilter struct {
	ByParent bool
	ParentID *uuid.UUID
}

// ChildrenOf returns a filter selecting the direct children of id.
func ChildrenOf(id uuid.UUID) CategoryFilter {
	return CategoryFilter{ByParent: true, ParentID: &id}
}

// Roots returns a filter selecting root categories.
func Roots() CategoryFilter {
	return CategoryFilter{ByParent: true}
}

// CategoryPatch is a partial update. Nil Name and Slug are left unchanged.
// SetDescription and SetParent mark the nullable fields as supplied: a nil
// Description then clears it, and a nil ParentID moves the category to the
// root.
type CategoryPatch struct {
	Name           *string
	Slug           *string
	SetDescription bool
	Description    *string
	SetParent      bool
	ParentID       *uuid.UUID
}

// IsEmpty reports whether the patch changes nothing.
func (p CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Slug == nil && !p.SetDescription && !p.SetParent
}

// SameID compares two optional ids (both nil or same value).
func SameID(a, b *uuid.UUID) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
