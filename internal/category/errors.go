// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import "errors"

// Error messages returned by the manager.
const (
	msgCategoryNotFound = "category not found"
	msgParentNotFound   = "parent category not found"
	msgSelfParent       = "a category cannot be its own parent"
	msgCircular         = "circular category reference detected"
	msgHasChildren      = "cannot delete category with child categories"
	msgHasProducts      = "cannot delete category with products"
)

// NotFoundError reports that a referenced category does not exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// ValidationError reports that a mutation would break a tree invariant.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func notFound(msg string) error { return &NotFoundError{Msg: msg} }
func invalid(msg string) error  { return &ValidationError{Msg: msg} }
