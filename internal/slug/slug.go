// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation for category names.
package slug

import (
	"strings"

	gosimple "github.com/gosimple/slug"
)

const (
	// MaxLen caps generated slugs.
	MaxLen = 100

	// fallback is used when a name has no sluggable characters.
	fallback = "category"
)

// Generate creates a URL-friendly slug from the given name, transliterating
// accented letters. Example: "Café Électronique 2026" → "cafe-electronique-2026"
func Generate(s string) string {
	result := gosimple.Make(strings.TrimSpace(s))
	if len(result) > MaxLen {
		result = strings.TrimRight(result[:MaxLen], "-")
	}
	if result == "" {
		return fallback
	}
	return result
}
