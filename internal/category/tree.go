// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"zbase/internal/models"
)

// walkDescendants visits the subtree below root breadth first, issuing one
// FindMany per visited category. It stops early when visit returns false.
// The seen set keeps the walk finite even if stored data already contains
// a cycle.
func walkDescendants(ctx context.Context, s Storage, root uuid.UUID, visit func(models.Category) bool) error {
	seen := map[uuid.UUID]bool{root: true}
	queue := []uuid.UUID{root}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		children, err := s.FindMany(ctx, models.ChildrenOf(id))
		if err != nil {
			return fmt.Errorf("list children of %s: %w", id, err)
		}
		for _, c := range children {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			if !visit(c) {
				return nil
			}
			queue = append(queue, c.ID)
		}
	}
	return nil
}

// Tree returns all categories as a nested forest with Depth set.
func (m *Manager) Tree(ctx context.Context) ([]models.Category, error) {
	flat, err := m.store.FindMany(ctx, models.CategoryFilter{})
	if err != nil {
		return nil, err
	}

	byParent := make(map[uuid.UUID][]models.Category)
	var roots []models.Category
	for _, c := range flat {
		if c.IsRoot() {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}

	tree := buildTree(roots, byParent, 0)
	if tree == nil {
		tree = []models.Category{}
	}
	return tree, nil
}

// buildTree recursively attaches children to each node. Nodes that are not
// reachable from a root (dangling parents, cycles) are left out.
func buildTree(level []models.Category, byParent map[uuid.UUID][]models.Category, depth int) []models.Category {
	var result []models.Category
	for _, c := range level {
		c.Depth = depth
		c.Subcategories = buildTree(byParent[c.ID], byParent, depth+1)
		result = append(result, c)
	}
	return result
}

// CheckIntegrity scans the whole forest and returns the IDs of categories
// that lie on a parent cycle or reference a missing parent, sorted. An empty
// result means the forest invariant holds.
func (m *Manager) CheckIntegrity(ctx context.Context) ([]uuid.UUID, error) {
	flat, err := m.store.FindMany(ctx, models.CategoryFilter{})
	if err != nil {
		return nil, err
	}

	parentOf := make(map[uuid.UUID]*uuid.UUID, len(flat))
	for _, c := range flat {
		parentOf[c.ID] = c.ParentID
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[uuid.UUID]int, len(flat))
	bad := make(map[uuid.UUID]bool)

	for _, c := range flat {
		if state[c.ID] != unvisited {
			continue
		}

		// Follow parent links until a root, a finished node, or a node on
		// the current path (a cycle).
		var path []uuid.UUID
		id := c.ID
		for {
			if state[id] == done {
				break
			}
			if state[id] == visiting {
				start := slices.Index(path, id)
				for _, n := range path[start:] {
					bad[n] = true
				}
				break
			}
			state[id] = visiting
			path = append(path, id)

			parent := parentOf[id]
			if parent == nil {
				break
			}
			if _, ok := parentOf[*parent]; !ok {
				bad[id] = true
				break
			}
			id = *parent
		}
		for _, n := range path {
			state[n] = done
		}
	}

	ids := make([]uuid.UUID, 0, len(bad))
	for id := range bad {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})
	return ids, nil
}
