package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"zbase/internal/category"
	"zbase/internal/models"
)

// seedNode describes a sample category and its subcategories.
type seedNode struct {
	name        string
	description string
	children    []seedNode
}

// sampleTree is the development category tree.
var sampleTree = []seedNode{
	{name: "Electronics", description: "Devices and accessories", children: []seedNode{
		{name: "Phones", children: []seedNode{
			{name: "Smartphones"},
			{name: "Feature Phones"},
		}},
		{name: "Laptops"},
		{name: "Accessories", description: "Cables, chargers, cases"},
	}},
	{name: "Groceries", children: []seedNode{
		{name: "Beverages"},
		{name: "Snacks"},
	}},
	{name: "Household"},
}

// Seed populates an empty category tree with development data. It is a
// no-op when any root category already exists.
func Seed(ctx context.Context, m *category.Manager) error {
	roots, err := m.FindAll(ctx, models.Roots())
	if err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if len(roots) > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	n, err := seedLevel(ctx, m, sampleTree, nil)
	if err != nil {
		return err
	}

	slog.Info("database seeded with sample categories", "count", n)
	return nil
}

// seedLevel creates nodes under parent and recurses into their children.
func seedLevel(ctx context.Context, m *category.Manager, nodes []seedNode, parent *uuid.UUID) (int, error) {
	var created int
	for _, node := range nodes {
		in := category.CreateInput{Name: node.name, ParentID: parent}
		if node.description != "" {
			desc := node.description
			in.Description = &desc
		}
		c, err := m.Create(ctx, in)
		if err != nil {
			return created, fmt.Errorf("seed category %q: %w", node.name, err)
		}
		created++

		n, err := seedLevel(ctx, m, node.children, &c.ID)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}
