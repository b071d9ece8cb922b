package torznab

import (
	"fmt"
	"strings"
)

// Category is one node of the numeric Torznab category tree. A zero Parent
// marks a top-level category.
type Category struct {
	ID     int
	Label  string
	Parent int
}

// DefaultCategories is the category tree the feed serves. The top-level ids
// follow the Torznab convention (2000 movies, 5000 TV); sublabels match the
// quality categories the scorer assigns.
var DefaultCategories = []Category{
	{ID: 2000, Label: "Movies"},
	{ID: 2030, Label: "SD", Parent: 2000},
	{ID: 2040, Label: "HD", Parent: 2000},
	{ID: 2045, Label: "UHD", Parent: 2000},
	{ID: 5000, Label: "TV"},
	{ID: 5010, Label: "WEB-DL", Parent: 5000},
	{ID: 5030, Label: "SD", Parent: 5000},
	{ID: 5040, Label: "HD", Parent: 5000},
	{ID: 5045, Label: "UHD", Parent: 5000},
}

// CategoryTable indexes a category tree for lookups by id and by label.
type CategoryTable struct {
	byID  map[int]Category
	order []Category
}

// NewCategoryTable validates the tree and builds the lookup table. Every
// parent must exist and parent chains must terminate at a top-level node.
func NewCategoryTable(categories []Category) (*CategoryTable, error) {
	byID := make(map[int]Category, len(categories))
	for _, cat := range categories {
		if cat.ID <= 0 {
			return nil, fmt.Errorf("category %q has invalid id %d", cat.Label, cat.ID)
		}
		if _, dup := byID[cat.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %d", cat.ID)
		}
		byID[cat.ID] = cat
	}
	for _, cat := range categories {
		seen := map[int]bool{cat.ID: true}
		for parent := cat.Parent; parent != 0; {
			node, ok := byID[parent]
			if !ok {
				return nil, fmt.Errorf("category %d references missing parent %d", cat.ID, parent)
			}
			if seen[parent] {
				return nil, fmt.Errorf("category %d has a cyclic parent chain", cat.ID)
			}
			seen[parent] = true
			parent = node.Parent
		}
	}
	return &CategoryTable{byID: byID, order: categories}, nil
}

// Root resolves a category id to its top-level ancestor. Unknown ids return
// false.
func (t *CategoryTable) Root(id int) (Category, bool) {
	cat, ok := t.byID[id]
	if !ok {
		return Category{}, false
	}
	for cat.Parent != 0 {
		cat = t.byID[cat.Parent]
	}
	return cat, true
}

// IDFor resolves a kind label and quality label pair ("TV", "HD") to a
// category id. Labels compare case-insensitively.
func (t *CategoryTable) IDFor(kindLabel, label string) (int, bool) {
	for _, cat := range t.order {
		if cat.Parent == 0 {
			continue
		}
		root, _ := t.Root(cat.ID)
		if strings.EqualFold(root.Label, kindLabel) && strings.EqualFold(cat.Label, label) {
			return cat.ID, true
		}
	}
	return 0, false
}

// TopLevel lists the top-level categories in declaration order.
func (t *CategoryTable) TopLevel() []Category {
	var roots []Category
	for _, cat := range t.order {
		if cat.Parent == 0 {
			roots = append(roots, cat)
		}
	}
	return roots
}

// Children lists the direct children of a category in declaration order.
func (t *CategoryTable) Children(id int) []Category {
	var children []Category
	for _, cat := range t.order {
		if cat.Parent == id {
			children = append(children, cat)
		}
	}
	return children
}
