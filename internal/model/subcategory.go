package model

import "fmt"

// Subcategory is a node in the two-level classification tree that hangs
// under a main category type. Top-level nodes have a nil ParentID.
type Subcategory struct {
	Name         string       `json:"name"`
	CategoryType CategoryType `json:"categoryType"`
	ID           int          `json:"id"`
	ParentID     *int         `json:"parentId,omitempty"`
	DisplayOrder int          `json:"displayOrder"`
	IsDefault    bool         `json:"isDefault"`
	IsActive     bool         `json:"isActive"`
}

// ValidateParent checks the tree invariant: a child subcategory must share
// its parent's category type, and the tree is at most two levels deep.
func (s *Subcategory) ValidateParent(parent *Subcategory) error {
	if s.ParentID == nil {
		return nil
	}
	if parent == nil {
		return fmt.Errorf("subcategory %q references parent %d which does not exist", s.Name, *s.ParentID)
	}
	if parent.ParentID != nil {
		return fmt.Errorf("subcategory %q nests under %q which is not top-level", s.Name, parent.Name)
	}
	if s.CategoryType != parent.CategoryType {
		return fmt.Errorf("subcategory %q has category type %q but parent %q has %q",
			s.Name, s.CategoryType, parent.Name, parent.CategoryType)
	}
	return nil
}
