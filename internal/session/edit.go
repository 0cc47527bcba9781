package session

import (
	"fmt"
	"time"

	"github.com/mugo-bistro/mugo/internal/menu"
)

// Field names an editable text field of the menu.
type Field string

const (
	FieldTabID      Field = "id"
	FieldTabLabel   Field = "label"
	FieldTabTitle   Field = "title"
	FieldGroupLabel Field = "group.label"
	FieldItemName   Field = "item.name"
	FieldItemDesc   Field = "item.desc"
	FieldItemPrice  Field = "item.price"
)

// Edit sets one field to a value. Group and Item are ignored for tab fields,
// Item is ignored for the group label.
type Edit struct {
	Tab   int
	Group int
	Item  int
	Field Field
	Value string
}

// Apply performs a field edit and marks the containing tab dirty.
// Edits assign values, so applying the same edit again is a no-op on the document.
func (s *Session) Apply(e Edit) error {
	if e.Tab < 0 || e.Tab >= len(s.doc.Tabs) {
		return fmt.Errorf("edit %s: tab %d: %w", e.Field, e.Tab, ErrOutOfRange)
	}
	tab := &s.doc.Tabs[e.Tab]

	switch e.Field {
	case FieldTabID:
		tab.ID = e.Value
	case FieldTabLabel:
		tab.Label = e.Value
	case FieldTabTitle:
		tab.Title = e.Value
	case FieldGroupLabel:
		g, err := s.group(e.Tab, e.Group)
		if err != nil {
			return fmt.Errorf("edit %s: %w", e.Field, err)
		}
		g.Label = e.Value
	case FieldItemName, FieldItemDesc, FieldItemPrice:
		it, err := s.item(e.Tab, e.Group, e.Item)
		if err != nil {
			return fmt.Errorf("edit %s: %w", e.Field, err)
		}
		switch e.Field {
		case FieldItemName:
			it.Name = e.Value
		case FieldItemDesc:
			it.Desc = e.Value
		default:
			it.Price = e.Value
		}
	default:
		return fmt.Errorf("unknown field %q", e.Field)
	}

	s.markDirty(e.Tab)
	return nil
}

// Value returns the current value of the field e addresses. e.Value is ignored.
func (s *Session) Value(e Edit) (string, error) {
	if e.Tab < 0 || e.Tab >= len(s.doc.Tabs) {
		return "", fmt.Errorf("read %s: tab %d: %w", e.Field, e.Tab, ErrOutOfRange)
	}
	tab := s.doc.Tabs[e.Tab]

	switch e.Field {
	case FieldTabID:
		return tab.ID, nil
	case FieldTabLabel:
		return tab.Label, nil
	case FieldTabTitle:
		return tab.Title, nil
	case FieldGroupLabel:
		g, err := s.group(e.Tab, e.Group)
		if err != nil {
			return "", err
		}
		return g.Label, nil
	case FieldItemName, FieldItemDesc, FieldItemPrice:
		it, err := s.item(e.Tab, e.Group, e.Item)
		if err != nil {
			return "", err
		}
		switch e.Field {
		case FieldItemName:
			return it.Name, nil
		case FieldItemDesc:
			return it.Desc, nil
		}
		return it.Price, nil
	}
	return "", fmt.Errorf("unknown field %q", e.Field)
}

// AddTab appends a new tab, selects it and returns its index.
// An empty id is replaced by a time-based one.
func (s *Session) AddTab(id, label string) int {
	if id == "" {
		id = fmt.Sprintf("tab-%d", time.Now().UnixMilli())
	}
	if label == "" {
		label = "Nuova Categoria"
	}
	s.doc.Tabs = append(s.doc.Tabs, menu.Tab{ID: id, Label: label, Groups: []menu.Group{}})
	s.base = append(s.base, -1)
	i := len(s.doc.Tabs) - 1
	s.markDirty(i)
	s.selected = i
	return i
}

// RemoveTab deletes tab i. Later tabs keep their dirty flags and their link
// to the snapshot as they move down.
func (s *Session) RemoveTab(i int) error {
	if i < 0 || i >= len(s.doc.Tabs) {
		return fmt.Errorf("remove tab %d: %w", i, ErrOutOfRange)
	}
	s.doc.Tabs = append(s.doc.Tabs[:i], s.doc.Tabs[i+1:]...)
	s.base = append(s.base[:i], s.base[i+1:]...)

	shifted := make(map[int]bool, len(s.dirty))
	for k := range s.dirty {
		switch {
		case k < i:
			shifted[k] = true
		case k > i:
			shifted[k-1] = true
		}
	}
	s.dirty = shifted

	if s.selected >= len(s.doc.Tabs) {
		s.selected = max(0, len(s.doc.Tabs)-1)
	}
	return nil
}

// AddGroup appends a group to tab t and returns its index.
func (s *Session) AddGroup(t int, label string) (int, error) {
	if t < 0 || t >= len(s.doc.Tabs) {
		return 0, fmt.Errorf("add group: tab %d: %w", t, ErrOutOfRange)
	}
	if label == "" {
		label = "Nuova sezione"
	}
	tab := &s.doc.Tabs[t]
	tab.Groups = append(tab.Groups, menu.Group{Label: label, Items: []menu.Item{}})
	s.markDirty(t)
	return len(tab.Groups) - 1, nil
}

// RemoveGroup deletes group g of tab t.
func (s *Session) RemoveGroup(t, g int) error {
	if _, err := s.group(t, g); err != nil {
		return fmt.Errorf("remove group: %w", err)
	}
	tab := &s.doc.Tabs[t]
	tab.Groups = append(tab.Groups[:g], tab.Groups[g+1:]...)
	s.markDirty(t)
	return nil
}

// AddItem appends an item to group g of tab t and returns its index.
func (s *Session) AddItem(t, g int, item menu.Item) (int, error) {
	grp, err := s.group(t, g)
	if err != nil {
		return 0, fmt.Errorf("add item: %w", err)
	}
	if item.Name == "" {
		item.Name = "Nuova voce"
	}
	grp.Items = append(grp.Items, item)
	s.markDirty(t)
	return len(grp.Items) - 1, nil
}

// RemoveItem deletes item i of group g in tab t.
func (s *Session) RemoveItem(t, g, i int) error {
	if _, err := s.item(t, g, i); err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	grp := &s.doc.Tabs[t].Groups[g]
	grp.Items = append(grp.Items[:i], grp.Items[i+1:]...)
	s.markDirty(t)
	return nil
}

// ToggleGroup flips the editor-only open flag. It never marks anything dirty.
func (s *Session) ToggleGroup(t, g int) error {
	grp, err := s.group(t, g)
	if err != nil {
		return fmt.Errorf("toggle group: %w", err)
	}
	open := !grp.IsOpen()
	grp.Open = &open
	return nil
}

func (s *Session) group(t, g int) (*menu.Group, error) {
	if t < 0 || t >= len(s.doc.Tabs) {
		return nil, fmt.Errorf("tab %d: %w", t, ErrOutOfRange)
	}
	groups := s.doc.Tabs[t].Groups
	if g < 0 || g >= len(groups) {
		return nil, fmt.Errorf("group %d of tab %d: %w", g, t, ErrOutOfRange)
	}
	return &s.doc.Tabs[t].Groups[g], nil
}

func (s *Session) item(t, g, i int) (*menu.Item, error) {
	grp, err := s.group(t, g)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(grp.Items) {
		return nil, fmt.Errorf("item %d of group %d: %w", i, g, ErrOutOfRange)
	}
	return &grp.Items[i], nil
}
