package menu

import "strings"

// Document is the whole menu: an ordered list of tabs.
type Document struct {
	Tabs []Tab `json:"tabs" yaml:"tabs"`
}

// Tab is a top-level menu category.
type Tab struct {
	ID     string  `json:"id" yaml:"id"`
	Label  string  `json:"label" yaml:"label"`
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Groups []Group `json:"groups" yaml:"groups"`
}

// Group is a named subsection of items within a tab.
type Group struct {
	Label string `json:"label" yaml:"label"`
	Items []Item `json:"items" yaml:"items"`

	// Open is editor state only and is never serialised. Nil means open.
	Open *bool `json:"-" yaml:"-"`
}

// Item is a single menu entry.
type Item struct {
	Name  string `json:"name" yaml:"name"`
	Desc  string `json:"desc" yaml:"desc"`
	Price string `json:"price" yaml:"price"`
}

// IsOpen reports whether the group is expanded in the editor.
func (g Group) IsOpen() bool {
	return g.Open == nil || *g.Open
}

// DisplayTitle returns the heading used for a tab in previews.
func (t Tab) DisplayTitle() string {
	switch {
	case t.Title != "":
		return t.Title
	case t.Label != "":
		return t.Label
	default:
		return t.ID
	}
}

// TabIndex returns the index of the tab with the given id, or -1.
func (d *Document) TabIndex(id string) int {
	if d == nil {
		return -1
	}
	for i, t := range d.Tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ItemCount returns the number of items across all tabs.
func (d *Document) ItemCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, t := range d.Tabs {
		for _, g := range t.Groups {
			n += len(g.Items)
		}
	}
	return n
}

// Match locates an item inside a document.
type Match struct {
	Tab   int
	Group int
	Item  int

	TabID      string
	GroupLabel string
	Entry      Item
}

// Find returns items whose name or description contains query,
// ignoring case, in document order.
func (d *Document) Find(query string) []Match {
	if d == nil {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []Match
	for ti, t := range d.Tabs {
		for gi, g := range t.Groups {
			for ii, it := range g.Items {
				if strings.Contains(strings.ToLower(it.Name), q) || strings.Contains(strings.ToLower(it.Desc), q) {
					out = append(out, Match{
						Tab: ti, Group: gi, Item: ii,
						TabID:      t.ID,
						GroupLabel: g.Label,
						Entry:      it,
					})
				}
			}
		}
	}
	return out
}
