package site

import (
	"encoding/json"
	"os"

	"github.com/mugo-bistro/mugo/internal/menu"
)

// SearchEntry represents a single searchable menu item.
type SearchEntry struct {
	Tab   string `json:"tab"`
	Label string `json:"label"`
	Group string `json:"group"`
	Name  string `json:"name"`
	Desc  string `json:"desc,omitempty"`
	Price string `json:"price,omitempty"`
}

// BuildSearchIndex flattens the document into one entry per item,
// in document order.
func BuildSearchIndex(doc *menu.Document) []SearchEntry {
	entries := []SearchEntry{}
	for _, t := range doc.Tabs {
		for _, g := range t.Groups {
			for _, it := range g.Items {
				entries = append(entries, SearchEntry{
					Tab:   t.ID,
					Label: t.Label,
					Group: g.Label,
					Name:  it.Name,
					Desc:  it.Desc,
					Price: menu.NormalizePrice(it.Price),
				})
			}
		}
	}
	return entries
}

// WriteSearchIndex writes entries as compact JSON.
func WriteSearchIndex(entries []SearchEntry, path string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
