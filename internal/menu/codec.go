package menu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FileName is the conventional name of the persisted menu.
const FileName = "menu.json"

// ParseError reports menu text that is not a JSON object.
type ParseError struct {
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("invalid menu JSON at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("invalid menu JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNotObject = errors.New("top-level value must be an object")

// Parse decodes menu JSON. Beyond requiring a JSON object nothing is validated.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &ParseError{Err: errors.New("empty input")}
	}
	if trimmed[0] != '{' {
		return nil, &ParseError{Err: errNotObject}
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		pe := &ParseError{Err: err}
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syn):
			pe.Offset = syn.Offset
		case errors.As(err, &typ):
			pe.Offset = typ.Offset
		}
		return nil, pe
	}
	doc.normalize()
	return &doc, nil
}

// Marshal encodes the document as pretty-printed JSON with a trailing newline.
func Marshal(doc *Document) ([]byte, error) {
	if doc == nil {
		doc = &Document{}
	}
	c := doc.Clone()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encoding menu: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalCompact encodes the document without indentation.
func MarshalCompact(doc *Document) ([]byte, error) {
	if doc == nil {
		doc = &Document{}
	}
	data, err := json.Marshal(doc.Clone())
	if err != nil {
		return nil, fmt.Errorf("encoding menu: %w", err)
	}
	return data, nil
}

// MarshalYAML renders the document as YAML.
func MarshalYAML(doc *Document) ([]byte, error) {
	if doc == nil {
		doc = &Document{}
	}
	data, err := yaml.Marshal(doc.Clone())
	if err != nil {
		return nil, fmt.Errorf("encoding menu as yaml: %w", err)
	}
	return data, nil
}

// Empty returns a document with no tabs.
func Empty() *Document {
	return &Document{Tabs: []Tab{}}
}

// Clone returns a deep copy. Open flags are copied too.
func (d *Document) Clone() *Document {
	if d == nil {
		return Empty()
	}
	out := &Document{Tabs: make([]Tab, len(d.Tabs))}
	for i, t := range d.Tabs {
		out.Tabs[i] = t.Clone()
	}
	return out
}

// Clone returns a deep copy of the tab.
func (t Tab) Clone() Tab {
	c := t
	c.Groups = make([]Group, len(t.Groups))
	for i, g := range t.Groups {
		gc := g
		gc.Items = append([]Item{}, g.Items...)
		if g.Open != nil {
			open := *g.Open
			gc.Open = &open
		}
		c.Groups[i] = gc
	}
	return c
}

// Equal reports whether two documents have the same persisted content.
func Equal(a, b *Document) bool {
	if a == nil {
		a = Empty()
	}
	if b == nil {
		b = Empty()
	}
	if len(a.Tabs) != len(b.Tabs) {
		return false
	}
	for i := range a.Tabs {
		if !TabEqual(a.Tabs[i], b.Tabs[i]) {
			return false
		}
	}
	return true
}

// TabEqual compares two tabs ignoring the open flag.
func TabEqual(a, b Tab) bool {
	if a.ID != b.ID || a.Label != b.Label || a.Title != b.Title || len(a.Groups) != len(b.Groups) {
		return false
	}
	for i := range a.Groups {
		ga, gb := a.Groups[i], b.Groups[i]
		if ga.Label != gb.Label || len(ga.Items) != len(gb.Items) {
			return false
		}
		for j := range ga.Items {
			if ga.Items[j] != gb.Items[j] {
				return false
			}
		}
	}
	return true
}

// normalize replaces nil slices with empty ones so the encoded form
// always carries arrays.
func (d *Document) normalize() {
	if d.Tabs == nil {
		d.Tabs = []Tab{}
	}
	for i := range d.Tabs {
		if d.Tabs[i].Groups == nil {
			d.Tabs[i].Groups = []Group{}
		}
		for j := range d.Tabs[i].Groups {
			if d.Tabs[i].Groups[j].Items == nil {
				d.Tabs[i].Groups[j].Items = []Item{}
			}
		}
	}
}
