// Package session holds the editor's working menu and tracks which tabs
// have changed since the last successful save.
//
// A Session has a single owner and is not safe for concurrent use.
package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/mugo-bistro/mugo/internal/menu"
)

var (
	// ErrOutOfRange is returned when an edit addresses a tab, group or item
	// that does not exist.
	ErrOutOfRange = errors.New("index out of range")
	// ErrNotInSnapshot is returned by Revert for tabs added since the last save.
	ErrNotInSnapshot = errors.New("tab not present in last saved menu")
)

// Session is an editing session over one menu document.
type Session struct {
	doc      *menu.Document
	snapshot *menu.Document
	dirty    map[int]bool
	// base maps each working tab to its snapshot tab, -1 for added tabs.
	base     []int
	selected int
}

// New starts a session whose working copy and snapshot both equal doc.
func New(doc *menu.Document) *Session {
	return &Session{
		doc:      doc.Clone(),
		snapshot: doc.Clone(),
		dirty:    make(map[int]bool),
		base:     identity(len(doc.Tabs)),
	}
}

// Resume starts a session from a saved snapshot and a working copy that
// may already carry edits. Tabs that differ from the snapshot are dirty.
func Resume(saved, working *menu.Document) *Session {
	s := &Session{
		doc:      working.Clone(),
		snapshot: saved.Clone(),
		dirty:    make(map[int]bool),
	}
	s.rebase()
	return s
}

// Document returns the working document. Callers must treat it as read-only
// and go through the session to mutate it.
func (s *Session) Document() *menu.Document { return s.doc }

// Snapshot returns a copy of the last saved document.
func (s *Session) Snapshot() *menu.Document { return s.snapshot.Clone() }

// Dirty reports whether tab i has unsaved edits.
func (s *Session) Dirty(i int) bool { return s.dirty[i] }

// DirtyTabs returns the indices of modified tabs in ascending order.
func (s *Session) DirtyTabs() []int {
	keys := lo.Keys(s.dirty)
	sort.Ints(keys)
	return keys
}

// HasChanges reports whether anything differs from the last save,
// including removed or reordered tabs.
func (s *Session) HasChanges() bool {
	if len(s.dirty) > 0 || len(s.doc.Tabs) != len(s.snapshot.Tabs) {
		return true
	}
	for i, b := range s.base {
		if b != i {
			return true
		}
	}
	return false
}

// Selected returns the tab currently shown in the editor.
func (s *Session) Selected() int { return s.selected }

// Select changes the selected tab.
func (s *Session) Select(i int) error {
	if i < 0 || i >= len(s.doc.Tabs) {
		return fmt.Errorf("select tab %d: %w", i, ErrOutOfRange)
	}
	s.selected = i
	return nil
}

// MarkSaved records the working document as the new snapshot and clears
// every dirty flag. It is called after a successful save only.
func (s *Session) MarkSaved() {
	s.snapshot = s.doc.Clone()
	s.dirty = make(map[int]bool)
	s.base = identity(len(s.doc.Tabs))
}

// Revert restores tab i from its version in the last saved snapshot, which
// need not sit at the same index once tabs were added or removed.
func (s *Session) Revert(i int) error {
	if i < 0 || i >= len(s.doc.Tabs) {
		return fmt.Errorf("revert tab %d: %w", i, ErrOutOfRange)
	}
	b := s.base[i]
	if b < 0 {
		return fmt.Errorf("revert tab %d: %w", i, ErrNotInSnapshot)
	}
	s.doc.Tabs[i] = s.snapshot.Tabs[b].Clone()
	delete(s.dirty, i)
	return nil
}

// Revertible reports whether tab i has a saved version to return to.
func (s *Session) Revertible(i int) bool {
	return i >= 0 && i < len(s.base) && s.base[i] >= 0
}

// ApplyJSON replaces the working document with raw editor text.
// On a parse error the session is left untouched.
func (s *Session) ApplyJSON(text []byte) error {
	doc, err := menu.Parse(text)
	if err != nil {
		return err
	}
	s.doc = doc
	s.rebase()
	if s.selected >= len(s.doc.Tabs) {
		s.selected = max(0, len(s.doc.Tabs)-1)
	}
	return nil
}

func (s *Session) markDirty(i int) {
	s.dirty[i] = true
}

// rebase links the working tabs to snapshot tabs after the whole document
// was replaced, then rebuilds the dirty set. Tabs are matched by id first;
// a tab with an unmatched id falls back to the unclaimed snapshot tab at
// its own position.
func (s *Session) rebase() {
	s.base = make([]int, len(s.doc.Tabs))
	claimed := make([]bool, len(s.snapshot.Tabs))
	byID := make(map[string][]int)
	for j, t := range s.snapshot.Tabs {
		byID[t.ID] = append(byID[t.ID], j)
	}

	for i, t := range s.doc.Tabs {
		s.base[i] = -1
		if c := byID[t.ID]; len(c) > 0 {
			s.base[i] = c[0]
			claimed[c[0]] = true
			byID[t.ID] = c[1:]
		}
	}
	for i := range s.doc.Tabs {
		if s.base[i] >= 0 || i >= len(claimed) || claimed[i] {
			continue
		}
		// Leave the position to a later tab that still carries this id.
		if lo.ContainsBy(s.doc.Tabs, func(w menu.Tab) bool { return w.ID == s.snapshot.Tabs[i].ID }) {
			continue
		}
		s.base[i] = i
		claimed[i] = true
	}
	s.recompute()
}

// recompute rebuilds the dirty set by comparing every tab to its snapshot tab.
func (s *Session) recompute() {
	s.dirty = make(map[int]bool)
	for i, t := range s.doc.Tabs {
		if b := s.base[i]; b < 0 || !menu.TabEqual(t, s.snapshot.Tabs[b]) {
			s.dirty[i] = true
		}
	}
}

func identity(n int) []int {
	base := make([]int, n)
	for i := range base {
		base[i] = i
	}
	return base
}
