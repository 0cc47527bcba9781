package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned by GetByID for an unknown entry.
var ErrNotFound = errors.New("audit entry not found")

// Action describes what was done to the menu.
type Action string

const (
	ActionMenuSaved         Action = "menu_saved"
	ActionMenuCommitted     Action = "menu_committed"
	ActionMenuReverted      Action = "menu_reverted"
	ActionMenuChangedOnDisk Action = "menu_changed_on_disk"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionMenuSaved, ActionMenuCommitted, ActionMenuReverted, ActionMenuChangedOnDisk:
		return true
	}
	return false
}

// Source identifies the path through which a change arrived.
type Source string

const (
	SourceSaveEndpoint Source = "save-menu"
	SourceAdminForm    Source = "admin-form"
	SourceRemote       Source = "remote"
	SourceWatcher      Source = "watcher"
)

// Entry is a single audit trail record.
type Entry struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	ActorID      string    `json:"actor_id"`
	Action       Action    `json:"action"`
	Source       Source    `json:"source"`
	Summary      string    `json:"summary"`
	TabCount     int       `json:"tab_count"`
	ItemCount    int       `json:"item_count"`
	PreviousHash string    `json:"previous_hash,omitempty"`
	NewHash      string    `json:"new_hash,omitempty"`
}

// Hash returns a short content hash used to tell menu revisions apart.
func Hash(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
