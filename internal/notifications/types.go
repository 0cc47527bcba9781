package notifications

import "time"

// EventMenuUpdated is the only event type sent today.
const EventMenuUpdated = "menu.updated"

// SignatureHeader carries the hex HMAC-SHA256 of the body when a secret
// is configured.
const SignatureHeader = "X-Mugo-Signature"

// Event is the JSON body POSTed to every webhook.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Action    string    `json:"action"`
	Source    string    `json:"source"`
	Actor     string    `json:"actor,omitempty"`
	Summary   string    `json:"summary"`
	Tabs      int       `json:"tabs"`
	Items     int       `json:"items"`
	Hash      string    `json:"hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
