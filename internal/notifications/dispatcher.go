package notifications

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/audit"
)

const queueSize = 32

// Dispatcher delivers menu change events to webhook subscribers from a
// single background goroutine, so a slow endpoint never holds up a save.
type Dispatcher struct {
	urls   []string
	secret []byte
	client *http.Client
	logger *zap.Logger
	queue  chan Event
}

// NewDispatcher creates a Dispatcher for the given webhook URLs. An empty
// secret disables request signing.
func NewDispatcher(urls []string, secret string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		urls:   urls,
		secret: []byte(secret),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
		queue:  make(chan Event, queueSize),
	}
}

// Notify queues an event built from an audit entry. When the queue is full
// the event is dropped and logged.
func (d *Dispatcher) Notify(e audit.Entry) {
	ev := Event{
		ID:        uuid.New().String(),
		Type:      EventMenuUpdated,
		Action:    string(e.Action),
		Source:    string(e.Source),
		Actor:     e.ActorID,
		Summary:   e.Summary,
		Tabs:      e.TabCount,
		Items:     e.ItemCount,
		Hash:      e.NewHash,
		CreatedAt: time.Now().UTC(),
	}
	select {
	case d.queue <- ev:
	default:
		d.logger.Warn("webhook queue full, dropping event", zap.String("action", ev.Action))
	}
}

// Run delivers queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.Dispatch(ctx, ev)
		}
	}
}

// Dispatch sends ev to every webhook. Failures are logged, not returned.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		d.logger.Error("encoding webhook event", zap.Error(err))
		return
	}
	for _, url := range d.urls {
		if err := d.SendWebhook(ctx, url, payload); err != nil {
			d.logger.Warn("webhook delivery failed", zap.String("url", url), zap.Error(err))
			continue
		}
		d.logger.Debug("webhook delivered", zap.String("url", url), zap.String("id", ev.ID))
	}
}

// SendWebhook POSTs payload to the given URL.
func (d *Dispatcher) SendWebhook(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if len(d.secret) > 0 {
		req.Header.Set(SignatureHeader, Sign(d.secret, payload))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns "sha256=" followed by the hex HMAC of payload.
func Sign(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
