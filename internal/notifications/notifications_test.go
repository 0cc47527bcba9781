package notifications

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mugo-bistro/mugo/internal/audit"
)

type received struct {
	mu     sync.Mutex
	bodies [][]byte
	sigs   []string
}

func (rc *received) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rc.mu.Lock()
		rc.bodies = append(rc.bodies, body)
		rc.sigs = append(rc.sigs, r.Header.Get(SignatureHeader))
		rc.mu.Unlock()
		w.WriteHeader(status)
	}
}

func (rc *received) count() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.bodies)
}

func savedEntry() audit.Entry {
	return audit.Entry{
		ActorID:   "admin",
		Action:    audit.ActionMenuSaved,
		Source:    audit.SourceSaveEndpoint,
		Summary:   "1 tabs, 1 items",
		TabCount:  1,
		ItemCount: 1,
		NewHash:   "abc123",
	}
}

func TestDispatcherWebhook(t *testing.T) {
	var rc received
	server := httptest.NewServer(rc.handler(http.StatusOK))
	defer server.Close()

	d := NewDispatcher([]string{server.URL}, "", nil)
	d.Notify(savedEntry())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for rc.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	if rc.count() != 1 {
		t.Fatalf("expected 1 delivery, got %d", rc.count())
	}
	var ev Event
	if err := json.Unmarshal(rc.bodies[0], &ev); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if ev.Type != EventMenuUpdated {
		t.Errorf("Type = %q, want %q", ev.Type, EventMenuUpdated)
	}
	if ev.Action != "menu_saved" || ev.Source != "save-menu" {
		t.Errorf("Action/Source = %q/%q", ev.Action, ev.Source)
	}
	if ev.Actor != "admin" || ev.Hash != "abc123" || ev.Items != 1 {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.ID == "" || ev.CreatedAt.IsZero() {
		t.Error("expected ID and CreatedAt to be set")
	}
	if rc.sigs[0] != "" {
		t.Errorf("expected no signature without a secret, got %q", rc.sigs[0])
	}
}

func TestDispatchSignsPayload(t *testing.T) {
	var rc received
	server := httptest.NewServer(rc.handler(http.StatusNoContent))
	defer server.Close()

	d := NewDispatcher([]string{server.URL}, "s3cret", nil)
	d.Dispatch(context.Background(), Event{ID: "e1", Type: EventMenuUpdated})

	if rc.count() != 1 {
		t.Fatalf("expected 1 delivery, got %d", rc.count())
	}
	want := Sign([]byte("s3cret"), rc.bodies[0])
	if rc.sigs[0] != want {
		t.Errorf("signature = %q, want %q", rc.sigs[0], want)
	}
}

func TestDispatchContinuesAfterFailure(t *testing.T) {
	var failing, ok received
	bad := httptest.NewServer(failing.handler(http.StatusInternalServerError))
	defer bad.Close()
	good := httptest.NewServer(ok.handler(http.StatusOK))
	defer good.Close()

	d := NewDispatcher([]string{bad.URL, good.URL}, "", nil)
	d.Dispatch(context.Background(), Event{ID: "e1"})

	if failing.count() != 1 || ok.count() != 1 {
		t.Errorf("deliveries = %d/%d, want 1/1", failing.count(), ok.count())
	}
}

func TestSendWebhookStatus(t *testing.T) {
	var rc received
	server := httptest.NewServer(rc.handler(http.StatusBadGateway))
	defer server.Close()

	d := NewDispatcher(nil, "", nil)
	if err := d.SendWebhook(context.Background(), server.URL, []byte(`{}`)); err == nil {
		t.Error("expected error for 502 response")
	}
}

func TestNotifyDropsWhenQueueFull(t *testing.T) {
	d := NewDispatcher(nil, "", nil)
	for i := 0; i < queueSize+5; i++ {
		d.Notify(savedEntry())
	}
	if len(d.queue) != queueSize {
		t.Errorf("queue length = %d, want %d", len(d.queue), queueSize)
	}
}

func TestSign(t *testing.T) {
	a := Sign([]byte("k"), []byte("body"))
	b := Sign([]byte("k"), []byte("body"))
	c := Sign([]byte("other"), []byte("body"))
	if a != b {
		t.Error("signature should be deterministic")
	}
	if a == c {
		t.Error("different secrets should give different signatures")
	}
	if len(a) != len("sha256=")+64 {
		t.Errorf("unexpected signature length %d", len(a))
	}
}
