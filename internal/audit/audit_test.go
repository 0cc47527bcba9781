package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mugo-bistro/mugo/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:           "test-1",
		ActorID:      "admin",
		Action:       ActionMenuSaved,
		Source:       SourceSaveEndpoint,
		Summary:      "Saved menu with 3 tabs",
		TabCount:     3,
		ItemCount:    17,
		PreviousHash: "aaaa",
		NewHash:      "bbbb",
	}

	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.ActorID != "admin" {
		t.Errorf("ActorID = %q, want %q", got.ActorID, "admin")
	}
	if got.Action != ActionMenuSaved {
		t.Errorf("Action = %q, want %q", got.Action, ActionMenuSaved)
	}
	if got.Source != SourceSaveEndpoint {
		t.Errorf("Source = %q, want %q", got.Source, SourceSaveEndpoint)
	}
	if got.TabCount != 3 || got.ItemCount != 17 {
		t.Errorf("counts = %d/%d, want 3/17", got.TabCount, got.ItemCount)
	}
	if got.PreviousHash != "aaaa" || got.NewHash != "bbbb" {
		t.Errorf("hashes = %q -> %q", got.PreviousHash, got.NewHash)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be populated")
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{ActorID: "watcher", Action: ActionMenuChangedOnDisk, Source: SourceWatcher}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.Query(ctx, QueryFilter{ActorID: "watcher"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected generated ID, got empty string")
	}
	if entries[0].PreviousHash != "" {
		t.Errorf("expected empty previous hash, got %q", entries[0].PreviousHash)
	}
}

func TestLogRejectsUnknownAction(t *testing.T) {
	store := setupStore(t)
	err := store.Log(context.Background(), Entry{ActorID: "x", Action: "menu_deleted"})
	if err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seed := []Entry{
		{ActorID: "alice", Action: ActionMenuSaved, Source: SourceSaveEndpoint},
		{ActorID: "bob", Action: ActionMenuSaved, Source: SourceAdminForm},
		{ActorID: "alice", Action: ActionMenuCommitted, Source: SourceRemote},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{}, 3},
		{"by actor", QueryFilter{ActorID: "alice"}, 2},
		{"by action", QueryFilter{Action: ActionMenuSaved}, 2},
		{"by source", QueryFilter{Source: SourceRemote}, 1},
		{"actor and action", QueryFilter{ActorID: "alice", Action: ActionMenuSaved}, 1},
		{"limit", QueryFilter{Limit: 2}, 2},
		{"offset only", QueryFilter{Offset: 1}, 2},
		{"limit offset", QueryFilter{Limit: 2, Offset: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("got %d entries, want %d", len(entries), tt.want)
			}
		})
	}
}

func TestLatest(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil on empty trail, got %+v", latest)
	}

	for _, h := range []string{"one", "two"} {
		if err := store.Log(ctx, Entry{ActorID: "admin", Action: ActionMenuSaved, NewHash: h}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	latest, err = store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.NewHash != "two" {
		t.Errorf("expected newest entry, got %+v", latest)
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, Entry{ActorID: "admin", Action: ActionMenuSaved}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	deleted, err := store.DeleteBefore(ctx, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)
	if _, err := store.GetByID(context.Background(), "nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHash(t *testing.T) {
	if Hash(nil) != "" {
		t.Error("empty input should hash to empty string")
	}
	a, b := Hash([]byte(`{"tabs":[]}`)), Hash([]byte(`{"tabs":[{}]}`))
	if len(a) != 16 || a == b {
		t.Errorf("unexpected hashes %q %q", a, b)
	}
}

// --- HTTP handler tests ---

func setupRouter(t *testing.T, mws ...func(http.Handler) http.Handler) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store, mws...)
	return r, store
}

func TestHTTPGetByID(t *testing.T) {
	r, store := setupRouter(t)
	if err := store.Log(context.Background(), Entry{ID: "http-1", ActorID: "admin", Action: ActionMenuSaved}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit/http-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "http-1" || got.ActorID != "admin" {
		t.Errorf("unexpected entry %+v", got)
	}
}

func TestHTTPGetByIDNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHTTPLatest(t *testing.T) {
	r, store := setupRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit/latest", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("empty trail: status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	if err := store.Log(context.Background(), Entry{ID: "only", ActorID: "admin", Action: ActionMenuCommitted}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "only" || got.Action != ActionMenuCommitted {
		t.Errorf("unexpected entry %+v", got)
	}
}

func TestFilterFromQueryCapsLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/audit?limit=100000&offset=-3&since=yesterday&action=menu_saved", nil)
	f := filterFromQuery(req)
	if f.Limit != maxPageSize {
		t.Errorf("Limit = %d, want %d", f.Limit, maxPageSize)
	}
	if f.Offset != 0 || f.Since != nil {
		t.Errorf("malformed values should be ignored: %+v", f)
	}
	if f.Action != ActionMenuSaved {
		t.Errorf("Action = %q", f.Action)
	}
}

func TestHTTPQueryEmptyIsArray(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestHTTPQueryWithFilter(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()

	for _, actor := range []string{"alice", "bob", "alice"} {
		if err := store.Log(ctx, Entry{ActorID: actor, Action: ActionMenuSaved}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit?actor=alice&limit=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var entries []Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries for alice, got %d", len(entries))
	}
}

func TestHTTPMiddlewareApplied(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	r, _ := setupRouter(t, deny)

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
