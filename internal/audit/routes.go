package audit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// RegisterRoutes mounts the read-only history API under /api/audit. The
// middlewares (the admin auth check in practice) wrap every route.
func RegisterRoutes(r chi.Router, store *Store, middlewares ...func(http.Handler) http.Handler) {
	r.Route("/api/audit", func(r chi.Router) {
		r.Use(middlewares...)
		r.Get("/", handleQuery(store))
		r.Get("/latest", handleLatest(store))
		r.Get("/{id}", handleGetByID(store))
	})
}

// filterFromQuery reads actor, action, source, since, until (RFC 3339),
// limit and offset. Malformed values are ignored.
func filterFromQuery(r *http.Request) QueryFilter {
	q := r.URL.Query()
	f := QueryFilter{
		ActorID: q.Get("actor"),
		Action:  Action(q.Get("action")),
		Source:  Source(q.Get("source")),
		Limit:   defaultPageSize,
	}
	if t, err := time.Parse(time.RFC3339, q.Get("since")); err == nil {
		f.Since = &t
	}
	if t, err := time.Parse(time.RFC3339, q.Get("until")); err == nil {
		f.Until = &t
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		f.Limit = min(n, maxPageSize)
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		f.Offset = n
	}
	return f
}

func handleQuery(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := store.Query(r.Context(), filterFromQuery(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		if entries == nil {
			entries = []Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleLatest(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.Latest(r.Context())
		switch {
		case err != nil:
			writeError(w, http.StatusInternalServerError, "query failed")
		case entry == nil:
			writeError(w, http.StatusNotFound, "no history")
		default:
			writeJSON(w, http.StatusOK, entry)
		}
	}
}

func handleGetByID(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case err != nil:
			writeError(w, http.StatusInternalServerError, "query failed")
		default:
			writeJSON(w, http.StatusOK, entry)
		}
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
