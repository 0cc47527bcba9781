package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/assets"
	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/live"
	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/menufile"
	"github.com/mugo-bistro/mugo/internal/render"
	"github.com/mugo-bistro/mugo/internal/session"
)

// maxMenuBytes caps the /save-menu request body.
const maxMenuBytes = 1 << 20

func (s *Server) handleStorefront(w http.ResponseWriter, r *http.Request) {
	data, err := s.repo.ReadRaw()
	if err != nil {
		s.logger.Error("reading menu", zap.Error(err))
		data = nil
	}
	body, err := render.FromJSON(data, s.cfg.Render)
	if err != nil {
		s.logger.Warn("rendering empty storefront", zap.Error(err))
	}

	page := render.Page(s.cfg.Title, body, render.PageOptions{
		Stylesheets: []string{assets.Stylesheet},
		Scripts:     []string{assets.Script},
		BodyClass:   "storefront",
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Write(w, page); err != nil {
		s.logger.Warn("writing storefront", zap.Error(err))
	}
}

func (s *Server) handleMenuJSON(w http.ResponseWriter, r *http.Request) {
	data, err := s.repo.ReadRaw()
	if err != nil {
		s.logger.Error("reading menu", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read file"})
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (s *Server) handleSaveMenu(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMenuBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})
		return
	}
	doc, err := menu.Parse(data)
	if err != nil {
		s.logger.Debug("rejecting menu", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})
		return
	}

	if _, err := s.persist(r.Context(), doc, actorFrom(r.Context()), audit.SourceSaveEndpoint); err != nil {
		s.logger.Error("failed to write menu", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save file"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// persist writes doc, records the change and notifies live clients.
func (s *Server) persist(ctx context.Context, doc *menu.Document, actor string, source audit.Source) (menufile.Saved, error) {
	saved, err := s.repo.Save(doc)
	if err != nil {
		return saved, err
	}
	s.record(ctx, audit.Entry{
		ActorID:      actor,
		Action:       audit.ActionMenuSaved,
		Source:       source,
		Summary:      summarize(doc),
		TabCount:     len(doc.Tabs),
		ItemCount:    doc.ItemCount(),
		PreviousHash: saved.PreviousHash,
		NewHash:      saved.NewHash,
	})

	// Edits from the save endpoint supersede any clean admin session.
	if source != audit.SourceAdminForm {
		s.resetCleanAdmin(doc)
	}
	return saved, nil
}

// MenuChangedOnDisk handles an out-of-band edit reported by the file watcher.
func (s *Server) MenuChangedOnDisk(c menufile.Change) {
	s.record(context.Background(), audit.Entry{
		Action:    audit.ActionMenuChangedOnDisk,
		Source:    audit.SourceWatcher,
		Summary:   summarize(c.Doc),
		TabCount:  len(c.Doc.Tabs),
		ItemCount: c.Doc.ItemCount(),
		NewHash:   c.Hash,
	})
	s.resetCleanAdmin(c.Doc)
}

func (s *Server) record(ctx context.Context, e audit.Entry) {
	if s.audit != nil {
		if err := s.audit.Log(ctx, e); err != nil {
			s.logger.Warn("writing audit entry", zap.Error(err))
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(live.Event{Type: live.EventMenuUpdated, Source: string(e.Source), Hash: e.NewHash})
	}
	if s.notifier != nil {
		s.notifier.Notify(e)
	}
	s.logger.Info("menu updated",
		zap.String("action", string(e.Action)),
		zap.String("source", string(e.Source)),
		zap.String("actor", e.ActorID),
		zap.String("hash", e.NewHash),
	)
}

// resetCleanAdmin replaces the admin session with doc unless it holds
// unsaved edits.
func (s *Server) resetCleanAdmin(doc *menu.Document) {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	if s.admin != nil && !s.admin.HasChanges() {
		s.admin = session.New(doc)
	}
}

func summarize(doc *menu.Document) string {
	return fmt.Sprintf("%d tabs, %d items", len(doc.Tabs), doc.ItemCount())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
