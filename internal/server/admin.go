package server

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/assets"
	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/render"
	"github.com/mugo-bistro/mugo/internal/session"
)

// adminSession returns the shared admin session, loading the menu file on
// first use. Callers hold adminMu.
func (s *Server) adminSession() (*session.Session, error) {
	if s.admin == nil {
		doc, err := s.repo.Load()
		if err != nil {
			return nil, err
		}
		s.admin = session.New(doc)
	}
	return s.admin, nil
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	sess, err := s.adminSession()
	if err != nil {
		s.logger.Error("loading menu for admin", zap.Error(err))
		http.Error(w, "menu.json is not valid: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeAdmin(w, http.StatusOK, sess, render.AdminView{})
}

func (s *Server) handleAdminPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	sess, err := s.adminSession()
	if err != nil {
		s.logger.Error("loading menu for admin", zap.Error(err))
		http.Error(w, "menu.json is not valid: "+err.Error(), http.StatusInternalServerError)
		return
	}

	op := render.Op{Kind: render.OpSelect, Tab: sess.Selected()}
	if raw := r.PostForm.Get("op"); raw != "" {
		if op, err = render.ParseOp(raw); err != nil {
			s.writeAdmin(w, http.StatusBadRequest, sess, render.AdminView{Error: err.Error()})
			return
		}
	}

	// The JSON editor replaces the document wholesale; field inputs would
	// overwrite it with stale values.
	if op.Kind != render.OpApplyJSON {
		if err := applyFields(sess, r); err != nil {
			s.writeAdmin(w, http.StatusBadRequest, sess, render.AdminView{Error: err.Error()})
			return
		}
	}

	view := render.AdminView{}
	status := http.StatusOK
	switch op.Kind {
	case render.OpSelect:
		err = sess.Select(op.Tab)
	case render.OpAddTab:
		sess.AddTab("", "")
	case render.OpDelTab:
		err = sess.RemoveTab(op.Tab)
	case render.OpAddGroup:
		_, err = sess.AddGroup(op.Tab, "")
	case render.OpDelGroup:
		err = sess.RemoveGroup(op.Tab, op.Group)
	case render.OpToggle:
		err = sess.ToggleGroup(op.Tab, op.Group)
	case render.OpAddItem:
		_, err = sess.AddItem(op.Tab, op.Group, menu.Item{})
	case render.OpDelItem:
		err = sess.RemoveItem(op.Tab, op.Group, op.Item)
	case render.OpRevert:
		if err = sess.Revert(op.Tab); err == nil {
			view.Notice = "Modifiche annullate."
		}
	case render.OpApplyJSON:
		text := r.PostForm.Get("json")
		if err = sess.ApplyJSON([]byte(text)); err != nil {
			view.JSON = text
		}
	case render.OpSave:
		if _, err = s.persist(r.Context(), sess.Document(), actorFrom(r.Context()), audit.SourceAdminForm); err == nil {
			sess.MarkSaved()
			view.Notice = "Menu salvato."
		} else {
			s.logger.Error("admin save failed", zap.Error(err))
			err = fmt.Errorf("salvataggio non riuscito: %w", err)
			status = http.StatusInternalServerError
		}
	}

	if err != nil {
		view.Error = err.Error()
		if status == http.StatusOK {
			status = http.StatusBadRequest
			var pe *menu.ParseError
			if errors.As(err, &pe) {
				status = http.StatusUnprocessableEntity
			}
		}
	}
	s.writeAdmin(w, status, sess, view)
}

// applyFields copies changed form inputs into the session. Unchanged
// values are skipped so re-submitting the form does not mark tabs dirty.
func applyFields(sess *session.Session, r *http.Request) error {
	names := lo.Filter(lo.Keys(r.PostForm), func(name string, _ int) bool {
		_, ok := render.ParseFieldName(name)
		return ok
	})
	sort.Strings(names)

	for _, name := range names {
		e, _ := render.ParseFieldName(name)
		e.Value = r.PostForm.Get(name)
		cur, err := sess.Value(e)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if cur == e.Value {
			continue
		}
		if err := sess.Apply(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) writeAdmin(w http.ResponseWriter, status int, sess *session.Session, view render.AdminView) {
	view.Options = s.cfg.Render
	page := render.Page(s.cfg.Title+" · Admin", render.Admin(sess, view), render.PageOptions{
		Stylesheets: []string{assets.Stylesheet},
		Scripts:     []string{assets.Script},
		BodyClass:   "admin-page",
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := render.Write(w, page); err != nil {
		s.logger.Warn("writing admin page", zap.Error(err))
	}
}
