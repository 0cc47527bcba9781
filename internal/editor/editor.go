// Package editor is the terminal admin editor. It drives a session.Session
// through a UI and hands saves to a persist.Coordinator.
package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/persist"
	"github.com/mugo-bistro/mugo/internal/session"
)

// Saver persists a session. *persist.Coordinator implements it.
type Saver interface {
	Save(ctx context.Context, s *session.Session) (persist.Result, error)
	SaveLocal(ctx context.Context, s *session.Session) (persist.Result, error)
}

// Committer writes a session to a source repository.
// *persist.RemoteCommitter implements it.
type Committer interface {
	Commit(ctx context.Context, s *session.Session, message string) (persist.Result, error)
}

// Options configures an Editor. UI and Saver are required.
type Options struct {
	UI    UI
	Saver Saver
	// Committer enables the commit action when set.
	Committer Committer
	Currency  string
	// ReadFile loads JSON files for the replace action. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
	Logger   *zap.Logger
}

// Editor is an interactive editing loop over one session.
type Editor struct {
	sess      *session.Session
	ui        UI
	saver     Saver
	committer Committer
	currency  string
	readFile  func(string) ([]byte, error)
	logger    *zap.Logger
}

const (
	actionSelect    = "Switch tab"
	actionEditTab   = "Edit tab"
	actionAddTab    = "Add tab"
	actionRemoveTab = "Remove tab"
	actionRevert    = "Revert tab"
	actionShow      = "Show menu"
	actionApplyJSON = "Replace menu from JSON file"
	actionSave      = "Save"
	actionSaveLocal = "Save locally"
	actionCommit    = "Commit to repository"
	actionQuit      = "Quit"

	choiceDone = "Done"
)

// New creates an Editor for s.
func New(s *session.Session, opts Options) *Editor {
	e := &Editor{
		sess:      s,
		ui:        opts.UI,
		saver:     opts.Saver,
		committer: opts.Committer,
		currency:  opts.Currency,
		readFile:  opts.ReadFile,
		logger:    opts.Logger,
	}
	if e.readFile == nil {
		e.readFile = os.ReadFile
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Session returns the session being edited.
func (e *Editor) Session() *session.Session { return e.sess }

// Run shows the main menu until the operator quits. It returns ctx.Err()
// when the context is cancelled.
func (e *Editor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.printTabs()

		actions := e.actions()
		i, err := e.ui.Select("Menu editor", actions)
		action := actionQuit
		switch {
		case errors.Is(err, ErrCancelled):
		case err != nil:
			return err
		default:
			action = actions[i]
		}

		quit, err := e.do(ctx, action)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// actions lists what makes sense for the current state.
func (e *Editor) actions() []string {
	doc := e.sess.Document()
	var out []string
	if len(doc.Tabs) > 0 {
		if len(doc.Tabs) > 1 {
			out = append(out, actionSelect)
		}
		out = append(out, actionEditTab)
	}
	out = append(out, actionAddTab)
	if len(doc.Tabs) > 0 {
		out = append(out, actionRemoveTab)
		if e.sess.Dirty(e.sess.Selected()) {
			out = append(out, actionRevert)
		}
		out = append(out, actionShow)
	}
	out = append(out, actionApplyJSON, actionSave, actionSaveLocal)
	if e.committer != nil {
		out = append(out, actionCommit)
	}
	return append(out, actionQuit)
}

func (e *Editor) do(ctx context.Context, action string) (bool, error) {
	var err error
	switch action {
	case actionSelect:
		err = e.selectTab()
	case actionEditTab:
		err = e.editTab(e.sess.Selected())
	case actionAddTab:
		err = e.addTab()
	case actionRemoveTab:
		err = e.removeTab()
	case actionRevert:
		err = e.revertTab()
	case actionShow:
		e.show()
	case actionApplyJSON:
		err = e.applyJSON()
	case actionSave:
		err = e.save(ctx)
	case actionSaveLocal:
		err = e.saveLocal(ctx)
	case actionCommit:
		err = e.commit(ctx)
	case actionQuit:
		return e.quit(ctx)
	}
	if errors.Is(err, ErrCancelled) {
		return false, nil
	}
	return false, err
}

func (e *Editor) printTabs() {
	doc := e.sess.Document()
	if len(doc.Tabs) == 0 {
		e.ui.Printf("\n(empty menu)\n")
		return
	}
	labels := lo.Map(doc.Tabs, func(t menu.Tab, i int) string {
		return e.tabLabel(i)
	})
	e.ui.Printf("\n%s\n", strings.Join(labels, "  "))
}

// tabLabel is the tab's label with a dirty marker, bracketed when selected.
func (e *Editor) tabLabel(i int) string {
	label := e.sess.Document().Tabs[i].Label
	if e.sess.Dirty(i) {
		label += " *"
	}
	if i == e.sess.Selected() {
		label = "[" + label + "]"
	}
	return label
}

func (e *Editor) selectTab() error {
	doc := e.sess.Document()
	labels := lo.Map(doc.Tabs, func(t menu.Tab, i int) string {
		if e.sess.Dirty(i) {
			return t.Label + " *"
		}
		return t.Label
	})
	i, err := e.ui.Select("Tab", labels)
	if err != nil {
		return err
	}
	return e.sess.Select(i)
}

func (e *Editor) addTab() error {
	label, err := e.ui.Input("Tab label", "Nuova Categoria", nonEmpty)
	if err != nil {
		return err
	}
	label = strings.TrimSpace(label)
	e.sess.AddTab(uniqueID(e.sess.Document(), slug(label)), label)
	return nil
}

func (e *Editor) removeTab() error {
	t := e.sess.Selected()
	ok, err := e.ui.Confirm(fmt.Sprintf("Remove tab %q", e.sess.Document().Tabs[t].Label))
	if err != nil || !ok {
		return err
	}
	return e.sess.RemoveTab(t)
}

func (e *Editor) revertTab() error {
	t := e.sess.Selected()
	ok, err := e.ui.Confirm(fmt.Sprintf("Discard changes to %q", e.sess.Document().Tabs[t].Label))
	if err != nil || !ok {
		return err
	}
	if err := e.sess.Revert(t); err != nil {
		if errors.Is(err, session.ErrNotInSnapshot) {
			e.ui.Printf("This tab was added after the last save; remove it instead.\n")
			return nil
		}
		return err
	}
	e.ui.Printf("Changes discarded.\n")
	return nil
}

func (e *Editor) show() {
	for ti, t := range e.sess.Document().Tabs {
		e.ui.Printf("\n%s\n", strings.ToUpper(t.DisplayTitle()))
		if e.sess.Dirty(ti) {
			e.ui.Printf("  (unsaved changes)\n")
		}
		for _, g := range t.Groups {
			e.ui.Printf("  %s\n", g.Label)
			for _, it := range g.Items {
				e.ui.Printf("    %-32s %s\n", it.Name, menu.FormatPrice(it.Price, e.currency))
				if it.Desc != "" {
					e.ui.Printf("      %s\n", it.Desc)
				}
			}
		}
	}
}

func (e *Editor) applyJSON() error {
	name, err := e.ui.Input("JSON file", menu.FileName, nonEmpty)
	if err != nil {
		return err
	}
	data, err := e.readFile(strings.TrimSpace(name))
	if err != nil {
		e.ui.Printf("Cannot read %s: %v\n", name, err)
		return nil
	}
	if err := e.sess.ApplyJSON(data); err != nil {
		var pe *menu.ParseError
		if errors.As(err, &pe) {
			e.ui.Printf("Invalid JSON at byte %d: %v\n", pe.Offset, pe.Err)
			return nil
		}
		return err
	}
	e.ui.Printf("Menu replaced: %d tab(s) changed.\n", len(e.sess.DirtyTabs()))
	return nil
}

func (e *Editor) save(ctx context.Context) error {
	res, err := e.saver.Save(ctx, e.sess)
	if err != nil {
		return e.reportError("Not saved", err)
	}
	e.report(res)
	return nil
}

func (e *Editor) saveLocal(ctx context.Context) error {
	res, err := e.saver.SaveLocal(ctx, e.sess)
	if err != nil {
		return e.reportError("Draft not stored", err)
	}
	e.report(res)
	return nil
}

func (e *Editor) commit(ctx context.Context) error {
	msg, err := e.ui.Input("Commit message", "Update menu", nil)
	if err != nil {
		return err
	}
	res, err := e.committer.Commit(ctx, e.sess, strings.TrimSpace(msg))
	if err != nil {
		return e.reportError("Not committed", err)
	}
	e.report(res)
	return nil
}

// quit asks what to do with unsaved changes. It reports whether to leave.
func (e *Editor) quit(ctx context.Context) (bool, error) {
	if !e.sess.HasChanges() {
		return true, nil
	}
	const (
		saveAndQuit = "Save locally and quit"
		discard     = "Quit without saving"
		keep        = "Keep editing"
	)
	choices := []string{saveAndQuit, discard, keep}
	i, err := e.ui.Select("There are unsaved changes", choices)
	if errors.Is(err, ErrCancelled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch choices[i] {
	case saveAndQuit:
		if err := e.saveLocal(ctx); err != nil {
			return false, err
		}
		return true, nil
	case discard:
		return true, nil
	}
	return false, nil
}

func (e *Editor) report(res persist.Result) {
	switch res.Via {
	case persist.ViaServer:
		e.ui.Printf("Menu saved.\n")
	case persist.ViaDownload:
		e.ui.Printf("Server unreachable; menu written to %s. Upload it by hand.\n", res.Location)
	case persist.ViaRemote:
		e.ui.Printf("Menu committed (%s).\n", res.Location)
	case persist.ViaLocal:
		e.ui.Printf("Draft stored locally. The menu is not published yet.\n")
	}
	e.logger.Debug("save finished", zap.String("via", string(res.Via)), zap.String("location", res.Location))
}

// reportError prints save failures. Context cancellation is returned.
func (e *Editor) reportError(prefix string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var (
		se *persist.ServerError
		ce *persist.ConflictError
	)
	switch {
	case errors.Is(err, persist.ErrAuthRequired):
		e.ui.Printf("%s: login required (%v).\n", prefix, err)
	case errors.As(err, &ce):
		e.ui.Printf("%s: the remote menu changed since %s. Reload and try again.\n", prefix, ce.Revision)
	case errors.As(err, &se):
		e.ui.Printf("%s: %v.\n", prefix, se)
	default:
		e.ui.Printf("%s: %v.\n", prefix, err)
	}
	e.logger.Warn("save failed", zap.Error(err))
	return nil
}

func nonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value required")
	}
	return nil
}

// slug turns a label into a tab id: lower case, runs of other characters
// collapsed to a single dash.
func slug(label string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// uniqueID suffixes id until no tab of doc uses it. An empty id stays
// empty so the session generates one.
func uniqueID(doc *menu.Document, id string) string {
	if id == "" {
		return ""
	}
	candidate := id
	for n := 2; doc.TabIndex(candidate) >= 0; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	return candidate
}
