package render

import (
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/session"
)

// AdminView carries the per-request state of the admin page.
type AdminView struct {
	Options
	// Action is the form target; "/admin" when empty.
	Action string
	// Notice and Error are shown above the form.
	Notice string
	Error  string
	// JSON is the raw editor text. Empty means the working document.
	JSON string
}

// Admin renders the editing form for the selected tab of s, followed by a
// raw JSON editor and a preview of the working document.
func Admin(s *session.Session, v AdminView) *html.Node {
	action := v.Action
	if action == "" {
		action = "/admin"
	}
	doc := s.Document()
	root := elem(atom.Div, "class", "admin")

	if v.Notice != "" {
		add(root, textElem(atom.P, v.Notice, "class", "notice", "role", "status"))
	}
	if v.Error != "" {
		add(root, textElem(atom.P, v.Error, "class", "error", "role", "alert"))
	}

	form := elem(atom.Form, "method", "post", "action", action, "class", "admin-form")
	add(root, form)

	nav := elem(atom.Nav, "class", "admin-tabs", "role", "tablist")
	for i, tab := range doc.Tabs {
		label := tab.Label
		if label == "" {
			label = tab.ID
		}
		if s.Dirty(i) {
			label += " *"
		}
		active := ""
		if i == s.Selected() {
			active = "active"
		}
		add(nav, opButton(Op{Kind: OpSelect, Tab: i}, label, "menu-tab", active))
	}
	add(nav, opButton(Op{Kind: OpAddTab}, "+ Categoria", "menu-tab"))
	add(form, nav)

	if t := s.Selected(); t < len(doc.Tabs) {
		add(form, tabEditor(s, t))
	} else {
		add(form, textElem(atom.P, "Nessuna categoria. Aggiungine una per iniziare.", "class", "empty"))
	}

	toolbar := elem(atom.Div, "class", "admin-toolbar")
	save := opButton(Op{Kind: OpSave}, "Salva", "menu-tab", "primary")
	if !s.HasChanges() {
		save.Attr = append(save.Attr, html.Attribute{Key: "data-clean", Val: "true"})
	}
	add(toolbar, save)
	add(form, toolbar)

	raw := v.JSON
	if raw == "" {
		if data, err := menu.Marshal(doc); err == nil {
			raw = string(data)
		}
	}
	add(form, add(elem(atom.Details, "class", "admin-json"),
		textElem(atom.Summary, "JSON"),
		textElem(atom.Textarea, raw, "name", "json", "rows", "20", "spellcheck", "false"),
		opButton(Op{Kind: OpApplyJSON}, "Applica JSON", "menu-tab"),
	))

	add(root, add(elem(atom.Section, "class", "admin-preview"),
		textElem(atom.H2, "Anteprima"),
		Preview(doc, v.Options),
	))
	return root
}

func tabEditor(s *session.Session, t int) *html.Node {
	tab := s.Document().Tabs[t]
	dirty := ""
	if s.Dirty(t) {
		dirty = "dirty"
	}
	legend := tab.DisplayTitle()
	if dirty != "" {
		legend += " *"
	}

	fs := add(elem(atom.Fieldset, "class", classes("admin-tab", dirty), "data-tab", strconv.Itoa(t)),
		textElem(atom.Legend, legend),
		elem(atom.Input, "type", "hidden", "name", "selected", "value", strconv.Itoa(t)),
		field("ID", session.Edit{Tab: t, Field: session.FieldTabID}, tab.ID),
		field("Etichetta", session.Edit{Tab: t, Field: session.FieldTabLabel}, tab.Label),
		field("Titolo", session.Edit{Tab: t, Field: session.FieldTabTitle}, tab.Title),
	)

	actions := add(elem(atom.Div, "class", "admin-tab-actions"),
		opButton(Op{Kind: OpDelTab, Tab: t}, "Elimina categoria", "menu-tab", "danger"))
	if s.Dirty(t) && s.Revertible(t) {
		add(actions, opButton(Op{Kind: OpRevert, Tab: t}, "Annulla modifiche", "menu-tab"))
	}
	add(fs, actions)

	for g, grp := range tab.Groups {
		add(fs, groupEditor(t, g, grp))
	}
	add(fs, opButton(Op{Kind: OpAddGroup, Tab: t}, "+ Sezione", "menu-tab"))
	return fs
}

func groupEditor(t, g int, grp menu.Group) *html.Node {
	collapsed, arrow := "", "▾"
	if !grp.IsOpen() {
		collapsed, arrow = "group-collapsed", "▸"
	}
	div := add(elem(atom.Div, "class", classes("admin-group", collapsed)),
		add(elem(atom.Div, "class", "admin-group-header"),
			opButton(Op{Kind: OpToggle, Tab: t, Group: g}, arrow, "menu-tab", "group-toggle", "icon-btn"),
			field("Sezione", session.Edit{Tab: t, Group: g, Field: session.FieldGroupLabel}, grp.Label),
			opButton(Op{Kind: OpDelGroup, Tab: t, Group: g}, "✕", "menu-tab", "danger", "icon-btn"),
		),
	)
	if collapsed != "" {
		return div
	}

	for i, it := range grp.Items {
		add(div, add(elem(atom.Div, "class", "admin-item"),
			field("Nome", session.Edit{Tab: t, Group: g, Item: i, Field: session.FieldItemName}, it.Name),
			field("Descrizione", session.Edit{Tab: t, Group: g, Item: i, Field: session.FieldItemDesc}, it.Desc),
			field("Prezzo", session.Edit{Tab: t, Group: g, Item: i, Field: session.FieldItemPrice}, it.Price),
			opButton(Op{Kind: OpDelItem, Tab: t, Group: g, Item: i}, "✕", "menu-tab", "danger", "icon-btn"),
		))
	}
	add(div, opButton(Op{Kind: OpAddItem, Tab: t, Group: g}, "+ Voce", "menu-tab"))
	return div
}

func field(label string, e session.Edit, value string) *html.Node {
	name := FieldName(e)
	return add(elem(atom.Label, "class", "admin-field"),
		text(label),
		elem(atom.Input, "type", "text", "name", name, "value", value),
	)
}

func opButton(op Op, label string, cls ...string) *html.Node {
	return textElem(atom.Button, label,
		"type", "submit",
		"name", "op",
		"value", op.String(),
		"class", classes(cls...),
	)
}
