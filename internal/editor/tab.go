package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/session"
)

// editTab loops over the fields and groups of tab t.
func (e *Editor) editTab(t int) error {
	for {
		tab := e.sess.Document().Tabs[t]
		choices := []string{
			"ID: " + tab.ID,
			"Label: " + tab.Label,
			"Title: " + tab.Title,
		}
		for _, g := range tab.Groups {
			c := fmt.Sprintf("Group: %s (%d)", g.Label, len(g.Items))
			if !g.IsOpen() {
				c += " [collapsed]"
			}
			choices = append(choices, c)
		}
		choices = append(choices, "+ Add group", choiceDone)

		i, err := e.ui.Select(e.tabLabel(t), choices)
		if err != nil {
			return err
		}

		switch n := len(tab.Groups); {
		case i == 0:
			err = e.editField(session.Edit{Tab: t, Field: session.FieldTabID}, "ID", e.validTabID(t))
		case i == 1:
			err = e.editField(session.Edit{Tab: t, Field: session.FieldTabLabel}, "Label", nonEmpty)
		case i == 2:
			err = e.editField(session.Edit{Tab: t, Field: session.FieldTabTitle}, "Title", nil)
		case i < 3+n:
			err = e.editGroup(t, i-3)
		case i == 3+n:
			err = e.addGroup(t)
		default:
			return nil
		}
		if err != nil && !errors.Is(err, ErrCancelled) {
			return err
		}
	}
}

func (e *Editor) addGroup(t int) error {
	label, err := e.ui.Input("Group label", "Nuova sezione", nonEmpty)
	if err != nil {
		return err
	}
	g, err := e.sess.AddGroup(t, strings.TrimSpace(label))
	if err != nil {
		return err
	}
	return e.editGroup(t, g)
}

// editGroup loops over the label and items of group g in tab t.
func (e *Editor) editGroup(t, g int) error {
	for {
		grp := e.sess.Document().Tabs[t].Groups[g]
		choices := []string{"Label: " + grp.Label}
		for _, it := range grp.Items {
			choices = append(choices, fmt.Sprintf("Item: %s  %s", it.Name, menu.FormatPrice(it.Price, e.currency)))
		}
		toggle := "Collapse"
		if !grp.IsOpen() {
			toggle = "Expand"
		}
		choices = append(choices, "+ Add item", toggle, "Remove group", choiceDone)

		i, err := e.ui.Select(grp.Label, choices)
		if err != nil {
			return err
		}

		n := len(grp.Items)
		switch {
		case i == 0:
			err = e.editField(session.Edit{Tab: t, Group: g, Field: session.FieldGroupLabel}, "Label", nonEmpty)
		case i <= n:
			err = e.editItem(t, g, i-1)
		case i == n+1:
			err = e.addItem(t, g)
		case i == n+2:
			err = e.sess.ToggleGroup(t, g)
		case i == n+3:
			ok, cerr := e.ui.Confirm(fmt.Sprintf("Remove group %q and its %d item(s)", grp.Label, n))
			if cerr != nil || !ok {
				err = cerr
				break
			}
			return e.sess.RemoveGroup(t, g)
		default:
			return nil
		}
		if err != nil && !errors.Is(err, ErrCancelled) {
			return err
		}
	}
}

func (e *Editor) addItem(t, g int) error {
	name, err := e.ui.Input("Item name", "Nuova voce", nonEmpty)
	if err != nil {
		return err
	}
	price, err := e.ui.Input("Price", "", nil)
	if err != nil {
		return err
	}
	i, err := e.sess.AddItem(t, g, menu.Item{
		Name:  strings.TrimSpace(name),
		Price: menu.NormalizePrice(strings.TrimSpace(price)),
	})
	if err != nil {
		return err
	}
	return e.editItem(t, g, i)
}

// editItem loops over the fields of one item.
func (e *Editor) editItem(t, g, i int) error {
	for {
		it := e.sess.Document().Tabs[t].Groups[g].Items[i]
		choices := []string{
			"Name: " + it.Name,
			"Description: " + it.Desc,
			"Price: " + it.Price,
			"Remove item",
			choiceDone,
		}
		c, err := e.ui.Select(it.Name, choices)
		if err != nil {
			return err
		}

		at := session.Edit{Tab: t, Group: g, Item: i}
		switch c {
		case 0:
			at.Field = session.FieldItemName
			err = e.editField(at, "Name", nonEmpty)
		case 1:
			at.Field = session.FieldItemDesc
			err = e.editField(at, "Description", nil)
		case 2:
			at.Field = session.FieldItemPrice
			err = e.editField(at, "Price", nil)
		case 3:
			ok, cerr := e.ui.Confirm(fmt.Sprintf("Remove %q", it.Name))
			if cerr != nil || !ok {
				err = cerr
				break
			}
			return e.sess.RemoveItem(t, g, i)
		default:
			return nil
		}
		if err != nil && !errors.Is(err, ErrCancelled) {
			return err
		}
	}
}

// editField prompts for a new value of the field at and applies it.
// Unchanged values leave the tab clean.
func (e *Editor) editField(at session.Edit, label string, validate func(string) error) error {
	current, err := e.sess.Value(at)
	if err != nil {
		return err
	}
	v, err := e.ui.Input(label, current, validate)
	if err != nil {
		return err
	}
	v = strings.TrimSpace(v)
	if at.Field == session.FieldItemPrice {
		v = menu.NormalizePrice(v)
	}
	if v == current {
		return nil
	}
	at.Value = v
	return e.sess.Apply(at)
}

// validTabID rejects empty ids and ids used by another tab.
func (e *Editor) validTabID(t int) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return errors.New("value required")
		}
		if j := e.sess.Document().TabIndex(s); j >= 0 && j != t {
			return fmt.Errorf("id %q is used by another tab", s)
		}
		return nil
	}
}
