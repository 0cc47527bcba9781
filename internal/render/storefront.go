package render

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mugo-bistro/mugo/internal/menu"
)

// Storefront renders the public menu: a tab strip and one card per tab.
// The first tab starts active.
func Storefront(doc *menu.Document, opts Options) *html.Node {
	nav := elem(atom.Nav, "id", "menu-tabs", "class", "menu-tabs", "role", "tablist")
	root := elem(atom.Div, "id", "menu-root", "class", "menu-root")

	if doc != nil {
		for i, tab := range doc.Tabs {
			active, selected := "", "false"
			if i == 0 {
				active, selected = "active", "true"
			}
			label := tab.Label
			if label == "" {
				label = tab.ID
			}
			add(nav, textElem(atom.Button, label,
				"type", "button",
				"class", classes("menu-tab", active),
				"data-target", tab.ID,
				"role", "tab",
				"aria-selected", selected,
			))

			section := elem(atom.Section, "id", tab.ID, "class", classes("menu-card", active), "role", "tabpanel")
			header := add(elem(atom.Header, "class", "menu-card-header"),
				textElem(atom.H1, tab.Title, "class", "menu-card-title-main"))
			add(section, header)
			for _, g := range tab.Groups {
				add(section, group(g, atom.H2, opts))
			}
			add(root, section)
		}
	}

	return add(elem(atom.Div, "class", "menu-app"), nav, root)
}

// Preview renders the admin preview: every card visible, headed by the
// tab's display title.
func Preview(doc *menu.Document, opts Options) *html.Node {
	root := elem(atom.Div, "id", "preview-root", "class", "preview-root")
	if doc == nil {
		return root
	}
	for _, tab := range doc.Tabs {
		card := add(elem(atom.Section, "class", "menu-card active"),
			textElem(atom.H3, tab.DisplayTitle(), "class", "menu-card-title-main"))
		for _, g := range tab.Groups {
			add(card, group(g, atom.H4, opts))
		}
		add(root, card)
	}
	return root
}

// FromJSON renders the storefront for raw menu text. Text that does not
// parse renders as an empty menu; the parse error is returned for logging.
func FromJSON(data []byte, opts Options) (*html.Node, error) {
	doc, err := menu.Parse(data)
	if err != nil {
		return Storefront(menu.Empty(), opts), err
	}
	return Storefront(doc, opts), nil
}

func group(g menu.Group, nameTag atom.Atom, opts Options) *html.Node {
	div := add(elem(atom.Div, "class", "menu-group"),
		textElem(atom.P, g.Label, "class", "menu-group-label"))
	for _, it := range g.Items {
		add(div, item(it, nameTag, opts))
	}
	return div
}

func item(it menu.Item, nameTag atom.Atom, opts Options) *html.Node {
	main := add(elem(atom.Div, "class", "menu-item-main"),
		textElem(nameTag, it.Name, "class", "menu-item-name"),
		add(elem(atom.P, "class", "menu-item-desc"), opts.descNodes(it.Desc)...),
	)
	return add(elem(atom.Article, "class", "menu-item"),
		main,
		textElem(atom.Div, opts.price(it.Price), "class", "menu-item-price"),
	)
}
