// Package render projects menu documents into HTML trees. Every function
// is a pure mapping from data to a fresh *html.Node; callers re-render the
// whole tree after each change.
package render

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mugo-bistro/mugo/internal/menu"
)

// Options controls presentation details shared by all views.
type Options struct {
	// Markdown renders item descriptions as inline Markdown.
	Markdown bool
	// Currency, when set, normalises prices and prefixes the symbol.
	Currency string
}

func (o Options) price(p string) string {
	if o.Currency == "" {
		return p
	}
	return menu.FormatPrice(p, o.Currency)
}

// elem builds an element from alternating attribute key/value pairs.
func elem(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// add appends children to parent and returns parent.
func add(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		if c != nil {
			parent.AppendChild(c)
		}
	}
	return parent
}

// textElem is elem with a single text child.
func textElem(a atom.Atom, s string, attrs ...string) *html.Node {
	return add(elem(a, attrs...), text(s))
}

func classes(names ...string) string {
	out := names[:0:0]
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, " ")
}

// Write serialises n.
func Write(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// String serialises n, for tests and small fragments.
func String(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// FindAll returns every element under root (inclusive) that has class cls.
func FindAll(root *html.Node, cls string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, c := range strings.Fields(Attr(n, "class")) {
				if c == cls {
					out = append(out, n)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// TextContent concatenates the text under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
