package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Raw HTML in descriptions is dropped: goldmark's renderer is safe unless
// WithUnsafe is given.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Linkify,
	),
)

// descNodes returns the children for an item description paragraph.
func (o Options) descNodes(desc string) []*html.Node {
	if !o.Markdown || desc == "" {
		return []*html.Node{text(desc)}
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(desc), &buf); err != nil {
		return []*html.Node{text(desc)}
	}
	context := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(&buf, context)
	if err != nil {
		return []*html.Node{text(desc)}
	}

	var out []*html.Node
	for _, n := range nodes {
		// Descriptions already sit inside a <p>; unwrap goldmark's paragraphs
		// so we don't nest block elements.
		if n.Type == html.ElementNode && n.DataAtom == atom.P {
			if len(out) > 0 {
				out = append(out, elem(atom.Br))
			}
			out = append(out, detachChildren(n)...)
			continue
		}
		if n.Type == html.TextNode && len(bytes.TrimSpace([]byte(n.Data))) == 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}

func detachChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		out = append(out, c)
		c = next
	}
	return out
}
