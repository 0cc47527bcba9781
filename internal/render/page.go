package render

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PageOptions are the document-level assets of a page.
type PageOptions struct {
	Lang        string
	Stylesheets []string
	Scripts     []string
	// BodyClass distinguishes the storefront from the admin page.
	BodyClass string
}

// Page wraps body into a complete HTML document.
func Page(title string, body *html.Node, opts PageOptions) *html.Node {
	lang := opts.Lang
	if lang == "" {
		lang = "it"
	}

	head := add(elem(atom.Head),
		elem(atom.Meta, "charset", "utf-8"),
		elem(atom.Meta, "name", "viewport", "content", "width=device-width, initial-scale=1"),
		textElem(atom.Title, title),
	)
	for _, href := range opts.Stylesheets {
		add(head, elem(atom.Link, "rel", "stylesheet", "href", href))
	}

	var bodyAttrs []string
	if opts.BodyClass != "" {
		bodyAttrs = []string{"class", opts.BodyClass}
	}
	b := add(elem(atom.Body, bodyAttrs...), body)
	for _, src := range opts.Scripts {
		add(b, elem(atom.Script, "src", src, "defer", ""))
	}

	doc := &html.Node{Type: html.DocumentNode}
	add(doc,
		&html.Node{Type: html.DoctypeNode, Data: "html"},
		add(elem(atom.Html, "lang", lang), head, b),
	)
	return doc
}
