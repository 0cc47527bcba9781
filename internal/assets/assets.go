// Package assets embeds the stylesheet and script shared by the storefront
// and the admin page.
package assets

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var files embed.FS

// Prefix is the URL path the assets are served under.
const Prefix = "/assets/"

// FS returns the asset files rooted at their own directory.
func FS() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Handler serves the assets under Prefix.
func Handler() http.Handler {
	return http.StripPrefix(Prefix, http.FileServer(http.FS(FS())))
}

// Stylesheet and Script are the URLs pages link to.
const (
	Stylesheet = Prefix + "style.css"
	Script     = Prefix + "menu.js"
)
