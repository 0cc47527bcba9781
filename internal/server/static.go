package server

import (
	"net/http"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// handleStatic serves SiteDir, refusing deny-listed paths.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.cfg.SiteDir == "" {
		http.NotFound(w, r)
		return
	}
	rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if denied(rel, s.cfg.StaticDeny) {
		http.NotFound(w, r)
		return
	}
	http.FileServer(http.Dir(s.cfg.SiteDir)).ServeHTTP(w, r)
}

// denied reports whether rel matches any pattern, either as a whole path
// or by its base name.
func denied(rel string, patterns []string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(p, base); err == nil && ok {
			return true
		}
	}
	return false
}
