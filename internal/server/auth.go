package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
)

type actorKey struct{}

// requireAdmin enforces HTTP Basic auth against the configured admin
// credentials and records the user name as the request's actor.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !s.validCredentials(user, pass) {
			w.Header().Set("WWW-Authenticate", "Basic realm="+strconv.Quote(s.cfg.Realm))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) validCredentials(user, pass string) bool {
	// Both comparisons always run.
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.cfg.AdminUser))
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.cfg.AdminPass))
	return userOK&passOK == 1 && s.cfg.AdminUser != ""
}

func actorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}
