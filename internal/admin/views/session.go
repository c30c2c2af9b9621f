package views

import (
	"context"
	"net/http"

	"github.com/jacentio/recipes/internal/admin/state"
)

const sessionCookie = "recipes_session"

type sessionKey struct{}

// withSession attaches the caller's session, starting one when the cookie is
// missing or names an expired session.
func (v *Views) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var s *state.Session
		if c, err := r.Cookie(sessionCookie); err == nil {
			s, _ = v.sessions.Lookup(c.Value)
		}
		if s == nil {
			s = v.sessions.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    s.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			v.logger.Debug("session started", "session", s.ID)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

func sessionFrom(ctx context.Context) *state.Session {
	return ctx.Value(sessionKey{}).(*state.Session)
}
