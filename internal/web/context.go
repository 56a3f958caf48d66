package web

import (
	"net/http"

	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/session"
	mw "github.com/JonMunkholm/taxpro/internal/web/middleware"
)

// currentSession returns the request's browsing session. It is non-nil on
// every route behind the session middleware.
func currentSession(r *http.Request) *session.Session {
	return mw.SessionFrom(r.Context())
}

// requirePortal returns the signed-in session's portal. When the session
// signed out after the middleware check, it answers the request and
// reports false.
func (s *Server) requirePortal(w http.ResponseWriter, r *http.Request) (*core.Portal, bool) {
	if sess := currentSession(r); sess != nil {
		if p := sess.Portal(); p != nil {
			return p, true
		}
	}
	s.handleSignInRequired(w, r)
	return nil, false
}
