package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/logging"
	"github.com/JonMunkholm/taxpro/internal/site"
	"github.com/JonMunkholm/taxpro/internal/web/templates"
)

type portalTab struct {
	ID    string
	Label string
}

var portalTabs = []portalTab{
	{"overview", "Overview"},
	{"documents", "Documents"},
	{"messages", "Messages"},
	{"billing", "Billing"},
	{"profile", "Profile"},
}

// tabOrDefault returns a known tab id, falling back to the overview.
func tabOrDefault(id string) string {
	for _, t := range portalTabs {
		if t.ID == id {
			return id
		}
	}
	return portalTabs[0].ID
}

type loginForm struct {
	Email string
}

type portalView struct {
	Tab           string
	Tabs          []portalTab
	Email         string
	Account       site.PortalData
	Uploads       []core.TrackedUpload
	Notifications []core.Notification
	Categories    []core.Category
	MaxFileSize   int64
	DocumentCount int
	Unread        int
	Balance       string
}

// handlePortal shows the sign-in form or, once signed in, the dashboard tab
// selected by ?tab=.
func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	p := sess.Portal()
	if p == nil {
		s.page(w, r, http.StatusOK, "portal_login", templates.Page{
			Title: "Client Portal",
			Nav:   "portal",
			Form:  loginForm{},
		})
		return
	}

	account := s.content.Portal
	uploads := p.List()
	s.page(w, r, http.StatusOK, "portal", templates.Page{
		Title: "Client Portal",
		Nav:   "portal",
		Data: portalView{
			Tab:           tabOrDefault(r.URL.Query().Get("tab")),
			Tabs:          portalTabs,
			Email:         sess.Email(),
			Account:       account,
			Uploads:       uploads,
			Notifications: p.Notifications(),
			Categories:    core.Categories(),
			MaxFileSize:   p.MaxFileSize(),
			DocumentCount: len(account.Documents) + len(uploads),
			Unread:        account.UnreadMessages(),
			Balance:       account.BalanceDue(),
		},
	})
}

// handleLogin signs the session in with any non-empty email and password
// after the simulated delay, and gives it a fresh upload portal.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	form := loginForm{Email: strings.TrimSpace(r.PostFormValue("email"))}
	fe := site.FieldErrors{}
	if form.Email == "" {
		fe["email"] = "Email address is required"
	}
	if r.PostFormValue("password") == "" {
		fe["password"] = "Password is required"
	}
	if len(fe) > 0 {
		if isHTMX(r) || wantsJSON(r) {
			s.respondError(w, r, fe, http.StatusUnprocessableEntity)
			return
		}
		s.page(w, r, http.StatusUnprocessableEntity, "portal_login", templates.Page{
			Title:  "Client Portal",
			Nav:    "portal",
			Errors: fe,
			Form:   form,
		})
		return
	}

	if err := simulate(r.Context(), s.cfg.Simulation.LoginDelay); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	sess := currentSession(r)
	p := core.New(core.Options{
		Scheduler:   s.sched,
		Timing:      s.timing(),
		MaxFileSize: s.cfg.Upload.MaxFileSize,
		MaxFiles:    s.cfg.Upload.MaxFiles,
		Notifier:    s.hub.Notifier(sess.ID),
		Logger:      s.logger.With("session_id", sess.ID),
	})
	sess.SignIn(form.Email, p, s.sched.Now())

	logging.FromContext(r.Context()).Info("portal sign in", "session_id", sess.ID)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "signed_in"})
		return
	}
	http.Redirect(w, r, "/portal", http.StatusSeeOther)
}

// handleLogout closes the session's portal, stopping its timers, and drops
// its websocket connections.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	sess.SignOut()
	s.hub.Disconnect(sess.ID)

	logging.FromContext(r.Context()).Info("portal sign out", "session_id", sess.ID)
	http.Redirect(w, r, "/portal", http.StatusSeeOther)
}

// handleDownload simulates downloading a seed document.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	p, ok := s.requirePortal(w, r)
	if !ok {
		return
	}

	raw := chi.URLParam(r, "documentID")
	id, err := strconv.Atoi(raw)
	doc, found := s.content.Portal.DocumentByID(id)
	if err != nil || !found {
		s.respondError(w, r, fmt.Errorf("document %q: %w", raw, core.ErrPageNotFound), http.StatusNotFound)
		return
	}

	p.Notify(core.Notification{
		Kind:        core.KindInfo,
		Title:       "Download started",
		Description: fmt.Sprintf("%s is downloading.", doc.Name),
	})
	http.Redirect(w, r, "/portal?tab=documents", http.StatusSeeOther)
}
