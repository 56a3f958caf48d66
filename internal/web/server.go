// Package web provides the HTTP server and handlers for the TaxPro website and
// client portal.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/taxpro/internal/config"
	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/session"
	"github.com/JonMunkholm/taxpro/internal/site"
	mw "github.com/JonMunkholm/taxpro/internal/web/middleware"
	"github.com/JonMunkholm/taxpro/internal/web/templates"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the website and client portal.
type Server struct {
	cfg      *config.Config
	content  *site.Content
	sessions *session.Store
	hub      *Hub
	uploads  *uploadLimiter
	views    *templates.Views
	sched    core.Scheduler
	logger   *slog.Logger
	router   *chi.Mux
	server   *http.Server
}

// Option customizes a Server.
type Option func(*Server)

// WithScheduler sets the clock and timers used by portal upload lifecycles.
func WithScheduler(sched core.Scheduler) Option {
	return func(s *Server) { s.sched = sched }
}

// WithLogger sets the logger handed to portals and the websocket hub.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, content *site.Content, sessions *session.Store, opts ...Option) (*Server, error) {
	views, err := templates.Load()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		content:  content,
		sessions: sessions,
		views:    views,
		uploads:  newUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.SlotWait),
		sched:    core.SystemScheduler{},
		logger:   slog.Default(),
		router:   chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger)

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// setupRoutes configures middleware and all HTTP routes.
func (s *Server) setupRoutes() error {
	r := s.router

	r.Use(chimw.RequestID)
	r.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	r.Use(mw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(s.securityHeaders)
	if s.cfg.Rate.Enabled {
		r.Use(newRateLimiter(s.cfg.Rate.RequestsPerMinute, s.handleRateLimited).middleware)
	}

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return err
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Get("/healthz", s.handleHealth)
	r.NotFound(s.handleNotFound)

	// Marketing pages and content API
	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

		r.Get("/", s.handleHome)
		r.Get("/services", s.handleServices)
		r.Get("/pricing", s.handlePricing)
		r.Get("/about", s.handleAbout)
		r.Get("/resources", s.handleResources)
		r.Get("/blog", s.handleBlog)
		r.Get("/blog/{articleID}", s.handleArticle)
		r.Get("/contact", s.handleContact)
		r.Post("/contact", s.handleContactSubmit)
		r.Get("/appointment", s.handleAppointment)
		r.Post("/appointment", s.handleAppointmentSubmit)

		r.Get("/api/pricing", s.handleAPIPricing)
		r.Get("/api/blog", s.handleAPIBlog)
		r.Get("/api/blog/{articleID}", s.handleAPIArticle)
		r.Get("/api/faqs", s.handleAPIFAQs)
		r.Get("/api/appointments/slots", s.handleAPISlots)
	})

	// Client portal
	signedIn := mw.RequireSignIn(http.HandlerFunc(s.handleSignInRequired))
	uploadLimit := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled {
		uploadLimit = newRateLimiter(s.cfg.Rate.UploadLimit, s.handleRateLimited).middleware
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.Session(s.sessions, mw.CookieOptions{
			Name:   s.cfg.Session.CookieName,
			Secure: s.cfg.Session.SecureCookie,
		}))

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

			r.Get("/portal", s.handlePortal)
			r.Post("/portal/login", s.handleLogin)
			r.Post("/portal/logout", s.handleLogout)

			r.Group(func(r chi.Router) {
				r.Use(signedIn)
				r.With(uploadLimit).Post("/portal/uploads", s.handleUploadForm)
				r.Post("/portal/uploads/{uploadID}/remove", s.handleRemoveForm)
				r.Post("/portal/documents/{documentID}/download", s.handleDownload)

				r.Get("/api/portal/uploads", s.handleListUploads)
				r.With(uploadLimit).Post("/api/portal/uploads", s.handleSubmitUploads)
				r.Delete("/api/portal/uploads/{uploadID}", s.handleDeleteUpload)
			})
		})

		// Long-lived streams are exempt from the request timeout.
		r.Group(func(r chi.Router) {
			r.Use(signedIn)
			r.Get("/api/portal/uploads/{uploadID}/progress", s.handleUploadProgress)
			r.Get("/api/portal/ws", s.handleWebsocket)
		})
	})

	return nil
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 keeps event streams open
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, waits for uploads still being read
// and disconnects websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	if derr := s.uploads.drain(ctx); derr != nil {
		s.logger.Warn("uploads still in flight at shutdown", "count", s.uploads.inFlight())
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Hub returns the websocket notification hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// timing converts the upload configuration into lifecycle delays.
func (s *Server) timing() core.Timing {
	return core.Timing{
		StepInterval:    s.cfg.Upload.StepInterval,
		StepPercent:     s.cfg.Upload.StepPercent,
		ProcessingDelay: s.cfg.Upload.ProcessingDelay,
		ReviewDelay:     s.cfg.Upload.ReviewDelay,
	}
}

// simulate waits for a fixed submission delay unless the request goes away.
func simulate(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

const contentSecurityPolicy = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data:; font-src 'self'; connect-src 'self'; frame-ancestors 'none'"

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			h.Set("Content-Security-Policy", contentSecurityPolicy)
		}
		next.ServeHTTP(w, r)
	})
}
