package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Formatted appropriately based on request type (HTMX, JSON, or HTML)
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered in appropriate format for the client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/taxpro/internal/core"
	"github.com/JonMunkholm/taxpro/internal/logging"
	"github.com/JonMunkholm/taxpro/internal/site"
	"github.com/JonMunkholm/taxpro/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type (HTMX, JSON, or HTML).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if isHTMX(r) {
		s.renderErrorPartial(w, r, userMsg, statusCode)
	} else if wantsJSON(r) {
		respondErrorJSON(w, err, userMsg, statusCode)
	} else {
		s.respondErrorHTML(w, r, userMsg, statusCode)
	}
}

// statusFor picks the HTTP status for a domain error from its user-facing
// code, so a rejection is reported by its primary reason.
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch core.MapError(err).Code {
	case "FILE001":
		return http.StatusRequestEntityTooLarge
	case "FILE002", "FILE003", "FORM001":
		return http.StatusUnprocessableEntity
	case "UPL003", "NAV404":
		return http.StatusNotFound
	case "AUTH001":
		return http.StatusUnauthorized
	case "RATE001":
		return http.StatusTooManyRequests
	case "UPL001":
		return http.StatusServiceUnavailable
	case "UPL004":
		return http.StatusRequestTimeout
	}
	return http.StatusBadRequest
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, err error, msg core.UserMessage, statusCode int) {
	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	var fe site.FieldErrors
	if errors.As(err, &fe) {
		resp.Fields = fe
	}
	writeJSON(w, statusCode, resp)
}

// respondErrorHTML renders the error page, falling back to plain text.
func (s *Server) respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	name := "error"
	if statusCode == http.StatusNotFound {
		name = "notfound"
	}
	if s.views == nil || !s.views.Has(name) {
		http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
		return
	}
	s.page(w, r, statusCode, name, templates.Page{Title: msg.Message, Data: msg})
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func (s *Server) renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	s.render(w, r, statusCode, templates.ErrorAlert(msg.Message, msg.Action, msg.Code))
}

// handleNotFound renders the 404 page for unknown routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, core.ErrPageNotFound, http.StatusNotFound)
}

// handleRateLimited rejects a request over its rate budget.
func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, core.ErrRateLimited, http.StatusTooManyRequests)
}

// handleSignInRequired sends browsers to the sign-in form and answers API
// and HTMX calls with AUTH001.
func (s *Server) handleSignInRequired(w http.ResponseWriter, r *http.Request) {
	if !isHTMX(r) && !wantsJSON(r) {
		http.Redirect(w, r, "/portal", http.StatusSeeOther)
		return
	}
	s.respondError(w, r, core.ErrSignInRequired, http.StatusUnauthorized)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
