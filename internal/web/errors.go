package web

// errors.go turns errors into responses.
//
// The technical error is logged with the request id; the client gets the
// core.MapError message rendered for its request type (fragment, JSON, or
// plain text).

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/smarttools/internal/core"
	"github.com/JonMunkholm/smarttools/internal/logging"
	"github.com/JonMunkholm/smarttools/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the user-facing message.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	message := userMsg.Message
	var opErr *core.OpError
	if errors.As(err, &opErr) && opErr.File != "" {
		message = opErr.File + ": " + message
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, userMsg, message, statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, message, statusCode)
	default:
		http.Error(w, message+" ("+userMsg.Code+")", statusCode)
	}
}

// statusFor picks the HTTP status for an operation error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTooManyJobs):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrJobNotFound),
		errors.Is(err, core.ErrNoSession),
		errors.Is(err, core.ErrUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}

	switch core.KindOf(err) {
	case core.KindParse, core.KindDocument, core.KindSchema, core.KindPrecondition:
		return http.StatusUnprocessableEntity
	case core.KindIO:
		return http.StatusInternalServerError
	}

	if errors.Is(err, core.ErrOrderBoundary) || errors.Is(err, core.ErrOrderPosition) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// renderErrorPartial renders an error fragment for in-page requests.
func renderErrorPartial(w http.ResponseWriter, msg core.UserMessage, message string, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = templates.ErrorAlert(message, msg.Action, msg.Code).Render(context.Background(), w)
}

// isHTMX checks if the request asks for an HTML fragment.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
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

// respond writes a fragment for in-page requests and JSON otherwise.
func respond(w http.ResponseWriter, r *http.Request, fragment templ.Component, v any) {
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := fragment.Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render failed", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, v)
}
