package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// isHTMX reports whether the request came from an htmx element and expects
// an HTML fragment rather than JSON.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps a service error to a response. fallback is the message shown
// for backend failures, whose cause is only logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, msg := errorStatus(err, fallback)
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), fallback,
			applog.FieldError, err,
			applog.FieldPath, r.URL.Path,
			applog.FieldErrorType, applog.ErrorTypeInternal)
	}
	s.respondError(w, r, status, msg)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if isHTMX(r) {
		errorFragment(status, msg).Write(w)
		return
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func errorStatus(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, "Please sign in"
	case errors.Is(err, core.ErrCouldNotParse):
		return http.StatusUnprocessableEntity, "Could not understand that transaction"
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, validationMessage(err)
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, fallback
	}
}

// validationMessage strips the generic prefix from validation errors so
// "validation failed: invalid amount" is shown as "Invalid amount".
func validationMessage(err error) string {
	msg := err.Error()
	prefix := core.ErrValidation.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		msg = msg[i+len(prefix):]
	}
	if msg == "" {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// formatMoney formats an amount as "$1,234.50" or "-$12.00".
func formatMoney(m core.Money) string {
	s := m.Abs().String()
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := "$" + b.String() + "." + frac
	if m.Cents < 0 {
		return "-" + out
	}
	return out
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims surrounding space.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
