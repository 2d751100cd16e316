package security

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HeaderPolicy describes the headers sent with every response.
type HeaderPolicy struct {
	// ScriptSources are allowed in addition to 'self'.
	ScriptSources []string
	// HSTSMaxAge is only advertised on TLS connections. Zero disables HSTS.
	HSTSMaxAge time.Duration
}

// DefaultHeaderPolicy allows htmx from unpkg. Charts are same-origin PNGs.
func DefaultHeaderPolicy() HeaderPolicy {
	return HeaderPolicy{
		ScriptSources: []string{"https://unpkg.com"},
		HSTSMaxAge:    365 * 24 * time.Hour,
	}
}

// CSP renders the Content-Security-Policy value.
func (p HeaderPolicy) CSP() string {
	directives := [][]string{
		{"default-src", "'self'"},
		append([]string{"script-src", "'self'"}, p.ScriptSources...),
		{"style-src", "'self'", "'unsafe-inline'"},
		{"img-src", "'self'", "data:"},
		{"connect-src", "'self'"},
		{"object-src", "'none'"},
		{"frame-ancestors", "'none'"},
		{"base-uri", "'self'"},
		{"form-action", "'self'"},
	}
	parts := make([]string, len(directives))
	for i, d := range directives {
		parts[i] = strings.Join(d, " ")
	}
	return strings.Join(parts, "; ")
}

// Headers returns middleware that applies p.
func Headers(p HeaderPolicy) func(http.Handler) http.Handler {
	fixed := map[string]string{
		"Content-Security-Policy":      p.CSP(),
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Referrer-Policy":              "strict-origin-when-cross-origin",
		"Permissions-Policy":           "geolocation=(), microphone=(), camera=(), payment=()",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
	}
	var hsts string
	if p.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d; includeSubDomains", int64(p.HSTSMaxAge/time.Second))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range fixed {
				h.Set(name, value)
			}
			if r.TLS != nil && hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CacheStatic lets browsers keep embedded assets for maxAge.
func CacheStatic(maxAge time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", int64(maxAge/time.Second))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore marks responses that carry per-user data as uncacheable.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "private, no-store")
		next.ServeHTTP(w, r)
	})
}
