package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/charts"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady checks templates and the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.finance.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldComponent, applog.ComponentStorage, applog.FieldError, err)
		checks["store"] = "failed"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_client_errors_total", "counter", "Responses with a 4xx status", traceMetrics.ClientErrors)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("transactions_created_total", "counter", "Transactions created through the web", atomic.LoadInt64(&s.appMetrics.transactionsCreated))
	metric("budgets_set_total", "counter", "Budgets created or updated through the web", atomic.LoadInt64(&s.appMetrics.budgetsSet))
	metric("quick_add_failures_total", "counter", "Quick entries the parser could not understand", atomic.LoadInt64(&s.appMetrics.quickAddFailures))
	metric("rate_limit_rejections_total", "counter", "Requests rejected by the rate limiter", rateLimitMetrics.Rejected)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Suspicious requests blocked", securityMetrics.SuspiciousRequests)
	metric("untrusted_identity_headers_total", "counter", "Identity headers ignored from untrusted peers", securityMetrics.UntrustedIdentity)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.appMetrics.uptime).Seconds()))
}

// render executes a template into a buffer first so a failing template
// never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *htmxResponse, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", applog.FieldError, err, "template", name)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	if b == nil {
		b = newHTMXResponse()
	}
	b.HTML(buf.String()).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		s.respondError(w, r, http.StatusUnauthorized, "Please sign in")
		return
	}

	d, err := s.finance.Dashboard(r.Context(), user)
	if err != nil {
		s.fail(w, r, err, "Failed to load dashboard")
		return
	}

	today := core.DateOf(s.now())
	view := indexView{
		UserName:      user.DisplayName(),
		Today:         today.String(),
		Balance:       formatMoney(d.Totals.Balance),
		Income:        formatMoney(d.Totals.Income),
		Expense:       formatMoney(d.Totals.Expense),
		Stats:         toStatsRow(d.Stats),
		TopCategories: toCategoryRows(d.TopCategories),
		Transactions:  transactionsView{Items: toTransactionRows(d.Recent)},
		Budgets:       toBudgetsView(today.Year(), today.Month(), d.Budgets),
		Categories:    core.Categories,
	}
	s.render(w, r, nil, "index.html", view)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.finance.Dashboard(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err, "Failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, toDashboardJSON(d))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.finance.GetAIInsights(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err, "Failed to generate insights")
		return
	}
	if isHTMX(r) {
		s.render(w, r, nil, "insights.html", insightsView{Insights: insights})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"insights": insights})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	filename, err := s.finance.ExportCSV(r.Context(), auth.UserFromContext(r.Context()), &buf)
	if err != nil {
		s.fail(w, r, err, "Failed to export transactions")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	png, err := s.finance.TrendChart(r.Context(), auth.UserFromContext(r.Context()))
	s.writeChart(w, r, png, err)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	png, err := s.finance.CategoryChart(r.Context(), auth.UserFromContext(r.Context()))
	s.writeChart(w, r, png, err)
}

// writeChart answers 204 when there is nothing to plot, which the page
// shows as an empty state.
func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, png []byte, err error) {
	switch {
	case errors.Is(err, charts.ErrNoData):
		w.WriteHeader(http.StatusNoContent)
	case err != nil:
		s.fail(w, r, err, "Failed to render chart")
	default:
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}
