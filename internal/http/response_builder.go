package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Client-side events. Dashboard sections listen for these to reload.
const (
	EventTransactionsChanged = "transactions:changed"
	EventBudgetsChanged      = "budgets:changed"
	EventFormReset           = "form:reset"
	EventNotification        = "show-notification"
)

// NotificationType selects the toast style in app.js.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// htmxResponse collects HX-Trigger events and an optional HTML fragment for
// a single HTMX request.
type htmxResponse struct {
	status   int
	triggers map[string]any
	html     string
}

func newHTMXResponse() *htmxResponse {
	return &htmxResponse{status: http.StatusOK, triggers: make(map[string]any)}
}

func (b *htmxResponse) Status(code int) *htmxResponse {
	b.status = code
	return b
}

func (b *htmxResponse) Trigger(event string, detail any) *htmxResponse {
	b.triggers[event] = detail
	return b
}

// TransactionsChanged also reloads budgets, whose progress depends on spending.
func (b *htmxResponse) TransactionsChanged() *htmxResponse {
	return b.Trigger(EventTransactionsChanged, struct{}{}).Trigger(EventBudgetsChanged, struct{}{})
}

// BudgetsChanged reloads the budget panel. A non-zero period tells the page
// which month was touched.
func (b *htmxResponse) BudgetsChanged(year, month int) *htmxResponse {
	if year == 0 || month == 0 {
		return b.Trigger(EventBudgetsChanged, struct{}{})
	}
	return b.Trigger(EventBudgetsChanged, map[string]int{"year": year, "month": month})
}

func (b *htmxResponse) FormReset() *htmxResponse {
	return b.Trigger(EventFormReset, struct{}{})
}

// Notify shows a toast. Errors and warnings stay up longer than the rest.
func (b *htmxResponse) Notify(kind NotificationType, message string) *htmxResponse {
	duration := 3000
	if kind == NotificationError || kind == NotificationWarning {
		duration = 5000
	}
	return b.Trigger(EventNotification, map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": duration,
	})
}

func (b *htmxResponse) HTML(fragment string) *htmxResponse {
	b.html = fragment
	return b
}

func (b *htmxResponse) Write(w http.ResponseWriter) {
	if b.html != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	if len(b.triggers) > 0 {
		if payload, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(payload))
		}
	}
	w.WriteHeader(b.status)
	if b.html != "" {
		_, _ = w.Write([]byte(b.html))
	}
}

// errorFragment renders message, escaped, into the form's error slot and
// raises an error toast.
func errorFragment(status int, message string) *htmxResponse {
	return newHTMXResponse().
		Status(status).
		HTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`).
		Notify(NotificationError, message)
}
