package http

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseRecordFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Invalid filter")
		return
	}
	records, err := s.finance.ListTransactions(r.Context(), auth.UserFromContext(r.Context()), filter)
	if err != nil {
		s.fail(w, r, err, "Failed to load transactions")
		return
	}

	if isHTMX(r) {
		s.render(w, r, nil, "transactions.html", transactionsView{
			Items:    toTransactionRows(records),
			Search:   filter.Search,
			Category: filter.Category,
			Type:     string(filter.Type),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": toTransactionsJSON(records)})
}

// handleCreateTransaction accepts description, amount, category, date,
// autoCategorize and an optional type (income|expense) for unsigned amounts.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	body := s.parseBody(w, r)
	if body == nil {
		return
	}

	in := services.TransactionInput{
		Description:    body.Get("description"),
		Amount:         body.Get("amount"),
		Direction:      services.ParseDirection(body.Get("type")),
		Category:       body.Get("category"),
		Date:           body.Get("date"),
		AutoCategorize: body.GetBool("autoCategorize"),
	}
	rec, err := s.finance.AddTransaction(r.Context(), auth.UserFromContext(r.Context()), in)
	if err != nil {
		s.fail(w, r, err, "Failed to add transaction")
		return
	}
	s.countTransaction()
	s.respondCreated(w, r, rec)
}

func (s *Server) handleQuickAdd(w http.ResponseWriter, r *http.Request) {
	body := s.parseBody(w, r)
	if body == nil {
		return
	}

	rec, err := s.finance.QuickAdd(r.Context(), auth.UserFromContext(r.Context()), body.Get("text"))
	if err != nil {
		if errors.Is(err, core.ErrCouldNotParse) {
			atomic.AddInt64(&s.appMetrics.quickAddFailures, 1)
		}
		s.fail(w, r, err, "Failed to add transaction")
		return
	}
	s.countTransaction()
	s.respondCreated(w, r, rec)
}

func (s *Server) respondCreated(w http.ResponseWriter, r *http.Request, rec core.Record) {
	if isHTMX(r) {
		msg := fmt.Sprintf("Added %s: %s (%s)", formatMoney(rec.Amount), rec.Description, rec.Category)
		newHTMXResponse().
			Status(http.StatusCreated).
			FormReset().
			TransactionsChanged().
			Notify(NotificationSuccess, msg).
			Write(w)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(rec))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.finance.DeleteTransaction(r.Context(), auth.UserFromContext(r.Context()), id); err != nil {
		s.fail(w, r, err, "Failed to delete transaction")
		return
	}
	if isHTMX(r) {
		// An empty 200 body lets hx-swap="outerHTML" remove the row.
		newHTMXResponse().
			TransactionsChanged().
			Notify(NotificationSuccess, "Transaction deleted").
			Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCategorize suggests a category for a description before saving.
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	body := s.parseBody(w, r)
	if body == nil {
		return
	}
	amount := body.Get("amount")
	if amount == "" {
		amount = "-1"
	}
	p, err := s.finance.Categorize(r.Context(), auth.UserFromContext(r.Context()), body.Get("description"), amount)
	if err != nil {
		s.fail(w, r, err, "Failed to categorize transaction")
		return
	}
	writeJSON(w, http.StatusOK, predictionJSON{Category: p.Category, Confidence: p.Confidence, Reasoning: p.Reasoning})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	totals, err := s.finance.Balance(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err, "Failed to load balance")
		return
	}
	writeJSON(w, http.StatusOK, toTotalsJSON(totals))
}
