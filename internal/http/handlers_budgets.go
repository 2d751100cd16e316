package http

import (
	"fmt"
	"net/http"
	"strconv"

	"fintrack/internal/ai"
	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	p := ParseMonthParams(r.URL.Query(), s.now())
	budgets, err := s.finance.GetBudgets(r.Context(), auth.UserFromContext(r.Context()), p.Month, p.Year)
	if err != nil {
		s.fail(w, r, err, "Failed to load budgets")
		return
	}
	out := make([]budgetJSON, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetJSON(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": out})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	body := s.parseBody(w, r)
	if body == nil {
		return
	}

	b, err := s.finance.SetBudget(r.Context(), auth.UserFromContext(r.Context()), services.BudgetInput{
		Category: body.Get("category"),
		Limit:    body.Get("limit"),
		Month:    body.GetInt("month"),
		Year:     body.GetInt("year"),
	})
	if err != nil {
		s.fail(w, r, err, "Failed to save budget")
		return
	}
	s.countBudget()
	s.respondBudgetSaved(w, r, b)
}

func (s *Server) respondBudgetSaved(w http.ResponseWriter, r *http.Request, b core.Budget) {
	if isHTMX(r) {
		newHTMXResponse().
			FormReset().
			BudgetsChanged(b.Year, b.Month).
			Notify(NotificationSuccess, fmt.Sprintf("Budget for %s set to %s", b.Category, formatMoney(b.Limit))).
			Write(w)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.DeleteBudget(r.Context(), auth.UserFromContext(r.Context()), r.PathValue("id")); err != nil {
		s.fail(w, r, err, "Failed to delete budget")
		return
	}
	if isHTMX(r) {
		newHTMXResponse().
			BudgetsChanged(0, 0).
			Notify(NotificationSuccess, "Budget deleted").
			Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	p := ParseMonthParams(r.URL.Query(), s.now())
	statuses, err := s.finance.GetBudgetStatus(r.Context(), auth.UserFromContext(r.Context()), p.Month, p.Year)
	if err != nil {
		s.fail(w, r, err, "Failed to load budget status")
		return
	}
	if isHTMX(r) {
		s.render(w, r, nil, "budgets.html", toBudgetsView(p.Year, p.Month, statuses))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": toBudgetStatusesJSON(statuses)})
}

// handleRecommendations accepts ?months=N (1-12, default 3).
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	months := services.DefaultRecommendationMonths
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			s.respondError(w, r, http.StatusBadRequest, "months must be between 1 and 12")
			return
		}
		months = n
	}

	recs, err := s.finance.RecommendBudgets(r.Context(), auth.UserFromContext(r.Context()), months)
	if err != nil {
		s.fail(w, r, err, "Failed to generate recommendations")
		return
	}
	if isHTMX(r) {
		s.render(w, r, nil, "recommendations.html", recommendationsView{Items: toRecommendationRows(recs)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": toRecommendationsJSON(recs)})
}

func (s *Server) handleApplyRecommendation(w http.ResponseWriter, r *http.Request) {
	body := s.parseBody(w, r)
	if body == nil {
		return
	}
	// A malformed amount becomes zero, which SetBudget rejects as an invalid limit.
	amount, _ := core.ParseAmount(body.Get("recommendedBudget"))

	b, err := s.finance.ApplyRecommendation(r.Context(), auth.UserFromContext(r.Context()), ai.Recommendation{
		Category:          body.Get("category"),
		RecommendedBudget: amount,
		Reasoning:         body.Get("reasoning"),
	})
	if err != nil {
		s.fail(w, r, err, "Failed to apply recommendation")
		return
	}
	s.countBudget()
	s.respondBudgetSaved(w, r, b)
}
