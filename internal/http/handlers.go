package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/store"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st, err := s.budget.Load(r.Context())
	if err != nil {
		s.storageError(w, r, "load dashboard", err)
		return
	}
	NewResponse().JSON(newDashboardView(st)).Write(w)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || strings.TrimSpace(name) == "" {
		BadRequestError("Invalid category name").Write(w)
		return
	}

	st, err := s.budget.Load(r.Context())
	if err != nil {
		s.storageError(w, r, "load history", err)
		return
	}

	txs := core.History(st, name)
	if len(txs) == 0 && !st.HasVariable(name) {
		NotFoundError("Unknown category: " + name).Write(w)
		return
	}
	NewResponse().JSON(newHistoryView(name, txs)).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	name := p.Get("name")
	budget, err := p.Money("budget")
	if err != nil {
		UnprocessableEntityError("Invalid budget amount").Write(w)
		return
	}

	st, err := s.mutate(r.Context(), func(ctx context.Context, tx services.Tx, st core.State) (core.State, error) {
		return tx.AddVariableCategory(ctx, st, name, budget)
	})
	if err != nil {
		s.mutationError(w, r, "add category", err)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		TriggerBudgetChanged(store.TableVariable).
		TriggerSuccessNotification("Category " + name + " added").
		JSON(newDashboardView(st)).
		Write(w)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	category := p.Get("category")
	note := p.Get("note")
	amount, err := p.Money("amount")
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	st, err := s.mutate(r.Context(), func(ctx context.Context, tx services.Tx, st core.State) (core.State, error) {
		return tx.AddTransaction(ctx, st, category, amount, note)
	})
	if err != nil {
		s.mutationError(w, r, "add transaction", err)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		TriggerBudgetChanged(store.TableTransactions, store.TableVariable).
		TriggerSuccessNotification("Transaction of " + amount.Format() + " recorded").
		JSON(newDashboardView(st)).
		Write(w)
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	income, err := p.Money("income")
	if err != nil {
		UnprocessableEntityError("Invalid income amount").Write(w)
		return
	}

	st, err := s.mutate(r.Context(), func(ctx context.Context, tx services.Tx, st core.State) (core.State, error) {
		return tx.SetIncome(ctx, st, income)
	})
	if err != nil {
		s.mutationError(w, r, "set income", err)
		return
	}

	NewResponse().
		TriggerBudgetChanged(store.TableConfig).
		TriggerSuccessNotification("Income updated").
		JSON(newDashboardView(st)).
		Write(w)
}

func (s *Server) handleSaveGlobal(w http.ResponseWriter, r *http.Request) {
	rows, err := parseGlobalEdit(r)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid global edit", log.FieldError, err)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	st, err := s.mutate(r.Context(), func(ctx context.Context, tx services.Tx, st core.State) (core.State, error) {
		return tx.SaveGlobalEdit(ctx, st, rows)
	})
	if err != nil {
		s.mutationError(w, r, "save global edit", err)
		return
	}

	NewResponse().
		TriggerBudgetChanged(store.TableFixed, store.TableVariable).
		TriggerSuccessNotification("Budgets saved").
		JSON(newDashboardView(st)).
		Write(w)
}

// mutate runs fn on freshly loaded state under the service's writer lock.
func (s *Server) mutate(ctx context.Context, fn func(ctx context.Context, tx services.Tx, st core.State) (core.State, error)) (core.State, error) {
	return s.budget.Update(ctx, func(tx services.Tx, st core.State) (core.State, error) {
		return fn(ctx, tx, st)
	})
}

// mutationError maps rejected input to 422 and everything else to 500.
func (s *Server) mutationError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, core.ErrInvalidInput) {
		UnprocessableEntityError(userMessage(err)).Write(w)
		return
	}
	s.storageError(w, r, op, err)
}

func (s *Server) storageError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldOperation, op, log.FieldError, err)
	InternalServerError("Storage error").Write(w)
}

// userMessage turns a validation error into a short advisory.
func userMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrDuplicateCategory):
		return "This category already exists"
	case errors.Is(err, core.ErrEmptyCategory):
		return "Category name is required"
	case errors.Is(err, core.ErrNegativeAmount):
		return "Amounts cannot be negative"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be greater than zero"
	default:
		return "Invalid input"
	}
}
