package http

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"budgetbridge/internal/core"
)

type entryRequest struct {
	User     string `json:"user"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Date     string `json:"date"`
}

type goalRequest struct {
	User          string `json:"user"`
	Name          string `json:"name"`
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
}

type createdResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := req.toRecord()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.recorder.CreateExpense(r.Context(), record)
	if err != nil {
		writeRecordError(w, r, "create expense", err)
		return
	}

	s.invalidateUser(record.User)
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := req.toRecord()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Incomes share the entry shape, so the expense record converts directly.
	id, err := s.recorder.CreateIncome(r.Context(), core.IncomeRecord(record))
	if err != nil {
		writeRecordError(w, r, "create income", err)
		return
	}

	s.invalidateUser(record.User)
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	goal, err := req.toRecord()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.recorder.CreateGoal(r.Context(), goal)
	if err != nil {
		writeRecordError(w, r, "create goal", err)
		return
	}

	s.invalidateUser(goal.User)
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

type goalAmountRequest struct {
	User          string `json:"user"`
	CurrentAmount string `json:"current_amount"`
}

func (s *Server) handleUpdateGoalAmount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing goal id")
		return
	}

	var req goalAmountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := sanitizeInput(req.User)
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	current, err := parseAmount(req.CurrentAmount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.recorder.UpdateGoalAmount(r.Context(), user, id, current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "goal not found")
			return
		}
		writeRecordError(w, r, "update goal amount", err)
		return
	}

	s.invalidateUser(user)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, err := userParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing expense id")
		return
	}

	if err := s.recorder.DeleteExpense(r.Context(), user, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		writeRecordError(w, r, "delete expense", err)
		return
	}

	s.invalidateUser(user)
	w.WriteHeader(http.StatusNoContent)
}

func (req entryRequest) toRecord() (core.ExpenseRecord, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.ExpenseRecord{}, err
	}

	record := core.ExpenseRecord{
		User:     sanitizeInput(req.User),
		Name:     sanitizeInput(req.Name),
		Category: sanitizeInput(req.Category),
		Amount:   amount,
		Date:     date,
	}
	return record, record.Validate()
}

func (req goalRequest) toRecord() (core.GoalRecord, error) {
	target, err := parseAmount(req.TargetAmount)
	if err != nil {
		return core.GoalRecord{}, err
	}

	current := core.Money{}
	if req.CurrentAmount != "" {
		if current, err = parseAmount(req.CurrentAmount); err != nil {
			return core.GoalRecord{}, err
		}
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return core.GoalRecord{}, err
	}

	goal := core.GoalRecord{
		User:          sanitizeInput(req.User),
		Name:          sanitizeInput(req.Name),
		TargetAmount:  target,
		CurrentAmount: current,
		StartDate:     start,
	}
	if req.EndDate != "" {
		if goal.EndDate, err = parseDate(req.EndDate); err != nil {
			return core.GoalRecord{}, err
		}
	}
	return goal, goal.Validate()
}

// writeRecordError maps domain validation failures to 422 and everything
// else to 500.
func writeRecordError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyUser),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidTarget):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Record operation failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
