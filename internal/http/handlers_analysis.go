package http

import (
	"log/slog"
	"net/http"

	"budgetbridge/internal/analysis"
)

func (s *Server) handleSpendingAnalysis(w http.ResponseWriter, r *http.Request) {
	user, err := userParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if result, ok := s.spendingCache.Get(user); ok {
		slog.DebugContext(r.Context(), "Spending analysis cache hit", "user", user)
		writeJSON(w, http.StatusOK, result)
		return
	}

	result := s.analyzer.AnalyzeSpending(r.Context(), user)
	if !result.Success && !result.NoData {
		// Failed analyses are not cached; the next request retries storage.
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}

	// No-data envelopes are cached too; the user's first write evicts them.
	s.spendingCache.Set(user, result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSavingsAnalysis(w http.ResponseWriter, r *http.Request) {
	user, err := userParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if result, ok := s.savingsCache.Get(user); ok {
		slog.DebugContext(r.Context(), "Savings analysis cache hit", "user", user)
		writeJSON(w, http.StatusOK, result)
		return
	}

	result := s.analyzer.AnalyzeSavings(r.Context(), user)
	if !result.Success && !result.NoData {
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}

	s.savingsCache.Set(user, result)
	writeJSON(w, http.StatusOK, result)
}

type suggestionsResponse struct {
	Suggestions []analysis.Suggestion `json:"suggestions"`
}

func (s *Server) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	user, err := userParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions, err := s.suggestions.ListSuggestions(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list suggestions", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(suggestions) == 0 {
		// Nothing stored yet, typically a new user the worker has not seen.
		suggestions, err = s.analyzer.Suggest(r.Context(), user)
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to generate suggestions", "user", user, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	if suggestions == nil {
		suggestions = []analysis.Suggestion{}
	}

	writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: suggestions})
}
