// Package worker regenerates stored suggestions in the background, driven by
// refresh messages from the API and by the nightly schedule.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"budgetbridge/internal/amqp"
	"budgetbridge/internal/analysis"
)

// Suggester produces a user's current suggestions from their records.
type Suggester interface {
	Suggest(ctx context.Context, user string) ([]analysis.Suggestion, error)
}

// SuggestionStore persists generated suggestions and enumerates users.
type SuggestionStore interface {
	ReplaceSuggestions(ctx context.Context, user string, suggestions []analysis.Suggestion) error
	ListUsers(ctx context.Context) ([]string, error)
}

// Exporter pushes a user's summary to an external sheet. Optional; a nil
// exporter disables the step.
type Exporter interface {
	ExportSummary(ctx context.Context, user string) error
}

// SuggestionWorker consumes refresh messages and rewrites the suggestion set
// for the named user. Regeneration is idempotent, so redelivered messages
// are harmless.
type SuggestionWorker struct {
	suggester Suggester
	store     SuggestionStore
	exporter  Exporter
}

func NewSuggestionWorker(suggester Suggester, store SuggestionStore, exporter Exporter) *SuggestionWorker {
	return &SuggestionWorker{
		suggester: suggester,
		store:     store,
		exporter:  exporter,
	}
}

// HandleRefreshMessage regenerates suggestions for the message's user. An
// error return makes the consumer nack and requeue the message.
func (w *SuggestionWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RefreshMessage) error {
	if msg.User == "" {
		// Nothing to retry; requeueing an empty message loops forever.
		slog.WarnContext(ctx, "Dropping refresh message without user")
		return nil
	}
	return w.Refresh(ctx, msg.User)
}

// Refresh rebuilds one user's stored suggestions from their current records.
func (w *SuggestionWorker) Refresh(ctx context.Context, user string) error {
	suggestions, err := w.suggester.Suggest(ctx, user)
	if err != nil {
		return fmt.Errorf("generate suggestions for %s: %w", user, err)
	}

	if err := w.store.ReplaceSuggestions(ctx, user, suggestions); err != nil {
		return fmt.Errorf("store suggestions for %s: %w", user, err)
	}

	if w.exporter != nil {
		if err := w.exporter.ExportSummary(ctx, user); err != nil {
			// Export is best-effort; the suggestions are already stored.
			slog.ErrorContext(ctx, "Failed to export summary", "user", user, "error", err)
		}
	}

	slog.InfoContext(ctx, "Suggestions regenerated", "user", user, "count", len(suggestions))
	return nil
}

// RefreshAllUsers regenerates suggestions for every known user. Used by the
// nightly schedule and the startup catch-up. Per-user failures are logged
// and counted but do not stop the sweep.
func (w *SuggestionWorker) RefreshAllUsers(ctx context.Context) error {
	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var failed int
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Refresh(ctx, user); err != nil {
			slog.ErrorContext(ctx, "Failed to refresh user", "user", user, "error", err)
			failed++
		}
	}

	slog.InfoContext(ctx, "Full refresh completed",
		"users", len(users), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("full refresh: %d of %d users failed", failed, len(users))
	}
	return nil
}
