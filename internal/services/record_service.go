// Package services orchestrates storage, messaging, and analysis behind the
// HTTP handlers and the worker.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"budgetbridge/internal/core"
)

// RecordStore is the storage surface the record service writes through.
type RecordStore interface {
	InsertExpense(ctx context.Context, e core.ExpenseRecord) (string, error)
	InsertIncome(ctx context.Context, in core.IncomeRecord) (string, error)
	InsertGoal(ctx context.Context, g core.GoalRecord) (string, error)
	UpdateGoalAmount(ctx context.Context, id string, current core.Money) error
	DeleteExpense(ctx context.Context, id string) error
	Close() error
}

// RefreshPublisher asks the worker to regenerate a user's suggestions.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, user, reason string) error
	Close() error
}

// RecordService persists financial records and nudges the suggestion worker
// after every write. Publish failures never fail the request; the nightly
// refresh covers any user a lost message left stale.
type RecordService struct {
	storage   RecordStore
	publisher RefreshPublisher
}

func NewRecordService(storage RecordStore, publisher RefreshPublisher) *RecordService {
	return &RecordService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateExpense validates and saves an expense, then requests a refresh.
func (s *RecordService) CreateExpense(ctx context.Context, e core.ExpenseRecord) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	id, err := s.storage.InsertExpense(ctx, e)
	if err != nil {
		return "", fmt.Errorf("save expense: %w", err)
	}

	s.publishRefresh(ctx, e.User, "expense-created")
	return id, nil
}

// CreateIncome validates and saves an income entry, then requests a refresh.
func (s *RecordService) CreateIncome(ctx context.Context, in core.IncomeRecord) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	id, err := s.storage.InsertIncome(ctx, in)
	if err != nil {
		return "", fmt.Errorf("save income: %w", err)
	}

	s.publishRefresh(ctx, in.User, "income-created")
	return id, nil
}

// CreateGoal validates and saves a savings goal, then requests a refresh.
func (s *RecordService) CreateGoal(ctx context.Context, g core.GoalRecord) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}

	id, err := s.storage.InsertGoal(ctx, g)
	if err != nil {
		return "", fmt.Errorf("save goal: %w", err)
	}

	s.publishRefresh(ctx, g.User, "goal-created")
	return id, nil
}

// UpdateGoalAmount records new savings toward a goal and requests a refresh.
func (s *RecordService) UpdateGoalAmount(ctx context.Context, user, id string, current core.Money) error {
	// A goal may be reset to zero; negative saved amounts are invalid.
	if current.Cents < 0 {
		return core.ErrInvalidAmount
	}

	if err := s.storage.UpdateGoalAmount(ctx, id, current); err != nil {
		return fmt.Errorf("update goal amount: %w", err)
	}

	s.publishRefresh(ctx, user, "goal-updated")
	return nil
}

// DeleteExpense removes an expense and requests a refresh for its owner.
func (s *RecordService) DeleteExpense(ctx context.Context, user, id string) error {
	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publishRefresh(ctx, user, "expense-deleted")
	return nil
}

func (s *RecordService) publishRefresh(ctx context.Context, user, reason string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Refresh publisher not available, skipping", "user", user)
		return
	}
	if err := s.publisher.PublishRefresh(ctx, user, reason); err != nil {
		slog.ErrorContext(ctx, "Failed to publish refresh message",
			"user", user, "reason", reason, "error", err)
	}
}

// Close closes both storage and the publisher connection.
func (s *RecordService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close record service: %v", errs)
	}

	return nil
}
