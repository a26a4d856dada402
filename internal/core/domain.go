package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// ExpenseRecord is a single logged expense belonging to a user.
	ExpenseRecord struct {
		ID       string
		User     string
		Name     string
		Category string
		Amount   Money
		Date     time.Time
	}

	// IncomeRecord is a single logged income entry. It shares the shape of an
	// expense record but lives in its own collection and never feeds the
	// spending analyzer.
	IncomeRecord struct {
		ID       string
		User     string
		Name     string
		Category string
		Amount   Money
		Date     time.Time
	}

	// GoalRecord is a savings goal. A zero EndDate means the goal is
	// open-ended. CurrentAmount is expected to be non-decreasing in
	// well-formed data, but nothing here enforces that.
	GoalRecord struct {
		ID            string
		User          string
		Name          string
		TargetAmount  Money
		CurrentAmount Money
		StartDate     time.Time
		EndDate       time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyUser     = errors.New("empty user")
	ErrEmptyName     = errors.New("empty name")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidTarget = errors.New("invalid target amount")
)

const maxNameLength = 200

func validateEntry(user, name, category string, amount Money, date time.Time) error {
	if strings.TrimSpace(user) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLength {
		return errors.New("name too long (max 200 characters)")
	}
	if strings.TrimSpace(category) == "" {
		return ErrEmptyCategory
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (e ExpenseRecord) Validate() error {
	return validateEntry(e.User, e.Name, e.Category, e.Amount, e.Date)
}

func (i IncomeRecord) Validate() error {
	return validateEntry(i.User, i.Name, i.Category, i.Amount, i.Date)
}

func (g GoalRecord) Validate() error {
	if strings.TrimSpace(g.User) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if len(g.Name) > maxNameLength {
		return errors.New("name too long (max 200 characters)")
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidTarget
	}
	if g.CurrentAmount.Cents < 0 {
		return errors.New("negative saved amount")
	}
	if g.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if !g.EndDate.IsZero() && g.EndDate.Before(g.StartDate) {
		return errors.New("end date must be after start date")
	}
	return nil
}

// OpenEnded reports whether the goal has no end date.
func (g GoalRecord) OpenEnded() bool {
	return g.EndDate.IsZero()
}

// ActiveAt reports whether the goal is still open at the given instant.
// Open-ended goals are always active.
func (g GoalRecord) ActiveAt(now time.Time) bool {
	return g.OpenEnded() || !g.EndDate.Before(now)
}

// Underfunded reports whether the saved amount is still below the target.
func (g GoalRecord) Underfunded() bool {
	return g.CurrentAmount.Cents < g.TargetAmount.Cents
}
