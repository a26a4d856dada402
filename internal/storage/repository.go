// Package storage persists records and suggestions in SQLite. It stands in
// for the document store the mobile app talks to: every query the analysis
// service needs is a flat per-user listing, never pre-aggregated.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"budgetbridge/internal/analysis"
	"budgetbridge/internal/core"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertExpense stores a new expense and returns its generated ID.
func (r *Repository) InsertExpense(ctx context.Context, e core.ExpenseRecord) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, user, name, category, amount_cents, date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, e.User, e.Name, e.Category, e.Amount.Cents, e.Date.UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"user", e.User,
		"name", e.Name,
		"amount_cents", e.Amount.Cents)
	return id, nil
}

// InsertIncome stores a new income entry and returns its generated ID.
func (r *Repository) InsertIncome(ctx context.Context, in core.IncomeRecord) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (id, user, name, category, amount_cents, date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, in.User, in.Name, in.Category, in.Amount.Cents, in.Date.UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert income: %w", err)
	}

	slog.InfoContext(ctx, "Income saved", "id", id, "user", in.User, "amount_cents", in.Amount.Cents)
	return id, nil
}

// InsertGoal stores a new savings goal and returns its generated ID. An
// open-ended goal is stored with a NULL end date.
func (r *Repository) InsertGoal(ctx context.Context, g core.GoalRecord) (string, error) {
	id := uuid.NewString()
	var end any
	if !g.EndDate.IsZero() {
		end = g.EndDate.UTC().Format(time.RFC3339)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, user, name, target_cents, current_cents, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, g.User, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		g.StartDate.UTC().Format(time.RFC3339), end)
	if err != nil {
		return "", fmt.Errorf("insert goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal saved", "id", id, "user", g.User, "name", g.Name)
	return id, nil
}

// UpdateGoalAmount sets the saved amount of an existing goal.
func (r *Repository) UpdateGoalAmount(ctx context.Context, id string, current core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET current_cents = ? WHERE id = ?`, current.Cents, id)
	if err != nil {
		return fmt.Errorf("update goal amount: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteExpense removes an expense by ID.
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListExpenses returns all of a user's expenses in insertion order. The
// analyzers never assume any ordering, so none is promised here.
func (r *Repository) ListExpenses(ctx context.Context, user string) ([]core.ExpenseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user, name, category, amount_cents, date FROM expenses WHERE user = ?`, user)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseRecord
	for rows.Next() {
		var (
			e       core.ExpenseRecord
			rawDate string
		)
		if err := rows.Scan(&e.ID, &e.User, &e.Name, &e.Category, &e.Amount.Cents, &rawDate); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = time.Parse(time.RFC3339, rawDate); err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", rawDate, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListIncomes returns all of a user's income entries.
func (r *Repository) ListIncomes(ctx context.Context, user string) ([]core.IncomeRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user, name, category, amount_cents, date FROM incomes WHERE user = ?`, user)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.IncomeRecord
	for rows.Next() {
		var (
			in      core.IncomeRecord
			rawDate string
		)
		if err := rows.Scan(&in.ID, &in.User, &in.Name, &in.Category, &in.Amount.Cents, &rawDate); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if in.Date, err = time.Parse(time.RFC3339, rawDate); err != nil {
			return nil, fmt.Errorf("parse income date %q: %w", rawDate, err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// ListGoals returns all of a user's savings goals, expired ones included;
// filtering by activity is analyzer business, not storage business.
func (r *Repository) ListGoals(ctx context.Context, user string) ([]core.GoalRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user, name, target_cents, current_cents, start_date, end_date
		 FROM goals WHERE user = ?`, user)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.GoalRecord
	for rows.Next() {
		var (
			g        core.GoalRecord
			rawStart string
			rawEnd   sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.User, &g.Name, &g.TargetAmount.Cents,
			&g.CurrentAmount.Cents, &rawStart, &rawEnd); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.StartDate, err = time.Parse(time.RFC3339, rawStart); err != nil {
			return nil, fmt.Errorf("parse goal start date %q: %w", rawStart, err)
		}
		if rawEnd.Valid {
			if g.EndDate, err = time.Parse(time.RFC3339, rawEnd.String); err != nil {
				return nil, fmt.Errorf("parse goal end date %q: %w", rawEnd.String, err)
			}
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListUsers returns every user with at least one record of any kind. The
// worker uses it for the scheduled full suggestion refresh.
func (r *Repository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user FROM expenses
		 UNION SELECT user FROM incomes
		 UNION SELECT user FROM goals
		 ORDER BY user`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ReplaceSuggestions atomically swaps a user's stored suggestions for a
// freshly generated set.
func (r *Repository) ReplaceSuggestions(ctx context.Context, user string, suggestions []analysis.Suggestion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace suggestions: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM suggestions WHERE user = ?`, user); err != nil {
		return fmt.Errorf("clear suggestions: %w", err)
	}
	for i, s := range suggestions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO suggestions
			 (user, position, category, title, description, action_label, target_screen, generated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			user, i, string(s.Category), s.Title, s.Description, s.ActionLabel,
			string(s.TargetScreen), time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("insert suggestion %s: %w", s.Category, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit suggestions: %w", err)
	}

	slog.InfoContext(ctx, "Suggestions replaced", "user", user, "count", len(suggestions))
	return nil
}

// ListSuggestions returns a user's stored suggestions in generation order.
func (r *Repository) ListSuggestions(ctx context.Context, user string) ([]analysis.Suggestion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, title, description, action_label, target_screen
		 FROM suggestions WHERE user = ? ORDER BY position`, user)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	var out []analysis.Suggestion
	for rows.Next() {
		var (
			s        analysis.Suggestion
			category string
			screen   string
		)
		if err := rows.Scan(&category, &s.Title, &s.Description, &s.ActionLabel, &screen); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		s.Category = analysis.SuggestionCategory(category)
		s.ID = category
		s.TargetScreen = analysis.Screen(screen)
		out = append(out, s)
	}
	return out, rows.Err()
}
