package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetbridge/internal/core"
)

type fakeStore struct {
	expenses []core.ExpenseRecord
	incomes  []core.IncomeRecord
	goals    []core.GoalRecord
	updated  map[string]core.Money
	deleted  []string
	insertErr error
	updateErr error
}

func (f *fakeStore) InsertExpense(_ context.Context, e core.ExpenseRecord) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.expenses = append(f.expenses, e)
	return "exp-1", nil
}

func (f *fakeStore) InsertIncome(_ context.Context, in core.IncomeRecord) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.incomes = append(f.incomes, in)
	return "inc-1", nil
}

func (f *fakeStore) InsertGoal(_ context.Context, g core.GoalRecord) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.goals = append(f.goals, g)
	return "goal-1", nil
}

func (f *fakeStore) UpdateGoalAmount(_ context.Context, id string, current core.Money) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updated == nil {
		f.updated = make(map[string]core.Money)
	}
	f.updated[id] = current
	return nil
}

func (f *fakeStore) DeleteExpense(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) Close() error { return nil }

type fakePublisher struct {
	published []string // "user/reason"
	err       error
}

func (f *fakePublisher) PublishRefresh(_ context.Context, user, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, user+"/"+reason)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func validExpense() core.ExpenseRecord {
	return core.ExpenseRecord{
		User:     "alice",
		Name:     "Netflix",
		Category: "Entretenimiento",
		Amount:   core.Money{Cents: 1550},
		Date:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateExpensePublishesRefresh(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewRecordService(store, pub)

	id, err := svc.CreateExpense(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if id != "exp-1" {
		t.Errorf("CreateExpense() id = %s, want exp-1", id)
	}
	if len(pub.published) != 1 || pub.published[0] != "alice/expense-created" {
		t.Errorf("published = %v, want [alice/expense-created]", pub.published)
	}
}

func TestCreateExpenseRejectsInvalidRecord(t *testing.T) {
	store := &fakeStore{}
	svc := NewRecordService(store, &fakePublisher{})

	e := validExpense()
	e.Amount = core.Money{Cents: 0}

	if _, err := svc.CreateExpense(context.Background(), e); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("CreateExpense() error = %v, want ErrInvalidAmount", err)
	}
	if len(store.expenses) != 0 {
		t.Error("invalid expense reached storage")
	}
}

func TestCreateExpenseSurvivesPublishFailure(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewRecordService(store, pub)

	if _, err := svc.CreateExpense(context.Background(), validExpense()); err != nil {
		t.Fatalf("CreateExpense() error = %v, want nil despite publish failure", err)
	}
	if len(store.expenses) != 1 {
		t.Error("expense was not saved")
	}
}

func TestCreateExpenseWithoutPublisher(t *testing.T) {
	svc := NewRecordService(&fakeStore{}, nil)

	if _, err := svc.CreateExpense(context.Background(), validExpense()); err != nil {
		t.Fatalf("CreateExpense() error = %v, want nil with nil publisher", err)
	}
}

func TestCreateGoalPublishesRefresh(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewRecordService(&fakeStore{}, pub)

	g := core.GoalRecord{
		User:         "alice",
		Name:         "Vacaciones",
		TargetAmount: core.Money{Cents: 100000},
		StartDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, err := svc.CreateGoal(context.Background(), g); err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	if len(pub.published) != 1 || pub.published[0] != "alice/goal-created" {
		t.Errorf("published = %v, want [alice/goal-created]", pub.published)
	}
}

func TestUpdateGoalAmountPublishesRefresh(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewRecordService(store, pub)

	if err := svc.UpdateGoalAmount(context.Background(), "alice", "goal-1", core.Money{Cents: 2500}); err != nil {
		t.Fatalf("UpdateGoalAmount() error = %v", err)
	}
	if got := store.updated["goal-1"]; got.Cents != 2500 {
		t.Errorf("updated amount = %d, want 2500", got.Cents)
	}
	if len(pub.published) != 1 || pub.published[0] != "alice/goal-updated" {
		t.Errorf("published = %v, want [alice/goal-updated]", pub.published)
	}
}

func TestUpdateGoalAmountAllowsZero(t *testing.T) {
	store := &fakeStore{}
	svc := NewRecordService(store, &fakePublisher{})

	if err := svc.UpdateGoalAmount(context.Background(), "alice", "goal-1", core.Money{}); err != nil {
		t.Fatalf("UpdateGoalAmount() error = %v, want nil for zero amount", err)
	}
}

func TestUpdateGoalAmountRejectsNegative(t *testing.T) {
	store := &fakeStore{}
	svc := NewRecordService(store, &fakePublisher{})

	err := svc.UpdateGoalAmount(context.Background(), "alice", "goal-1", core.Money{Cents: -1})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("UpdateGoalAmount() error = %v, want ErrInvalidAmount", err)
	}
	if len(store.updated) != 0 {
		t.Error("negative amount reached storage")
	}
}

func TestDeleteExpensePublishesRefresh(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewRecordService(store, pub)

	if err := svc.DeleteExpense(context.Background(), "alice", "exp-9"); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "exp-9" {
		t.Errorf("deleted = %v, want [exp-9]", store.deleted)
	}
	if len(pub.published) != 1 || pub.published[0] != "alice/expense-deleted" {
		t.Errorf("published = %v, want [alice/expense-deleted]", pub.published)
	}
}

func TestCreateIncomeStorageFailure(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("disk full")}
	pub := &fakePublisher{}
	svc := NewRecordService(store, pub)

	in := core.IncomeRecord{
		User:     "alice",
		Name:     "Sueldo",
		Category: "Salario",
		Amount:   core.Money{Cents: 500000},
		Date:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, err := svc.CreateIncome(context.Background(), in); err == nil {
		t.Fatal("CreateIncome() error = nil, want storage error")
	}
	if len(pub.published) != 0 {
		t.Error("refresh published despite storage failure")
	}
}
