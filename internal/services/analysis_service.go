package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbridge/internal/analysis"
	"budgetbridge/internal/core"
)

// Messages shown to the app user. Kept in Spanish to match the client UI.
const (
	msgSpendingOK    = "Análisis completado exitosamente"
	msgSpendingEmpty = "No hay datos de gastos para analizar"
	msgSpendingErr   = "Error al analizar los datos de gastos"
	msgSavingsOK     = "Análisis de ahorros completado exitosamente"
	msgSavingsEmpty  = "No hay metas de ahorro para analizar"
	msgSavingsErr    = "Error al analizar los datos de ahorro"
)

// RecordReader is the storage surface the analyzers read from.
type RecordReader interface {
	ListExpenses(ctx context.Context, user string) ([]core.ExpenseRecord, error)
	ListGoals(ctx context.Context, user string) ([]core.GoalRecord, error)
}

// SpendingResult is the envelope the app expects around a spending analysis.
// Data is nil whenever Success is false. NoData separates "no records yet"
// from a storage failure; both report success:false to the app.
type SpendingResult struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	NoData  bool                       `json:"-"`
	Data    *analysis.SpendingAnalysis `json:"data"`
}

// SavingsResult is the envelope around a savings analysis.
type SavingsResult struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	NoData  bool                      `json:"-"`
	Data    *analysis.SavingsAnalysis `json:"data"`
}

// AnalysisService runs the analyzers over stored records. The clock is
// injectable so results are reproducible in tests.
type AnalysisService struct {
	reader RecordReader
	now    func() time.Time
}

func NewAnalysisService(reader RecordReader) *AnalysisService {
	return &AnalysisService{
		reader: reader,
		now:    time.Now,
	}
}

// WithClock replaces the service clock. Test hook.
func (s *AnalysisService) WithClock(now func() time.Time) *AnalysisService {
	s.now = now
	return s
}

// AnalyzeSpending loads a user's expenses and runs the full spending
// analysis. Storage errors surface as a failed envelope, never a panic or a
// half-filled result.
func (s *AnalysisService) AnalyzeSpending(ctx context.Context, user string) SpendingResult {
	records, err := s.reader.ListExpenses(ctx, user)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load expenses", "user", user, "error", err)
		return SpendingResult{Success: false, Message: msgSpendingErr}
	}
	if len(records) == 0 {
		return SpendingResult{Success: false, Message: msgSpendingEmpty, NoData: true}
	}

	result := analysis.AnalyzeSpending(records, s.now())
	return SpendingResult{Success: true, Message: msgSpendingOK, Data: &result}
}

// AnalyzeSavings loads a user's goals and runs the savings analysis.
func (s *AnalysisService) AnalyzeSavings(ctx context.Context, user string) SavingsResult {
	goals, err := s.reader.ListGoals(ctx, user)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load goals", "user", user, "error", err)
		return SavingsResult{Success: false, Message: msgSavingsErr}
	}
	if len(goals) == 0 {
		return SavingsResult{Success: false, Message: msgSavingsEmpty, NoData: true}
	}

	result := analysis.AnalyzeSavings(goals, s.now())
	return SavingsResult{Success: true, Message: msgSavingsOK, Data: &result}
}

// Suggest runs both analyses concurrently and maps them to suggestions. A
// failed side contributes nothing instead of aborting the other side.
func (s *AnalysisService) Suggest(ctx context.Context, user string) ([]analysis.Suggestion, error) {
	var (
		spending SpendingResult
		savings  SavingsResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		spending = s.AnalyzeSpending(gctx, user)
		return nil
	})
	g.Go(func() error {
		savings = s.AnalyzeSavings(gctx, user)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return analysis.BuildSuggestions(spending.Data, savings.Data), nil
}
