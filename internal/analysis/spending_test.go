package analysis

import (
	"reflect"
	"testing"
	"time"

	"budgetbridge/internal/core"
)

var analysisNow = time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)

func expense(name, category string, cents int64, date time.Time) core.ExpenseRecord {
	return core.ExpenseRecord{
		User:     "ana@example.com",
		Name:     name,
		Category: category,
		Amount:   core.Money{Cents: cents},
		Date:     date,
	}
}

func TestAnalyzeCategories(t *testing.T) {
	records := []core.ExpenseRecord{
		expense("Mercado", "Alimentación", 60000, analysisNow),
		expense("Bus", "Transporte", 10000, analysisNow),
		expense("Restaurante", "Alimentación", 20000, analysisNow),
		expense("Cine", "Entretenimiento", 10000, analysisNow),
	}

	got := AnalyzeCategories(records)

	if got.TotalSpending.Cents != 100000 {
		t.Errorf("TotalSpending = %d, want 100000", got.TotalSpending.Cents)
	}
	want := []CategoryTotal{
		{Category: "Alimentación", Total: core.Money{Cents: 80000}, Percentage: 80},
		{Category: "Entretenimiento", Total: core.Money{Cents: 10000}, Percentage: 10},
		{Category: "Transporte", Total: core.Money{Cents: 10000}, Percentage: 10},
	}
	if !reflect.DeepEqual(got.Categories, want) {
		t.Errorf("Categories = %+v, want %+v", got.Categories, want)
	}
	if got.HighestSpendingCategory == nil || got.HighestSpendingCategory.Category != "Alimentación" {
		t.Errorf("HighestSpendingCategory = %+v, want Alimentación", got.HighestSpendingCategory)
	}
}

func TestAnalyzeCategoriesTotalsAndPercentagesAddUp(t *testing.T) {
	records := []core.ExpenseRecord{
		expense("a", "A", 3333, analysisNow),
		expense("b", "B", 3333, analysisNow),
		expense("c", "C", 3334, analysisNow),
		expense("d", "A", 1, analysisNow),
	}

	got := AnalyzeCategories(records)

	var sum, recordSum int64
	for _, c := range got.Categories {
		sum += c.Total.Cents
	}
	for _, r := range records {
		recordSum += r.Amount.Cents
	}
	if sum != recordSum {
		t.Errorf("category totals sum = %d, want %d", sum, recordSum)
	}

	percentSum := 0
	for _, c := range got.Categories {
		percentSum += c.Percentage
	}
	if diff := percentSum - 100; diff > len(got.Categories) || diff < -len(got.Categories) {
		t.Errorf("percentages sum = %d, want 100 ± %d", percentSum, len(got.Categories))
	}
}

func TestAnalyzeCategoriesEmpty(t *testing.T) {
	got := AnalyzeCategories(nil)

	if got.TotalSpending.Cents != 0 {
		t.Errorf("TotalSpending = %d, want 0", got.TotalSpending.Cents)
	}
	if len(got.Categories) != 0 {
		t.Errorf("Categories = %+v, want empty", got.Categories)
	}
	if got.HighestSpendingCategory != nil {
		t.Errorf("HighestSpendingCategory = %+v, want nil", got.HighestSpendingCategory)
	}
}

func TestDetectRecurring(t *testing.T) {
	records := []core.ExpenseRecord{
		expense("Netflix", "Entretenimiento", 4500, analysisNow.AddDate(0, 0, -10)),
		expense("Netflix", "Entretenimiento", 4500, analysisNow.AddDate(0, -1, 0)),
		expense("Café", "Alimentación", 800, analysisNow.AddDate(0, 0, -3)),
	}

	got := DetectRecurring(records, analysisNow)

	if len(got) != 1 {
		t.Fatalf("recurring count = %d, want 1: %+v", len(got), got)
	}
	if got[0].Name != "Netflix" {
		t.Errorf("recurring name = %q, want Netflix", got[0].Name)
	}
	if got[0].Count != 2 {
		t.Errorf("Count = %d, want 2", got[0].Count)
	}
	if got[0].Total.Cents != 9000 {
		t.Errorf("Total = %d, want 9000", got[0].Total.Cents)
	}
	if got[0].MonthlyAverage.Cents != 3000 {
		t.Errorf("MonthlyAverage = %d, want 9000/3 = 3000", got[0].MonthlyAverage.Cents)
	}
}

func TestDetectRecurringCountsAllOccurrencesButWindowsRecency(t *testing.T) {
	old := analysisNow.AddDate(-1, 0, 0)
	records := []core.ExpenseRecord{
		// Two old occurrences alone do not qualify.
		expense("Gimnasio", "Salud", 9000, old),
		expense("Gimnasio", "Salud", 9000, old.AddDate(0, 1, 0)),
		// Spotify has two recent plus one old; all three count toward totals.
		expense("Spotify", "Entretenimiento", 2000, old),
		expense("Spotify", "Entretenimiento", 2000, analysisNow.AddDate(0, 0, -30)),
		expense("Spotify", "Entretenimiento", 2000, analysisNow.AddDate(0, 0, -1)),
	}

	got := DetectRecurring(records, analysisNow)

	if len(got) != 1 || got[0].Name != "Spotify" {
		t.Fatalf("recurring = %+v, want only Spotify", got)
	}
	if got[0].Count != 3 {
		t.Errorf("Count = %d, want all-time count 3", got[0].Count)
	}
	if got[0].Total.Cents != 6000 {
		t.Errorf("Total = %d, want 6000", got[0].Total.Cents)
	}
}

func TestDetectRecurringSortsByMonthlyAverage(t *testing.T) {
	records := []core.ExpenseRecord{
		expense("Spotify", "Entretenimiento", 2000, analysisNow.AddDate(0, 0, -5)),
		expense("Spotify", "Entretenimiento", 2000, analysisNow.AddDate(0, 0, -35)),
		expense("Netflix", "Entretenimiento", 4500, analysisNow.AddDate(0, 0, -5)),
		expense("Netflix", "Entretenimiento", 4500, analysisNow.AddDate(0, 0, -35)),
	}

	got := DetectRecurring(records, analysisNow)

	if len(got) != 2 {
		t.Fatalf("recurring count = %d, want 2", len(got))
	}
	if got[0].Name != "Netflix" || got[1].Name != "Spotify" {
		t.Errorf("order = [%s, %s], want [Netflix, Spotify]", got[0].Name, got[1].Name)
	}
}

func TestCompareMonths(t *testing.T) {
	records := []core.ExpenseRecord{
		expense("a", "A", 10000, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)),
		expense("b", "A", 15000, time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)),
	}

	got := CompareMonths(records)

	if len(got.Months) != 2 {
		t.Fatalf("months = %d, want 2", len(got.Months))
	}
	if got.Months[0].Month != 4 || got.Months[1].Month != 3 {
		t.Errorf("month order = [%d, %d], want most recent first [4, 3]",
			got.Months[0].Month, got.Months[1].Month)
	}
	if got.CurrentMonth == nil || got.CurrentMonth.Total.Cents != 15000 {
		t.Errorf("CurrentMonth = %+v, want total 15000", got.CurrentMonth)
	}
	if got.VariationPercent == nil {
		t.Fatal("VariationPercent = nil, want 50.0")
	}
	if *got.VariationPercent != 50.0 {
		t.Errorf("VariationPercent = %v, want 50.0", *got.VariationPercent)
	}
}

func TestCompareMonthsEdgeCases(t *testing.T) {
	t.Run("single month has no variation", func(t *testing.T) {
		got := CompareMonths([]core.ExpenseRecord{expense("a", "A", 100, analysisNow)})
		if got.VariationPercent != nil {
			t.Errorf("VariationPercent = %v, want nil", *got.VariationPercent)
		}
		if got.CurrentMonth != nil || got.PreviousMonth != nil {
			t.Error("expected nil current/previous month with a single bucket")
		}
	})

	t.Run("year boundary orders by year then month", func(t *testing.T) {
		records := []core.ExpenseRecord{
			expense("a", "A", 100, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)),
			expense("b", "A", 200, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)),
		}
		got := CompareMonths(records)
		if got.Months[0].Year != 2025 || got.Months[0].Month != 1 {
			t.Errorf("months[0] = %d/%d, want 1/2025", got.Months[0].Month, got.Months[0].Year)
		}
	})

	t.Run("rounds variation to one decimal", func(t *testing.T) {
		records := []core.ExpenseRecord{
			expense("a", "A", 30000, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
			expense("b", "A", 40000, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)),
		}
		got := CompareMonths(records)
		if got.VariationPercent == nil || *got.VariationPercent != 33.3 {
			t.Errorf("VariationPercent = %v, want 33.3", got.VariationPercent)
		}
	})
}

func TestDetectWeekdayPattern(t *testing.T) {
	// 2025-06-02, -09 and -16 are Mondays; 2025-06-03 is a Tuesday.
	records := []core.ExpenseRecord{
		expense("a", "A", 1000, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)),
		expense("b", "A", 1000, time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)),
		expense("c", "A", 1000, time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)),
		expense("d", "A", 500, time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)),
	}

	got := DetectWeekdayPattern(records)

	if got.PeakDayName != "Lunes" {
		t.Errorf("PeakDayName = %q, want Lunes", got.PeakDayName)
	}
	if got.PeakDayTotal.Cents != 3000 {
		t.Errorf("PeakDayTotal = %d, want 3000", got.PeakDayTotal.Cents)
	}
	if got.DailyTotals[1].Cents != 3000 || got.DailyTotals[2].Cents != 500 {
		t.Errorf("DailyTotals = %+v, want Monday 3000, Tuesday 500", got.DailyTotals)
	}
}

func TestDetectWeekdayPatternFirstIndexWinsTies(t *testing.T) {
	// Sunday 2025-06-01 and Monday 2025-06-02 with equal totals.
	records := []core.ExpenseRecord{
		expense("a", "A", 1000, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)),
		expense("b", "A", 1000, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)),
	}

	got := DetectWeekdayPattern(records)

	if got.PeakDayName != "Domingo" {
		t.Errorf("PeakDayName = %q, want Domingo (first index wins)", got.PeakDayName)
	}
}

func TestAnalyzeSpendingIsIdempotent(t *testing.T) {
	records := []core.ExpenseRecord{
		expense("Netflix", "Entretenimiento", 4500, analysisNow.AddDate(0, 0, -10)),
		expense("Netflix", "Entretenimiento", 4500, analysisNow.AddDate(0, -1, 0)),
		expense("Mercado", "Alimentación", 60000, analysisNow.AddDate(0, -1, -3)),
		expense("Bus", "Transporte", 2500, analysisNow.AddDate(0, 0, -2)),
	}

	first := AnalyzeSpending(records, analysisNow)
	second := AnalyzeSpending(records, analysisNow)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated analysis differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
