// Package analysis implements the financial analysis engine: pure,
// deterministic functions that turn lists of expense and goal records into
// derived summaries and suggestions. Nothing here performs I/O or reads a
// clock; the reference instant is always an explicit parameter.
package analysis

import (
	"math"
	"sort"
	"time"

	"budgetbridge/internal/core"
)

type (
	// CategoryTotal is one category's share of total spending.
	CategoryTotal struct {
		Category   string     `json:"category"`
		Total      core.Money `json:"total"`
		Percentage int        `json:"percentage"`
	}

	// CategoryAnalysis summarizes spending grouped by category, largest
	// total first.
	CategoryAnalysis struct {
		TotalSpending           core.Money      `json:"total_spending"`
		Categories              []CategoryTotal `json:"categories"`
		HighestSpendingCategory *CategoryTotal  `json:"highest_spending_category,omitempty"`
	}

	// RecurringExpense is an expense name that repeated recently enough to
	// look like a subscription. Total and Count cover all occurrences, not
	// only the ones inside the detection window.
	RecurringExpense struct {
		Name           string     `json:"name"`
		Total          core.Money `json:"total"`
		MonthlyAverage core.Money `json:"monthly_average"`
		Count          int        `json:"count"`
	}

	// MonthTotal is the spending total for one calendar month.
	MonthTotal struct {
		Month int        `json:"month"`
		Year  int        `json:"year"`
		Total core.Money `json:"total"`
	}

	// MonthlyComparison holds per-month totals, most recent first, and the
	// variation between the two most recent months. VariationPercent is nil
	// when fewer than two months exist or the previous month's total is zero.
	MonthlyComparison struct {
		Months           []MonthTotal `json:"months"`
		CurrentMonth     *MonthTotal  `json:"current_month,omitempty"`
		PreviousMonth    *MonthTotal  `json:"previous_month,omitempty"`
		VariationPercent *float64     `json:"variation_percent,omitempty"`
	}

	// SpendingPattern is spending bucketed by day of week, index 0 = Sunday.
	SpendingPattern struct {
		DailyTotals  [7]core.Money `json:"daily_totals"`
		PeakDayName  string        `json:"peak_day_name"`
		PeakDayTotal core.Money    `json:"peak_day_total"`
	}

	// SpendingAnalysis bundles the four spending summaries. All four are
	// independent functions of the same record list.
	SpendingAnalysis struct {
		Categories CategoryAnalysis  `json:"category_analysis"`
		Recurring  []RecurringExpense `json:"recurring_expenses"`
		Monthly    MonthlyComparison `json:"monthly_comparison"`
		Patterns   SpendingPattern   `json:"spending_patterns"`
	}
)

// recurringWindowMonths is the trailing window used for recurring-expense
// detection, and recurringMinCount the occurrences required inside it.
const (
	recurringWindowMonths = 3
	recurringMinCount     = 2
)

// weekdayNames maps time.Weekday indices to the day names used in summaries.
var weekdayNames = [7]string{
	"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado",
}

// AnalyzeSpending runs all four spending summaries over the given records.
// Records are never mutated; calling twice with the same input yields
// identical output.
func AnalyzeSpending(records []core.ExpenseRecord, now time.Time) SpendingAnalysis {
	return SpendingAnalysis{
		Categories: AnalyzeCategories(records),
		Recurring:  DetectRecurring(records, now),
		Monthly:    CompareMonths(records),
		Patterns:   DetectWeekdayPattern(records),
	}
}

// AnalyzeCategories groups records by category, sums amounts and computes
// each category's integer-rounded share of the grand total. Categories are
// sorted by total, largest first.
func AnalyzeCategories(records []core.ExpenseRecord) CategoryAnalysis {
	totals := make(map[string]int64)
	for _, r := range records {
		totals[r.Category] += r.Amount.Cents
	}

	categories := make([]CategoryTotal, 0, len(totals))
	var grand int64
	for category, cents := range totals {
		categories = append(categories, CategoryTotal{
			Category: category,
			Total:    core.Money{Cents: cents},
		})
		grand += cents
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Total.Cents != categories[j].Total.Cents {
			return categories[i].Total.Cents > categories[j].Total.Cents
		}
		return categories[i].Category < categories[j].Category
	})

	// A zero grand total leaves every percentage at zero.
	if grand > 0 {
		for i := range categories {
			categories[i].Percentage = roundPercent(categories[i].Total.Cents, grand)
		}
	}

	out := CategoryAnalysis{
		TotalSpending: core.Money{Cents: grand},
		Categories:    categories,
	}
	if len(categories) > 0 {
		top := categories[0]
		out.HighestSpendingCategory = &top
	}
	return out
}

// DetectRecurring finds expense names with at least two occurrences inside
// the trailing three-month window ending at now. Reported totals and counts
// cover every occurrence of the name, and the monthly average spreads the
// all-time total over the window length. Results are sorted by monthly
// average, largest first.
func DetectRecurring(records []core.ExpenseRecord, now time.Time) []RecurringExpense {
	byName := make(map[string][]core.ExpenseRecord)
	for _, r := range records {
		byName[r.Name] = append(byName[r.Name], r)
	}

	windowStart := now.AddDate(0, -recurringWindowMonths, 0)

	var recurring []RecurringExpense
	for name, group := range byName {
		recent := 0
		for _, r := range group {
			if !r.Date.Before(windowStart) {
				recent++
			}
		}
		if recent < recurringMinCount {
			continue
		}
		var total int64
		for _, r := range group {
			total += r.Amount.Cents
		}
		recurring = append(recurring, RecurringExpense{
			Name:           name,
			Total:          core.Money{Cents: total},
			MonthlyAverage: core.Money{Cents: int64(math.Round(float64(total) / recurringWindowMonths))},
			Count:          len(group),
		})
	}
	sort.Slice(recurring, func(i, j int) bool {
		if recurring[i].MonthlyAverage.Cents != recurring[j].MonthlyAverage.Cents {
			return recurring[i].MonthlyAverage.Cents > recurring[j].MonthlyAverage.Cents
		}
		return recurring[i].Name < recurring[j].Name
	})
	return recurring
}

// CompareMonths buckets spending by calendar month, most recent first, and
// computes the percentage variation between the two most recent months. The
// variation is omitted when the previous month's total is zero, so the
// result never carries an infinite or NaN ratio.
func CompareMonths(records []core.ExpenseRecord) MonthlyComparison {
	months := bucketByMonth(len(records), func(yield func(time.Time, int64)) {
		for _, r := range records {
			yield(r.Date, r.Amount.Cents)
		}
	})

	cmp := MonthlyComparison{Months: months}
	if len(months) < 2 {
		return cmp
	}
	cmp.CurrentMonth = &months[0]
	cmp.PreviousMonth = &months[1]
	if v, ok := variationPercent(months[0].Total.Cents, months[1].Total.Cents); ok {
		cmp.VariationPercent = &v
	}
	return cmp
}

// DetectWeekdayPattern sums spending into seven weekday buckets and reports
// the peak day. The earliest weekday wins ties, starting from Sunday.
func DetectWeekdayPattern(records []core.ExpenseRecord) SpendingPattern {
	var pattern SpendingPattern
	for _, r := range records {
		day := int(r.Date.Weekday())
		pattern.DailyTotals[day].Cents += r.Amount.Cents
	}

	peak := 0
	for i := 1; i < len(pattern.DailyTotals); i++ {
		if pattern.DailyTotals[i].Cents > pattern.DailyTotals[peak].Cents {
			peak = i
		}
	}
	pattern.PeakDayName = weekdayNames[peak]
	pattern.PeakDayTotal = pattern.DailyTotals[peak]
	return pattern
}

// bucketByMonth aggregates (date, cents) pairs into per-month totals sorted
// most recent first. The seq callback invokes yield once per record.
func bucketByMonth(sizeHint int, seq func(yield func(time.Time, int64))) []MonthTotal {
	type monthKey struct {
		year  int
		month int
	}
	buckets := make(map[monthKey]int64, sizeHint)
	seq(func(date time.Time, cents int64) {
		buckets[monthKey{date.Year(), int(date.Month())}] += cents
	})

	months := make([]MonthTotal, 0, len(buckets))
	for k, cents := range buckets {
		months = append(months, MonthTotal{
			Month: k.month,
			Year:  k.year,
			Total: core.Money{Cents: cents},
		})
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year > months[j].Year
		}
		return months[i].Month > months[j].Month
	})
	return months
}

// variationPercent returns ((current-previous)/previous)*100 rounded to one
// decimal. The second return is false when the previous total is zero and
// the ratio is undefined.
func variationPercent(current, previous int64) (float64, bool) {
	if previous == 0 {
		return 0, false
	}
	v := (float64(current-previous) / float64(previous)) * 100
	return math.Round(v*10) / 10, true
}

// roundPercent returns part/whole as an integer-rounded percentage.
func roundPercent(part, whole int64) int {
	return int(math.Round(float64(part) / float64(whole) * 100))
}
