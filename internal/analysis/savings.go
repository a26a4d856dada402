package analysis

import (
	"math"
	"sort"
	"time"

	"budgetbridge/internal/core"
)

type (
	// GoalProgress is one active goal annotated with pace metrics. For
	// open-ended goals DaysRemaining and DailySavingsNeeded are both zero.
	GoalProgress struct {
		Goal               core.GoalRecord `json:"goal"`
		ProgressPercent    int             `json:"progress_percent"`
		DaysRemaining      int             `json:"days_remaining"`
		DailySavingsNeeded core.Money      `json:"daily_savings_needed"`
	}

	// SavingsPattern is the aggregate monthly savings trend. Each goal's
	// current amount is attributed to the month it was started; this is a
	// snapshot view, not a contribution ledger.
	SavingsPattern struct {
		Months           []MonthTotal `json:"months"`
		VariationPercent *float64     `json:"variation_percent,omitempty"`
	}

	// SavingsGap is an underfunded active goal ranked by how much must be
	// saved per day to close the gap in time.
	SavingsGap struct {
		GoalName           string     `json:"goal_name"`
		AmountNeeded       core.Money `json:"amount_needed"`
		DaysRemaining      int        `json:"days_remaining"`
		DailySavingsNeeded core.Money `json:"daily_savings_needed"`
		CompletionPercent  int        `json:"completion_percent"`
	}

	// SavingsAnalysis bundles the three savings summaries.
	SavingsAnalysis struct {
		Goals   []GoalProgress `json:"goals_progress"`
		Pattern SavingsPattern `json:"savings_pattern"`
		Gaps    []SavingsGap   `json:"savings_gaps"`
	}
)

// AnalyzeSavings runs all three savings summaries over the given goals.
func AnalyzeSavings(goals []core.GoalRecord, now time.Time) SavingsAnalysis {
	return SavingsAnalysis{
		Goals:   AnalyzeGoalProgress(goals, now),
		Pattern: AnalyzeSavingsPattern(goals),
		Gaps:    IdentifySavingsGaps(goals, now),
	}
}

// AnalyzeGoalProgress computes progress and pace for every goal still active
// at now. Goals under 50% progress sort before goals at or above 50%, with
// fewer days remaining breaking ties; the sort is stable, so otherwise-equal
// goals keep their input order. Progress above 100% is reported as-is.
func AnalyzeGoalProgress(goals []core.GoalRecord, now time.Time) []GoalProgress {
	var progress []GoalProgress
	for _, g := range goals {
		if !g.ActiveAt(now) {
			continue
		}
		days := daysRemaining(g, now)
		p := GoalProgress{
			Goal:            g,
			ProgressPercent: completionPercent(g),
			DaysRemaining:   days,
		}
		if days > 0 {
			needed := g.TargetAmount.Cents - g.CurrentAmount.Cents
			p.DailySavingsNeeded = core.Money{
				Cents: int64(math.Round(float64(needed) / float64(days))),
			}
		}
		progress = append(progress, p)
	}

	sort.SliceStable(progress, func(i, j int) bool {
		iBehind := progress[i].ProgressPercent < 50
		jBehind := progress[j].ProgressPercent < 50
		if iBehind != jBehind {
			return iBehind
		}
		return progress[i].DaysRemaining < progress[j].DaysRemaining
	})
	return progress
}

// AnalyzeSavingsPattern buckets each goal's current amount by the month the
// goal was started, most recent first. The variation between the two most
// recent months is nil when fewer than two months exist or the previous
// month's total is zero.
func AnalyzeSavingsPattern(goals []core.GoalRecord) SavingsPattern {
	months := bucketByMonth(len(goals), func(yield func(time.Time, int64)) {
		for _, g := range goals {
			yield(g.StartDate, g.CurrentAmount.Cents)
		}
	})

	pattern := SavingsPattern{Months: months}
	if len(months) < 2 {
		return pattern
	}
	if v, ok := variationPercent(months[0].Total.Cents, months[1].Total.Cents); ok {
		pattern.VariationPercent = &v
	}
	return pattern
}

// IdentifySavingsGaps ranks active, underfunded goals by the daily amount
// needed to reach the target before the deadline, most urgent first. When a
// goal has no days left (deadline today, or open-ended) the full remaining
// amount stands in for the daily figure.
func IdentifySavingsGaps(goals []core.GoalRecord, now time.Time) []SavingsGap {
	var gaps []SavingsGap
	for _, g := range goals {
		if !g.ActiveAt(now) || !g.Underfunded() {
			continue
		}
		needed := g.TargetAmount.Cents - g.CurrentAmount.Cents
		days := daysRemaining(g, now)
		daily := needed
		if days > 0 {
			daily = int64(math.Round(float64(needed) / float64(days)))
		}
		gaps = append(gaps, SavingsGap{
			GoalName:           g.Name,
			AmountNeeded:       core.Money{Cents: needed},
			DaysRemaining:      days,
			DailySavingsNeeded: core.Money{Cents: daily},
			CompletionPercent:  completionPercent(g),
		})
	}
	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].DailySavingsNeeded.Cents > gaps[j].DailySavingsNeeded.Cents
	})
	return gaps
}

// daysRemaining is the whole number of days from now until the goal's end
// date, rounded up. Open-ended goals have no deadline and report zero.
func daysRemaining(g core.GoalRecord, now time.Time) int {
	if g.OpenEnded() {
		return 0
	}
	return int(math.Ceil(g.EndDate.Sub(now).Hours() / 24))
}

// completionPercent is the integer-rounded saved/target ratio. A malformed
// target reports zero rather than propagating a division by zero.
func completionPercent(g core.GoalRecord) int {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	return roundPercent(g.CurrentAmount.Cents, g.TargetAmount.Cents)
}
