package analysis

import (
	"fmt"
	"math"
)

// SuggestionCategory is the closed set of suggestion kinds. Every category
// maps to exactly one target screen; adding a category without extending
// TargetScreen is a bug surfaced by its error return.
type SuggestionCategory string

const (
	SuggestionSpending        SuggestionCategory = "spending"
	SuggestionTrend           SuggestionCategory = "trend"
	SuggestionPattern         SuggestionCategory = "pattern"
	SuggestionSavingsProgress SuggestionCategory = "savings-progress"
	SuggestionSavingsGap      SuggestionCategory = "savings-gap"
)

// Screen identifies the UI screen a suggestion's action navigates to.
type Screen string

const (
	ScreenSpendManagement Screen = "SpendManagementScreen"
	ScreenDashboard       Screen = "DashboardScreen"
	ScreenGoals           Screen = "GoalsScreen"
)

// TargetScreen routes a suggestion category to its screen. The switch is
// exhaustive over the declared categories; anything else is an error.
func (c SuggestionCategory) TargetScreen() (Screen, error) {
	switch c {
	case SuggestionSpending:
		return ScreenSpendManagement, nil
	case SuggestionTrend:
		return ScreenDashboard, nil
	case SuggestionPattern:
		return ScreenSpendManagement, nil
	case SuggestionSavingsProgress:
		return ScreenGoals, nil
	case SuggestionSavingsGap:
		return ScreenGoals, nil
	}
	return "", fmt.Errorf("unknown suggestion category: %s", c)
}

// Valid reports whether the category is one of the declared constants.
func (c SuggestionCategory) Valid() bool {
	_, err := c.TargetScreen()
	return err == nil
}

// Suggestion is one human-readable recommendation derived from the analysis
// results. The ID is the category slug, stable across recomputations of the
// same input.
type Suggestion struct {
	ID           string             `json:"id"`
	Category     SuggestionCategory `json:"category"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	ActionLabel  string             `json:"action_label"`
	TargetScreen Screen             `json:"target_screen"`
}

const actionLabel = "Ver detalles"

// BuildSuggestions maps the analyzers' outputs to at most five suggestions.
// Either analysis may be nil ("no data"); the corresponding suggestions are
// simply skipped.
func BuildSuggestions(spending *SpendingAnalysis, savings *SavingsAnalysis) []Suggestion {
	var out []Suggestion

	if spending != nil {
		if top := spending.Categories.HighestSpendingCategory; top != nil {
			out = append(out, newSuggestion(
				SuggestionSpending,
				"Tu mayor categoría de gasto",
				fmt.Sprintf("Gastas más en %s: %s, el %d%% de tu gasto total. Revisa si puedes reducirlo.",
					top.Category, top.Total, top.Percentage),
			))
		}
		if v := spending.Monthly.VariationPercent; v != nil {
			direction := "aumentó"
			if *v < 0 {
				direction = "disminuyó"
			}
			out = append(out, newSuggestion(
				SuggestionTrend,
				"Tendencia de tus gastos",
				fmt.Sprintf("Tu gasto %s un %.1f%% respecto al mes anterior.", direction, math.Abs(*v)),
			))
		}
		if spending.Patterns.PeakDayTotal.Cents > 0 {
			out = append(out, newSuggestion(
				SuggestionPattern,
				"Tu día de mayor gasto",
				fmt.Sprintf("Los %s son tu día de mayor gasto (%s acumulado). Planifica ese día con más cuidado.",
					spending.Patterns.PeakDayName, spending.Patterns.PeakDayTotal),
			))
		}
	}

	if savings != nil {
		if len(savings.Goals) > 0 && savings.Goals[0].ProgressPercent < 100 {
			g := savings.Goals[0]
			out = append(out, newSuggestion(
				SuggestionSavingsProgress,
				"Avance de tus metas",
				fmt.Sprintf("Tu meta %q va en el %d%%. Ahorrando %s diarios la completas a tiempo.",
					g.Goal.Name, g.ProgressPercent, g.DailySavingsNeeded),
			))
		}
		if len(savings.Gaps) > 0 {
			gap := savings.Gaps[0]
			out = append(out, newSuggestion(
				SuggestionSavingsGap,
				"Meta con mayor brecha",
				fmt.Sprintf("A la meta %q le faltan %s. Necesitas apartar %s por día para alcanzarla.",
					gap.GoalName, gap.AmountNeeded, gap.DailySavingsNeeded),
			))
		}
	}

	return out
}

func newSuggestion(category SuggestionCategory, title, description string) Suggestion {
	// All declared categories route; the error path only fires for
	// categories this package does not define.
	screen, _ := category.TargetScreen()
	return Suggestion{
		ID:           string(category),
		Category:     category,
		Title:        title,
		Description:  description,
		ActionLabel:  actionLabel,
		TargetScreen: screen,
	}
}
