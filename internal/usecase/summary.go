package usecase

import (
	"time"

	"github.com/mealsnap/backend/internal/domain"
)

// ComputeMonthlySummary derives the monthly aggregate from a month's meals.
// Meals are bucketed by their local calendar date; only dates with at least
// one meal appear in DailyTotals. AverageCalories divides by the calendar
// days in the month, including days with no logged meals. Meals outside the
// requested month are ignored.
func ComputeMonthlySummary(meals []domain.Meal, month time.Month, year int, loc *time.Location) *domain.MonthlySummary {
	if loc == nil {
		loc = time.Local
	}

	summary := &domain.MonthlySummary{
		Month:       month,
		Year:        year,
		DailyTotals: make(map[string]domain.DailyTotal),
	}

	for _, meal := range meals {
		local := meal.Time(loc)
		if local.Month() != month || local.Year() != year {
			continue
		}

		key := domain.DateKey(meal.Timestamp, loc)
		day := summary.DailyTotals[key]
		day.Calories += meal.Calories
		day.Meals++
		summary.DailyTotals[key] = day

		summary.TotalCalories += meal.Calories
		summary.TotalMeals++
	}

	summary.AverageCalories = summary.TotalCalories / float64(domain.DaysInMonth(month, year))
	return summary
}
