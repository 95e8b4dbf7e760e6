package domain

import "time"

// Meal represents one logged food-photo event with its calorie estimate.
// Meals are immutable after creation; the only mutation is deletion.
type Meal struct {
	ID         string   `json:"id"`
	Timestamp  int64    `json:"timestamp"`  // milliseconds since epoch, creation time
	ImageURI   string   `json:"imageUri"`   // opaque reference to the source photo
	FoodItems  []string `json:"foodItems"`  // recognized food labels, may be empty
	Calories   float64  `json:"calories"`   // non-negative estimate
	Confidence float64  `json:"confidence"` // recognition confidence, nominal 0-100
}

// Time returns the meal's creation time in the given location.
func (m *Meal) Time(loc *time.Location) time.Time {
	return time.UnixMilli(m.Timestamp).In(loc)
}

// DailyGoals holds the user's current nutrition targets.
// Semantics are latest-write-wins by UpdatedAt; the relational backend keeps
// older rows as history but never surfaces them.
type DailyGoals struct {
	Calories  float64 `json:"calories"`
	Protein   float64 `json:"protein"`   // grams
	Carbs     float64 `json:"carbs"`     // grams
	Fat       float64 `json:"fat"`       // grams
	UpdatedAt int64   `json:"updatedAt"` // milliseconds since epoch
}

// DailyTotal aggregates one calendar day's logged meals.
type DailyTotal struct {
	Calories float64 `json:"calories"`
	Meals    int     `json:"meals"`
}

// MonthlySummary is a derived aggregate over one calendar month's meals.
// It is recomputed on demand and never persisted.
type MonthlySummary struct {
	Month           time.Month            `json:"month"`
	Year            int                   `json:"year"`
	TotalCalories   float64               `json:"totalCalories"`
	TotalMeals      int                   `json:"totalMeals"`
	AverageCalories float64               `json:"averageCalories"` // total / calendar days in month
	DailyTotals     map[string]DailyTotal `json:"dailyTotals"`     // keyed by local YYYY-MM-DD, gap days absent
}

// RecognitionResult is the outcome of analyzing a meal photo.
type RecognitionResult struct {
	FoodItems         []string `json:"foodItems"`
	EstimatedCalories float64  `json:"estimatedCalories"`
	Confidence        float64  `json:"confidence"` // 0-100
}
