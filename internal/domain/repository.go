package domain

import (
	"context"
	"time"
)

// MealRepository defines the storage contract shared by all backends.
// Day and month buckets are computed in the store's configured local
// timezone, never UTC.
type MealRepository interface {
	// AddMeal appends a meal. Fails with ErrDuplicateMeal if the id exists.
	AddMeal(ctx context.Context, meal *Meal) error

	// RemoveMeal deletes a meal by id. Removing an absent id is a no-op.
	RemoveMeal(ctx context.Context, id string) error

	// MealsByDate returns meals within [local midnight, local midnight+24h)
	// for the given calendar date, ordered by timestamp descending.
	MealsByDate(ctx context.Context, date time.Time) ([]Meal, error)

	// MealsByMonth returns meals within the full local calendar month,
	// ordered by timestamp descending.
	MealsByMonth(ctx context.Context, month time.Month, year int) ([]Meal, error)

	// SaveDailyGoals stores new goal values; latest write wins.
	SaveDailyGoals(ctx context.Context, goals *DailyGoals) error

	// LoadDailyGoals returns the most recently saved goals, or
	// ErrGoalsNotFound if none have been saved.
	LoadDailyGoals(ctx context.Context) (*DailyGoals, error)

	// ClearAll irreversibly removes all meals and goals.
	ClearAll(ctx context.Context) error

	// Close releases the underlying storage.
	Close() error
}

// RecognitionClient defines the interface to the food-recognition API.
type RecognitionClient interface {
	Analyze(ctx context.Context, imageURI string) (*RecognitionResult, error)
}
