package domain

import "errors"

var (
	// ErrDuplicateMeal is returned when adding a meal whose id already exists
	ErrDuplicateMeal = errors.New("meal with this id already exists")

	// ErrInvalidMeal is returned when a meal fails basic validation
	ErrInvalidMeal = errors.New("invalid meal")

	// ErrMealStorage is returned when an underlying storage operation fails
	ErrMealStorage = errors.New("meal storage operation failed")

	// ErrGoalsNotFound is returned when no daily goals have been saved yet
	ErrGoalsNotFound = errors.New("daily goals not found")

	// ErrRecognitionUnavailable is returned when the recognition API cannot be reached
	ErrRecognitionUnavailable = errors.New("recognition service unreachable")

	// ErrRecognitionFailed is returned when the recognition API rejects or fails a request
	ErrRecognitionFailed = errors.New("recognition request failed")
)
