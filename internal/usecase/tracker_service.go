package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mealsnap/backend/internal/domain"
)

// TrackerConfig holds configuration for the tracker service.
type TrackerConfig struct {
	Location *time.Location   // timezone for day/month bucketing, defaults to time.Local
	Now      func() time.Time // clock override for tests, defaults to time.Now
	Logger   *zap.Logger
}

// TrackerState is a render-ready copy of the tracker's derived state. It is
// never the system of record; the meal store is.
type TrackerState struct {
	Date               string                 `json:"date"` // local YYYY-MM-DD of the tracked day
	TodayMeals         []domain.Meal          `json:"todayMeals"`
	TotalCaloriesToday float64                `json:"totalCaloriesToday"`
	Goals              *domain.DailyGoals     `json:"goals,omitempty"`
	Summary            *domain.MonthlySummary `json:"summary,omitempty"`
	Loading            bool                   `json:"loading"`
	Analyzing          bool                   `json:"analyzing"`
	LastError          string                 `json:"lastError,omitempty"`
}

// TrackerService is the application facade: it mediates every mutation
// through the meal store and re-derives the dependent views (today's meals,
// the displayed month's summary) after each one.
type TrackerService struct {
	repo       domain.MealRepository
	recognizer domain.RecognitionClient
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger

	mu        sync.RWMutex
	date      string // local date key of the tracked day
	meals     []domain.Meal
	goals     *domain.DailyGoals
	summary   *domain.MonthlySummary
	loading   bool
	analyzing bool
	lastError string
}

// NewTrackerService creates a tracker service. The repository is required;
// the recognizer may be nil when photo analysis is disabled.
func NewTrackerService(repo domain.MealRepository, recognizer domain.RecognitionClient, cfg TrackerConfig) *TrackerService {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TrackerService{
		repo:       repo,
		recognizer: recognizer,
		loc:        loc,
		now:        now,
		logger:     logger,
	}
}

// Load populates the derived state for the current local day and month.
// Today's meals, the saved goals, and the month's meals load concurrently.
func (s *TrackerService) Load(ctx context.Context) error {
	now := s.now()
	month, year := now.In(s.loc).Month(), now.In(s.loc).Year()

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	var (
		todayMeals []domain.Meal
		goals      *domain.DailyGoals
		monthMeals []domain.Meal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		todayMeals, err = s.repo.MealsByDate(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = s.repo.LoadDailyGoals(gctx)
		if errors.Is(err, domain.ErrGoalsNotFound) {
			goals = nil
			return nil
		}
		return err
	})
	g.Go(func() error {
		var err error
		monthMeals, err = s.repo.MealsByMonth(gctx, month, year)
		return err
	})
	if err := g.Wait(); err != nil {
		s.setError("Failed to load your meals.")
		return fmt.Errorf("load tracker state: %w", err)
	}

	summary := ComputeMonthlySummary(monthMeals, month, year, s.loc)

	s.mu.Lock()
	s.date = domain.DateKey(now.UnixMilli(), s.loc)
	s.meals = todayMeals
	s.goals = goals
	s.summary = summary
	s.lastError = ""
	s.mu.Unlock()

	s.logger.Info("tracker state loaded",
		zap.String("date", domain.DateKey(now.UnixMilli(), s.loc)),
		zap.Int("todayMeals", len(todayMeals)),
		zap.Int("monthMeals", len(monthMeals)))
	return nil
}

// AddMealInput carries the caller-provided fields of a new meal; id and
// timestamp are synthesized here.
type AddMealInput struct {
	ImageURI   string
	FoodItems  []string
	Calories   float64
	Confidence float64
}

// AddMeal persists a new meal and re-derives the affected views: the meal is
// prepended to today's list when it falls on the tracked day, and the
// monthly summary is fully recomputed when the meal's local month matches
// the displayed one.
func (s *TrackerService) AddMeal(ctx context.Context, input AddMealInput) (*domain.Meal, error) {
	if input.Calories < 0 {
		return nil, domain.ErrInvalidMeal
	}

	meal := &domain.Meal{
		ID:         uuid.NewString(),
		Timestamp:  s.now().UnixMilli(),
		ImageURI:   input.ImageURI,
		FoodItems:  input.FoodItems,
		Calories:   input.Calories,
		Confidence: input.Confidence,
	}

	if err := s.repo.AddMeal(ctx, meal); err != nil {
		s.setError("Failed to save your meal.")
		return nil, err
	}

	s.mu.Lock()
	if domain.DateKey(meal.Timestamp, s.loc) == s.date {
		s.meals = append([]domain.Meal{*meal}, s.meals...)
	}
	s.lastError = ""
	s.mu.Unlock()

	if err := s.refreshSummaryIfDisplayed(ctx, meal.Timestamp); err != nil {
		s.setError("Failed to refresh the monthly summary.")
		return meal, err
	}

	s.logger.Info("meal added",
		zap.String("id", meal.ID),
		zap.Float64("calories", meal.Calories),
		zap.Strings("foodItems", meal.FoodItems))
	return meal, nil
}

// RemoveMeal deletes a meal. The meal's month is resolved from the local
// copy before deleting, because afterwards the store can no longer tell us
// which summary it affected; an id absent from today's list may still be in
// the displayed month, so that case recomputes the summary unconditionally.
func (s *TrackerService) RemoveMeal(ctx context.Context, id string) error {
	s.mu.RLock()
	var removedTs int64
	found := false
	for _, m := range s.meals {
		if m.ID == id {
			removedTs = m.Timestamp
			found = true
			break
		}
	}
	s.mu.RUnlock()

	if err := s.repo.RemoveMeal(ctx, id); err != nil {
		s.setError("Failed to delete the meal.")
		return err
	}

	s.mu.Lock()
	for i, m := range s.meals {
		if m.ID == id {
			s.meals = append(s.meals[:i], s.meals[i+1:]...)
			break
		}
	}
	s.lastError = ""
	s.mu.Unlock()

	refresh := func() error {
		if found {
			return s.refreshSummaryIfDisplayed(ctx, removedTs)
		}
		return s.refreshDisplayedSummary(ctx)
	}
	if err := refresh(); err != nil {
		s.setError("Failed to refresh the monthly summary.")
		return err
	}

	s.logger.Info("meal removed", zap.String("id", id))
	return nil
}

// AnalyzeMeal sends the photo reference to the recognition API and logs the
// resulting meal.
func (s *TrackerService) AnalyzeMeal(ctx context.Context, imageURI string) (*domain.Meal, error) {
	if s.recognizer == nil {
		return nil, domain.ErrRecognitionUnavailable
	}

	s.mu.Lock()
	s.analyzing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.analyzing = false
		s.mu.Unlock()
	}()

	result, err := s.recognizer.Analyze(ctx, imageURI)
	if err != nil {
		if errors.Is(err, domain.ErrRecognitionUnavailable) {
			s.setError("Could not reach the recognition service. Check your connection.")
		} else {
			s.setError("Could not analyze the photo.")
		}
		return nil, err
	}

	return s.AddMeal(ctx, AddMealInput{
		ImageURI:   imageURI,
		FoodItems:  result.FoodItems,
		Calories:   result.EstimatedCalories,
		Confidence: result.Confidence,
	})
}

// SaveGoals persists new daily goals and updates the derived state.
func (s *TrackerService) SaveGoals(ctx context.Context, goals domain.DailyGoals) error {
	goals.UpdatedAt = s.now().UnixMilli()

	if err := s.repo.SaveDailyGoals(ctx, &goals); err != nil {
		s.setError("Failed to save your goals.")
		return err
	}

	s.mu.Lock()
	g := goals
	s.goals = &g
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

// MealsOn returns the meals of an arbitrary local calendar date.
func (s *TrackerService) MealsOn(ctx context.Context, date time.Time) ([]domain.Meal, error) {
	return s.repo.MealsByDate(ctx, date)
}

// Summary computes a fresh monthly summary for an arbitrary month without
// touching the tracked state.
func (s *TrackerService) Summary(ctx context.Context, month time.Month, year int) (*domain.MonthlySummary, error) {
	meals, err := s.repo.MealsByMonth(ctx, month, year)
	if err != nil {
		return nil, err
	}
	return ComputeMonthlySummary(meals, month, year, s.loc), nil
}

// RefreshCurrentDate reloads the derived state if the local calendar day has
// advanced since the last load. Safe to call repeatedly; a reload is
// idempotent.
func (s *TrackerService) RefreshCurrentDate(ctx context.Context) error {
	today := domain.DateKey(s.now().UnixMilli(), s.loc)

	s.mu.RLock()
	current := s.date
	s.mu.RUnlock()

	if today == current {
		return nil
	}

	s.logger.Info("local date advanced, reloading", zap.String("from", current), zap.String("to", today))
	return s.Load(ctx)
}

// StartDateWatcher periodically checks for a date rollover until ctx is
// cancelled. Failures are logged, never surfaced; the next tick retries.
func (s *TrackerService) StartDateWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.RefreshCurrentDate(ctx); err != nil {
					s.logger.Warn("background date check failed", zap.Error(err))
				}
			}
		}
	}()
}

// ClearAllData wipes the store and resets the derived state.
func (s *TrackerService) ClearAllData(ctx context.Context) error {
	if err := s.repo.ClearAll(ctx); err != nil {
		s.setError("Failed to clear your data.")
		return err
	}

	now := s.now().In(s.loc)

	s.mu.Lock()
	s.date = domain.DateKey(now.UnixMilli(), s.loc)
	s.meals = nil
	s.goals = nil
	s.summary = ComputeMonthlySummary(nil, now.Month(), now.Year(), s.loc)
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the derived state safe for rendering.
func (s *TrackerService) Snapshot() TrackerState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := TrackerState{
		Date:      s.date,
		Loading:   s.loading,
		Analyzing: s.analyzing,
		LastError: s.lastError,
	}

	state.TodayMeals = make([]domain.Meal, len(s.meals))
	copy(state.TodayMeals, s.meals)
	for _, m := range s.meals {
		state.TotalCaloriesToday += m.Calories
	}

	if s.goals != nil {
		g := *s.goals
		state.Goals = &g
	}
	if s.summary != nil {
		sum := *s.summary
		sum.DailyTotals = make(map[string]domain.DailyTotal, len(s.summary.DailyTotals))
		for k, v := range s.summary.DailyTotals {
			sum.DailyTotals[k] = v
		}
		state.Summary = &sum
	}
	return state
}

// refreshSummaryIfDisplayed recomputes the monthly summary when the mutated
// meal's local month matches the currently displayed one. Always a full
// recompute from the store, never an incremental update.
func (s *TrackerService) refreshSummaryIfDisplayed(ctx context.Context, mealTs int64) error {
	local := time.UnixMilli(mealTs).In(s.loc)

	s.mu.RLock()
	displayed := s.summary
	s.mu.RUnlock()
	if displayed == nil || displayed.Month != local.Month() || displayed.Year != local.Year() {
		return nil
	}

	return s.refreshDisplayedSummary(ctx)
}

// refreshDisplayedSummary recomputes the currently displayed month's summary
// from the store.
func (s *TrackerService) refreshDisplayedSummary(ctx context.Context) error {
	s.mu.RLock()
	displayed := s.summary
	s.mu.RUnlock()
	if displayed == nil {
		return nil
	}

	meals, err := s.repo.MealsByMonth(ctx, displayed.Month, displayed.Year)
	if err != nil {
		return fmt.Errorf("refresh monthly summary: %w", err)
	}
	summary := ComputeMonthlySummary(meals, displayed.Month, displayed.Year, s.loc)

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
	return nil
}

func (s *TrackerService) setError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}
