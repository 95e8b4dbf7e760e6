// Package sqlite implements the relational meal store backend on an
// embedded SQLite database (pure Go driver, no CGO).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mealsnap/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS meals (
	id         TEXT PRIMARY KEY,
	calories   REAL NOT NULL DEFAULT 0,
	timestamp  INTEGER NOT NULL,
	image_uri  TEXT NOT NULL DEFAULT '',
	food_items TEXT NOT NULL DEFAULT '[]',
	confidence REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_meals_timestamp ON meals(timestamp);

CREATE TABLE IF NOT EXISTS daily_goals (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	calories   REAL NOT NULL DEFAULT 0,
	protein    REAL NOT NULL DEFAULT 0,
	carbs      REAL NOT NULL DEFAULT 0,
	fat        REAL NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);
`

// Store is the SQLite-backed MealRepository.
type Store struct {
	db     *sql.DB
	loc    *time.Location
	logger *zap.Logger
}

var _ domain.MealRepository = (*Store)(nil)

// Open opens (or creates) the database file under dataDir and prepares the
// schema. The database is opened with WAL mode and a single writer, which is
// all SQLite supports anyway.
func Open(dataDir string, loc *time.Location, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "mealsnap.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return New(db, loc, logger)
}

// New wraps an already opened database handle and prepares the schema.
// Used directly by tests with an in-memory database.
func New(db *sql.DB, loc *time.Location, logger *zap.Logger) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db, loc: loc, logger: logger}, nil
}

// AddMeal inserts a meal, rejecting duplicate ids.
func (s *Store) AddMeal(ctx context.Context, meal *domain.Meal) error {
	if meal == nil || meal.ID == "" || meal.Calories < 0 {
		return domain.ErrInvalidMeal
	}

	items := meal.FoodItems
	if items == nil {
		items = []string{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode food items: %v", domain.ErrMealStorage, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM meals WHERE id = ?)", meal.ID).Scan(&exists); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	if exists {
		return domain.ErrDuplicateMeal
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO meals (id, calories, timestamp, image_uri, food_items, confidence)
		VALUES (?, ?, ?, ?, ?, ?)`,
		meal.ID, meal.Calories, meal.Timestamp, meal.ImageURI, string(itemsJSON), meal.Confidence)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}

	s.logger.Debug("meal added", zap.String("id", meal.ID), zap.Float64("calories", meal.Calories))
	return nil
}

// RemoveMeal deletes a meal by id. An absent id is a no-op.
func (s *Store) RemoveMeal(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM meals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	return nil
}

// MealsByDate returns meals in the local calendar day of date, newest first.
func (s *Store) MealsByDate(ctx context.Context, date time.Time) ([]domain.Meal, error) {
	startMs, endMs := domain.DayBounds(date, s.loc)
	return s.mealsInRange(ctx, startMs, endMs)
}

// MealsByMonth returns meals in the local calendar month, newest first.
func (s *Store) MealsByMonth(ctx context.Context, month time.Month, year int) ([]domain.Meal, error) {
	startMs, endMs := domain.MonthBounds(month, year, s.loc)
	return s.mealsInRange(ctx, startMs, endMs)
}

func (s *Store) mealsInRange(ctx context.Context, startMs, endMs int64) ([]domain.Meal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, calories, timestamp, image_uri, food_items, confidence
		FROM meals
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC`,
		startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	defer rows.Close()

	meals := []domain.Meal{}
	for rows.Next() {
		var m domain.Meal
		var itemsJSON string
		if err := rows.Scan(&m.ID, &m.Calories, &m.Timestamp, &m.ImageURI, &itemsJSON, &m.Confidence); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
		}
		if err := json.Unmarshal([]byte(itemsJSON), &m.FoodItems); err != nil {
			return nil, fmt.Errorf("%w: decode food items: %v", domain.ErrMealStorage, err)
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	return meals, nil
}

// SaveDailyGoals appends a new goals row. Older rows are kept as history but
// never surfaced; the latest row by updated_at is authoritative.
func (s *Store) SaveDailyGoals(ctx context.Context, goals *domain.DailyGoals) error {
	if goals == nil {
		return domain.ErrInvalidMeal
	}
	updatedAt := goals.UpdatedAt
	if updatedAt == 0 {
		updatedAt = time.Now().UnixMilli()
		goals.UpdatedAt = updatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_goals (calories, protein, carbs, fat, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		goals.Calories, goals.Protein, goals.Carbs, goals.Fat, updatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	return nil
}

// LoadDailyGoals returns the most recently written goals.
func (s *Store) LoadDailyGoals(ctx context.Context) (*domain.DailyGoals, error) {
	var g domain.DailyGoals
	err := s.db.QueryRowContext(ctx, `
		SELECT calories, protein, carbs, fat, updated_at
		FROM daily_goals
		ORDER BY updated_at DESC, id DESC
		LIMIT 1`).Scan(&g.Calories, &g.Protein, &g.Carbs, &g.Fat, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrGoalsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	return &g, nil
}

// ClearAll removes every meal and goal record.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM meals"); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM daily_goals"); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	s.logger.Info("all meal data cleared")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
