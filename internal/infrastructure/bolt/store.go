// Package bolt implements the key-value meal store backend. Meals and goals
// are kept as JSON-serialized records behind string keys in an embedded
// bbolt file, mirroring the contract of the relational backend.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/mealsnap/backend/internal/domain"
)

var (
	mealsBucket = []byte("meals")
	goalsBucket = []byte("goals")

	currentGoalsKey = []byte("current")
)

// Store is the bbolt-backed MealRepository.
type Store struct {
	db     *bbolt.DB
	loc    *time.Location
	logger *zap.Logger
}

var _ domain.MealRepository = (*Store)(nil)

// Open opens (or creates) the key-value file under dataDir.
func Open(dataDir string, loc *time.Location, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	path := filepath.Join(dataDir, "mealsnap.bolt")
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open key-value store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(mealsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(goalsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &Store{db: db, loc: loc, logger: logger}, nil
}

// AddMeal stores a meal under its id, rejecting duplicates.
func (s *Store) AddMeal(ctx context.Context, meal *domain.Meal) error {
	if meal == nil || meal.ID == "" || meal.Calories < 0 {
		return domain.ErrInvalidMeal
	}

	stored := *meal
	if stored.FoodItems == nil {
		stored.FoodItems = []string{}
	}
	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("%w: encode meal: %v", domain.ErrMealStorage, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(mealsBucket)
		if b.Get([]byte(stored.ID)) != nil {
			return domain.ErrDuplicateMeal
		}
		return b.Put([]byte(stored.ID), data)
	})
	if err == domain.ErrDuplicateMeal {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}

	s.logger.Debug("meal added", zap.String("id", stored.ID), zap.Float64("calories", stored.Calories))
	return nil
}

// RemoveMeal deletes a meal by id. An absent id is a no-op.
func (s *Store) RemoveMeal(ctx context.Context, id string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(mealsBucket).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	return nil
}

// MealsByDate returns meals in the local calendar day of date, newest first.
func (s *Store) MealsByDate(ctx context.Context, date time.Time) ([]domain.Meal, error) {
	startMs, endMs := domain.DayBounds(date, s.loc)
	return s.mealsInRange(startMs, endMs)
}

// MealsByMonth returns meals in the local calendar month, newest first.
func (s *Store) MealsByMonth(ctx context.Context, month time.Month, year int) ([]domain.Meal, error) {
	startMs, endMs := domain.MonthBounds(month, year, s.loc)
	return s.mealsInRange(startMs, endMs)
}

// mealsInRange scans the meals bucket and filters by timestamp. A full scan
// is fine at single-user data volumes; an index bucket would be the next
// step if it ever is not.
func (s *Store) mealsInRange(startMs, endMs int64) ([]domain.Meal, error) {
	meals := []domain.Meal{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(mealsBucket).ForEach(func(k, v []byte) error {
			var m domain.Meal
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("decode meal %s: %w", k, err)
			}
			if m.Timestamp >= startMs && m.Timestamp < endMs {
				meals = append(meals, m)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}

	sort.Slice(meals, func(i, j int) bool {
		return meals[i].Timestamp > meals[j].Timestamp
	})
	return meals, nil
}

// SaveDailyGoals overwrites the single current goals record.
func (s *Store) SaveDailyGoals(ctx context.Context, goals *domain.DailyGoals) error {
	if goals == nil {
		return domain.ErrInvalidMeal
	}
	if goals.UpdatedAt == 0 {
		goals.UpdatedAt = time.Now().UnixMilli()
	}

	data, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("%w: encode goals: %v", domain.ErrMealStorage, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(goalsBucket).Put(currentGoalsKey, data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	return nil
}

// LoadDailyGoals returns the current goals record.
func (s *Store) LoadDailyGoals(ctx context.Context) (*domain.DailyGoals, error) {
	var g *domain.DailyGoals
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(goalsBucket).Get(currentGoalsKey)
		if data == nil {
			return nil
		}
		g = &domain.DailyGoals{}
		return json.Unmarshal(data, g)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	if g == nil {
		return nil, domain.ErrGoalsNotFound
	}
	return g, nil
}

// ClearAll removes every meal and goal record.
func (s *Store) ClearAll(ctx context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{mealsBucket, goalsBucket} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMealStorage, err)
	}
	s.logger.Info("all meal data cleared")
	return nil
}

// Close closes the key-value file.
func (s *Store) Close() error {
	return s.db.Close()
}
