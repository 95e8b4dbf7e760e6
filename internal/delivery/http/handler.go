package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mealsnap/backend/internal/domain"
	"github.com/mealsnap/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	tracker *usecase.TrackerService
	loc     *time.Location
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(tracker *usecase.TrackerService, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{tracker: tracker, loc: loc, logger: logger}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "mealsnap-backend",
		"version": "1.0.0",
	})
}

// GetState returns the tracker's current derived state.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Snapshot())
}

// ListMeals returns the meals of one local calendar date (default today).
func (h *Handler) ListMeals(c *gin.Context) {
	date := time.Now().In(h.loc)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	meals, err := h.tracker.MealsOn(c.Request.Context(), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

// addMealRequest is the body of POST /meals.
type addMealRequest struct {
	ImageURI   string   `json:"imageUri"`
	FoodItems  []string `json:"foodItems"`
	Calories   float64  `json:"calories"`
	Confidence float64  `json:"confidence"`
}

// AddMeal logs a meal with caller-provided values.
func (h *Handler) AddMeal(c *gin.Context) {
	var req addMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Calories < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "calories must be non-negative"})
		return
	}

	meal, err := h.tracker.AddMeal(c.Request.Context(), usecase.AddMealInput{
		ImageURI:   req.ImageURI,
		FoodItems:  req.FoodItems,
		Calories:   req.Calories,
		Confidence: req.Confidence,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

// DeleteMeal removes a meal by id. Deleting an unknown id succeeds.
func (h *Handler) DeleteMeal(c *gin.Context) {
	if err := h.tracker.RemoveMeal(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// analyzeMealRequest is the body of POST /meals/analyze.
type analyzeMealRequest struct {
	ImageURI string `json:"imageUri" binding:"required"`
}

// AnalyzeMeal runs photo recognition and logs the resulting meal.
func (h *Handler) AnalyzeMeal(c *gin.Context) {
	var req analyzeMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imageUri is required"})
		return
	}

	meal, err := h.tracker.AnalyzeMeal(c.Request.Context(), req.ImageURI)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

// GetSummary returns the monthly summary for ?month=&year= (default: the
// current local month).
func (h *Handler) GetSummary(c *gin.Context) {
	now := time.Now().In(h.loc)
	month, year := now.Month(), now.Year()

	if raw := c.Query("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be 1-12"})
			return
		}
		month = time.Month(m)
	}
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1970 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a valid year"})
			return
		}
		year = y
	}

	summary, err := h.tracker.Summary(c.Request.Context(), month, year)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetGoals returns the current daily goals.
func (h *Handler) GetGoals(c *gin.Context) {
	state := h.tracker.Snapshot()
	if state.Goals == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no daily goals set"})
		return
	}
	c.JSON(http.StatusOK, state.Goals)
}

// saveGoalsRequest is the body of PUT /goals.
type saveGoalsRequest struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// SaveGoals replaces the current daily goals.
func (h *Handler) SaveGoals(c *gin.Context) {
	var req saveGoalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Calories < 0 || req.Protein < 0 || req.Carbs < 0 || req.Fat < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "goal values must be non-negative"})
		return
	}

	goals := domain.DailyGoals{
		Calories: req.Calories,
		Protein:  req.Protein,
		Carbs:    req.Carbs,
		Fat:      req.Fat,
	}
	if err := h.tracker.SaveGoals(c.Request.Context(), goals); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.tracker.Snapshot().Goals)
}

// ClearData irreversibly wipes all meals and goals.
func (h *Handler) ClearData(c *gin.Context) {
	if err := h.tracker.ClearAllData(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondError maps domain errors to HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidMeal):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal"})
	case errors.Is(err, domain.ErrDuplicateMeal):
		c.JSON(http.StatusConflict, gin.H{"error": "meal already exists"})
	case errors.Is(err, domain.ErrRecognitionUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recognition service unreachable"})
	case errors.Is(err, domain.ErrRecognitionFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "recognition request failed"})
	default:
		h.logger.Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
