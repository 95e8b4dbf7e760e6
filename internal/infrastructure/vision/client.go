// Package vision implements the client for the food-recognition API.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mealsnap/backend/internal/domain"
)

// Client handles communication with the food-recognition API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	debug       bool
}

var _ domain.RecognitionClient = (*Client)(nil)

// NewClient creates a new recognition API client. perMinute caps outgoing
// requests; providers meter photo analysis aggressively.
func NewClient(apiKey, baseURL string, perMinute int, logger *zap.Logger) *Client {
	if perMinute <= 0 {
		perMinute = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
		logger:      logger,
	}
}

// SetDebug enables verbose request/response logging.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// analyzeRequest is the wire shape of an analysis request.
type analyzeRequest struct {
	Image string `json:"image"`
}

// Analyze submits a meal photo reference for recognition.
// Network failures map to ErrRecognitionUnavailable, any other API failure
// to ErrRecognitionFailed. There is no automatic retry; one user action is
// one request.
func (c *Client) Analyze(ctx context.Context, imageURI string) (*domain.RecognitionResult, error) {
	if imageURI == "" {
		return nil, fmt.Errorf("%w: empty image reference", domain.ErrRecognitionFailed)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	payload, err := json.Marshal(analyzeRequest{Image: imageURI})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrRecognitionFailed, err)
	}

	reqURL := fmt.Sprintf("%s/v1/food/analyze", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "MealSnap/1.0")

	if c.debug {
		c.logger.Debug("analyze request", zap.String("url", reqURL), zap.String("image", imageURI))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("recognition API unreachable", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrRecognitionUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrRecognitionFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("recognition API error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrRecognitionFailed, resp.StatusCode, string(body))
	}

	var apiResp analyzeResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrRecognitionFailed, err)
	}

	result := mapToRecognitionResult(&apiResp)
	if c.debug {
		c.logger.Debug("analyze response",
			zap.Strings("foodItems", result.FoodItems),
			zap.Float64("estimatedCalories", result.EstimatedCalories),
			zap.Float64("confidence", result.Confidence))
	}
	return result, nil
}
