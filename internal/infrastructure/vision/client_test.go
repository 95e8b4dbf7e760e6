package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealsnap/backend/internal/domain"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com", 30, nil)

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com", 30, nil)

	assert.False(t, client.debug)
	client.SetDebug(true)
	assert.True(t, client.debug)
}

func TestAnalyze_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/food/analyze", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "file:///photos/lunch.jpg", req.Image)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"foods": []map[string]interface{}{
				{"name": "grilled chicken", "calories": 320},
				{"name": "rice", "calories": 210},
			},
			"confidence": 88,
		})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 30, nil)

	result, err := client.Analyze(context.Background(), "file:///photos/lunch.jpg")

	require.NoError(t, err)
	assert.Equal(t, []string{"grilled chicken", "rice"}, result.FoodItems)
	assert.Equal(t, 530.0, result.EstimatedCalories)
	assert.Equal(t, 88.0, result.Confidence)
}

func TestAnalyze_UsesTotalCaloriesWhenPresent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"foods":         []map[string]interface{}{{"name": "pasta", "calories": 400}},
			"totalCalories": 650,
			"confidence":    0.72,
		})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 30, nil)

	result, err := client.Analyze(context.Background(), "file:///photos/dinner.jpg")

	require.NoError(t, err)
	assert.Equal(t, 650.0, result.EstimatedCalories)
	assert.InDelta(t, 72.0, result.Confidence, 0.001, "fractional confidence normalized to 0-100")
}

func TestAnalyze_APIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"no food detected"}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 30, nil)

	result, err := client.Analyze(context.Background(), "file:///photos/blurry.jpg")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrRecognitionFailed)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "no food detected")
}

func TestAnalyze_NetworkUnreachable(t *testing.T) {
	// A server that is already closed produces a connection error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient("test-api-key", server.URL, 30, nil)

	result, err := client.Analyze(context.Background(), "file:///photos/lunch.jpg")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrRecognitionUnavailable)
}

func TestAnalyze_EmptyImageURI(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com", 30, nil)

	result, err := client.Analyze(context.Background(), "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrRecognitionFailed)
}

func TestMapToRecognitionResult(t *testing.T) {
	tests := []struct {
		name           string
		resp           analyzeResponse
		wantItems      []string
		wantCalories   float64
		wantConfidence float64
	}{
		{
			name:           "empty response",
			resp:           analyzeResponse{},
			wantItems:      []string{},
			wantCalories:   0,
			wantConfidence: 0,
		},
		{
			name: "skips unnamed foods but keeps their calories",
			resp: analyzeResponse{
				Foods: []struct {
					Name     string  `json:"name"`
					Calories float64 `json:"calories"`
				}{{Name: "", Calories: 100}, {Name: "toast", Calories: 150}},
				Confidence: 60,
			},
			wantItems:      []string{"toast"},
			wantCalories:   250,
			wantConfidence: 60,
		},
		{
			name:           "clamps out-of-range confidence",
			resp:           analyzeResponse{Confidence: 140},
			wantItems:      []string{},
			wantCalories:   0,
			wantConfidence: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapToRecognitionResult(&tt.resp)
			assert.Equal(t, tt.wantItems, got.FoodItems)
			assert.Equal(t, tt.wantCalories, got.EstimatedCalories)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
		})
	}
}
