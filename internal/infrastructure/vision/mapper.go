package vision

import "github.com/mealsnap/backend/internal/domain"

// analyzeResponse is the provider's wire shape. Some deployments return a
// total calorie figure, others only per-item values; confidence may come as
// a 0-1 fraction or a 0-100 score.
type analyzeResponse struct {
	Foods []struct {
		Name     string  `json:"name"`
		Calories float64 `json:"calories"`
	} `json:"foods"`
	TotalCalories float64 `json:"totalCalories"`
	Confidence    float64 `json:"confidence"`
}

// mapToRecognitionResult converts the provider response to the domain model.
func mapToRecognitionResult(resp *analyzeResponse) *domain.RecognitionResult {
	items := make([]string, 0, len(resp.Foods))
	var itemTotal float64
	for _, f := range resp.Foods {
		if f.Name != "" {
			items = append(items, f.Name)
		}
		itemTotal += f.Calories
	}

	calories := resp.TotalCalories
	if calories == 0 {
		calories = itemTotal
	}
	if calories < 0 {
		calories = 0
	}

	return &domain.RecognitionResult{
		FoodItems:         items,
		EstimatedCalories: calories,
		Confidence:        normalizeConfidence(resp.Confidence),
	}
}

// normalizeConfidence maps fractional scores onto the 0-100 scale.
func normalizeConfidence(c float64) float64 {
	if c > 0 && c <= 1 {
		return c * 100
	}
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
