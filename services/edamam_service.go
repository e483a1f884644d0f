package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const edamamNutritionURL = "https://api.edamam.com/api/nutrition-data"

// EdamamEstimator answers nutrition estimates from the Edamam Nutrition
// Analysis API instead of a language model. Its text follows the same
// template, so stored entries parse the same way.
type EdamamEstimator struct {
	appID, appKey string
	baseURL       string
	client        *http.Client
	log           *zap.Logger
}

func NewEdamamEstimator(appID, appKey string, log *zap.Logger) *EdamamEstimator {
	if log == nil {
		log = zap.NewNop()
	}
	return &EdamamEstimator{
		appID:   appID,
		appKey:  appKey,
		baseURL: edamamNutritionURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type edamamNutrient struct {
	Quantity float64 `json:"quantity"`
}

type nutritionDataResponse struct {
	Calories       float64                   `json:"calories"`
	TotalNutrients map[string]edamamNutrient `json:"totalNutrients"`
	Ingredients    []struct {
		Parsed []struct {
			Nutrients map[string]edamamNutrient `json:"nutrients"`
		} `json:"parsed"`
	} `json:"ingredients"`
}

// nutrients prefers the top-level totals and falls back to the first parsed
// ingredient, which is where newer API versions put them.
func (r nutritionDataResponse) nutrients() map[string]edamamNutrient {
	if len(r.TotalNutrients) > 0 {
		return r.TotalNutrients
	}
	if len(r.Ingredients) > 0 && len(r.Ingredients[0].Parsed) > 0 {
		return r.Ingredients[0].Parsed[0].Nutrients
	}
	return nil
}

func (e *EdamamEstimator) EstimateNutrition(ctx context.Context, food, qty string) (string, error) {
	nr, err := e.analyze(ctx, strings.TrimSpace(qty+" "+food))
	if err != nil {
		e.log.Error("edamam call failed", zap.String("food", food), zap.Error(err))
		return "", fmt.Errorf("estimate nutrition: %w", ErrUpstream)
	}
	n := nr.nutrients()
	cal := nr.Calories
	if cal == 0 {
		cal = n["ENERC_KCAL"].Quantity
	}
	if cal == 0 && len(n) == 0 {
		// Edamam answers 200 with empty totals when it cannot parse the ingredient
		return "", fmt.Errorf("estimate nutrition: %q not recognised: %w", food, ErrInvalidInput)
	}
	return fmt.Sprintf("Calories: %d kcal\nProtein: %.1f g\nFat: %.1f g\nCarbohydrates: %.1f g\nFiber: %.1f g",
		int(math.Round(cal)),
		n["PROCNT"].Quantity,
		n["FAT"].Quantity,
		n["CHOCDF"].Quantity,
		n["FIBTG"].Quantity,
	), nil
}

func (e *EdamamEstimator) analyze(ctx context.Context, ingr string) (*nutritionDataResponse, error) {
	if e.appID == "" || e.appKey == "" {
		return nil, fmt.Errorf("EDAMAM_APP_ID and EDAMAM_APP_KEY are required")
	}
	q := url.Values{}
	q.Set("app_id", e.appID)
	q.Set("app_key", e.appKey)
	q.Set("nutrition-type", "logging")
	q.Set("ingr", ingr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create nutrition request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Edamam nutrition API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read nutrition response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edamam nutrition API error %d: %s", resp.StatusCode, string(body))
	}

	var nr nutritionDataResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return nil, fmt.Errorf("failed to parse nutrition JSON: %w", err)
	}
	return &nr, nil
}
