package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const pngURI = "data:image/png;base64,aGVsbG8="

type foodFixture struct {
	svc   *FoodEntryService
	foods *memFoods
	ai    *stubAI
	feed  *ChangeFeed
}

func newFoodFixture(t *testing.T, deps FoodEntryDeps) *foodFixture {
	t.Helper()
	f := &foodFixture{foods: &memFoods{}, ai: &stubAI{text: sampleInfo}, feed: NewChangeFeed()}
	deps.Foods = f.foods
	deps.Users = newMemUsers()
	deps.Estimator = NewGeminiService(f.ai, zap.NewNop())
	deps.Feed = f.feed
	deps.DefaultTZ = time.UTC
	f.svc = NewFoodEntryService(deps)
	f.svc.now = fixedClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return f
}

func TestFoodEntryCreateByName(t *testing.T) {
	f := newFoodFixture(t, FoodEntryDeps{})
	sub := f.feed.Subscribe("u1")
	defer f.feed.Unsubscribe(sub)

	got, err := f.svc.Create(context.Background(), "u1", CreateFoodEntryInput{
		FoodName: " Banana ", Quantity: "1 medium", MealType: "Breakfast",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Banana", got.FoodName)
	assert.Equal(t, "breakfast", got.MealType)
	assert.Equal(t, sampleInfo, got.NutritionInfo)
	require.NotNil(t, got.Confidence)
	assert.Equal(t, 1.0, *got.Confidence)
	assert.True(t, got.NutritionParsed)
	assert.Equal(t, 200, got.Nutrition.Calories)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), got.Timestamp)

	require.Len(t, f.ai.prompts, 1)
	assert.Contains(t, f.ai.prompts[0], "Food: Banana")
	assert.Contains(t, f.ai.prompts[0], "Quantity: 1 medium")

	select {
	case kind := <-sub.C:
		assert.Equal(t, EntriesChanged, kind)
	default:
		t.Fatal("expected a change notification")
	}
}

func TestFoodEntryCreateValidation(t *testing.T) {
	f := newFoodFixture(t, FoodEntryDeps{})
	cases := map[string]CreateFoodEntryInput{
		"missing quantity":      {FoodName: "apple"},
		"blank quantity":        {FoodName: "apple", Quantity: "   "},
		"no name and no image":  {Quantity: "1"},
		"unknown meal type":     {FoodName: "apple", Quantity: "1", MealType: "brunch"},
		"image is not data uri": {Image: "http://example.com/a.png", Quantity: "1"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), "u1", in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, f.ai.prompts, "invalid input never reaches the model")
	assert.Empty(t, f.foods.rows)
}

func TestFoodEntryCreateWithImage(t *testing.T) {
	f := newFoodFixture(t, FoodEntryDeps{
		Classifier: stubClassifier{p: Prediction{Label: "pizza", Confidence: 0.87}},
		Uploader:   stubUploader{url: "https://cdn.example.com/food-photos/u1.png"},
	})

	got, err := f.svc.Create(context.Background(), "u1", CreateFoodEntryInput{
		FoodName: "salad", Image: pngURI, Quantity: "2 slices",
	})
	require.NoError(t, err)
	assert.Equal(t, "pizza", got.FoodName, "the photo wins over the typed name")
	assert.Equal(t, 0.87, *got.Confidence)
	assert.Equal(t, "https://cdn.example.com/food-photos/u1.png", got.ImageURL)
	assert.Empty(t, got.Image)
	assert.Contains(t, f.ai.prompts[0], "Food: pizza")
}

func TestFoodEntryUploadFailureKeepsInlineImage(t *testing.T) {
	f := newFoodFixture(t, FoodEntryDeps{
		Classifier: stubClassifier{p: Prediction{Label: "pizza", Confidence: 0.9}},
		Uploader:   stubUploader{err: errors.New("access denied")},
	})
	got, err := f.svc.Create(context.Background(), "u1", CreateFoodEntryInput{Image: pngURI, Quantity: "1"})
	require.NoError(t, err)
	assert.Equal(t, pngURI, got.Image)
	assert.Empty(t, got.ImageURL)
}

func TestFoodEntryUpstreamFailures(t *testing.T) {
	t.Run("classifier", func(t *testing.T) {
		f := newFoodFixture(t, FoodEntryDeps{Classifier: stubClassifier{err: errors.New("boom")}})
		_, err := f.svc.Create(context.Background(), "u1", CreateFoodEntryInput{Image: pngURI, Quantity: "1"})
		assert.ErrorIs(t, err, ErrUpstream)
		assert.Empty(t, f.foods.rows)
	})
	t.Run("text model", func(t *testing.T) {
		f := newFoodFixture(t, FoodEntryDeps{})
		f.ai.err = errors.New("quota exceeded")
		_, err := f.svc.Create(context.Background(), "u1", CreateFoodEntryInput{FoodName: "rice", Quantity: "1 cup"})
		assert.ErrorIs(t, err, ErrUpstream)
		assert.Empty(t, f.foods.rows)
	})
	t.Run("no classifier configured", func(t *testing.T) {
		f := newFoodFixture(t, FoodEntryDeps{})
		_, err := f.svc.Create(context.Background(), "u1", CreateFoodEntryInput{Image: pngURI, Quantity: "1"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestFoodEntryMalformedNutritionIsStoredVerbatim(t *testing.T) {
	f := newFoodFixture(t, FoodEntryDeps{})
	f.ai.text = "Sorry, I can't determine that."

	got, err := f.svc.Create(context.Background(), "u1", CreateFoodEntryInput{FoodName: "mystery", Quantity: "1"})
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I can't determine that.", got.NutritionInfo)
	assert.False(t, got.NutritionParsed)
	assert.Zero(t, got.Nutrition.Calories)
}

func TestFoodEntryListAndDelete(t *testing.T) {
	f := newFoodFixture(t, FoodEntryDeps{})
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f.foods.add("u1", base.Add(1*time.Hour), sampleInfo)
	f.foods.add("u1", base.Add(5*time.Hour), "bad")
	f.foods.add("u2", base.Add(2*time.Hour), sampleInfo)

	list, err := f.svc.List(context.Background(), "u1", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bad", list[0].NutritionInfo, "newest first")
	assert.False(t, list[0].NutritionParsed)
	assert.True(t, list[1].NutritionParsed)

	list, err = f.svc.List(context.Background(), "u1", base, base.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Len(t, list, 1, "to is exclusive")

	_, err = f.svc.List(context.Background(), "u1", base, base)
	assert.ErrorIs(t, err, ErrInvalidInput)

	u2Entry := f.foods.rows[2].ID
	assert.ErrorIs(t, f.svc.Delete(context.Background(), "u1", u2Entry), ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), "u1", "missing"), ErrNotFound)
	require.NoError(t, f.svc.Delete(context.Background(), "u1", list[0].ID))

	list, err = f.svc.List(context.Background(), "u1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFoodEntryLog(t *testing.T) {
	f := newFoodFixture(t, FoodEntryDeps{})
	days, err := f.svc.Log(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, days)
	assert.Empty(t, days)

	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	f.foods.add("u1", base, sampleInfo)
	f.foods.add("u1", base.Add(2*time.Hour), sampleInfo)
	f.foods.add("u1", base.Add(24*time.Hour), sampleInfo)

	days, err = f.svc.Log(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-06-02", days[0].Date)
	assert.Equal(t, 400, days[1].Total.Calories)
}
