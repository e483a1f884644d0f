package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func geminiServer(t *testing.T, status int, reply string) (*GeminiClient, *GeminiRequest) {
	t.Helper()
	var got GeminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return &GeminiClient{apiKey: "k", baseURL: srv.URL, client: srv.Client()}, &got
}

func TestGeminiClientGenerateText(t *testing.T) {
	gc, req := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"Calories: 95 kcal"}]}}]}`)

	text, err := gc.GenerateText(context.Background(), "an apple")
	require.NoError(t, err)
	assert.Equal(t, "Calories: 95 kcal", text)
	require.Len(t, req.Contents, 1)
	assert.Equal(t, "user", req.Contents[0].Role)
	assert.Equal(t, "an apple", req.Contents[0].Parts[0].Text)
}

func TestGeminiClientErrors(t *testing.T) {
	gc, _ := geminiServer(t, http.StatusTooManyRequests, `{"error":"quota"}`)
	_, err := gc.GenerateText(context.Background(), "x")
	assert.ErrorContains(t, err, "status 429")

	gc, _ = geminiServer(t, http.StatusOK, `{"candidates":[]}`)
	_, err = gc.GenerateText(context.Background(), "x")
	assert.ErrorContains(t, err, "no candidates")

	_, err = (&GeminiClient{}).GenerateText(context.Background(), "x")
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestGeminiServiceEstimateNutrition(t *testing.T) {
	ai := &stubAI{text: "\n" + sampleInfo + "\n\n"}
	svc := NewGeminiService(ai, zap.NewNop())

	text, err := svc.EstimateNutrition(context.Background(), "rice", "1 cup")
	require.NoError(t, err)
	assert.Equal(t, sampleInfo, text)
	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "Food: rice\nQuantity: 1 cup")

	ai.err = errors.New("timeout")
	_, err = svc.EstimateNutrition(context.Background(), "rice", "1 cup")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestGeminiServiceNutritionFacts(t *testing.T) {
	ai := &stubAI{text: "Sure!\n```json\n{\"nutritionInfo\": \"Calories: 95 kcal Protein: 0.5 g Fat: 0.3 g Carbohydrates: 25 g Fiber: 4.4 g\", " +
		"\"benefits\": [\"fiber\"], \"concerns\": [], \"recommendation\": \"one a day\", \"assessment\": \"good\"}\n```"}
	svc := NewGeminiService(ai, zap.NewNop())

	facts, err := svc.NutritionFacts(context.Background(), " apple ", nil)
	require.NoError(t, err)
	assert.Equal(t, "apple", facts.FoodName)
	assert.True(t, facts.NutritionParsed)
	assert.Equal(t, 95, facts.Nutrition.Calories)
	assert.Equal(t, 4.4, facts.Nutrition.Fiber)
	assert.Equal(t, []string{"fiber"}, facts.Benefits)

	_, err = svc.NutritionFacts(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	ai.text = "I cannot help with that."
	_, err = svc.NutritionFacts(context.Background(), "apple", nil)
	assert.ErrorIs(t, err, ErrUpstream)

	ai.text = "{not json}"
	_, err = svc.NutritionFacts(context.Background(), "apple", nil)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCleanLLMResponse(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":    `{"a":1}`,
		"prefix {\"a\":{\"b\":2}} x": `{"a":{"b":2}}`,
		"no braces":                  "no braces",
		"} backwards {":              "} backwards {",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanLLMResponse(in), in)
	}
}

func TestGeminiTransportErrorDoesNotLogKey(t *testing.T) {
	const key = "AIza-secret-key"
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := srv.Client()
	client.Timeout = 50 * time.Millisecond
	gc := &GeminiClient{apiKey: key, baseURL: srv.URL + "/v1beta/models/m:generateContent", client: client}

	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewGeminiService(gc, zap.New(core))

	_, err := svc.EstimateNutrition(context.Background(), "rice", "1 cup")
	require.ErrorIs(t, err, ErrUpstream)
	assert.NotContains(t, err.Error(), key)

	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		for k, v := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(v), key, "field %s", k)
		}
		assert.False(t, strings.Contains(entry.Message, key))
	}
}
