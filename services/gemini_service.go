package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nutrilog/utils"

	"go.uber.org/zap"
)

// TextGenerator turns a prompt into model text.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type GeminiRequest struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GeminiResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content Content `json:"content"`
}

// GeminiClient calls the generateContent REST endpoint.
type GeminiClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", model),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (gc *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if gc.apiKey == "" {
		return "", errors.New("GEMINI_API_KEY not set")
	}
	reqBody := GeminiRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gc.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// header, not query: transport errors quote the full URL
	req.Header.Set("x-goog-api-key", gc.apiKey)

	resp, err := gc.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out GeminiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no candidates in response")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// GeminiService builds the nutrition prompts on top of a TextGenerator.
type GeminiService struct {
	gen TextGenerator
	log *zap.Logger
}

func NewGeminiService(gen TextGenerator, log *zap.Logger) *GeminiService {
	return &GeminiService{gen: gen, log: log}
}

func nutritionPrompt(food, qty string) string {
	return "You are a certified dietitian and nutritionist.\n\n" +
		"Given the food item and its specific quantity, return the accurate nutritional breakdown " +
		"based on standard global nutritional databases (like USDA).\n\n" +
		"Only respond in the exact format below and based on the given quantity.\n\n" +
		"Format:\n" + utils.NutritionTemplate + "\n\n" +
		fmt.Sprintf("Food: %s\nQuantity: %s\n", food, qty)
}

func (s *GeminiService) generate(ctx context.Context, op, prompt string) (string, error) {
	text, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		s.log.Error("gemini call failed", zap.String("op", op), zap.Error(err))
		return "", fmt.Errorf("%s: %w", op, ErrUpstream)
	}
	return strings.TrimSpace(text), nil
}

// EstimateNutrition returns the model's answer verbatim. It is not validated;
// a reply that misses the template simply parses to zeros later.
func (s *GeminiService) EstimateNutrition(ctx context.Context, food, qty string) (string, error) {
	return s.generate(ctx, "estimate nutrition", nutritionPrompt(food, qty))
}

type NutritionFacts struct {
	FoodName       string   `json:"foodName"`
	NutritionInfo  string   `json:"nutritionInfo"`
	Benefits       []string `json:"benefits"`
	Concerns       []string `json:"concerns"`
	Recommendation string   `json:"recommendation"`
	Assessment     string   `json:"assessment"`

	Nutrition       utils.Nutrients `json:"nutrition"`
	NutritionParsed bool            `json:"nutrition_parsed"`
}

func factsPrompt(food string) string {
	return fmt.Sprintf(`Provide detailed nutritional information about %[1]s in the following JSON format:
{
  "foodName": "%[1]s",
  "nutritionInfo": "Calories: X kcal Protein: Y g Fat: Z g Carbohydrates: W g Fiber: V g",
  "benefits": ["benefit 1", "benefit 2", "benefit 3"],
  "concerns": ["concern 1", "concern 2"],
  "recommendation": "Detailed recommendation on how much to consume and frequency",
  "assessment": "Overall assessment of whether this food is good or bad for health"
}

Make sure the nutritionInfo string follows exactly this format: "Calories: X kcal Protein: Y g Fat: Z g Carbohydrates: W g Fiber: V g"
Replace the placeholder values with actual numbers.
The benefits and concerns should be arrays of strings.
The recommendation should be a detailed paragraph.
The assessment should be a concise paragraph.
Return only valid JSON.`, food)
}

// NutritionFacts asks for a structured fact sheet about one food.
func (s *GeminiService) NutritionFacts(ctx context.Context, food string, parse utils.NutrientParser) (*NutritionFacts, error) {
	food = strings.TrimSpace(food)
	if food == "" {
		return nil, fmt.Errorf("food name is required: %w", ErrInvalidInput)
	}
	text, err := s.generate(ctx, "nutrition facts", factsPrompt(food))
	if err != nil {
		return nil, err
	}

	raw := cleanLLMResponse(text)
	if !strings.HasPrefix(raw, "{") {
		s.log.Warn("nutrition facts reply has no JSON object", zap.String("food", food))
		return nil, fmt.Errorf("nutrition facts: no JSON in reply: %w", ErrUpstream)
	}
	var facts NutritionFacts
	if err := json.Unmarshal([]byte(raw), &facts); err != nil {
		s.log.Warn("nutrition facts reply is not valid JSON", zap.String("food", food), zap.Error(err))
		return nil, fmt.Errorf("nutrition facts: %w", ErrUpstream)
	}
	if facts.FoodName == "" {
		facts.FoodName = food
	}
	if parse == nil {
		parse = utils.ParseNutrients
	}
	facts.Nutrition, facts.NutritionParsed = parse(facts.NutritionInfo)
	return &facts, nil
}

// Chat sends a free-form prompt and returns the markdown reply.
func (s *GeminiService) Chat(ctx context.Context, prompt string) (string, error) {
	return s.generate(ctx, "chat", prompt)
}

// cleanLLMResponse strips code fences and keeps the outermost {...}.
func cleanLLMResponse(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end != -1 && end > start {
		response = response[start : end+1]
	}
	return response
}
