package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nutrilog/models"
	"nutrilog/repository"
)

const (
	chatLookback   = 7 * 24 * time.Hour
	chatMaxEntries = 10
	chatMaxRunes   = 2000
)

type Chatter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

type ChatService struct {
	foods repository.FoodEntryRepository
	ai    Chatter
	now   func() time.Time
}

func NewChatService(foods repository.FoodEntryRepository, ai Chatter) *ChatService {
	return &ChatService{foods: foods, ai: ai, now: time.Now}
}

type chatLogItem struct {
	Food      string `json:"food"`
	Quantity  string `json:"quantity"`
	Date      string `json:"date"`
	Nutrition string `json:"nutrition"`
}

type ChatReply struct {
	Answer      string `json:"answer"` // markdown
	ContextSize int    `json:"context_entries"`
}

func chatContext(entries []models.FoodEntry) []chatLogItem {
	if len(entries) > chatMaxEntries {
		entries = entries[:chatMaxEntries]
	}
	out := make([]chatLogItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, chatLogItem{
			Food:      e.FoodName,
			Quantity:  e.Quantity,
			Date:      e.Timestamp.Format("Jan 2, 2006"),
			Nutrition: e.NutritionInfo,
		})
	}
	return out
}

func chatPrompt(logJSON, question string) string {
	return "You are a certified nutritionist and dietitian with expertise in sports nutrition, " +
		"weight management, and general dietary advice.\n\n" +
		"Given the user's question and their recent food log data, provide a helpful, accurate, " +
		"and personalized response based on current nutritional science.\n\n" +
		"User's recent food log (last 7 days):\n" + logJSON + "\n\n" +
		"Format your response with:\n" +
		"1. A clear, direct answer to the question\n" +
		"2. Key points in **bold**\n" +
		"3. Practical recommendations based on their food log\n" +
		"4. Scientific backing where relevant\n" +
		"5. Specific suggestions considering their recent eating patterns\n\n" +
		"Keep your response under 200 words and focus on practical advice.\n\n" +
		"User question: " + question + "\n\n" +
		"Note: Use markdown formatting for **bold** text to emphasize key points.\n"
}

// Ask answers a question with the user's last week of entries as context.
func (s *ChatService) Ask(ctx context.Context, userID, question string) (*ChatReply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required: %w", ErrInvalidInput)
	}
	if len([]rune(question)) > chatMaxRunes {
		return nil, fmt.Errorf("question is too long: %w", ErrInvalidInput)
	}

	entries, err := s.foods.List(ctx, userID, s.now().Add(-chatLookback), time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}
	items := chatContext(entries)
	logJSON, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, err
	}

	answer, err := s.ai.Chat(ctx, chatPrompt(string(logJSON), question))
	if err != nil {
		return nil, err
	}
	return &ChatReply{Answer: answer, ContextSize: len(items)}, nil
}
