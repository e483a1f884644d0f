package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nutrilog/models"
	"nutrilog/repository"
	"nutrilog/utils"

	"go.uber.org/zap"
)

type NutritionEstimator interface {
	EstimateNutrition(ctx context.Context, food, qty string) (string, error)
}

type ImageUploader interface {
	UploadDataURI(ctx context.Context, dataURI, prefix string) (string, error)
}

type FoodEntryService struct {
	foods      repository.FoodEntryRepository
	loc        locator
	estimator  NutritionEstimator
	classifier ImageClassifier // nil disables photo logging
	uploader   ImageUploader   // nil keeps photos inline
	feed       *ChangeFeed
	parse      utils.NutrientParser
	log        *zap.Logger
	now        func() time.Time
}

type FoodEntryDeps struct {
	Foods      repository.FoodEntryRepository
	Users      repository.UserRepository
	Estimator  NutritionEstimator
	Classifier ImageClassifier
	Uploader   ImageUploader
	Feed       *ChangeFeed
	Parser     utils.NutrientParser
	DefaultTZ  *time.Location
	Log        *zap.Logger
}

func NewFoodEntryService(d FoodEntryDeps) *FoodEntryService {
	if d.Parser == nil {
		d.Parser = utils.ParseNutrients
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &FoodEntryService{
		foods:      d.Foods,
		loc:        locator{users: d.Users, fallback: d.DefaultTZ},
		estimator:  d.Estimator,
		classifier: d.Classifier,
		uploader:   d.Uploader,
		feed:       d.Feed,
		parse:      d.Parser,
		log:        d.Log,
		now:        time.Now,
	}
}

type CreateFoodEntryInput struct {
	FoodName  string     `json:"food_name"`
	Quantity  string     `json:"quantity" binding:"required"`
	Image     string     `json:"image"` // data:image/...;base64,...
	MealType  string     `json:"meal_type"`
	Timestamp *time.Time `json:"timestamp"`
}

// Create logs one food. A photo takes precedence over the typed name.
func (s *FoodEntryService) Create(ctx context.Context, userID string, in CreateFoodEntryInput) (*utils.ParsedEntry, error) {
	in.FoodName = strings.TrimSpace(in.FoodName)
	in.Quantity = strings.TrimSpace(in.Quantity)
	in.MealType = strings.ToLower(strings.TrimSpace(in.MealType))

	if in.Quantity == "" {
		return nil, fmt.Errorf("quantity is required: %w", ErrInvalidInput)
	}
	if in.FoodName == "" && in.Image == "" {
		return nil, fmt.Errorf("food name or image is required: %w", ErrInvalidInput)
	}
	if !models.ValidMealType(in.MealType) {
		return nil, fmt.Errorf("unknown meal type %q: %w", in.MealType, ErrInvalidInput)
	}

	entry := &models.FoodEntry{
		UserID:   userID,
		FoodName: in.FoodName,
		Quantity: in.Quantity,
		MealType: in.MealType,
	}
	confidence := 1.0

	if in.Image != "" {
		img, _, err := utils.DecodeDataURI(in.Image)
		if err != nil {
			return nil, fmt.Errorf("image: %v: %w", err, ErrInvalidInput)
		}
		if s.classifier == nil {
			if in.FoodName == "" {
				return nil, fmt.Errorf("image classification is not configured: %w", ErrInvalidInput)
			}
		} else {
			p, err := s.classifier.Classify(ctx, img)
			if err != nil {
				s.log.Error("image classification failed", zap.String("user_id", userID), zap.Error(err))
				return nil, fmt.Errorf("classify image: %w", ErrUpstream)
			}
			entry.FoodName = p.Label
			confidence = p.Confidence
		}
		entry.Image = in.Image
	}
	entry.Confidence = &confidence

	info, err := s.estimator.EstimateNutrition(ctx, entry.FoodName, entry.Quantity)
	if err != nil {
		return nil, err
	}
	entry.NutritionInfo = info

	if entry.Image != "" && s.uploader != nil {
		url, err := s.uploader.UploadDataURI(ctx, entry.Image, userID)
		if err != nil {
			s.log.Warn("photo upload failed, keeping inline image", zap.String("user_id", userID), zap.Error(err))
		} else {
			entry.ImageURL = url
			entry.Image = ""
		}
	}

	entry.Timestamp = s.now()
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		entry.Timestamp = *in.Timestamp
	}

	if err := s.foods.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("save food entry: %w", err)
	}
	s.publish(userID)

	n, ok := s.parse(entry.NutritionInfo)
	if !ok {
		s.log.Info("nutrition text did not match template", zap.String("entry_id", entry.ID))
	}
	return &utils.ParsedEntry{FoodEntry: *entry, Nutrition: n, NutritionParsed: ok}, nil
}

// List returns entries in [from, to), newest first. Zero bounds are open.
func (s *FoodEntryService) List(ctx context.Context, userID string, from, to time.Time) ([]utils.ParsedEntry, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, fmt.Errorf("from must be before to: %w", ErrInvalidInput)
	}
	entries, err := s.foods.List(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}
	out := make([]utils.ParsedEntry, 0, len(entries))
	for _, e := range entries {
		n, ok := s.parse(e.NutritionInfo)
		out = append(out, utils.ParsedEntry{FoodEntry: e, Nutrition: n, NutritionParsed: ok})
	}
	return out, nil
}

func (s *FoodEntryService) Delete(ctx context.Context, userID, id string) error {
	if err := s.foods.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("food entry %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete food entry: %w", err)
	}
	s.publish(userID)
	return nil
}

// Log is the whole history grouped by day, newest first.
func (s *FoodEntryService) Log(ctx context.Context, userID string) ([]utils.LogDay, error) {
	loc, err := s.loc.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.foods.List(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}
	days := utils.GroupLog(entries, loc, s.parse)
	if days == nil {
		days = []utils.LogDay{}
	}
	return days, nil
}

func (s *FoodEntryService) publish(userID string) {
	if s.feed != nil {
		s.feed.Publish(userID, EntriesChanged)
	}
}
