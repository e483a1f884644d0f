package services

import (
	"context"
	"fmt"
	"time"

	"nutrilog/models"
	"nutrilog/repository"
	"nutrilog/utils"
)

type BMIService struct {
	records repository.BMIRepository
	now     func() time.Time
}

func NewBMIService(records repository.BMIRepository) *BMIService {
	return &BMIService{records: records, now: time.Now}
}

type BMIInput struct {
	HeightCm float64 `json:"height_cm" binding:"required"`
	WeightKg float64 `json:"weight_kg" binding:"required"`
}

// Record computes the BMI and appends it to the user's history.
func (s *BMIService) Record(ctx context.Context, userID string, in BMIInput) (*models.BMIRecord, error) {
	bmi, err := utils.CalculateBMI(in.HeightCm, in.WeightKg)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	rec := &models.BMIRecord{
		UserID:   userID,
		BMI:      bmi,
		Category: utils.BMICategory(bmi),
		Date:     s.now(),
	}
	if err := s.records.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("save bmi record: %w", err)
	}
	return rec, nil
}

// History is oldest first.
func (s *BMIService) History(ctx context.Context, userID string) ([]models.BMIRecord, error) {
	out, err := s.records.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bmi records: %w", err)
	}
	if out == nil {
		out = []models.BMIRecord{}
	}
	return out, nil
}
