package repository

import (
	"context"
	"errors"
	"time"

	"nutrilog/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewGormStore wraps an open gorm connection.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:     &gormUsers{db: db},
		Foods:     &gormFoods{db: db},
		Goals:     &gormGoals{db: db},
		BMI:       &gormBMI{db: db},
		Devices:   &gormDevices{db: db},
		Reminders: &gormReminders{db: db},
		migrate: func(ctx context.Context) error {
			return db.WithContext(ctx).AutoMigrate(
				&models.User{},
				&models.FoodEntry{},
				&models.DailyGoal{},
				&models.BMIRecord{},
				&models.UserDevice{},
				&models.Reminder{},
			)
		},
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type gormUsers struct{ db *gorm.DB }

func (r *gormUsers) Upsert(ctx context.Context, u *models.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "date_of_birth", "timezone", "updated_at"}),
		}).
		Create(u).Error
}

func (r *gormUsers) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *gormUsers) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := r.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

type gormFoods struct{ db *gorm.DB }

func (r *gormFoods) Create(ctx context.Context, e *models.FoodEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *gormFoods) List(ctx context.Context, userID string, from, to time.Time) ([]models.FoodEntry, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !from.IsZero() {
		q = q.Where("logged_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("logged_at < ?", to)
	}
	var out []models.FoodEntry
	err := q.Order("logged_at DESC").Find(&out).Error
	return out, err
}

func (r *gormFoods) Timestamps(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	q := r.db.WithContext(ctx).Model(&models.FoodEntry{}).Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("logged_at >= ?", since)
	}
	var out []time.Time
	err := q.Order("logged_at DESC").Pluck("logged_at", &out).Error
	return out, err
}

func (r *gormFoods) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.FoodEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormGoals struct{ db *gorm.DB }

func (r *gormGoals) Upsert(ctx context.Context, g *models.DailyGoal) error {
	g.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			UpdateAll: true,
		}).
		Create(g).Error
}

func (r *gormGoals) Get(ctx context.Context, userID, day string) (*models.DailyGoal, error) {
	var g models.DailyGoal
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		First(&g).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

type gormBMI struct{ db *gorm.DB }

func (r *gormBMI) Append(ctx context.Context, rec *models.BMIRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *gormBMI) List(ctx context.Context, userID string) ([]models.BMIRecord, error) {
	var out []models.BMIRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&out).Error
	return out, err
}

type gormDevices struct{ db *gorm.DB }

func (r *gormDevices) Upsert(ctx context.Context, d *models.UserDevice) (*models.UserDevice, error) {
	db := r.db.WithContext(ctx)
	now := time.Now()

	var existing models.UserDevice
	err := db.Where("user_id = ? AND token_hash = ?", d.UserID, d.TokenHash).First(&existing).Error
	if err == nil {
		existing.EndpointARN = d.EndpointARN
		existing.Platform = d.Platform
		existing.UpdatedAt = now
		if err := db.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Enabled = true
	d.CreatedAt, d.UpdatedAt = now, now
	if err := db.Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

func (r *gormDevices) ListEnabled(ctx context.Context, userID string) ([]models.UserDevice, error) {
	var out []models.UserDevice
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND enabled = ?", userID, true).
		Find(&out).Error
	return out, err
}

func (r *gormDevices) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	return r.db.WithContext(ctx).
		Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Update("enabled", enabled).Error
}

type gormReminders struct{ db *gorm.DB }

func (r *gormReminders) MarkSent(ctx context.Context, rem *models.Reminder) (bool, error) {
	if rem.SentAt.IsZero() {
		rem.SentAt = time.Now()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rem)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
