package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"nutrilog/models"
	"nutrilog/repository"
	"nutrilog/utils"
)

type UserService struct {
	users repository.UserRepository
	now   func() time.Time
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users, now: time.Now}
}

type ProfileInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Birthday string `json:"birthday"` // YYYY-MM-DD
	Timezone string `json:"timezone"` // IANA, e.g. "Asia/Colombo"
}

type Profile struct {
	models.User
	Birthday string `json:"birthday,omitempty"`
	Age      int    `json:"age,omitempty"`
}

func calculateAge(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func (s *UserService) profile(u *models.User) *Profile {
	p := &Profile{User: *u}
	if !u.DateOfBirth.IsZero() {
		p.Birthday = u.DateOfBirth.Format(utils.DayLayout)
		p.Age = calculateAge(u.DateOfBirth, s.now())
	}
	return p
}

func (s *UserService) Get(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("profile: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return s.profile(u), nil
}

// Upsert creates the profile on first save and overwrites it afterwards.
func (s *UserService) Upsert(ctx context.Context, userID, tokenEmail string, in ProfileInput) (*Profile, error) {
	u := &models.User{
		ID:    userID,
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
	}
	if u.Email == "" {
		u.Email = tokenEmail
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return nil, fmt.Errorf("invalid email: %w", ErrInvalidInput)
		}
	}
	if in.Birthday != "" {
		dob, err := time.Parse(utils.DayLayout, in.Birthday)
		if err != nil {
			return nil, fmt.Errorf("birthday must be YYYY-MM-DD: %w", ErrInvalidInput)
		}
		if dob.After(s.now()) {
			return nil, fmt.Errorf("birthday is in the future: %w", ErrInvalidInput)
		}
		u.DateOfBirth = dob
	}
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", in.Timezone, ErrInvalidInput)
		}
		u.Timezone = in.Timezone
	}

	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return s.profile(u), nil
}
