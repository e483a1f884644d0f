package services

import (
	"context"
	"errors"
	"time"

	"nutrilog/repository"
	"nutrilog/utils"
)

// locator resolves the calendar a user's days are counted in.
type locator struct {
	users    repository.UserRepository
	fallback *time.Location
}

func (l locator) userLocation(ctx context.Context, userID string) (*time.Location, error) {
	fallback := l.fallback
	if fallback == nil {
		fallback = time.Local
	}
	if l.users == nil {
		return fallback, nil
	}
	u, err := l.users.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return nil, err
	}
	return utils.LoadLocation(u.Timezone, fallback), nil
}
