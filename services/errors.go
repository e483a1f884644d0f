package services

import (
	"errors"

	"nutrilog/repository"
	"nutrilog/utils"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = repository.ErrNotFound
	ErrInvalidInput    = errors.New("invalid input")
	ErrGoalNotSet      = utils.ErrGoalNotSet
	// ErrUpstream wraps failures of Gemini, the classifier or AWS.
	ErrUpstream = errors.New("upstream service failed")
)
