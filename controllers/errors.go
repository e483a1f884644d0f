package controllers

import (
	"errors"
	"net/http"

	"nutrilog/middlewares"
	"nutrilog/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors to status codes. Store and unknown errors
// are logged and answered with a generic message.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, services.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": "the AI service is unavailable, please try again"})
	default:
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("user_id", middlewares.UserID(c)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
	}
}

// requireUser writes 401 and returns false when no user is authenticated.
func requireUser(c *gin.Context) (string, bool) {
	uid := middlewares.UserID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return uid, true
}
