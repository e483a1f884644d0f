package controllers

import (
	"net/http"
	"strconv"

	"nutrilog/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StreakController struct {
	Svc *services.StreakService
	Log *zap.Logger
}

func NewStreakController(s *services.StreakService, log *zap.Logger) *StreakController {
	return &StreakController{Svc: s, Log: log}
}

// GET /streak
func (sc *StreakController) Summary(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := sc.Svc.Summary(c.Request.Context(), uid)
	if err != nil {
		respondError(c, sc.Log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /streak/heatmap?days=364
func (sc *StreakController) Heatmap(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	days := 0
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = n
	}
	out, err := sc.Svc.Heatmap(c.Request.Context(), uid, days)
	if err != nil {
		respondError(c, sc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": out})
}

// GET /streak/monthly
func (sc *StreakController) Monthly(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := sc.Svc.Monthly(c.Request.Context(), uid)
	if err != nil {
		respondError(c, sc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": out})
}
