package controllers

import (
	"net/http"
	"strconv"

	"nutrilog/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalyticsController struct {
	Svc *services.AnalyticsService
	Log *zap.Logger
}

func NewAnalyticsController(s *services.AnalyticsService, log *zap.Logger) *AnalyticsController {
	return &AnalyticsController{Svc: s, Log: log}
}

// GET /analytics/summary?window=today|7d|30d
func (ac *AnalyticsController) Summary(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := ac.Svc.Summary(c.Request.Context(), uid, c.Query("window"))
	if err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /analytics/series?nutrient=calories&window=7d&includeEmpty=true
func (ac *AnalyticsController) Series(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	includeEmpty := false
	if v := c.Query("includeEmpty"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "includeEmpty must be true or false"})
			return
		}
		includeEmpty = b
	}
	out, err := ac.Svc.Series(c.Request.Context(), uid, c.Query("nutrient"), c.DefaultQuery("window", "7d"), includeEmpty)
	if err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /analytics/breakdown
func (ac *AnalyticsController) Breakdown(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := ac.Svc.Breakdown(c.Request.Context(), uid)
	if err != nil {
		respondError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
