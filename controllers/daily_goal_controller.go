package controllers

import (
	"net/http"

	"nutrilog/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GoalController struct {
	Goals *services.DailyGoalService
	Log   *zap.Logger
}

func NewGoalController(gs *services.DailyGoalService, log *zap.Logger) *GoalController {
	return &GoalController{Goals: gs, Log: log}
}

// GET /goals?date=YYYY-MM-DD
func (gc *GoalController) Get(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	g, err := gc.Goals.Get(c.Request.Context(), uid, c.Query("date"))
	if err != nil {
		respondError(c, gc.Log, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// PUT /goals?date=YYYY-MM-DD
func (gc *GoalController) Upsert(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.GoalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	g, err := gc.Goals.Upsert(c.Request.Context(), uid, c.Query("date"), in)
	if err != nil {
		respondError(c, gc.Log, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// GET /goals/progress?date=YYYY-MM-DD
func (gc *GoalController) Progress(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	p, err := gc.Goals.Progress(c.Request.Context(), uid, c.Query("date"))
	if err != nil {
		respondError(c, gc.Log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
