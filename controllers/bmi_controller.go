package controllers

import (
	"net/http"

	"nutrilog/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BMIController struct {
	Svc *services.BMIService
	Log *zap.Logger
}

func NewBMIController(s *services.BMIService, log *zap.Logger) *BMIController {
	return &BMIController{Svc: s, Log: log}
}

// POST /bmi {"height_cm": 175, "weight_kg": 70}
func (bc *BMIController) Record(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.BMIInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "height_cm and weight_kg are required"})
		return
	}
	rec, err := bc.Svc.Record(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, bc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// GET /bmi/history
func (bc *BMIController) History(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := bc.Svc.History(c.Request.Context(), uid)
	if err != nil {
		respondError(c, bc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": out})
}
