package controllers

import (
	"net/http"
	"time"

	"nutrilog/services"
	"nutrilog/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FoodController struct {
	Entries *services.FoodEntryService
	AI      *services.GeminiService
	Parser  utils.NutrientParser
	Log     *zap.Logger
}

func NewFoodController(fs *services.FoodEntryService, ai *services.GeminiService, parse utils.NutrientParser, log *zap.Logger) *FoodController {
	return &FoodController{Entries: fs, AI: ai, Parser: parse, Log: log}
}

// parseTimeParam accepts RFC3339 or YYYY-MM-DD (midnight UTC).
func parseTimeParam(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(utils.DayLayout, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// POST /food/entries
func (fc *FoodController) CreateEntry(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.CreateFoodEntryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}
	entry, err := fc.Entries.Create(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, fc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// GET /food/entries?from=&to=
func (fc *FoodController) ListEntries(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	from, okFrom := parseTimeParam(c.Query("from"))
	to, okTo := parseTimeParam(c.Query("to"))
	if !okFrom || !okTo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be RFC3339 or YYYY-MM-DD"})
		return
	}
	out, err := fc.Entries.List(c.Request.Context(), uid, from, to)
	if err != nil {
		respondError(c, fc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

// DELETE /food/entries/:id
func (fc *FoodController) DeleteEntry(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if err := fc.Entries.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		respondError(c, fc.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /food/log
func (fc *FoodController) FoodLog(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	days, err := fc.Entries.Log(c.Request.Context(), uid)
	if err != nil {
		respondError(c, fc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

// GET /food/facts?q=apple
func (fc *FoodController) Facts(c *gin.Context) {
	facts, err := fc.AI.NutritionFacts(c.Request.Context(), c.Query("q"), fc.Parser)
	if err != nil {
		respondError(c, fc.Log, err)
		return
	}
	c.JSON(http.StatusOK, facts)
}
