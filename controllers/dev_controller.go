package controllers

import (
	"net/http"

	"nutrilog/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DevController exposes helpers that are only routed outside production.
type DevController struct {
	Push      *services.PushService
	Reminders *services.ReminderService
	Log       *zap.Logger
}

func NewDevController(p *services.PushService, r *services.ReminderService, log *zap.Logger) *DevController {
	return &DevController{Push: p, Reminders: r, Log: log}
}

type pushReq struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// POST /dev/push
func (d *DevController) PushTest(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req pushReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == "" {
		req.Title = "Test reminder"
	}
	if req.Body == "" {
		req.Body = "This is only a test."
	}
	if req.Data == nil {
		req.Data = map[string]string{"type": "test"}
	}

	sent, err := d.Push.PushToUser(c.Request.Context(), uid, req.Title, req.Body, req.Data)
	if err != nil {
		respondError(c, d.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "sent": sent})
}

// POST /dev/reminders/run
func (d *DevController) RunReminders(c *gin.Context) {
	run, err := d.Reminders.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, d.Log, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
