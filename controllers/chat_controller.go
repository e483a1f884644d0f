package controllers

import (
	"net/http"

	"nutrilog/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatController struct {
	Svc *services.ChatService
	Log *zap.Logger
}

func NewChatController(s *services.ChatService, log *zap.Logger) *ChatController {
	return &ChatController{Svc: s, Log: log}
}

type chatReq struct {
	Question string `json:"question" binding:"required"`
}

// POST /chat
func (cc *ChatController) Ask(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	out, err := cc.Svc.Ask(c.Request.Context(), uid, req.Question)
	if err != nil {
		respondError(c, cc.Log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
