package controllers

import (
	"net/http"

	"nutrilog/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DeviceController struct {
	Push *services.PushService
	Log  *zap.Logger
}

func NewDeviceController(ps *services.PushService, log *zap.Logger) *DeviceController {
	return &DeviceController{Push: ps, Log: log}
}

// POST /devices {"platform": "android", "token": "..."}
func (dc *DeviceController) Register(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req services.RegisterDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform and token are required"})
		return
	}
	dev, err := dc.Push.RegisterDevice(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, dc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": dev.ID, "endpoint_arn": dev.EndpointARN})
}

type toggleReq struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// POST /user/notifications/toggle
func (dc *DeviceController) ToggleNotifications(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req toggleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := dc.Push.SetNotifications(c.Request.Context(), uid, *req.Enabled); err != nil {
		respondError(c, dc.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "notifications updated",
		"enabled": *req.Enabled,
	})
}
