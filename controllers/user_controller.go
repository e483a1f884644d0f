package controllers

import (
	"net/http"

	"nutrilog/middlewares"
	"nutrilog/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserController struct {
	Users *services.UserService
	Log   *zap.Logger
}

func NewUserController(us *services.UserService, log *zap.Logger) *UserController {
	return &UserController{Users: us, Log: log}
}

// GET /user/profile
func (uc *UserController) GetProfile(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	p, err := uc.Users.Get(c.Request.Context(), uid)
	if err != nil {
		respondError(c, uc.Log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /user/profile
func (uc *UserController) UpdateProfile(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	p, err := uc.Users.Upsert(c.Request.Context(), uid, middlewares.Email(c), in)
	if err != nil {
		respondError(c, uc.Log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
