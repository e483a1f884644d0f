package routes

import (
	"net/http"
	"time"

	"nutrilog/controllers"
	"nutrilog/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers is everything the router mounts.
type Handlers struct {
	User      *controllers.UserController
	Food      *controllers.FoodController
	Goals     *controllers.GoalController
	Analytics *controllers.AnalyticsController
	Streak    *controllers.StreakController
	BMI       *controllers.BMIController
	Chat      *controllers.ChatController
	Devices   *controllers.DeviceController
	Realtime  *controllers.RealtimeController
	Dev       *controllers.DevController // nil in production
}

type Options struct {
	JWTSecret   string
	CORSOrigins []string
	AILimiter   *middlewares.UserRateLimiter
	Metrics     *middlewares.HTTPMetrics
	Log         *zap.Logger
}

func SetupRouter(h Handlers, opt Options) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.ZapRecovery(opt.Log), middlewares.ZapLogger(opt.Log))
	if opt.Metrics != nil {
		r.Use(opt.Metrics.Middleware())
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opt.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middlewares.AuthMiddleware(opt.JWTSecret)
	ai := func(c *gin.Context) { c.Next() }
	if opt.AILimiter != nil {
		ai = opt.AILimiter.Middleware()
	}

	user := r.Group("/user", auth)
	{
		user.GET("/profile", h.User.GetProfile)
		user.PUT("/profile", h.User.UpdateProfile)
		user.POST("/notifications/toggle", h.Devices.ToggleNotifications)
	}

	food := r.Group("/food", auth)
	{
		food.POST("/entries", ai, h.Food.CreateEntry)
		food.GET("/entries", h.Food.ListEntries)
		food.DELETE("/entries/:id", h.Food.DeleteEntry)
		food.GET("/log", h.Food.FoodLog)
		food.GET("/facts", ai, h.Food.Facts)
	}

	goals := r.Group("/goals", auth)
	{
		goals.GET("", h.Goals.Get)
		goals.PUT("", h.Goals.Upsert)
		goals.GET("/progress", h.Goals.Progress)
	}

	analytics := r.Group("/analytics", auth)
	{
		analytics.GET("/summary", h.Analytics.Summary)
		analytics.GET("/series", h.Analytics.Series)
		analytics.GET("/breakdown", h.Analytics.Breakdown)
	}

	streak := r.Group("/streak", auth)
	{
		streak.GET("", h.Streak.Summary)
		streak.GET("/heatmap", h.Streak.Heatmap)
		streak.GET("/monthly", h.Streak.Monthly)
	}

	bmi := r.Group("/bmi", auth)
	{
		bmi.POST("", h.BMI.Record)
		bmi.GET("/history", h.BMI.History)
	}

	r.POST("/chat", auth, ai, h.Chat.Ask)
	r.POST("/devices", auth, h.Devices.Register)
	r.GET("/realtime/ws", auth, h.Realtime.ChangesWS)

	if h.Dev != nil {
		dev := r.Group("/dev", auth)
		{
			dev.POST("/push", h.Dev.PushTest)
			dev.POST("/reminders/run", h.Dev.RunReminders)
		}
	}

	return r
}
