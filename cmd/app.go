package main

import (
	"context"
	"time"

	"nutrilog/config"
	"nutrilog/controllers"
	"nutrilog/middlewares"
	"nutrilog/repository"
	"nutrilog/routes"
	"nutrilog/services"
	"nutrilog/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// app holds the wired services of one process.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *repository.Store

	parser    utils.NutrientParser
	feed      *services.ChangeFeed
	hub       *services.RealtimeHub
	gemini    *services.GeminiService
	foods     *services.FoodEntryService
	goals     *services.DailyGoalService
	analytics *services.AnalyticsService
	streak    *services.StreakService
	bmi       *services.BMIService
	chat      *services.ChatService
	users     *services.UserService
	push      *services.PushService
	reminders *services.ReminderService
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	store, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	awsCfg, err := utils.LoadAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		_ = store.Close(context.Background())
		return nil, err
	}

	defaultTZ := utils.LoadLocation(cfg.DefaultTimezone, time.Local)
	parser := utils.ParserForMode(cfg.NutritionParseMode)
	feed := services.NewChangeFeed()
	gemini := services.NewGeminiService(services.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel), log.Named("gemini"))

	var estimator services.NutritionEstimator = gemini
	if cfg.Estimator == "edamam" {
		estimator = services.NewEdamamEstimator(cfg.EdamamAppID, cfg.EdamamAppKey, log.Named("edamam"))
	}

	var classifier services.ImageClassifier
	switch cfg.Classifier {
	case "http":
		classifier = services.NewHTTPClassifier(cfg.ClassifierURL)
	default:
		classifier = services.NewRekognitionClassifier(awsCfg)
	}
	var uploader services.ImageUploader
	if cfg.S3Bucket != "" {
		s3Cfg := awsCfg.Copy()
		if cfg.S3Region != "" {
			s3Cfg.Region = cfg.S3Region
		}
		uploader = utils.NewS3Uploader(s3Cfg, cfg.S3Bucket, cfg.CloudFrontURL)
	}
	var mailer services.Emailer
	if cfg.SESEmail != "" {
		mailer = utils.NewMailer(awsCfg, cfg.SESEmail)
	}

	push := services.NewPushService(store.Devices, awsCfg, cfg.SNSFCMArn, cfg.SNSAPNSArn, log.Named("push"))
	hub := services.NewRealtimeHub(feed, log.Named("realtime"))

	return &app{
		cfg:    cfg,
		log:    log,
		store:  store,
		parser: parser,
		feed:   feed,
		hub:    hub,
		gemini: gemini,
		foods: services.NewFoodEntryService(services.FoodEntryDeps{
			Foods:      store.Foods,
			Users:      store.Users,
			Estimator:  estimator,
			Classifier: classifier,
			Uploader:   uploader,
			Feed:       feed,
			Parser:     parser,
			DefaultTZ:  defaultTZ,
			Log:        log.Named("food"),
		}),
		goals:     services.NewDailyGoalService(store.Goals, store.Foods, store.Users, feed, parser, defaultTZ, log.Named("goals")),
		analytics: services.NewAnalyticsService(store.Foods, store.Users, parser, defaultTZ),
		streak:    services.NewStreakService(store.Foods, store.Users, defaultTZ),
		bmi:       services.NewBMIService(store.BMI),
		chat:      services.NewChatService(store.Foods, gemini),
		users:     services.NewUserService(store.Users),
		push:      push,
		reminders: services.NewReminderService(store, push, mailer, hub, defaultTZ, log.Named("reminders")),
	}, nil
}

func (a *app) router() *gin.Engine {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := routes.Handlers{
		User:      controllers.NewUserController(a.users, a.log),
		Food:      controllers.NewFoodController(a.foods, a.gemini, a.parser, a.log),
		Goals:     controllers.NewGoalController(a.goals, a.log),
		Analytics: controllers.NewAnalyticsController(a.analytics, a.log),
		Streak:    controllers.NewStreakController(a.streak, a.log),
		BMI:       controllers.NewBMIController(a.bmi, a.log),
		Chat:      controllers.NewChatController(a.chat, a.log),
		Devices:   controllers.NewDeviceController(a.push, a.log),
		Realtime:  controllers.NewRealtimeController(a.hub, a.cfg.Origins()),
	}
	if !a.cfg.IsProduction() {
		h.Dev = controllers.NewDevController(a.push, a.reminders, a.log)
	}
	return routes.SetupRouter(h, routes.Options{
		JWTSecret:   a.cfg.JWTSecret,
		CORSOrigins: a.cfg.Origins(),
		AILimiter:   middlewares.NewUserRateLimiter(a.cfg.AIRatePerMinute),
		Metrics:     middlewares.NewHTTPMetrics(),
		Log:         a.log,
	})
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.Close(ctx); err != nil {
		a.log.Warn("closing store", zap.Error(err))
	}
}
