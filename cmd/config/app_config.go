package config

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"Food-Rescue-Hub/internal/api/handlers"
	"Food-Rescue-Hub/internal/api/routes"
	"Food-Rescue-Hub/internal/metrics"
	"Food-Rescue-Hub/internal/middleware"
	"Food-Rescue-Hub/internal/utils"
	"Food-Rescue-Hub/internal/utils/cache"
	"Food-Rescue-Hub/internal/utils/mailing"
	"Food-Rescue-Hub/internal/utils/storage"
	"Food-Rescue-Hub/pkg/donation"
	"Food-Rescue-Hub/pkg/jwt"
	"Food-Rescue-Hub/pkg/notification"
	"Food-Rescue-Hub/pkg/stats"
	"Food-Rescue-Hub/pkg/user"
	"Food-Rescue-Hub/pkg/volunteer"
)

// Dependencies overrides the infrastructure NewApp would otherwise build from
// configuration. Zero fields fall back to the configured defaults.
type Dependencies struct {
	Sink             notification.Sink
	Cache            cache.Cache
	Storage          storage.AwsS3
	Metrics          *metrics.Metrics
	JWTService       jwt.JWTService
	LogOutput        io.Writer
	DisableRateLimit bool
}

// NewApp wires the HTTP application. The returned shutdown func drains the
// notification queue and must be called once the server has stopped.
func NewApp(db *gorm.DB, deps Dependencies) (*fiber.App, func(), error) {
	utils.InitValidator()
	if deps.JWTService == nil {
		jwtService, err := jwt.NewJWTService()
		if err != nil {
			return nil, nil, err
		}
		deps.JWTService = jwtService
	}

	app := fiber.New(fiber.Config{
		EnablePrintRoutes: deps.LogOutput == nil,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	output := deps.LogOutput
	if output == nil {
		file, err := openLogFile()
		if err != nil {
			return nil, nil, err
		}
		output = file
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Jakarta",
		Output:     output,
	}))

	if !deps.DisableRateLimit {
		app.Use(limiter.New(limiter.Config{
			Max:        10,
			Expiration: 1 * time.Second,
		}))
	}

	// utils
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Sink == nil {
		deps.Sink = newSink()
	}
	if deps.Cache == nil {
		deps.Cache = cache.New(context.Background(), utils.GetConfig("REDIS_URL"))
	}
	if deps.Storage == nil {
		deps.Storage = storage.NewAwsS3()
	}
	dispatcher := notification.NewDispatcher(
		deps.Sink,
		utils.GetConfigInt("NOTIFY_WORKERS", notification.DefaultWorkers),
		utils.GetConfigInt("NOTIFY_QUEUE_SIZE", notification.DefaultQueueSize),
		deps.Metrics,
	)

	// Repository
	userRepository := user.NewUserRepository(db)
	donationRepository := donation.NewDonationRepository(db)
	statsRepository := stats.NewStatsRepository(db)

	// Service
	userService := user.NewUserService(userRepository, deps.JWTService, deps.Sink, utils.GetConfigOr("APP_URL", "http://localhost:3000"))
	statsService := stats.NewStatsService(
		statsRepository,
		deps.Cache,
		utils.GetConfigDuration("STATS_CACHE_TTL", stats.DefaultCacheTTL),
		deps.Metrics,
	)
	donationService := donation.NewDonationService(donationRepository, donation.Options{
		Storage:          deps.Storage,
		Notifier:         dispatcher,
		Views:            statsService,
		Metrics:          deps.Metrics,
		CoordinatorEmail: utils.GetConfig("VOLUNTEER_COORDINATOR_EMAIL"),
	})
	volunteerService := volunteer.NewVolunteerService(deps.Sink, utils.GetConfig("VOLUNTEER_ADMIN_EMAIL"))

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	donationHandler := handlers.NewDonationHandler(donationService, validator)
	statsHandler := handlers.NewStatsHandler(statsService)
	volunteerHandler := handlers.NewVolunteerHandler(volunteerService, validator)

	// routes
	routesConfig := routes.Config{
		App:              app,
		UserHandler:      userHandler,
		DonationHandler:  donationHandler,
		StatsHandler:     statsHandler,
		VolunteerHandler: volunteerHandler,
		Middleware:       middlewares,
		JWTService:       deps.JWTService,
		Metrics:          deps.Metrics,
	}
	routesConfig.Setup()

	return app, dispatcher.Close, nil
}

func openLogFile() (*os.File, error) {
	if err := os.MkdirAll("./logs", os.ModePerm); err != nil {
		log.Errorf("error creating logs directory: %v", err)
		return nil, err
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Errorf("error opening file: %v", err)
		return nil, err
	}
	return file, nil
}

// newSink mails through SMTP when it is configured and only logs otherwise.
func newSink() notification.Sink {
	mailConfig := mailing.LoadMailConfig()
	if mailConfig.SMTPHost == "" {
		log.Warn("SMTP_HOST not set, notifications are logged only")
		return notification.NewLogSink()
	}
	return notification.NewMailSink(mailing.NewMailer(mailConfig))
}
