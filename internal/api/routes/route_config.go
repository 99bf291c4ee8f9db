package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Food-Rescue-Hub/internal/api/handlers"
	"Food-Rescue-Hub/internal/metrics"
	"Food-Rescue-Hub/internal/middleware"
	"Food-Rescue-Hub/pkg/jwt"
)

type Config struct {
	App              *fiber.App
	UserHandler      handlers.UserHandler
	DonationHandler  handlers.DonationHandler
	StatsHandler     handlers.StatsHandler
	VolunteerHandler handlers.VolunteerHandler
	Middleware       middleware.Middleware
	JWTService       jwt.JWTService
	Metrics          *metrics.Metrics
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Auth()
	c.Donations()
	c.Volunteer()
	c.GuestRoute()
}

func (c *Config) Auth() {
	auth := c.App.Group("/api/auth")
	{
		auth.Post("/register", c.UserHandler.Register)
		auth.Post("/login", c.UserHandler.Login)
		auth.Post("/send-otp", c.UserHandler.SendOTP)
		auth.Post("/reset-password", c.UserHandler.ResetPassword)
		auth.Post("/send-verify", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.SendVerificationEmail)
		auth.Get("/verify", c.UserHandler.VerifyEmail)
		auth.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Me)
		auth.Put("/profile", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.UpdateProfile)
	}
}

// Donations registers the fixed paths before "/:id" so they are not captured
// as ids.
func (c *Config) Donations() {
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	donations := c.App.Group("/api/donations")

	donations.Post("", auth, c.DonationHandler.CreateDonation)
	donations.Get("", c.DonationHandler.GetDonations)

	donations.Get("/my-claims", auth, c.DonationHandler.GetMyClaims)
	donations.Get("/me/stats", auth, c.StatsHandler.GetDonorStats)
	donations.Get("/leaderboard", c.StatsHandler.GetLeaderboard)
	donations.Get("/activity/recent", c.StatsHandler.GetRecentActivity)

	donations.Get("/:id", c.DonationHandler.GetDonationByID)
	donations.Post("/:id/image", auth, c.DonationHandler.UploadDonationImage)
	donations.Post("/:id/claim", auth, c.DonationHandler.ClaimDonation)
	donations.Post("/:id/confirm", auth, c.DonationHandler.ConfirmDonation)
	donations.Post("/:id/collected", auth, c.DonationHandler.MarkCollected)
	donations.Delete("/:id", auth, c.DonationHandler.DeleteDonation)
}

func (c *Config) Volunteer() {
	c.App.Post("/api/volunteer/submit", c.VolunteerHandler.Submit)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	if c.Metrics != nil {
		c.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(c.Metrics.Registry, promhttp.HandlerOpts{})))
	}
}
