package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadpilot/config"
	controller "leadpilot/controllers"
	"leadpilot/middleware"
	"leadpilot/scraper"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Google OAuth routes
	auth.Get("/google", controller.GoogleOAuth)
	auth.Get("/google/callback", controller.GoogleOAuthCallback)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Get("/me", controller.GetCurrentUser)

	// Payment routes
	payment := app.Group("/payment")
	payment.Get("/plans", controller.GetPlans)
	payment.Post("/create-intent", middleware.Protected(), controller.CreatePaymentIntent)
	payment.Post("/webhook", controller.HandlePaymentWebhook)

	logrus.Info("Authentication routes initialized")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize controllers with their respective loggers
	var leadScraper controller.LeadScraper
	if config.AppConfig.ApifyAPIToken != "" {
		leadScraper = scraper.NewClient(
			config.AppConfig.ApifyBaseURL,
			config.AppConfig.ApifyAPIToken,
			config.AppConfig.ApifyActorID,
			logrus.WithField("component", "scraper"),
		)
	}

	searchController := controller.NewSearchController(db, leadScraper, logrus.WithField("component", "search"))
	affiliateController := controller.NewAffiliateController(db, logrus.WithField("component", "affiliate"))
	teamController := controller.NewTeamController(db, logrus.WithField("component", "team"))
	settingsController := controller.NewSettingsController(db, logrus.WithField("component", "settings"))

	// Public referral redirect, counted per click
	app.Get("/r/:code", affiliateController.TrackReferralClick)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Search routes with per-user rate limiting
	api.Post("/search", middleware.SearchRateLimiter(), searchController.SearchLeads)
	api.Get("/search/history", searchController.GetSearchHistory)
	api.Get("/search/history/:id/export", searchController.ExportSearchHistory)

	// Affiliate routes
	affiliate := api.Group("/affiliate")
	affiliate.Post("/link", affiliateController.CreateAffiliateLink)
	affiliate.Get("/stats", affiliateController.GetAffiliateStats)

	// Team routes
	team := api.Group("/team")
	team.Post("/invite", teamController.InviteTeamMember)
	team.Get("/members", teamController.GetTeamMembers)
	team.Delete("/members/:id", teamController.RemoveTeamMember)

	// Settings routes
	api.Get("/settings", settingsController.GetSettings)
	api.Put("/settings", settingsController.UpdateSettings)

	logrus.Info("API routes initialized")
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize Stripe and Google OAuth
	controller.InitStripe()
	controller.InitGoogleOAuth()

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
