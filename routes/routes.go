package routes

import (
	"path/filepath"
	"rewards-dashboard/config"
	"rewards-dashboard/controllers"
	"rewards-dashboard/dashboard"
	"rewards-dashboard/middleware"
	"rewards-dashboard/notify"
	"rewards-dashboard/session"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/swaggo/swag"
)

// Services are the long-lived components the handlers work with.
type Services struct {
	Session     *session.Container
	Preferences *session.Preferences
	Hub         *notify.Hub
	Auth        *dashboard.AuthFlow
	Rewards     *dashboard.RewardsManager
	Requests    *dashboard.RequestsQueue
	Stats       *dashboard.Stats
}

func SetupRoutes(app *fiber.App, cfg *config.Config, svc *Services) {

	// Controllers
	authController := controllers.NewAuthController(cfg, svc.Auth, svc.Session)
	rewardsController := controllers.NewRewardsManagementController(svc.Rewards, svc.Hub)
	requestsController := controllers.NewRewardRequestsController(svc.Requests, svc.Hub)
	dashboardController := controllers.NewDashboardController(svc.Stats, svc.Hub)
	preferencesController := controllers.NewPreferencesController(svc.Preferences)
	notificationController := controllers.NewNotificationController(svc.Hub)

	authRequired := middleware.AuthMiddleware(cfg, svc.Session)

	api := app.Group("/api")

	// Health check
	api.Get("/health", func(c fiber.Ctx) error {
		state := svc.Session.Get()
		return c.JSON(fiber.Map{
			"Aplication":    cfg.AppName,
			"Version":       "1.0.0",
			"message":       "Health check successful",
			"status":        "ok",
			"sessionLoaded": !state.IsLoading,
			"Time":          time.Now().Format("02-01-2006 15:04:05"),
		})
	})

	// API Documentation routes
	app.Get("/docs/doc.json", func(c fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "API documentation unavailable")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.SendString(doc)
	})

	// Swagger UI HTML page
	app.Get("/docs", func(c fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <meta name="description" content="SwaggerUI" />
  <title>Rewards Dashboard API - Swagger UI</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '/docs/doc.json',
      dom_id: '#swagger-ui',
    });
  };
</script>
</body>
</html>`
		c.Set("Content-Type", "text/html")
		return c.SendString(html)
	})

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/request-otp", authController.RequestOTP)
	auth.Post("/verify-otp", authController.VerifyOTP)
	auth.Post("/back", authController.BackToPhone)
	auth.Get("/session", authController.GetSession)
	auth.Post("/logout", authRequired, authController.Logout)

	// Preferences and notifications (public)
	api.Get("/preferences/language", preferencesController.GetLanguage)
	api.Put("/preferences/language", preferencesController.SetLanguage)
	api.Get("/notifications", notificationController.GetNotifications)

	// Rewards management routes
	rewards := api.Group("/rewards-management", authRequired)
	rewards.Get("/", rewardsController.GetRewards)
	rewards.Post("/", rewardsController.CreateReward)
	rewards.Get("/stats", rewardsController.GetPageStats)
	rewards.Patch("/filters", rewardsController.UpdateFilters)
	rewards.Post("/filters/reset", rewardsController.ResetFilters)
	rewards.Post("/filters/clear", rewardsController.ClearFilters)
	rewards.Get("/export", rewardsController.ExportRewards)
	rewards.Put("/bulk-update", rewardsController.BulkUpdateRewards)
	rewards.Post("/bulk-activate", rewardsController.BulkActivateRewards)
	rewards.Post("/bulk-deactivate", rewardsController.BulkDeactivateRewards)
	rewards.Delete("/bulk-delete", rewardsController.BulkDeleteRewards)
	rewards.Get("/:id", rewardsController.GetReward)
	rewards.Put("/:id", rewardsController.UpdateReward)
	rewards.Delete("/:id", rewardsController.DeleteReward)
	rewards.Patch("/:id/status", rewardsController.ToggleRewardStatus)
	rewards.Get("/:id/analytics", rewardsController.GetRewardAnalytics)

	// Reward requests routes
	requests := api.Group("/reward-requests", authRequired)
	requests.Get("/", requestsController.GetRequests)
	requests.Patch("/filters", requestsController.UpdateFilters)
	requests.Post("/filters/reset", requestsController.ResetFilters)
	requests.Post("/filters/clear", requestsController.ClearFilters)
	requests.Get("/search", requestsController.SearchRequests)
	requests.Get("/paginated", requestsController.GetPaginatedRequests)
	requests.Put("/bulk-status", requestsController.BulkUpdateStatus)
	requests.Get("/:id", requestsController.GetRequest)
	requests.Put("/:id/status", requestsController.UpdateStatus)
	requests.Put("/:id/status/optimistic", requestsController.UpdateStatusOptimistic)

	// Dashboard routes
	dash := api.Group("/dashboard", authRequired)
	dash.Get("/stats", dashboardController.GetStats)
	dash.Get("/status-counts", dashboardController.GetStatusCounts)
	dash.Get("/categories", dashboardController.GetCategories)
	dash.Get("/overview", dashboardController.GetOverview)
	dash.Post("/refresh-cache", dashboardController.RefreshCache)
	dash.Post("/focus", dashboardController.Focus)

	// Pages
	SetupPages(app, cfg, svc.Session)
}

// SetupPages serves the browser UI behind the page guards.
func SetupPages(app *fiber.App, cfg *config.Config, sess middleware.SessionReader) {
	index := filepath.Join(cfg.WebDir, "index.html")
	page := func(c fiber.Ctx) error {
		return c.SendFile(index)
	}

	app.Get("/", middleware.RootRedirect(sess))
	app.Get("/auth", middleware.PageGuard(sess, middleware.PageGuestOnly), page)
	app.Get("/rewards", middleware.PageGuard(sess, middleware.PageProtected), page)
	// The misspelled path is the one the UI links to.
	app.Get("/rewards-managment", middleware.PageGuard(sess, middleware.PageProtected), page)
	app.Get("/assets*", static.New(filepath.Join(cfg.WebDir, "assets")))
}
