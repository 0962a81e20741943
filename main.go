package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"rewards-dashboard/config"
	"rewards-dashboard/dashboard"
	_ "rewards-dashboard/docs" // Registers the swagger spec
	"rewards-dashboard/gateway"
	"rewards-dashboard/logger"
	"rewards-dashboard/notify"
	"rewards-dashboard/querycache"
	"rewards-dashboard/routes"
	"rewards-dashboard/scheduler"
	"rewards-dashboard/services"
	"rewards-dashboard/session"
	"rewards-dashboard/storage"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// @title Rewards Dashboard API
// @version 1.0
// @description Store rewards dashboard: OTP login, reward catalog management and the reward request queue.

// @contact.name API Support

// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// matchOriginPattern checks if an origin matches a pattern with one wildcard
func matchOriginPattern(pattern, origin string) bool {
	if !strings.Contains(pattern, "*") {
		return false
	}

	parts := strings.Split(pattern, "*")
	if len(parts) != 2 {
		return false
	}

	return strings.HasPrefix(origin, parts[0]) && strings.HasSuffix(origin, parts[1])
}

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	pflag.Parse()

	// Load .env file
	envErr := godotenv.Load(*envFile)

	// Load configuration
	cfg := config.LoadConfig()
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Component("main")
	if envErr != nil {
		log.WithField("file", *envFile).Warn("env file not found, using environment variables")
	}

	// Persisted client storage
	store, err := storage.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open client storage")
	}

	// Notifications, gateway and adapters
	hub := notify.NewHub(50)
	api := gateway.New(gateway.Options{
		BaseURL:  cfg.BackendURL,
		Timeout:  cfg.BackendTimeout,
		Tokens:   storage.TokenSource{Storage: store},
		Notifier: hub,
		Logger:   logger.Component("gateway"),
	})
	authService := services.NewAuthService(api, logger.Component("services.auth"))
	requestService := services.NewRewardRequestService(api, logger.Component("services.requests"))
	rewardService := services.NewRewardManagementService(api, logger.Component("services.rewards"))

	// Session state
	sess := session.NewContainer(store, logger.Component("session"))
	prefs := session.NewPreferences(store)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sess.Rehydrate(ctx); err != nil {
			log.WithError(err).Warn("session rehydration failed, starting signed out")
		}
		if err := prefs.Load(ctx); err != nil {
			log.WithError(err).Warn("failed to load preferences")
		}
	}()

	// Query cache and domain services
	cache := querycache.New(querycache.WithLogger(logger.Component("querycache")))
	queries := dashboard.NewQueries(cache, rewardService, requestService, logger.Component("dashboard"))
	stats := dashboard.NewStats(queries, sess)

	svc := &routes.Services{
		Session:     sess,
		Preferences: prefs,
		Hub:         hub,
		Auth:        dashboard.NewAuthFlow(authService, sess, cache, logger.Component("auth")),
		Rewards:     dashboard.NewRewardsManager(queries, sess, dashboard.DefaultFilters()),
		Requests:    dashboard.NewRequestsQueue(queries, sess, dashboard.DefaultFilters()),
		Stats:       stats,
	}

	// Clear cached reads when the store changes
	var storeMu sync.Mutex
	lastStore := ""
	sess.Subscribe(func(s session.State) {
		current := ""
		if s.Store != nil {
			current = s.Store.ID
		}
		storeMu.Lock()
		defer storeMu.Unlock()
		if current != lastStore {
			cache.Clear()
			lastStore = current
		}
	})

	statsScheduler := scheduler.NewStatsScheduler(stats, logger.Component("scheduler"), cfg.StatsRefreshSpec, time.Minute)
	if err := statsScheduler.Start(); err != nil {
		log.WithError(err).Fatal("failed to start stats scheduler")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
		AppName:      cfg.AppName,
		ServerHeader: "Fiber",
		Immutable:    true,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(helmet.New())

	corsConfig := cors.Config{
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "Content-Disposition"},
		MaxAge:        86400, // 24 hours
	}

	// If origins contain wildcard, don't use credentials
	if len(cfg.CorsOrigins) == 1 && cfg.CorsOrigins[0] == "*" {
		corsConfig.AllowOrigins = []string{"*"}
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOriginsFunc = func(origin string) bool {
			for _, allowedOrigin := range cfg.CorsOrigins {
				if origin == allowedOrigin || matchOriginPattern(allowedOrigin, origin) {
					return true
				}
			}
			return false
		}
		corsConfig.AllowCredentials = true
	}

	app.Use(cors.New(corsConfig))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 60 * time.Second,
	}))

	// Setup routes
	routes.SetupRoutes(app, cfg, svc)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		statsScheduler.Stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("server shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"backend": cfg.BackendURL,
		"storage": cfg.StorageDriver,
	}).Info("server ready")
	log.Infof("Health check: %s/api/health", cfg.AppUrl)
	log.Infof("API documentation: %s/docs", cfg.AppUrl)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
