package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vehicletrack/backend/internal/config"
	"github.com/vehicletrack/backend/internal/delivery/http"
	"github.com/vehicletrack/backend/internal/domain"
	"github.com/vehicletrack/backend/internal/logging"
	"github.com/vehicletrack/backend/internal/repository/postgres"
	"github.com/vehicletrack/backend/internal/service"
)

func main() {
	// Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.Init(os.Stdout, cfg.LogLevel)

	// Database connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var locationRepo service.LocationRepository
	pool, err := connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Warn("Could not connect to database, running with demo data only", "error", err)
		locationRepo = postgres.NewDemoRepository(cfg.VehicleID, time.Now(), cfg.DemoDays)
	} else {
		defer pool.Close()
		repo := postgres.NewPostgresRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			slog.Error("Schema migration failed", "error", err)
			os.Exit(1)
		}
		locationRepo = repo
		slog.Info("Connected to PostgreSQL")
	}

	// Dependency Injection: Services
	locationSvc := service.NewLocationService(locationRepo, cfg.VehicleID, cfg.LiveWindow)
	loader := service.NewTrackLoader(cfg.LocationServiceURL, cfg.LoadTimeout)
	scheduler := service.NewTickerScheduler()
	player := service.NewPlaybackController(scheduler)
	view := service.NewTrackView(service.ViewConfig{
		Mode:         domain.ViewMode(cfg.ViewMode),
		VehicleLabel: cfg.VehicleLabel,
		APIKey:       cfg.MapsAPIKey,
		Zoom:         cfg.DefaultZoom,
		PollInterval: cfg.PollInterval,
		InitialSpeed: cfg.InitialSpeed,
	}, loader, player, scheduler)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "VehicleTrack API v1.0",
		ReadTimeout:  10 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, locationSvc, view)

	// The location service may be this process; mount once it is listening
	http.MountOnListen(app, view, cfg.LoadTimeout)

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	view.Close()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		slog.Warn("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exited gracefully")
}

var errNoDatabase = errors.New("DATABASE_URL not set")

// connect opens and pings a pool; an empty URL means no database.
func connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, errNoDatabase
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
