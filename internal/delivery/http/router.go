package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vehicletrack/backend/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, locations *service.LocationService, view *service.TrackView) {
	handler := NewHandler(locations, view)

	// Health check
	app.Get("/health", handler.HealthCheck)

	// Location service endpoints
	app.Get("/vehicle-location", handler.GetVehicleLocation)
	app.Get("/vehicle-location/live", handler.GetLiveLocation)
	app.Post("/vehicle-location", handler.RecordLocation)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Map view
		api.Get("/view", handler.GetView)
		api.Get("/view/path", handler.GetPath)
		api.Put("/view/date", handler.SelectDate)
		api.Post("/view/refresh", handler.Refresh)
		api.Put("/view/speed", handler.SetSpeed)
		api.Post("/view/info-window", handler.ToggleInfoWindow)

		// Playback
		api.Get("/playback", handler.GetPlayback)
		api.Post("/playback", handler.StartPlayback)
		api.Delete("/playback", handler.StopPlayback)
		api.Get("/playback/stream", handler.StreamPlayback)
	}
}

// ErrorHandler renders errors as {"error": true, "message": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

// MountOnListen mounts the view once app has bound its socket. Hooks run
// before the server starts accepting, so the mount runs in the background.
func MountOnListen(app *fiber.App, view *service.TrackView, timeout time.Duration) {
	app.Hooks().OnListen(func(data fiber.ListenData) error {
		slog.Info("Server listening", "host", data.Host, "port", data.Port)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := view.Mount(ctx); err != nil {
				slog.Error("Failed to mount track view", "error", err)
			}
		}()
		return nil
	})
}
