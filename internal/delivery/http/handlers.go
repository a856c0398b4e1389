package http

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/vehicletrack/backend/internal/domain"
	"github.com/vehicletrack/backend/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	locations *service.LocationService
	view      *service.TrackView
	validate  *validator.Validate
}

// NewHandler creates a new handler
func NewHandler(locations *service.LocationService, view *service.TrackView) *Handler {
	return &Handler{
		locations: locations,
		view:      view,
		validate:  validator.New(),
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	if err := h.locations.Health(c.UserContext()); err != nil {
		slog.Warn("Health check failed", "error", err)
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":  status,
		"service": "vehicletrack-backend",
		"version": "1.0.0",
	})
}

// GetVehicleLocation returns the recorded track for a date range
func (h *Handler) GetVehicleLocation(c *fiber.Ctx) error {
	date := domain.DateRange(c.Query("date", string(domain.Today)))

	samples, err := h.locations.History(c.UserContext(), date)
	if errors.Is(err, domain.ErrUnknownDateRange) {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown date range")
	}
	if err != nil {
		slog.Error("Failed to fetch location history", "date", date, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch vehicle location")
	}

	return c.JSON(samples)
}

// GetLiveLocation returns the most recent positions
func (h *Handler) GetLiveLocation(c *fiber.Ctx) error {
	samples, err := h.locations.Live(c.UserContext())
	if err != nil {
		slog.Error("Failed to fetch live location", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch live location")
	}

	return c.JSON(samples)
}

// RecordLocation ingests a single position sample
func (h *Handler) RecordLocation(c *fiber.Ctx) error {
	var rec domain.LocationRecord
	if err := c.BodyParser(&rec); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(rec); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	saved, err := h.locations.Record(c.UserContext(), rec)
	if err != nil {
		slog.Error("Failed to record location", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to record location")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    saved,
	})
}

// GetView returns the declarative map payload
func (h *Handler) GetView(c *fiber.Ctx) error {
	return c.JSON(h.view.View())
}

// GetPath returns the loaded path as GeoJSON
func (h *Handler) GetPath(c *fiber.Ctx) error {
	body, err := h.view.PathGeoJSON().MarshalJSON()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to encode path")
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(body)
}

type selectDateRequest struct {
	Date domain.DateRange `json:"date" validate:"required"`
}

// SelectDate changes the history selection and reloads the track
func (h *Handler) SelectDate(c *fiber.Ctx) error {
	var req selectDateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.view.SelectDate(c.UserContext(), req.Date); err != nil {
		if resp := viewError(err); resp != nil {
			return resp
		}
		// Load failures are reported through the view status
	}

	return c.JSON(h.view.View())
}

// Refresh reloads the current selection
func (h *Handler) Refresh(c *fiber.Ctx) error {
	if err := h.view.Refresh(c.UserContext()); err != nil {
		if resp := viewError(err); resp != nil {
			return resp
		}
	}
	return c.JSON(h.view.View())
}

type speedRequest struct {
	Speed float64 `json:"speed" validate:"gte=0.1,lte=100"`
}

// SetSpeed updates the playback speed input
func (h *Handler) SetSpeed(c *fiber.Ctx) error {
	var req speedRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Speed must be between 0.1 and 100")
	}

	if err := h.view.SetSpeed(req.Speed); err != nil {
		if resp := viewError(err); resp != nil {
			return resp
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"speed":   req.Speed,
	})
}

// ToggleInfoWindow opens or closes the vehicle popup
func (h *Handler) ToggleInfoWindow(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"open":    h.view.ToggleInfoWindow(),
	})
}

// StartPlayback starts replaying the loaded track
func (h *Handler) StartPlayback(c *fiber.Ctx) error {
	session, err := h.view.StartPlayback()
	if err != nil {
		if resp := viewError(err); resp != nil {
			return resp
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"session": session,
	})
}

// StopPlayback cancels the running session
func (h *Handler) StopPlayback(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"stopped": h.view.StopPlayback(),
	})
}

// GetPlayback returns the playback snapshot
func (h *Handler) GetPlayback(c *fiber.Ctx) error {
	return c.JSON(h.view.Playback())
}

func viewError(err error) error {
	switch {
	case errors.Is(err, service.ErrViewClosed):
		return fiber.NewError(fiber.StatusServiceUnavailable, "View is closed")
	case errors.Is(err, service.ErrModeMismatch):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return nil
}
