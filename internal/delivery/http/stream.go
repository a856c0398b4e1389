package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vehicletrack/backend/internal/domain"
)

const keepAliveInterval = 15 * time.Second

// StreamPlayback pushes playback frames as Server-Sent Events. The stream
// ends after the frame that finishes a session.
func (h *Handler) StreamPlayback(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// Slow readers drop frames instead of stalling the playback timer
	frames := make(chan domain.PlaybackFrame, 32)
	unsubscribe := h.view.SubscribeFrames(func(f domain.PlaybackFrame) {
		select {
		case frames <- f:
		default:
		}
	})
	snapshot := h.view.Playback()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		if err := writeEvent(w, "snapshot", snapshot); err != nil {
			return
		}

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		for {
			select {
			case f := <-frames:
				if err := writeEvent(w, "frame", f); err != nil {
					slog.Debug("Playback stream closed", "error", err)
					return
				}
				if f.Done {
					return
				}
			case <-keepAlive.C:
				if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}

func writeEvent(w *bufio.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
