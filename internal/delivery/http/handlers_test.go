package http

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vehicletrack/backend/internal/domain"
	"github.com/vehicletrack/backend/internal/repository/postgres"
	"github.com/vehicletrack/backend/internal/service"
)

type stubSource struct {
	track domain.Track
}

func (s *stubSource) Load(ctx context.Context, d domain.DateRange) (domain.Track, error) {
	return s.track, nil
}

func (s *stubSource) LoadLive(ctx context.Context) (domain.Track, error) {
	return s.track, nil
}

func setupApp(t *testing.T, track domain.Track) *fiber.App {
	t.Helper()
	app, _ := setupAppWithView(t, track)
	return app
}

func setupAppWithView(t *testing.T, track domain.Track) (*fiber.App, *service.TrackView) {
	t.Helper()

	locations := service.NewLocationService(postgres.NewMockRepository(), "car-1", 10*time.Minute)
	sched := service.NewTickerScheduler()
	view := service.NewTrackView(service.ViewConfig{Zoom: 8}, &stubSource{track: track}, service.NewPlaybackController(sched), sched)
	t.Cleanup(view.Close)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, locations, view)
	return app, view
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthCheck(t *testing.T) {
	app := setupApp(t, nil)
	resp, body := do(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestVehicleLocation_RecordAndQuery(t *testing.T) {
	app := setupApp(t, nil)

	resp, _ := do(t, app, http.MethodPost, "/vehicle-location", `{"latitude": 17.4, "longitude": 78.5}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := do(t, app, http.MethodGet, "/vehicle-location?date=today", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var samples []domain.LocationSample
	require.NoError(t, json.Unmarshal(body, &samples))
	require.Len(t, samples, 1)
	assert.Equal(t, 17.4, samples[0].Latitude)
	assert.Equal(t, 78.5, samples[0].Longitude)

	resp, body = do(t, app, http.MethodGet, "/vehicle-location/live", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &samples))
	assert.Len(t, samples, 1)

	// Missing parameter falls back to today
	resp, body = do(t, app, http.MethodGet, "/vehicle-location", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &samples))
	assert.Len(t, samples, 1)
}

func TestVehicleLocation_EmptyIsArray(t *testing.T) {
	app := setupApp(t, nil)
	resp, body := do(t, app, http.MethodGet, "/vehicle-location?date=previous_month", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestVehicleLocation_BadInput(t *testing.T) {
	app := setupApp(t, nil)

	resp, body := do(t, app, http.MethodGet, "/vehicle-location?date=last_year", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), `"error":true`)

	resp, _ = do(t, app, http.MethodPost, "/vehicle-location", `{"latitude": 95, "longitude": 0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/vehicle-location", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestView_SelectDateAndPath(t *testing.T) {
	track := domain.Track{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}}
	app := setupApp(t, track)

	resp, body := do(t, app, http.MethodPut, "/api/v1/view/date", `{"date": "this_week"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view domain.MapView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, domain.ThisWeek, view.Controls.SelectedDate)
	assert.Equal(t, []domain.GeoPoint(track), view.Path)
	assert.Equal(t, track[0], view.Center)
	assert.Equal(t, domain.LoadReady, view.Status.State)
	assert.Len(t, view.Markers, 3)

	resp, body = do(t, app, http.MethodGet, "/api/v1/view/path", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), `"LineString"`)

	resp, _ = do(t, app, http.MethodPut, "/api/v1/view/date", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestView_SpeedAndInfoWindow(t *testing.T) {
	app := setupApp(t, nil)

	resp, _ := do(t, app, http.MethodPut, "/api/v1/view/speed", `{"speed": 2.5}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/api/v1/view/speed", `{"speed": 0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/api/v1/view/speed", `{"speed": 1e10}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, app, http.MethodPost, "/api/v1/view/info-window", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"open":true`)

	_, body = do(t, app, http.MethodGet, "/api/v1/view", "")
	var view domain.MapView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, 2.5, view.Controls.Speed)
	assert.NotNil(t, view.InfoWindow)
}

func TestPlayback_StartStop(t *testing.T) {
	track := domain.Track{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}, {Latitude: 5, Longitude: 6}}
	app := setupApp(t, track)
	do(t, app, http.MethodPost, "/api/v1/view/refresh", "")

	resp, body := do(t, app, http.MethodPost, "/api/v1/playback", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Contains(t, string(body), `"session"`)

	_, body = do(t, app, http.MethodGet, "/api/v1/playback", "")
	var snap domain.PlaybackSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.True(t, snap.Running)
	assert.Equal(t, len(track), snap.Length)

	resp, body = do(t, app, http.MethodDelete, "/api/v1/playback", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"stopped":true`)
}

type sseEvent struct {
	name string
	data string
}

func parseEvents(body string) []sseEvent {
	var events []sseEvent
	for _, block := range strings.Split(body, "\n\n") {
		var ev sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			}
		}
		if ev.name != "" {
			events = append(events, ev)
		}
	}
	return events
}

func TestPlayback_Stream(t *testing.T) {
	track := domain.Track{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}, {Latitude: 5, Longitude: 6}}
	app, view := setupAppWithView(t, track)
	do(t, app, http.MethodPost, "/api/v1/view/refresh", "")
	require.NoError(t, view.SetSpeed(domain.MaxSpeed))

	// Keep replaying short sessions until the stream has seen one finish
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if _, err := view.StartPlayback(); err != nil {
				return
			}
			time.Sleep(100 * time.Millisecond)
		}
	}()
	t.Cleanup(func() {
		close(stop)
		wg.Wait()
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/playback/stream", nil)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	events := parseEvents(string(data))
	require.GreaterOrEqual(t, len(events), 2)

	assert.Equal(t, "snapshot", events[0].name)
	var snap domain.PlaybackSnapshot
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &snap))
	assert.Equal(t, 2, snap.Listeners, "view binding plus this stream")

	last := events[len(events)-1]
	assert.Equal(t, "frame", last.name)
	var frame domain.PlaybackFrame
	require.NoError(t, json.Unmarshal([]byte(last.data), &frame))
	assert.True(t, frame.Done)
	assert.NotEmpty(t, frame.Session)

	_, body := do(t, app, http.MethodGet, "/api/v1/playback", "")
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, 1, snap.Listeners, "stream unsubscribed on return")
}

func TestMountOnListen(t *testing.T) {
	track := domain.Track{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}}
	app, view := setupAppWithView(t, track)
	MountOnListen(app, view, time.Second)
	assert.Equal(t, domain.LoadIdle, view.View().Status.State)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	assert.Eventually(t, func() bool {
		return view.View().Status.State == domain.LoadReady
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, track[0], view.View().Center)
}
