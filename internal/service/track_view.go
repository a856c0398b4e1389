package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/vehicletrack/backend/internal/domain"
	"github.com/vehicletrack/backend/pkg/utils"
)

var (
	// ErrViewClosed is returned by operations on a torn-down view.
	ErrViewClosed = errors.New("view: closed")
	// ErrModeMismatch is returned when an operation does not apply to the view mode.
	ErrModeMismatch = errors.New("view: operation not available in this mode")
)

// DefaultPollInterval is the live polling cadence.
const DefaultPollInterval = 5 * time.Second

// ViewConfig holds the static view settings
type ViewConfig struct {
	Mode         domain.ViewMode
	VehicleLabel string
	APIKey       string
	Zoom         int
	PollInterval time.Duration
	InitialDate  domain.DateRange
	InitialSpeed float64
}

// TrackView binds the loaded track and playback state to the declarative
// map payload. Every load carries a sequence number and only the most
// recently issued load may apply its result; results arriving after Close
// are discarded.
type TrackView struct {
	cfg    ViewConfig
	source TrackSource
	player *PlaybackController
	sched  Scheduler

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	closed      bool
	seq         uint64
	track       domain.Track
	start, end  *domain.GeoPoint
	center      domain.GeoPoint
	current     domain.GeoPoint
	heading     float64
	date        domain.DateRange
	speed       float64
	infoOpen    bool
	status      domain.LoadStatus
	session     string
	stopPoll    func()
	unsubscribe func()
}

// NewTrackView creates a view and subscribes it to the player's frames.
func NewTrackView(cfg ViewConfig, source TrackSource, player *PlaybackController, sched Scheduler) *TrackView {
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeHistory
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.InitialDate == "" {
		cfg.InitialDate = domain.Today
	}
	if cfg.InitialSpeed < domain.MinSpeed || cfg.InitialSpeed > domain.MaxSpeed {
		cfg.InitialSpeed = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	v := &TrackView{
		cfg:     cfg,
		source:  source,
		player:  player,
		sched:   sched,
		ctx:     ctx,
		cancel:  cancel,
		center:  domain.DefaultCenter,
		current: domain.DefaultCenter,
		date:    cfg.InitialDate,
		speed:   cfg.InitialSpeed,
		status:  domain.LoadStatus{State: domain.LoadIdle},
	}
	v.unsubscribe = player.Subscribe(v.onFrame)
	return v
}

// Mount performs the initial load and, in live mode, starts polling.
// A failed initial load is reported in the view status, not returned.
func (v *TrackView) Mount(ctx context.Context) error {
	if err := v.Refresh(ctx); errors.Is(err, ErrViewClosed) {
		return err
	}
	if v.cfg.Mode == domain.ModeLive {
		return v.StartPolling()
	}
	return nil
}

// SelectDate replaces the history selection and reloads the track.
func (v *TrackView) SelectDate(ctx context.Context, d domain.DateRange) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	if v.cfg.Mode != domain.ModeHistory {
		v.mu.Unlock()
		return ErrModeMismatch
	}
	v.date = d
	v.mu.Unlock()

	return v.load(ctx)
}

// Refresh reloads the current selection, or the live data in live mode.
func (v *TrackView) Refresh(ctx context.Context) error {
	return v.load(ctx)
}

// StartPolling schedules a live load every poll interval, replacing any
// previous poll task.
func (v *TrackView) StartPolling() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrViewClosed
	}
	if v.cfg.Mode != domain.ModeLive {
		return ErrModeMismatch
	}
	if v.stopPoll != nil {
		v.stopPoll()
	}
	v.stopPoll = v.sched.Repeat(v.cfg.PollInterval, func() {
		// failures are logged and reflected in the status
		_ = v.load(v.ctx)
	})
	slog.Info("TrackView: polling started", "interval", v.cfg.PollInterval)
	return nil
}

func (v *TrackView) load(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	v.seq++
	seq := v.seq
	mode, date := v.cfg.Mode, v.date
	v.status = domain.LoadStatus{State: domain.LoadLoading}
	v.mu.Unlock()

	// Abort the fetch on teardown as well as on caller cancellation
	reqCtx, cancel := context.WithCancel(v.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		track domain.Track
		err   error
	)
	if mode == domain.ModeLive {
		track, err = v.source.LoadLive(reqCtx)
	} else {
		track, err = v.source.Load(reqCtx, date)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		slog.Debug("TrackView: discarding result after teardown", "seq", seq)
		return ErrViewClosed
	}
	if seq != v.seq {
		slog.Debug("TrackView: discarding stale result", "seq", seq, "latest", v.seq)
		return nil
	}
	if err != nil {
		v.status = domain.LoadStatus{State: domain.LoadFailed, Error: err.Error()}
		slog.Error("Error fetching vehicle location", "mode", mode, "date", date, "error", err)
		return err
	}

	v.applyLocked(track)
	return nil
}

// applyLocked replaces the track wholesale. Callers hold v.mu.
func (v *TrackView) applyLocked(track domain.Track) {
	if len(track) == 0 {
		v.track = nil
		v.start, v.end = nil, nil
		v.center = domain.DefaultCenter
		v.current = domain.DefaultCenter
		v.heading = 0
		v.status = domain.LoadStatus{State: domain.LoadEmpty}
		return
	}

	v.track = track
	v.start, v.end = track.Start(), track.End()
	v.center = *v.start
	if v.cfg.Mode == domain.ModeLive {
		v.current = *v.end
	} else {
		v.current = *v.start
	}
	v.heading = 0
	v.status = domain.LoadStatus{State: domain.LoadReady}
}

func (v *TrackView) onFrame(f domain.PlaybackFrame) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || f.Session != v.session || f.Done {
		return
	}
	v.current = f.Position
	v.heading = f.Heading
}

// SetSpeed updates the speed input. A running session keeps its period;
// the new value applies from the next StartPlayback.
func (v *TrackView) SetSpeed(speed float64) error {
	if math.IsNaN(speed) || speed < domain.MinSpeed || speed > domain.MaxSpeed {
		return fmt.Errorf("%w: must be between %.1f and %.0f", ErrInvalidSpeed, domain.MinSpeed, domain.MaxSpeed)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	v.speed = speed
	return nil
}

// StartPlayback replays the current track at the current speed input.
func (v *TrackView) StartPlayback() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return "", ErrViewClosed
	}
	session, err := v.player.Start(v.track, v.speed)
	if err != nil {
		return "", err
	}
	v.session = session
	slog.Info("TrackView: playback started", "session", session, "points", len(v.track), "speed", v.speed)
	return session, nil
}

// StopPlayback cancels the running session
func (v *TrackView) StopPlayback() bool {
	return v.player.Stop()
}

// ToggleInfoWindow flips the info window and returns the new state.
func (v *TrackView) ToggleInfoWindow() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.infoOpen = !v.infoOpen
	return v.infoOpen
}

// SubscribeFrames forwards playback frames to fn
func (v *TrackView) SubscribeFrames(fn func(domain.PlaybackFrame)) func() {
	return v.player.Subscribe(fn)
}

// Playback returns the controller snapshot
func (v *TrackView) Playback() domain.PlaybackSnapshot {
	return v.player.Snapshot()
}

// Close tears the view down: polling and playback stop, in-flight loads are
// cancelled and their results ignored. Close is idempotent.
func (v *TrackView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	if v.stopPoll != nil {
		v.stopPoll()
		v.stopPoll = nil
	}
	v.unsubscribe()
	v.cancel()
	v.mu.Unlock()

	v.player.Stop()
	slog.Info("TrackView: closed")
}

// View builds the declarative map payload.
func (v *TrackView) View() domain.MapView {
	playback := v.player.Snapshot()

	v.mu.Lock()
	defer v.mu.Unlock()

	view := domain.MapView{
		Center: v.center,
		Zoom:   v.cfg.Zoom,
		APIKey: v.cfg.APIKey,
		Path:   append([]domain.GeoPoint{}, v.track...),
		PathStyle: domain.PathStyle{
			StrokeColor:  domain.PathColor,
			StrokeWeight: domain.PathWeight,
		},
		Markers:  v.markersLocked(),
		Controls: v.controlsLocked(),
		Status:   v.status,
		Playback: playback,
	}

	if v.infoOpen {
		view.InfoWindow = &domain.InfoWindow{
			Position:        v.current,
			Title:           v.cfg.VehicleLabel,
			DistanceKm:      utils.RoundTo(v.travelledLocked(playback)/1000, 2),
			TotalDistanceKm: utils.RoundTo(v.track.Length()/1000, 2),
		}
	}

	return view
}

// travelledLocked is the path length up to the vehicle marker. After a tick
// the marker sits on track[Index-1] while Index already names the next point.
func (v *TrackView) travelledLocked(playback domain.PlaybackSnapshot) float64 {
	if playback.Session != "" && playback.Session == v.session && playback.Position != nil {
		return v.track.LengthUpTo(playback.Index - 1)
	}
	if v.cfg.Mode == domain.ModeLive {
		return v.track.Length()
	}
	return 0
}

func (v *TrackView) markersLocked() []domain.Marker {
	icon := func(url string, rotation float64) domain.Icon {
		return domain.Icon{URL: url, Width: domain.MarkerIconSize, Height: domain.MarkerIconSize, Rotation: rotation}
	}

	markers := []domain.Marker{}
	if v.start != nil {
		markers = append(markers, domain.Marker{Kind: domain.MarkerStart, Position: *v.start, Icon: icon(domain.StartIconURL, 0)})
	}
	if v.end != nil {
		markers = append(markers, domain.Marker{Kind: domain.MarkerEnd, Position: *v.end, Icon: icon(domain.EndIconURL, 0)})
	}
	if len(v.track) > 0 {
		markers = append(markers, domain.Marker{Kind: domain.MarkerVehicle, Position: v.current, Icon: icon(domain.VehicleIconURL, v.heading)})
	}
	return markers
}

func (v *TrackView) controlsLocked() domain.Controls {
	options := make([]domain.ControlOption, 0, len(domain.DateRanges))
	for _, d := range domain.DateRanges {
		options = append(options, domain.ControlOption{Value: d, Label: d.Label()})
	}
	return domain.Controls{
		Mode:         v.cfg.Mode,
		SelectedDate: v.date,
		DateOptions:  options,
		Speed:        v.speed,
		SpeedMin:     domain.MinSpeed,
		SpeedStep:    domain.SpeedStep,
	}
}

// PathGeoJSON returns the path and its endpoints as a feature collection.
func (v *TrackView) PathGeoJSON() *geojson.FeatureCollection {
	v.mu.Lock()
	defer v.mu.Unlock()

	fc := geojson.NewFeatureCollection()
	if len(v.track) == 0 {
		return fc
	}

	line := geojson.NewFeature(v.track.LineString())
	line.Properties["stroke"] = domain.PathColor
	line.Properties["stroke-width"] = domain.PathWeight
	line.Properties["length_m"] = utils.RoundTo(v.track.Length(), 1)
	fc.Append(line)

	for _, m := range []struct {
		kind domain.MarkerKind
		p    *domain.GeoPoint
	}{{domain.MarkerStart, v.start}, {domain.MarkerEnd, v.end}} {
		f := geojson.NewFeature(m.p.Orb())
		f.Properties["kind"] = string(m.kind)
		fc.Append(f)
	}
	return fc
}
