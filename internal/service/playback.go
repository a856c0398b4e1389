package service

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vehicletrack/backend/internal/domain"
	"github.com/vehicletrack/backend/pkg/utils"
)

// ErrInvalidSpeed is returned when a playback speed factor is not positive.
var ErrInvalidSpeed = errors.New("playback: speed factor must be positive")

// basePeriod is the tick period at speed factor 1.
const basePeriod = time.Second

// PlaybackController replays a track by stepping an index on a timer.
// At most one playback session is live at any time.
type PlaybackController struct {
	sched Scheduler

	mu       sync.Mutex
	track    domain.Track
	state    domain.PlaybackState
	position *domain.GeoPoint
	heading  float64
	stop     func()

	subMu   sync.RWMutex
	subs    map[int]func(domain.PlaybackFrame)
	nextSub int
}

// NewPlaybackController creates a controller driven by sched
func NewPlaybackController(sched Scheduler) *PlaybackController {
	return &PlaybackController{
		sched: sched,
		subs:  make(map[int]func(domain.PlaybackFrame)),
	}
}

// Start begins a new session at index 0, cancelling any live session first.
// The tick period is one second divided by speedFactor and is fixed for the
// life of the session.
func (c *PlaybackController) Start(track domain.Track, speedFactor float64) (string, error) {
	if !(speedFactor > 0) || math.IsInf(speedFactor, 1) {
		return "", ErrInvalidSpeed
	}
	// a period that truncates to zero cannot drive a ticker
	period := time.Duration(float64(basePeriod) / speedFactor)
	if period <= 0 {
		return "", ErrInvalidSpeed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()

	session := uuid.NewString()
	c.track = append(domain.Track(nil), track...)
	c.state = domain.PlaybackState{
		Session:     session,
		Index:       0,
		SpeedFactor: speedFactor,
		Running:     true,
	}
	c.position = nil
	c.heading = 0

	c.stop = c.sched.Repeat(period, func() { c.tick(session) })

	slog.Debug("Playback: session started", "session", session, "points", len(track), "period", period)
	return session, nil
}

// Stop cancels the live session, if any. The last position stays visible.
// It reports whether a session was running.
func (c *PlaybackController) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	running := c.state.Running
	c.cancelLocked()
	return running
}

// cancelLocked invalidates the current timer handle. Callers hold c.mu.
func (c *PlaybackController) cancelLocked() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	c.state.Running = false
}

func (c *PlaybackController) tick(session string) {
	c.mu.Lock()
	if !c.state.Running || c.state.Session != session {
		c.mu.Unlock()
		return
	}

	var frame domain.PlaybackFrame
	i := c.state.Index
	if i < len(c.track)-1 {
		p, next := c.track[i], c.track[i+1]
		c.position = &p
		c.heading = utils.Heading(p.Latitude, p.Longitude, next.Latitude, next.Longitude)
		c.state.Index++

		frame = domain.PlaybackFrame{Session: session, Index: i, Position: p, Heading: c.heading}
	} else {
		c.cancelLocked()
		frame = domain.PlaybackFrame{Session: session, Index: i, Heading: c.heading, Done: true}
		if c.position != nil {
			frame.Position = *c.position
		}
		slog.Debug("Playback: session finished", "session", session, "index", i)
	}
	c.mu.Unlock()

	c.publish(frame)
}

// Snapshot returns a copy of the current playback state.
func (c *PlaybackController) Snapshot() domain.PlaybackSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subMu.RLock()
	listeners := len(c.subs)
	c.subMu.RUnlock()

	snap := domain.PlaybackSnapshot{
		PlaybackState: c.state,
		Heading:       c.heading,
		Length:        len(c.track),
		Listeners:     listeners,
	}
	if c.position != nil {
		p := *c.position
		snap.Position = &p
	}
	return snap
}

// Subscribe registers fn for every published frame. Frames are delivered on
// the timer goroutine; fn must not block.
func (c *PlaybackController) Subscribe(fn func(domain.PlaybackFrame)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *PlaybackController) publish(frame domain.PlaybackFrame) {
	c.subMu.RLock()
	fns := make([]func(domain.PlaybackFrame), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range fns {
		fn(frame)
	}
}
