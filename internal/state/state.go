// Package state provides thread-safe state management for the application.
package state

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/scene"
	"github.com/litescript/ls-skydome/internal/simclock"
	"github.com/litescript/ls-skydome/internal/trajectory"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventRise              EventType = "RISE"
	EventSet               EventType = "SET"
	EventTwilight          EventType = "TWILIGHT"
	EventTrajectory        EventType = "TRAJECTORY"
	EventTrajectoryCleared EventType = "TRAJECTORY_CLEARED"
)

// Event represents a change noticed between two frames.
type Event struct {
	Type    EventType `json:"type"`
	JD      float64   `json:"jd"`
	SimTime time.Time `json:"sim_time"`
	Body    string    `json:"body,omitempty"`
	Azimuth float64   `json:"azimuth,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// ErrUnknownBody is returned when a name matches nothing in the sky.
var ErrUnknownBody = errors.New("unknown body")

// TimeSeries is a single data point with timestamp.
type TimeSeries struct {
	JD    float64
	Value float64
}

// AltitudeHistory tracks recent altitudes for one body.
type AltitudeHistory struct {
	Name    string
	Samples []TimeSeries
}

// Manager handles all shared application state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	engine   *scene.Engine
	clock    *simclock.Clock
	observer astro.Observer
	paused   bool

	// Current state
	frame         *scene.Frame
	lastTick      time.Time
	frameDuration time.Duration
	lastError     error

	// Previous visibility for event detection
	prevUp       map[string]bool
	prevTwilight astro.Twilight

	// Altitude history for tracked bodies
	history    map[string]*AltitudeHistory
	maxHistory int
	tracked    []string

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	trajectories *trajectory.Set
	window       trajectory.Window
}

// Config holds configuration for the state manager.
type Config struct {
	MaxHistory int
	MaxEvents  int
	Window     trajectory.Window
	Tracked    []string // bodies whose altitude history is kept
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistory: 120,
		MaxEvents:  50,
		Window:     trajectory.DefaultWindow(),
		Tracked:    []string{"Sun", "Moon"},
	}
}

// NewManager creates a new state manager and computes the first frame.
func NewManager(cfg Config, engine *scene.Engine, clock *simclock.Clock, obs astro.Observer) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 120
	}
	m := &Manager{
		engine:       engine,
		clock:        clock,
		observer:     obs.Normalized(),
		maxEvents:    maxEvents,
		events:       make([]Event, 0, maxEvents),
		maxHistory:   maxHistory,
		history:      make(map[string]*AltitudeHistory),
		tracked:      append([]string(nil), cfg.Tracked...),
		trajectories: trajectory.NewSet(),
		window:       cfg.Window,
	}
	m.mu.Lock()
	m.refreshLocked()
	m.mu.Unlock()
	return m
}

// Tick advances the clock by real elapsed time, unless paused, and
// recomputes the frame.
func (m *Manager) Tick(real time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.paused {
		m.clock.Advance(real)
	}
	m.refreshLocked()
}

// Refresh recomputes the frame without moving the clock.
func (m *Manager) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshLocked()
}

func (m *Manager) refreshLocked() {
	start := time.Now()
	f := m.engine.Frame(m.observer, m.clock.JulianDate())
	m.frameDuration = time.Since(start)
	m.lastTick = start

	if m.frame != nil {
		m.detectEvents(&f)
	}
	m.frame = &f
	m.recordVisibility(&f)
	m.updateHistory(&f)
}

// detectEvents compares the new frame with the previous one.
func (m *Manager) detectEvents(f *scene.Frame) {
	simTime := m.clock.Snapshot().Time()

	check := func(p scene.Placement) {
		wasUp, known := m.prevUp[p.Name]
		if !known || wasUp == p.Visible() {
			return
		}
		typ := EventSet
		if p.Visible() {
			typ = EventRise
		}
		m.addEvent(Event{
			Type:    typ,
			JD:      f.JD,
			SimTime: simTime,
			Body:    p.Name,
			Azimuth: p.Horizontal.Az,
		})
	}

	check(f.Sun)
	check(f.Moon.Placement)
	for _, s := range f.Stars {
		check(s)
	}

	if f.Twilight != m.prevTwilight {
		m.addEvent(Event{
			Type:    EventTwilight,
			JD:      f.JD,
			SimTime: simTime,
			Detail:  fmt.Sprintf("%s -> %s", m.prevTwilight, f.Twilight),
		})
	}
}

func (m *Manager) recordVisibility(f *scene.Frame) {
	up := make(map[string]bool, len(f.Stars)+2)
	up[f.Sun.Name] = f.Sun.Visible()
	up[f.Moon.Name] = f.Moon.Visible()
	for _, s := range f.Stars {
		up[s.Name] = s.Visible()
	}
	m.prevUp = up
	m.prevTwilight = f.Twilight
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

func (m *Manager) updateHistory(f *scene.Frame) {
	for _, name := range m.tracked {
		p, ok := f.Find(name)
		if !ok {
			continue
		}
		hist, ok := m.history[p.Name]
		if !ok {
			hist = &AltitudeHistory{Name: p.Name, Samples: make([]TimeSeries, 0, m.maxHistory)}
			m.history[p.Name] = hist
		}
		hist.Samples = append(hist.Samples, TimeSeries{JD: f.JD, Value: p.Horizontal.Alt})
		if len(hist.Samples) > m.maxHistory {
			hist.Samples = hist.Samples[1:]
		}
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Frame         *scene.Frame
	Clock         simclock.Snapshot
	Observer      astro.Observer
	Paused        bool
	LastTick      time.Time
	FrameDuration time.Duration
	LastError     error
	Events        []Event
	Trajectories  []*trajectory.Sample
	Window        trajectory.Window
}

// Snapshot returns a consistent snapshot of current state. The frame and
// samples are shared and must not be modified.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		Frame:         m.frame,
		Clock:         m.clock.Snapshot(),
		Observer:      m.observer,
		Paused:        m.paused,
		LastTick:      m.lastTick,
		FrameDuration: m.frameDuration,
		LastError:     m.lastError,
		Events:        m.getEventsOrdered(),
		Trajectories:  m.trajectories.All(),
		Window:        m.window,
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// History returns a copy of the altitude history for a tracked body.
func (m *Manager) History(name string) *AltitudeHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist, ok := m.history[name]
	if !ok {
		return nil
	}
	out := &AltitudeHistory{Name: hist.Name, Samples: make([]TimeSeries, len(hist.Samples))}
	copy(out.Samples, hist.Samples)
	return out
}

// Track adds a body to the altitude history set.
func (m *Manager) Track(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tracked {
		if strings.EqualFold(t, name) {
			return
		}
	}
	m.tracked = append(m.tracked, name)
}

// SetObserver moves the observer and recomputes the frame. Visibility
// changes caused by the move are not reported as events.
func (m *Manager) SetObserver(obs astro.Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = obs.Normalized()
	m.clock.SetUTCOffset(obs.UTCOffset)
	m.frame = nil
	m.history = make(map[string]*AltitudeHistory)
	m.refreshLocked()
}

// Observer returns the current observer.
func (m *Manager) Observer() astro.Observer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.observer
}

// SetPaused stops or resumes the clock.
func (m *Manager) SetPaused(p bool) {
	m.mu.Lock()
	m.paused = p
	m.mu.Unlock()
}

// TogglePause flips the pause state and returns the new value.
func (m *Manager) TogglePause() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = !m.paused
	return m.paused
}

// SetTimeScale changes the clock rate.
func (m *Manager) SetTimeScale(scale float64) {
	m.mu.Lock()
	m.clock.SetTimeScale(scale)
	m.mu.Unlock()
}

// TimeScale returns the clock rate.
func (m *Manager) TimeScale() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clock.TimeScale()
}

// SetCivil jumps the clock to a civil time and recomputes the frame.
func (m *Manager) SetCivil(c astro.CivilTime) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock.SetCivil(c)
	m.frame = nil
	m.refreshLocked()
}

// Body resolves a display name or "HIP n" to a body.
func (m *Manager) Body(name string) (astro.Body, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sun":
		return astro.Sun{}, nil
	case "moon":
		return astro.Moon{}, nil
	}
	if cat := m.engine.Catalog(); cat != nil {
		if o, ok := cat.Find(name); ok {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBody, name)
}

// Window returns the configured trajectory window.
func (m *Manager) Window() trajectory.Window {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.window
}

// SetWindow replaces the trajectory window used by TrajectoryRequests.
func (m *Manager) SetWindow(w trajectory.Window) {
	m.mu.Lock()
	m.window = w
	m.mu.Unlock()
}

// TrajectoryRequests builds requests for the named bodies at the current
// clock and observer. Unknown names are returned as an error after the
// known ones are built.
func (m *Manager) TrajectoryRequests(names ...string) ([]trajectory.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	reqs := make([]trajectory.Request, 0, len(names))
	jd := m.clock.JulianDate()
	radius := m.engine.Options().Radius
	for _, name := range names {
		body, err := m.Body(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reqs = append(reqs, m.window.Request(body, m.observer, jd, radius))
	}
	return reqs, errors.Join(errs...)
}

// ApplyTrajectories replaces the trajectory set with the successful results.
// The first failure is kept as the last error.
func (m *Manager) ApplyTrajectories(results []trajectory.Result) {
	samples := make([]*trajectory.Sample, 0, len(results))
	var firstErr error
	for _, r := range results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		samples = append(samples, r.Sample)
	}
	m.trajectories.Replace(samples)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = firstErr
	names := make([]string, len(samples))
	for i, s := range samples {
		names[i] = s.Name
	}
	m.addEvent(Event{
		Type:    EventTrajectory,
		JD:      m.clock.JulianDate(),
		SimTime: m.clock.Snapshot().Time(),
		Detail:  strings.Join(names, ", "),
	})
}

// ClearTrajectories discards every trajectory.
func (m *Manager) ClearTrajectories() {
	m.trajectories.Clear()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.addEvent(Event{
		Type:    EventTrajectoryCleared,
		JD:      m.clock.JulianDate(),
		SimTime: m.clock.Snapshot().Time(),
	})
}

// Trajectories returns the current trajectory set.
func (m *Manager) Trajectories() *trajectory.Set {
	return m.trajectories
}

// SetError records an error for display.
func (m *Manager) SetError(err error) {
	m.mu.Lock()
	m.lastError = err
	m.mu.Unlock()
}

// HasFrame returns true once a frame has been computed.
func (m *Manager) HasFrame() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frame != nil
}
