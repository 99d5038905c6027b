package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/catalog"
	"github.com/litescript/ls-skydome/internal/scene"
	"github.com/litescript/ls-skydome/internal/simclock"
	"github.com/litescript/ls-skydome/internal/trajectory"
)

var seoul = astro.Observer{LatDeg: 37.5665, LonDeg: 126.9780, UTCOffset: 9, Name: "Seoul"}

func newTestManager(t *testing.T, cfg Config, civil astro.CivilTime, scale float64) *Manager {
	t.Helper()
	cat := catalog.New([]catalog.Object{
		{HIP: 91262, Label: "Vega", RA: 279.235, Dec: 38.784, Magnitude: 0.03},
		{HIP: 32349, Label: "Sirius", RA: 101.287, Dec: -16.716, Magnitude: -1.46},
	})
	eng := scene.New(cat, nil, scene.DefaultOptions(), nil)
	clk := simclock.New(civil, seoul.UTCOffset, scale)
	return NewManager(cfg, eng, clk, seoul)
}

func TestNewManagerComputesFrame(t *testing.T) {
	m := newTestManager(t, DefaultConfig(), astro.CivilTime{Year: 2024, Month: 12, Day: 1, Hour: 21}, 1)
	if !m.HasFrame() {
		t.Fatal("no initial frame")
	}
	snap := m.Snapshot()
	if snap.Frame == nil || len(snap.Frame.Stars) != 2 {
		t.Fatalf("frame = %+v", snap.Frame)
	}
	if snap.Frame.JD != snap.Clock.JD {
		t.Errorf("frame JD %v != clock JD %v", snap.Frame.JD, snap.Clock.JD)
	}
	if len(snap.Events) != 0 {
		t.Errorf("initial frame produced events: %+v", snap.Events)
	}
}

func TestTickDetectsSunrise(t *testing.T) {
	// Sunrise in Seoul on 1 December is around 07:25 KST.
	m := newTestManager(t, DefaultConfig(), astro.CivilTime{Year: 2024, Month: 12, Day: 1, Hour: 6}, 600)

	for i := 0; i < 12; i++ {
		m.Tick(time.Second)
	}

	snap := m.Snapshot()
	if snap.Clock.Civil.Hour != 8 || snap.Clock.Civil.Minute != 0 {
		t.Fatalf("clock at %+v, want 08:00", snap.Clock.Civil)
	}

	var rise *Event
	var twilight int
	for i, e := range snap.Events {
		if e.Type == EventRise && e.Body == "Sun" {
			rise = &snap.Events[i]
		}
		if e.Type == EventTwilight {
			twilight++
		}
	}
	if rise == nil {
		t.Fatalf("no Sun rise event in %+v", snap.Events)
	}
	if rise.Azimuth < 90 || rise.Azimuth > 140 {
		t.Errorf("winter sunrise azimuth = %v, want south of east", rise.Azimuth)
	}
	if h := rise.SimTime.Hour(); h != 7 {
		t.Errorf("rise reported at %v", rise.SimTime)
	}
	if twilight == 0 {
		t.Error("no twilight transition between 06:00 and 08:00")
	}

	hist := m.History("Sun")
	if hist == nil || len(hist.Samples) != 13 {
		t.Fatalf("Sun history = %+v", hist)
	}
	if hist.Samples[12].Value <= hist.Samples[0].Value {
		t.Error("Sun altitude should increase during the morning")
	}
}

func TestPausedTickHoldsClock(t *testing.T) {
	m := newTestManager(t, DefaultConfig(), astro.CivilTime{Year: 2024, Month: 1, Day: 1}, 60)
	before := m.Snapshot().Clock.JD

	if !m.TogglePause() {
		t.Fatal("TogglePause should report paused")
	}
	m.Tick(10 * time.Second)
	if got := m.Snapshot().Clock.JD; got != before {
		t.Errorf("paused clock moved: %v -> %v", before, got)
	}

	m.SetPaused(false)
	m.Tick(10 * time.Second)
	if got := m.Snapshot().Clock.JD; got <= before {
		t.Errorf("clock did not advance after resume")
	}
}

func TestEventRingBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEvents = 3
	m := newTestManager(t, cfg, astro.CivilTime{Year: 2024, Month: 12, Day: 1, Hour: 21}, 1)

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		m.ApplyTrajectories([]trajectory.Result{{Sample: &trajectory.Sample{Name: name}}})
	}

	events := m.Snapshot().Events
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	for i, want := range []string{"c", "d", "e"} {
		if events[i].Detail != want {
			t.Errorf("events[%d] = %q, want %q", i, events[i].Detail, want)
		}
	}
	if recent := m.RecentEvents(2); len(recent) != 2 || recent[1].Detail != "e" {
		t.Errorf("RecentEvents(2) = %+v", recent)
	}
}

func TestTrajectoryLifecycle(t *testing.T) {
	m := newTestManager(t, DefaultConfig(), astro.CivilTime{Year: 2024, Month: 12, Day: 1, Hour: 21}, 1)

	reqs, err := m.TrajectoryRequests("Vega", "moon", "Nowhere")
	if !errors.Is(err, ErrUnknownBody) {
		t.Errorf("TrajectoryRequests error = %v, want ErrUnknownBody", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2", len(reqs))
	}
	if reqs[0].Segments != trajectory.DefaultSegments || reqs[0].DurationHours != trajectory.DefaultDurationHours {
		t.Errorf("request window = %+v", reqs[0])
	}

	comp, err := trajectory.NewComputer(16, nil)
	if err != nil {
		t.Fatal(err)
	}
	results, err := comp.ComputeAll(context.Background(), reqs)
	if err != nil {
		t.Fatal(err)
	}
	m.ApplyTrajectories(results)

	snap := m.Snapshot()
	if len(snap.Trajectories) != 2 || snap.LastError != nil {
		t.Fatalf("trajectories = %d, last error = %v", len(snap.Trajectories), snap.LastError)
	}
	if s, ok := m.Trajectories().Get("Vega"); !ok || len(s.Points) != trajectory.DefaultSegments+1 {
		t.Errorf("Vega trajectory = %+v", s)
	}

	// A second compute replaces rather than appends.
	w := m.Window()
	w.Strategy = trajectory.RigidRotation
	m.SetWindow(w)
	reqs, _ = m.TrajectoryRequests("Vega", "Moon")
	results, _ = comp.ComputeAll(context.Background(), reqs)
	m.ApplyTrajectories(results)

	snap = m.Snapshot()
	if len(snap.Trajectories) != 1 {
		t.Errorf("after rigid recompute: %d trajectories, want 1", len(snap.Trajectories))
	}
	if !errors.Is(snap.LastError, trajectory.ErrStrategyNotApplicable) {
		t.Errorf("LastError = %v", snap.LastError)
	}

	m.ClearTrajectories()
	if m.Trajectories().Len() != 0 {
		t.Error("ClearTrajectories left samples")
	}
	events := m.Snapshot().Events
	if last := events[len(events)-1]; last.Type != EventTrajectoryCleared {
		t.Errorf("last event = %+v", last)
	}
}

func TestSetObserverSuppressesEvents(t *testing.T) {
	m := newTestManager(t, DefaultConfig(), astro.CivilTime{Year: 2024, Month: 6, Day: 1, Hour: 12}, 1)

	sydney := astro.Observer{LatDeg: -33.87, LonDeg: 151.21, UTCOffset: 9}
	m.SetObserver(sydney)
	if got := m.Observer(); got.LatDeg != sydney.LatDeg {
		t.Errorf("Observer() = %+v", got)
	}
	if n := len(m.Snapshot().Events); n != 0 {
		t.Errorf("moving the observer produced %d events", n)
	}
}

func TestBodyLookup(t *testing.T) {
	m := newTestManager(t, DefaultConfig(), astro.CivilTime{Year: 2024, Month: 1, Day: 1}, 1)
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"Sun", "Sun", false},
		{" MOON ", "Moon", false},
		{"vega", "Vega", false},
		{"HIP 32349", "Sirius", false},
		{"Betelgeuse", "", true},
	}
	for _, tt := range tests {
		b, err := m.Body(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("Body(%q) error = %v", tt.name, err)
			continue
		}
		if err == nil && b.Name() != tt.want {
			t.Errorf("Body(%q) = %q, want %q", tt.name, b.Name(), tt.want)
		}
	}
}
