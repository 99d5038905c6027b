package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/catalog"
	"github.com/litescript/ls-skydome/internal/scene"
	"github.com/litescript/ls-skydome/internal/simclock"
	"github.com/litescript/ls-skydome/internal/state"
	"github.com/litescript/ls-skydome/internal/trajectory"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	obs := astro.Observer{LatDeg: 37.5665, LonDeg: 126.9780, UTCOffset: 9, Name: "Seoul"}
	cat := catalog.New([]catalog.Object{
		{HIP: 91262, Label: "Vega", RA: 279.235, Dec: 38.784, Magnitude: 0.03},
		{HIP: 32349, Label: "Sirius", RA: 101.287, Dec: -16.716, Magnitude: -1.46},
		{HIP: 102098, Label: "Deneb", RA: 310.358, Dec: 45.280, Magnitude: 1.25},
	})
	eng := scene.New(cat, []catalog.Polyline{{Name: "Summer", HIP: []int{91262, 102098}}}, scene.DefaultOptions(), nil)
	clk := simclock.New(astro.CivilTime{Year: 2024, Month: 12, Day: 1, Hour: 21}, obs.UTCOffset, 60)
	mgr := state.NewManager(state.DefaultConfig(), eng, clk, obs)

	comp, err := trajectory.NewComputer(16, nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(mgr, comp, time.Second, nil)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model, cmd
}

// collect runs a command and flattens batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestModel_ViewBeforeAndAfterResize(t *testing.T) {
	m := newTestModel(t)
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() before size = %q", got)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	out := m.View()
	for _, want := range []string{"Sky View", ">>> Sun", "q: quit", "2024-12-01 21:00:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t)
	for _, k := range []tea.KeyMsg{key("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := update(t, m, k)
		if cmd == nil {
			t.Fatalf("%q returned no command", k.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%q did not quit", k.String())
		}
	}
}

func TestModel_Pause(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, key("0"))
	if !m.state.Snapshot().Paused {
		t.Fatal("0 should pause")
	}
	before := m.state.Snapshot().Clock.JD
	now := time.Now()
	m, _ = update(t, m, TickMsg(now))
	m, _ = update(t, m, TickMsg(now.Add(time.Second)))
	if got := m.state.Snapshot().Clock.JD; got != before {
		t.Errorf("paused clock moved")
	}

	m, _ = update(t, m, key("0"))
	if m.state.Snapshot().Paused {
		t.Error("second 0 should resume")
	}
}

func TestModel_TimeScaleKeys(t *testing.T) {
	m := newTestModel(t)
	steps := []struct {
		key  string
		want float64
	}{
		{"+", 120},
		{"-", 60},
		{"-", 30},
		{"r", -30},
		{"+", -60},
	}
	for _, s := range steps {
		m, _ = update(t, m, key(s.key))
		if got := m.state.TimeScale(); got != s.want {
			t.Fatalf("after %q scale = %v, want %v", s.key, got, s.want)
		}
	}

	for i := 0; i < 40; i++ {
		m, _ = update(t, m, key("+"))
	}
	if got := m.state.TimeScale(); got != -maxTimeScale {
		t.Errorf("scale not clamped: %v", got)
	}
}

func TestModel_TickAdvancesClock(t *testing.T) {
	m := newTestModel(t)
	before := m.state.Snapshot().Clock.JD

	now := time.Now()
	m, cmd := update(t, m, TickMsg(now))
	if cmd == nil {
		t.Error("tick should reschedule itself")
	}
	m, _ = update(t, m, TickMsg(now.Add(2*time.Second)))

	// 1s default then 2s real at 60x
	wantDays := 3.0 * 60 / 86400
	if got := m.snapshot.Clock.JD - before; got < wantDays*0.99 || got > wantDays*1.01 {
		t.Errorf("clock advanced %v days, want %v", got, wantDays)
	}
}

func TestModel_TrajectoryForFocusedBody(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m, cmd := update(t, m, key("t"))
	if cmd == nil {
		t.Fatal("t returned no command")
	}
	if !m.computing {
		t.Error("model should be computing")
	}
	if _, again := update(t, m, key("t")); again != nil {
		if msgs := collect(again); len(msgs) > 0 {
			t.Errorf("second t while computing produced %v", msgs)
		}
	}

	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages", len(msgs))
	}
	m, _ = update(t, m, msgs[0])

	if m.computing {
		t.Error("computing flag not cleared")
	}
	s, ok := m.state.Trajectories().Get("Sun")
	if !ok || len(s.Points) != trajectory.DefaultSegments+1 {
		t.Fatalf("Sun trajectory = %+v", s)
	}
	if len(m.skyView.trajectories) != 1 {
		t.Errorf("sky view has %d trajectories", len(m.skyView.trajectories))
	}

	m, _ = update(t, m, key("c"))
	if m.state.Trajectories().Len() != 0 || len(m.skyView.trajectories) != 0 {
		t.Error("c should clear trajectories")
	}
}

func TestModel_TrajectoryErrorShown(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	w := m.state.Window()
	w.Strategy = trajectory.RigidRotation
	m.state.SetWindow(w)

	// Focus the Moon; rigid rotation does not apply to moving bodies.
	m, _ = update(t, m, key("j"))
	m, cmd := update(t, m, key("t"))
	for _, msg := range collect(cmd) {
		m, _ = update(t, m, msg)
	}

	if !strings.Contains(m.View(), "ERROR:") {
		t.Error("trajectory failure should be shown in the footer")
	}
}

func TestGradientColor(t *testing.T) {
	if got := gradientColor(0, 0, 10, 1); got != "#3B82F6" {
		t.Errorf("start color = %s", got)
	}
	if got := gradientColor(9, 0, 10, 1); !strings.HasPrefix(got, "#") || len(got) != 7 {
		t.Errorf("end color = %s", got)
	}
}
