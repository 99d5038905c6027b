// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-skydome/internal/logging"
	"github.com/litescript/ls-skydome/internal/state"
	"github.com/litescript/ls-skydome/internal/trajectory"
	"github.com/litescript/ls-skydome/internal/version"
)

const (
	defaultTick  = 250 * time.Millisecond
	maxTimeScale = 86400 * 7
	minTimeScale = 1.0 / 64
)

// Msg types for Bubble Tea
type (
	// TickMsg advances the simulation clock.
	TickMsg time.Time

	// trajectoriesMsg carries finished trajectory computations.
	trajectoriesMsg struct {
		results []trajectory.Result
		err     error
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	state    *state.Manager
	computer *trajectory.Computer
	log      *logging.Logger

	// UI state
	width     int
	height    int
	ready     bool
	tick      time.Duration
	lastTick  time.Time
	computing bool
	animTick  int
	statusMsg string

	skyView  SkyViewModel
	snapshot state.Snapshot
}

// New creates a new root UI model.
func New(stateMgr *state.Manager, computer *trajectory.Computer, tick time.Duration, log *logging.Logger) Model {
	if tick <= 0 {
		tick = defaultTick
	}
	if log == nil {
		log = logging.Discard()
	}
	m := Model{
		state:    stateMgr,
		computer: computer,
		log:      log.With("ui"),
		tick:     tick,
		skyView:  NewSkyViewModel(),
	}
	m.snapshot = stateMgr.Snapshot()
	m.skyView = m.skyView.UpdateData(m.snapshot)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "+", "=":
			m.scaleTime(2)
		case "-", "_":
			m.scaleTime(0.5)
		case "r":
			m.state.SetTimeScale(-m.state.TimeScale())
			m.statusMsg = fmt.Sprintf("Time scale %gx", m.state.TimeScale())
		case "0", " ":
			if m.state.TogglePause() {
				m.statusMsg = "Paused"
			} else {
				m.statusMsg = ""
			}
			m.lastTick = time.Time{}

		case "t":
			if cmd := m.requestTrajectories(m.skyView.FocusedName()); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case "c":
			m.state.ClearTrajectories()
			m.statusMsg = "Trajectories cleared"
			m.refresh()

		default:
			var cmd tea.Cmd
			m.skyView, cmd = m.skyView.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Title takes 3 lines, footer 2
		m.skyView = m.skyView.SetSize(msg.Width, msg.Height-5)

	case TickMsg:
		cmds = append(cmds, tickCmd(m.tick))
		now := time.Time(msg)
		elapsed := m.tick
		if !m.lastTick.IsZero() {
			elapsed = now.Sub(m.lastTick)
		}
		m.lastTick = now
		m.animTick++
		m.state.Tick(elapsed)
		m.refresh()

	case trajectoriesMsg:
		m.computing = false
		if msg.err != nil {
			m.state.SetError(msg.err)
			m.log.Warn("trajectory computation stopped: %v", msg.err)
		} else {
			m.state.ApplyTrajectories(msg.results)
			m.statusMsg = fmt.Sprintf("%d trajectories", m.state.Trajectories().Len())
		}
		m.refresh()

	default:
		var cmd tea.Cmd
		m.skyView, cmd = m.skyView.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) refresh() {
	m.snapshot = m.state.Snapshot()
	m.skyView = m.skyView.UpdateData(m.snapshot)
}

// scaleTime multiplies the time scale, keeping its sign and bounds.
func (m *Model) scaleTime(factor float64) {
	scale := m.state.TimeScale()
	sign := 1.0
	if scale < 0 {
		sign = -1
	}
	mag := math.Abs(scale) * factor
	if mag == 0 {
		mag = 1
	}
	mag = math.Max(minTimeScale, math.Min(maxTimeScale, mag))
	m.state.SetTimeScale(sign * mag)
	m.statusMsg = fmt.Sprintf("Time scale %gx", sign*mag)
}

// requestTrajectories builds requests for the named bodies and computes them
// off the UI goroutine.
func (m *Model) requestTrajectories(names ...string) tea.Cmd {
	if m.computing || m.computer == nil {
		return nil
	}
	var wanted []string
	for _, n := range names {
		if n != "" {
			wanted = append(wanted, n)
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	reqs, err := m.state.TrajectoryRequests(wanted...)
	if err != nil {
		m.state.SetError(err)
		m.refresh()
	}
	if len(reqs) == 0 {
		return nil
	}

	m.computing = true
	m.statusMsg = "Computing trajectory for " + strings.Join(wanted, ", ")
	computer := m.computer
	return func() tea.Msg {
		results, err := computer.ComputeAll(context.Background(), reqs)
		return trajectoriesMsg{results: results, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.renderTitle() + "\n" + m.skyView.View() + "\n" + m.renderFooter()
}

func (m Model) renderTitle() string {
	title := "ls-skydome"
	runes := []rune(title)

	var b strings.Builder
	b.WriteString("\n  ")
	for col, r := range runes {
		color := gradientColor(col, 0, len(runes), 1)
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
		b.WriteString(style.Render(string(r)))
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	obs := m.snapshot.Observer
	place := obs.Name
	if place == "" {
		place = fmt.Sprintf("%.2f°, %.2f°", obs.LatDeg, obs.LonDeg)
	}
	b.WriteString(muted.Render(fmt.Sprintf("  v%s · %s", version.Version, place)))
	return b.String()
}

// gradientColor returns a hex color for a position in the title gradient,
// blue through purple and magenta to pink.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	if xRatio < 0.33 {
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	// Vertical fade
	brightness := 1.0 - (yRatio * 0.5)
	clamp := func(v float64) int {
		return int(math.Max(0, math.Min(255, v*brightness)))
	}
	return fmt.Sprintf("#%02X%02X%02X", clamp(r), clamp(g), clamp(b))
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

	simTime := m.snapshot.Clock.Time().Format("2006-01-02 15:04:05 MST")
	clock := accentStyle.Render(simTime) + dimStyle.Render(fmt.Sprintf(" ×%g", m.snapshot.Clock.TimeScale))
	if m.snapshot.Paused {
		clock += " " + errorStyle.Render("PAUSED")
	}
	if m.computing {
		clock += " " + accentStyle.Render(spinnerFrames[m.animTick%len(spinnerFrames)])
	}

	var status string
	switch {
	case m.snapshot.LastError != nil:
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	case m.statusMsg != "":
		status = dimStyle.Render(m.statusMsg)
	default:
		if events := m.snapshot.Events; len(events) > 0 {
			e := events[len(events)-1]
			status = dimStyle.Render(fmt.Sprintf("%s %s %s", e.SimTime.Format("15:04"), e.Type, strings.TrimSpace(e.Body+" "+e.Detail)))
		}
	}

	help := dimStyle.Render("j/k: focus | ←/→: pan | t: trajectory | c: clear | +/-: speed | r: reverse | 0: pause | l: labels | g: lines | q: quit")

	footer := "  " + clock
	if status != "" {
		footer += "  " + dimStyle.Render("|") + "  " + status
	}
	return footer + "\n  " + help
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
