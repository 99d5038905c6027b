package ui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/export"
	"github.com/litescript/ls-skydome/internal/scene"
	"github.com/litescript/ls-skydome/internal/state"
	"github.com/litescript/ls-skydome/internal/trajectory"
)

const (
	// Field of view in degrees
	fovAz = 120.0 // horizontal FOV
	fovEl = 60.0  // vertical FOV

	// Animation
	animDuration  = 400 * time.Millisecond
	animFrameRate = 30 * time.Millisecond

	glyphSun         = '☉'
	glyphMoonFull    = '○'
	glyphMoonHalf    = '◐'
	glyphMoonNew     = '●'
	glyphFocused     = '◆'
	glyphTrajectory  = '∙'
	glyphLine        = '·'
	glyphStarBright  = '✶' // mag < 1.5
	glyphStarMedium  = '✸' // mag 1.5-3.0
	glyphStarDim     = '·' // mag 3.0-4.0
	glyphStarVeryDim = '.' // mag > 4.0

	colorSun        = "220"
	colorMoon       = "#d0c8ff"
	colorFocused    = "229" // bright gold
	colorTrajectory = "#9D4EDD"
	colorLine       = "238"

	// Star colors (grayscale so the Sun and Moon stand out)
	colorStarBright  = "255"
	colorStarMedium  = "250"
	colorStarDim     = "244"
	colorStarVeryDim = "240"
)

// LabelMode controls how body labels are displayed.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelFocused                  // Only the focused body
	LabelAll                      // Every named body in view
)

// target is one focusable body in the current frame.
type target struct {
	name       string
	hip        int
	magnitude  float64
	equatorial astro.Equatorial
	horizontal astro.Horizontal
}

// SkyViewModel renders the sky dome seen by the observer.
type SkyViewModel struct {
	width  int
	height int

	// Camera position (center of view)
	camAz float64
	camEl float64

	// Animation state
	animating   bool
	animStartAz float64
	animStartEl float64
	animTargAz  float64
	animTargEl  float64
	animStart   time.Time

	// Focus cycles over the Sun, the Moon and visible stars, brightest first.
	// It is kept by name so it survives frame updates.
	focusIdx  int
	focusName string
	targets   []target

	labelMode LabelMode
	showLines bool

	frame        *scene.Frame
	trajectories []*trajectory.Sample
}

// NewSkyViewModel creates a new sky view model.
func NewSkyViewModel() SkyViewModel {
	return SkyViewModel{
		camAz:     180,
		camEl:     fovEl / 2,
		labelMode: LabelFocused,
		showLines: true,
	}
}

// SetSize updates the viewport size.
func (m SkyViewModel) SetSize(width, height int) SkyViewModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates with new data snapshot.
func (m SkyViewModel) UpdateData(snapshot state.Snapshot) SkyViewModel {
	m.frame = snapshot.Frame
	m.trajectories = snapshot.Trajectories
	m.targets = buildTargets(snapshot.Frame)

	m.focusIdx = 0
	for i, t := range m.targets {
		if strings.EqualFold(t.name, m.focusName) {
			m.focusIdx = i
			break
		}
	}
	if len(m.targets) > 0 {
		m.focusName = m.targets[m.focusIdx].name
	}

	// If not animating, follow the focused body
	if !m.animating && len(m.targets) > 0 {
		h := m.targets[m.focusIdx].horizontal
		m.camAz = h.Az
		m.camEl = clampCamEl(h.Alt)
	}
	return m
}

func buildTargets(f *scene.Frame) []target {
	if f == nil {
		return nil
	}
	fromPlacement := func(p scene.Placement) target {
		return target{
			name:       p.Name,
			hip:        p.HIP,
			magnitude:  p.Magnitude,
			equatorial: p.Equatorial,
			horizontal: p.Horizontal,
		}
	}

	targets := []target{fromPlacement(f.Sun), fromPlacement(f.Moon.Placement)}
	var stars []target
	for _, p := range f.Stars {
		if p.Visible() {
			stars = append(stars, fromPlacement(p))
		}
	}
	sort.SliceStable(stars, func(i, j int) bool {
		return stars[i].magnitude < stars[j].magnitude
	})
	return append(targets, stars...)
}

// FocusedName returns the name of the focused body, or "" when nothing is
// focusable yet.
func (m SkyViewModel) FocusedName() string {
	if m.focusIdx < len(m.targets) {
		return m.targets[m.focusIdx].name
	}
	return ""
}

// animTickMsg is sent during animation
type animTickMsg time.Time

func animTick() tea.Cmd {
	return tea.Tick(animFrameRate, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// Update handles messages.
func (m SkyViewModel) Update(msg tea.Msg) (SkyViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			return m.focusPrev()
		case "down", "j":
			return m.focusNext()
		case "left", "h":
			m.animating = false
			m.camAz = astro.NormalizeDegrees(m.camAz - fovAz/4)
		case "right":
			m.animating = false
			m.camAz = astro.NormalizeDegrees(m.camAz + fovAz/4)
		case "l":
			m.labelMode = (m.labelMode + 1) % 3
		case "g":
			m.showLines = !m.showLines
		}

	case animTickMsg:
		if m.animating {
			return m.updateAnimation()
		}
	}

	return m, nil
}

func (m SkyViewModel) focusNext() (SkyViewModel, tea.Cmd) {
	if len(m.targets) == 0 {
		return m, nil
	}
	m.focusIdx = (m.focusIdx + 1) % len(m.targets)
	return m.startAnimation()
}

func (m SkyViewModel) focusPrev() (SkyViewModel, tea.Cmd) {
	if len(m.targets) == 0 {
		return m, nil
	}
	m.focusIdx--
	if m.focusIdx < 0 {
		m.focusIdx = len(m.targets) - 1
	}
	return m.startAnimation()
}

func (m SkyViewModel) startAnimation() (SkyViewModel, tea.Cmd) {
	if m.focusIdx >= len(m.targets) {
		return m, nil
	}

	t := m.targets[m.focusIdx]
	m.focusName = t.name
	m.animating = true
	m.animStartAz = m.camAz
	m.animStartEl = m.camEl
	m.animTargAz = t.horizontal.Az
	m.animTargEl = clampCamEl(t.horizontal.Alt)
	m.animStart = time.Now()

	return m, animTick()
}

func (m SkyViewModel) updateAnimation() (SkyViewModel, tea.Cmd) {
	elapsed := time.Since(m.animStart)
	t := float64(elapsed) / float64(animDuration)

	if t >= 1.0 {
		m.animating = false
		m.camAz = m.animTargAz
		m.camEl = m.animTargEl
		return m, nil
	}

	// Ease-out cubic
	t = 1 - math.Pow(1-t, 3)

	m.camAz = lerpAngle(m.animStartAz, m.animTargAz, t)
	m.camEl = lerp(m.animStartEl, m.animTargEl, t)

	return m, animTick()
}

// clampCamEl keeps the view between the horizon and the zenith.
func clampCamEl(el float64) float64 {
	return math.Max(fovEl/2, math.Min(90-fovEl/2, el))
}

// View renders the sky view.
func (m SkyViewModel) View() string {
	if m.width < 20 || m.height < 10 {
		return "Sky view requires larger terminal"
	}
	if m.frame == nil {
		return "Computing sky..."
	}

	// Reserve lines for header and status
	viewHeight := m.height - 4

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSkyCanvas(m.width, viewHeight))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m SkyViewModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorMoon))

	title := titleStyle.Render("Sky View")

	var labelStr string
	switch m.labelMode {
	case LabelNone:
		labelStr = dimStyle.Render("Labels: off")
	case LabelFocused:
		labelStr = accentStyle.Render("Labels: focus")
	case LabelAll:
		labelStr = accentStyle.Render("Labels: all")
	}

	sky := accentStyle.Render(m.frame.Twilight.String())
	stars := dimStyle.Render(fmt.Sprintf("%d stars up", m.frame.VisibleStars()))
	compass := dimStyle.Render(fmt.Sprintf("Az:%.0f° Alt:%.0f°", m.camAz, m.camEl))

	return fmt.Sprintf("%s | %s | %s | %s | %s", title, sky, stars, labelStr, compass)
}

func (m SkyViewModel) renderStatus() string {
	if m.focusIdx >= len(m.targets) {
		return "Nothing in view"
	}
	t := m.targets[m.focusIdx]

	line1 := fmt.Sprintf(">>> %s | Az:%.1f° Alt:%.1f° | RA %s Dec %s | mag %.2f",
		t.name,
		t.horizontal.Az,
		t.horizontal.Alt,
		export.FormatRA(t.equatorial.RA),
		export.FormatDec(t.equatorial.Dec),
		t.magnitude,
	)
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorFocused))
	status := accentStyle.Render(line1)

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorMoon))
	switch {
	case strings.EqualFold(t.name, "Moon"):
		status += "\n" + dimStyle.Render(fmt.Sprintf("    %.0f%% illuminated", m.frame.Moon.Illumination*100))
	case t.hip > 0:
		status += "\n" + dimStyle.Render(fmt.Sprintf("    HIP %d", t.hip))
	}
	return status
}

// labelPos tracks a drawn body for label rendering
type labelPos struct {
	x, y       int
	name       string
	isFocused  bool
	labelStart int
	labelEnd   int
}

type canvas struct {
	runes  [][]rune
	colors [][]lipgloss.Color
	width  int
	height int
}

func newCanvas(width, height int) *canvas {
	c := &canvas{
		runes:  make([][]rune, height),
		colors: make([][]lipgloss.Color, height),
		width:  width,
		height: height,
	}
	for y := 0; y < height; y++ {
		c.runes[y] = make([]rune, width)
		c.colors[y] = make([]lipgloss.Color, width)
		for x := 0; x < width; x++ {
			c.runes[y][x] = ' '
			c.colors[y][x] = "236"
		}
	}
	return c
}

func (c *canvas) set(x, y int, r rune, color lipgloss.Color) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.runes[y][x] = r
	c.colors[y][x] = color
}

func (c *canvas) empty(x, y int) bool {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return false
	}
	return c.runes[y][x] == ' '
}

func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			style := lipgloss.NewStyle().Foreground(c.colors[y][x])
			b.WriteString(style.Render(string(c.runes[y][x])))
		}
		if y < c.height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m SkyViewModel) renderSkyCanvas(width, height int) string {
	c := newCanvas(width, height)
	horizonY := height - 2

	if m.showLines {
		m.drawLines(c, width, horizonY)
	}
	m.drawTrajectories(c, width, horizonY)

	for _, star := range m.frame.Stars {
		if !star.Visible() {
			continue
		}
		x, y, visible := m.projectToScreen(star.Horizontal.Az, star.Horizontal.Alt, width, horizonY)
		if !visible || y >= horizonY {
			continue
		}
		glyph, color := starGlyph(star.Magnitude)
		c.set(x, y, glyph, color)
	}

	var positions []labelPos
	focused := m.FocusedName()
	place := func(p scene.Placement, glyph rune, color lipgloss.Color) {
		if !p.Visible() {
			return
		}
		x, y, visible := m.projectToScreen(p.Horizontal.Az, p.Horizontal.Alt, width, horizonY)
		if !visible || y >= horizonY {
			return
		}
		isFocused := p.Name == focused
		if isFocused {
			glyph, color = glyphFocused, colorFocused
		}
		c.set(x, y, glyph, color)
		positions = append(positions, labelPos{x: x, y: y, name: p.Name, isFocused: isFocused})
	}

	place(m.frame.Sun, glyphSun, colorSun)
	place(m.frame.Moon.Placement, moonGlyph(m.frame.Moon.Phase), colorMoon)
	for _, star := range m.frame.Stars {
		if star.Name == focused || (m.labelMode == LabelAll && star.Magnitude < 1.5) {
			glyph, color := starGlyph(star.Magnitude)
			place(star, glyph, color)
		}
	}

	// Horizon line where altitude zero is in view
	if _, y, visible := m.projectToScreen(m.camAz, 0, width, horizonY); visible && y <= horizonY {
		for x := 0; x < width; x++ {
			c.set(x, y, '─', "60")
		}
		m.drawCardinal(c, width, horizonY, y, "N", 0)
		m.drawCardinal(c, width, horizonY, y, "E", 90)
		m.drawCardinal(c, width, horizonY, y, "S", 180)
		m.drawCardinal(c, width, horizonY, y, "W", 270)
	}

	m.renderLabels(c, width, horizonY, positions)

	// Observer marker at bottom center
	c.set(width/2, height-1, '▲', "46")

	return c.String()
}

func (m SkyViewModel) drawLines(c *canvas, width, horizonY int) {
	for _, line := range m.frame.Lines {
		for i := 1; i < len(line.Points); i++ {
			if line.Alts[i-1] <= 0 || line.Alts[i] <= 0 {
				continue
			}
			a, _ := astro.FromCartesian(line.Points[i-1])
			b, _ := astro.FromCartesian(line.Points[i])
			x1, y1, ok1 := m.projectToScreen(a.Az, a.Alt, width, horizonY)
			x2, y2, ok2 := m.projectToScreen(b.Az, b.Alt, width, horizonY)
			if !ok1 || !ok2 {
				continue
			}
			steps := max(abs(x2-x1), abs(y2-y1))
			for s := 1; s < steps; s++ {
				f := float64(s) / float64(steps)
				x := int(math.Round(lerp(float64(x1), float64(x2), f)))
				y := int(math.Round(lerp(float64(y1), float64(y2), f)))
				if y < horizonY && c.empty(x, y) {
					c.set(x, y, glyphLine, colorLine)
				}
			}
		}
	}
}

func (m SkyViewModel) drawTrajectories(c *canvas, width, horizonY int) {
	for _, s := range m.trajectories {
		for _, p := range s.Points {
			if p.Horizontal.Alt <= 0 {
				continue
			}
			x, y, visible := m.projectToScreen(p.Horizontal.Az, p.Horizontal.Alt, width, horizonY)
			if visible && y < horizonY {
				c.set(x, y, glyphTrajectory, colorTrajectory)
			}
		}
	}
}

// renderLabels draws body labels on the canvas based on label mode.
// Focused labels take priority in overlapping regions.
func (m SkyViewModel) renderLabels(c *canvas, width, horizonY int, positions []labelPos) {
	if m.labelMode == LabelNone || len(positions) == 0 {
		return
	}

	for i := range positions {
		pos := &positions[i]
		pos.labelStart = pos.x + 2
		labelLen := len([]rune(pos.name))
		if pos.isFocused {
			labelLen += 2
		}
		pos.labelEnd = pos.labelStart + labelLen
	}

	// y -> x -> claimed by the focused label
	focusedClaims := make(map[int]map[int]bool)
	for _, pos := range positions {
		if !pos.isFocused {
			continue
		}
		if focusedClaims[pos.y] == nil {
			focusedClaims[pos.y] = make(map[int]bool)
		}
		for x := pos.labelStart; x < pos.labelEnd; x++ {
			focusedClaims[pos.y][x] = true
		}
	}

	for _, pos := range positions {
		if m.labelMode == LabelFocused && !pos.isFocused {
			continue
		}

		labelColor := lipgloss.Color(colorMoon)
		labelText := pos.name
		if pos.isFocused {
			labelColor = colorFocused
			labelText = "◄ " + pos.name
		}

		for i, r := range []rune(labelText) {
			x := pos.labelStart + i
			if x >= width || pos.y >= horizonY {
				break
			}
			if !pos.isFocused && focusedClaims[pos.y][x] {
				continue
			}
			c.set(x, pos.y, r, labelColor)
		}
	}
}

// starGlyph returns the glyph and color for a star of the given magnitude.
func starGlyph(mag float64) (rune, lipgloss.Color) {
	switch {
	case mag < 1.5:
		return glyphStarBright, colorStarBright
	case mag < 3.0:
		return glyphStarMedium, colorStarMedium
	case mag < 4.0:
		return glyphStarDim, colorStarDim
	default:
		return glyphStarVeryDim, colorStarVeryDim
	}
}

// moonGlyph picks a glyph for a phase in [0,1), 0 full and 0.5 new.
func moonGlyph(phase float64) rune {
	d := math.Abs(phase - 0.5) // 0 new, 0.5 full
	switch {
	case d < 0.125:
		return glyphMoonNew
	case d > 0.375:
		return glyphMoonFull
	default:
		return glyphMoonHalf
	}
}

func (m SkyViewModel) drawCardinal(c *canvas, width, horizonY, y int, label string, az float64) {
	x, _, visible := m.projectToScreen(az, 0, width, horizonY)
	if !visible {
		return
	}
	c.set(x, y, rune(label[0]), "252")
}

// projectToScreen converts az/alt to screen coordinates relative to the
// camera. Rows 0..horizonY span the vertical field of view.
func (m SkyViewModel) projectToScreen(az, el float64, width, horizonY int) (int, int, bool) {
	dAz := normalizeAngle(az - m.camAz)
	dEl := el - m.camEl

	if dAz < -fovAz/2 || dAz > fovAz/2 {
		return 0, 0, false
	}
	if dEl < -fovEl/2 || dEl > fovEl/2 {
		return 0, 0, false
	}

	x := int((dAz + fovAz/2) / fovAz * float64(width-1))
	y := int((fovEl/2 - dEl) / fovEl * float64(horizonY))
	return x, y, true
}

// normalizeAngle wraps angle to -180..+180 range
func normalizeAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a < -180 {
		a += 360
	}
	return a
}

// lerpAngle interpolates between angles, taking shortest path
func lerpAngle(a, b, t float64) float64 {
	diff := normalizeAngle(b - a)
	return a + diff*t
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
