// Package scene places catalog stars, the Sun and the Moon on the render sky
// sphere for one simulation instant.
package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/catalog"
	"github.com/litescript/ls-skydome/internal/logging"
)

// DrawMode selects how star distance maps to render radius.
type DrawMode int

const (
	// SameDistance puts every star on the sky sphere.
	SameDistance DrawMode = iota
	// ActualDistance scales catalog parallax distances into render units.
	ActualDistance
)

func (m DrawMode) String() string {
	switch m {
	case SameDistance:
		return "same"
	case ActualDistance:
		return "actual"
	default:
		return fmt.Sprintf("DrawMode(%d)", int(m))
	}
}

// ParseDrawMode parses "same" or "actual".
func ParseDrawMode(s string) (DrawMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "same", "same-distance":
		return SameDistance, nil
	case "actual", "actual-distance", "distance":
		return ActualDistance, nil
	}
	return SameDistance, fmt.Errorf("unknown draw mode %q", s)
}

// Options configures an Engine.
type Options struct {
	Radius       float64 // sky sphere radius
	Mode         DrawMode
	ParsecScale  float64 // render units per parsec in ActualDistance
	MinRadius    float64 // floor for ActualDistance
	BaseScale    float64 // star glyph scale numerator
	MaxMagnitude float64 // fainter stars are not placed; zero disables
}

// DefaultOptions matches the default config.
func DefaultOptions() Options {
	return Options{
		Radius:       500,
		Mode:         SameDistance,
		ParsecScale:  1,
		MinRadius:    50,
		BaseScale:    1,
		MaxMagnitude: 6.5,
	}
}

// Placement is one body positioned in render space.
type Placement struct {
	Name       string
	HIP        int
	Magnitude  float64
	Equatorial astro.Equatorial
	Horizontal astro.Horizontal
	Position   astro.Vec3
	Radius     float64
	Scale      float64
}

// Visible reports whether the body is above the horizon.
func (p Placement) Visible() bool { return p.Horizontal.Alt > 0 }

// MoonPlacement adds phase information.
type MoonPlacement struct {
	Placement
	Phase        float64 // 0 full, 0.5 new
	Illumination float64 // lit fraction
	Converged    bool
}

// Line is a constellation polyline resolved to render positions.
type Line struct {
	Name   string
	Points []astro.Vec3
	Alts   []float64
}

// Frame is everything placed for one instant.
type Frame struct {
	JD       float64
	LST      float64
	Observer astro.Observer
	Stars    []Placement
	Sun      Placement
	Moon     MoonPlacement
	Lines    []Line
	Twilight astro.Twilight
	Dropped  int
}

// Engine computes frames. It holds only immutable inputs and may be shared.
type Engine struct {
	cat   *catalog.Catalog
	lines []catalog.Polyline
	opts  Options
	log   *logging.Logger
}

// New creates an engine. lines may be nil.
func New(cat *catalog.Catalog, lines []catalog.Polyline, opts Options, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	if !(opts.Radius > 0) {
		opts.Radius = DefaultOptions().Radius
	}
	if opts.BaseScale == 0 {
		opts.BaseScale = DefaultOptions().BaseScale
	}
	return &Engine{cat: cat, lines: lines, opts: opts, log: log.With("scene")}
}

// Options returns the engine's options.
func (e *Engine) Options() Options { return e.opts }

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Frame places every body for the observer at jd.
func (e *Engine) Frame(obs astro.Observer, jd float64) Frame {
	obs = obs.Normalized()
	f := Frame{
		JD:       jd,
		LST:      astro.LocalSiderealTime(jd, obs.LonDeg),
		Observer: obs,
	}

	var byHIP map[int]astro.Vec3
	var altByHIP map[int]float64
	if len(e.lines) > 0 {
		byHIP = make(map[int]astro.Vec3)
		altByHIP = make(map[int]float64)
	}

	if e.cat != nil {
		objs := e.cat.Objects()
		f.Stars = make([]Placement, 0, len(objs))
		for _, o := range objs {
			if o.Magnitude > e.opts.MaxMagnitude && e.opts.MaxMagnitude != 0 {
				continue
			}
			p := e.place(o, obs, jd, e.StarRadius(o.DistanceParsec))
			p.HIP = o.HIP
			p.Magnitude = o.Magnitude
			p.Scale = StarScale(o.Magnitude, e.opts.BaseScale)
			if !p.Position.IsFinite() {
				e.log.Warn("dropping %s: non-finite position", p.Name)
				f.Dropped++
				continue
			}
			f.Stars = append(f.Stars, p)
			if byHIP != nil {
				byHIP[o.HIP] = p.Position
				altByHIP[o.HIP] = p.Horizontal.Alt
			}
		}
	}

	f.Sun = e.place(astro.Sun{}, obs, jd, e.opts.Radius)
	f.Sun.Magnitude = -26.7
	f.Twilight = astro.TwilightFor(f.Sun.Horizontal.Alt)
	if !f.Sun.Position.IsFinite() {
		e.log.Warn("Sun position non-finite at JD %.5f", jd)
		f.Sun = Placement{Name: "Sun"}
		f.Dropped++
	}

	f.Moon = e.moon(obs, jd)
	if !f.Moon.Position.IsFinite() {
		e.log.Warn("Moon position non-finite at JD %.5f", jd)
		f.Moon = MoonPlacement{Placement: Placement{Name: "Moon"}}
		f.Dropped++
	}

	// A star that was not placed breaks the polyline into separate runs.
	for _, pl := range e.lines {
		ln := Line{Name: pl.Name}
		flush := func() {
			if len(ln.Points) >= 2 {
				f.Lines = append(f.Lines, ln)
			}
			ln = Line{Name: pl.Name}
		}
		for _, hip := range pl.HIP {
			v, ok := byHIP[hip]
			if !ok {
				flush()
				continue
			}
			ln.Points = append(ln.Points, v)
			ln.Alts = append(ln.Alts, altByHIP[hip])
		}
		flush()
	}

	return f
}

func (e *Engine) place(b astro.Body, obs astro.Observer, jd, radius float64) Placement {
	eq := b.Equatorial(jd)
	h := astro.EquatorialToHorizontal(eq, obs, jd)
	return Placement{
		Name:       b.Name(),
		Equatorial: eq,
		Horizontal: h,
		Position:   astro.ToCartesian(h, radius),
		Radius:     radius,
	}
}

func (e *Engine) moon(obs astro.Observer, jd float64) MoonPlacement {
	el := astro.MoonElements(e.opts.Radius)
	r, sol, err := astro.MoonDistance(jd, el)
	if err != nil {
		e.log.Warn("moon orbit: %v", err)
		r = e.opts.Radius
	} else if !sol.Converged {
		e.log.Warn("moon Kepler solve did not converge after %d iterations", sol.Iterations)
	}
	p := e.place(astro.Moon{}, obs, jd, r)
	p.Magnitude = -12.7
	return MoonPlacement{
		Placement:    p,
		Phase:        astro.MoonPhase(jd),
		Illumination: astro.MoonIllumination(jd),
		Converged:    err == nil && sol.Converged,
	}
}

// StarRadius returns the render radius for a star at the given distance.
func (e *Engine) StarRadius(distanceParsec float64) float64 {
	if e.opts.Mode != ActualDistance || !(distanceParsec > 0) || math.IsInf(distanceParsec, 0) {
		return e.opts.Radius
	}
	return math.Max(e.opts.MinRadius, distanceParsec*e.opts.ParsecScale)
}

// StarScale sizes a star glyph by apparent magnitude.
func StarScale(magnitude, base float64) float64 {
	s := base / (magnitude + 2)
	if math.IsNaN(s) || magnitude+2 <= 0 {
		return 2
	}
	return math.Max(0.1, math.Min(2, s))
}

// Find returns the placement of the named body in the frame.
func (f *Frame) Find(name string) (Placement, bool) {
	switch {
	case strings.EqualFold(name, "sun"):
		return f.Sun, true
	case strings.EqualFold(name, "moon"):
		return f.Moon.Placement, true
	}
	for _, s := range f.Stars {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Placement{}, false
}

// VisibleStars counts stars above the horizon.
func (f *Frame) VisibleStars() int {
	n := 0
	for _, s := range f.Stars {
		if s.Visible() {
			n++
		}
	}
	return n
}
