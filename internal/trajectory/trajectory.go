// Package trajectory samples a body's apparent path over a time window and
// returns it as an ordered polyline in render space.
package trajectory

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/litescript/ls-skydome/internal/astro"
)

// SiderealDayHours is the length of one sidereal rotation.
const SiderealDayHours = 23.9344696

// Defaults for a trajectory window.
const (
	DefaultDurationHours = 3.0
	DefaultSegments      = 30
)

// Errors for trajectory requests.
var (
	ErrNilBody               = errors.New("trajectory: no body")
	ErrInvalidSegments       = errors.New("trajectory: segment count must be at least 1")
	ErrInvalidRadius         = errors.New("trajectory: radius must be positive")
	ErrInvalidDuration       = errors.New("trajectory: duration must be positive")
	ErrStrategyNotApplicable = errors.New("trajectory: rigid rotation needs a static body")
)

// Strategy selects how samples are produced.
type Strategy int

const (
	// DirectResample runs the full transform at every sample time.
	DirectResample Strategy = iota

	// RigidRotation computes one position and spins it about the celestial
	// pole at the sidereal rate. Only valid for static bodies at constant
	// radius; refraction is frozen at its value for the first sample.
	RigidRotation
)

func (s Strategy) String() string {
	switch s {
	case DirectResample:
		return "direct"
	case RigidRotation:
		return "rigid"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses "direct" or "rigid".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct", "resample", "direct-resample":
		return DirectResample, nil
	case "rigid", "rotation", "rigid-rotation":
		return RigidRotation, nil
	}
	return DirectResample, fmt.Errorf("unknown trajectory strategy %q", s)
}

// Request describes one trajectory computation.
type Request struct {
	Body     astro.Body
	Observer astro.Observer

	// EpochJD is the reference instant; the window starts StartOffsetHours
	// after it and lasts DurationHours.
	EpochJD          float64
	StartOffsetHours float64
	DurationHours    float64

	Segments int
	Radius   float64
	Strategy Strategy
}

// Window holds the request fields that come from configuration.
type Window struct {
	StartOffsetHours float64
	DurationHours    float64
	Segments         int
	Strategy         Strategy
}

// DefaultWindow is three hours from now in thirty segments.
func DefaultWindow() Window {
	return Window{DurationHours: DefaultDurationHours, Segments: DefaultSegments}
}

// Request builds a request for body over the window.
func (w Window) Request(body astro.Body, obs astro.Observer, epochJD, radius float64) Request {
	return Request{
		Body:             body,
		Observer:         obs,
		EpochJD:          epochJD,
		StartOffsetHours: w.StartOffsetHours,
		DurationHours:    w.DurationHours,
		Segments:         w.Segments,
		Radius:           radius,
		Strategy:         w.Strategy,
	}
}

// Point is one sample along a trajectory.
type Point struct {
	OffsetHours float64 // hours after the window start
	JD          float64
	Horizontal  astro.Horizontal
	Position    astro.Vec3
}

// Sample is an ordered point list for one body. Callers treat it as
// read-only; it is shared through the cache.
type Sample struct {
	Name     string
	Strategy Strategy
	Radius   float64
	Points   []Point
}

// Validate checks the request parameters.
func (r Request) Validate() error {
	switch {
	case r.Body == nil:
		return ErrNilBody
	case r.Segments < 1:
		return fmt.Errorf("%w: got %d", ErrInvalidSegments, r.Segments)
	case !(r.Radius > 0) || math.IsInf(r.Radius, 0):
		return fmt.Errorf("%w: got %v", ErrInvalidRadius, r.Radius)
	case !(r.DurationHours > 0) || math.IsInf(r.DurationHours, 0):
		return fmt.Errorf("%w: got %v", ErrInvalidDuration, r.DurationHours)
	case r.Strategy == RigidRotation && !r.Body.Static():
		return fmt.Errorf("%w: %s moves", ErrStrategyNotApplicable, r.Body.Name())
	case r.Strategy != DirectResample && r.Strategy != RigidRotation:
		return fmt.Errorf("trajectory: unknown strategy %v", r.Strategy)
	}
	return nil
}

// Compute produces Segments+1 evenly spaced points across the request window.
// It has no side effects.
func Compute(req Request) (*Sample, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	n := req.Segments
	step := req.DurationHours / float64(n)
	startJD := req.EpochJD + req.StartOffsetHours/24

	s := &Sample{
		Name:     req.Body.Name(),
		Strategy: req.Strategy,
		Radius:   req.Radius,
		Points:   make([]Point, n+1),
	}

	switch req.Strategy {
	case RigidRotation:
		first := place(req.Body, req.Observer, startJD, req.Radius)
		axis := astro.CelestialPoleAxis(req.Observer.LatDeg)
		for i := 0; i <= n; i++ {
			dt := float64(i) * step
			angle := 2 * math.Pi * dt / SiderealDayHours
			pos := first.Position.Rotate(axis, angle)
			h, _ := astro.FromCartesian(pos)
			s.Points[i] = Point{
				OffsetHours: dt,
				JD:          startJD + dt/24,
				Horizontal:  h,
				Position:    pos,
			}
		}
	default:
		for i := 0; i <= n; i++ {
			dt := float64(i) * step
			p := place(req.Body, req.Observer, startJD+dt/24, req.Radius)
			p.OffsetHours = dt
			s.Points[i] = p
		}
	}

	return s, nil
}

func place(b astro.Body, obs astro.Observer, jd, radius float64) Point {
	h := astro.EquatorialToHorizontal(b.Equatorial(jd), obs, jd)
	return Point{
		JD:         jd,
		Horizontal: h,
		Position:   astro.ToCartesian(h, radius),
	}
}

// Width maps an apparent magnitude to a line width for drawing the path.
// Magnitude -1 and brighter gets 0.12, magnitude 6 and fainter gets 0.03.
func Width(magnitude float64) float64 {
	const (
		brightMag = -1.0
		faintMag  = 6.0
		minWidth  = 0.03
		maxWidth  = 0.12
	)
	t := (faintMag - magnitude) / (faintMag - brightMag)
	t = math.Max(0, math.Min(1, t))
	return minWidth + (maxWidth-minWidth)*t
}

// AngularLength returns the great-circle distance from the first point to
// each subsequent point, in degrees.
func (s *Sample) AngularLength() []float64 {
	if len(s.Points) == 0 {
		return nil
	}
	out := make([]float64, len(s.Points))
	first := s.Points[0].Horizontal
	for i, p := range s.Points {
		out[i] = astro.HorizontalSeparation(first, p.Horizontal)
	}
	return out
}
