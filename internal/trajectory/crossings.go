package trajectory

import "math"

// HorizonAltitude is the altitude treated as the horizon when looking for
// rise and set events.
const HorizonAltitude = 0.0

// CrossingKind distinguishes rising from setting.
type CrossingKind int

const (
	Rising CrossingKind = iota
	Setting
)

func (k CrossingKind) String() string {
	if k == Rising {
		return "rise"
	}
	return "set"
}

// Crossing is a horizon crossing found between two samples.
type Crossing struct {
	Kind        CrossingKind
	OffsetHours float64
	JD          float64
	Azimuth     float64
}

// Culmination is the highest point reached within a sample.
type Culmination struct {
	OffsetHours float64
	JD          float64
	Altitude    float64
}

// Crossings scans a sample for horizon crossings in time order.
func Crossings(s *Sample) []Crossing {
	if s == nil || len(s.Points) < 2 {
		return nil
	}
	var out []Crossing
	for i := 1; i < len(s.Points); i++ {
		prev, curr := s.Points[i-1], s.Points[i]
		a1, a2 := prev.Horizontal.Alt, curr.Horizontal.Alt

		var kind CrossingKind
		switch {
		case a1 <= HorizonAltitude && a2 > HorizonAltitude:
			kind = Rising
		case a1 > HorizonAltitude && a2 <= HorizonAltitude:
			kind = Setting
		default:
			continue
		}

		f := crossingFraction(a1, a2, HorizonAltitude)
		out = append(out, Crossing{
			Kind:        kind,
			OffsetHours: lerp(prev.OffsetHours, curr.OffsetHours, f),
			JD:          lerp(prev.JD, curr.JD, f),
			Azimuth:     lerpAzimuth(prev.Horizontal.Az, curr.Horizontal.Az, f),
		})
	}
	return out
}

// Culminate finds the maximum altitude, refined with a parabola through the
// highest sample and its neighbours.
func Culminate(s *Sample) (Culmination, bool) {
	if s == nil || len(s.Points) == 0 {
		return Culmination{}, false
	}
	best := 0
	for i, p := range s.Points {
		if p.Horizontal.Alt > s.Points[best].Horizontal.Alt {
			best = i
		}
	}
	mid := s.Points[best]
	c := Culmination{OffsetHours: mid.OffsetHours, JD: mid.JD, Altitude: mid.Horizontal.Alt}
	if best == 0 || best == len(s.Points)-1 {
		return c, true
	}

	// y = a t^2 + b t + k through t = -1, 0, +1
	y0 := s.Points[best-1].Horizontal.Alt
	y1 := mid.Horizontal.Alt
	y2 := s.Points[best+1].Horizontal.Alt
	a := (y0+y2)/2 - y1
	b := (y2 - y0) / 2
	if a >= 0 {
		return c, true
	}
	tMax := math.Max(-1, math.Min(1, -b/(2*a)))

	step := mid.OffsetHours - s.Points[best-1].OffsetHours
	c.OffsetHours += step * tMax
	c.JD += step * tMax / 24
	c.Altitude = a*tMax*tMax + b*tMax + y1
	return c, true
}

func crossingFraction(el1, el2, threshold float64) float64 {
	if math.Abs(el2-el1) < 0.0001 {
		return 0
	}
	f := (threshold - el1) / (el2 - el1)
	return math.Max(0, math.Min(1, f))
}

func lerp(a, b, f float64) float64 { return a + (b-a)*f }

// lerpAzimuth interpolates along the short way round.
func lerpAzimuth(a, b, f float64) float64 {
	d := math.Mod(b-a+540, 360) - 180
	az := math.Mod(a+d*f+360, 360)
	if az >= 360 {
		az = 0
	}
	return az
}
