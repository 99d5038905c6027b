package astro

import (
	"math"
)

// SunEquatorial calculates the apparent equatorial coordinates of the Sun at jd.
// Uses a simplified solar ephemeris based on the Astronomical Almanac.
// Accuracy: ~0.01 degrees, far below what the sky view can resolve.
func SunEquatorial(jd float64) Equatorial {
	T := JulianCenturies(jd)

	// Mean longitude of the Sun (degrees)
	L0 := NormalizeDegrees(280.46646 + 36000.76983*T + 0.0003032*T*T)

	// Mean anomaly of the Sun (degrees)
	M := NormalizeDegrees(357.52911 + 35999.05029*T - 0.0001537*T*T)
	Mrad := degToRad(M)

	// Equation of center
	C := (1.914602 - 0.004817*T - 0.000014*T*T) * math.Sin(Mrad)
	C += (0.019993 - 0.000101*T) * math.Sin(2*Mrad)
	C += 0.000289 * math.Sin(3*Mrad)

	// Apparent longitude (aberration and nutation)
	omega := 125.04 - 1934.136*T
	lonApp := L0 + C - 0.00569 - 0.00478*math.Sin(degToRad(omega))

	eps := MeanObliquity(jd) + 0.00256*math.Cos(degToRad(omega))

	return EclipticToEquatorial(lonApp, 0, eps)
}

// SunSeparation returns the angular distance in degrees between the Sun and a
// target at jd.
func SunSeparation(target Equatorial, jd float64) float64 {
	sun := SunEquatorial(jd)
	return AngularSeparation(sun.RA, sun.Dec, target.RA, target.Dec)
}

// Twilight classifies the sky brightness from the Sun's altitude.
type Twilight int

const (
	Daylight     Twilight = iota // Sun above the horizon
	Civil                        // 0 to -6 degrees
	Nautical                     // -6 to -12 degrees
	Astronomical                 // -12 to -18 degrees
	Night                        // below -18 degrees
)

// TwilightFor returns the twilight class for a Sun altitude in degrees.
func TwilightFor(sunAltDeg float64) Twilight {
	switch {
	case sunAltDeg >= 0:
		return Daylight
	case sunAltDeg >= -6:
		return Civil
	case sunAltDeg >= -12:
		return Nautical
	case sunAltDeg >= -18:
		return Astronomical
	default:
		return Night
	}
}

func (t Twilight) String() string {
	switch t {
	case Daylight:
		return "day"
	case Civil:
		return "civil twilight"
	case Nautical:
		return "nautical twilight"
	case Astronomical:
		return "astronomical twilight"
	default:
		return "night"
	}
}
