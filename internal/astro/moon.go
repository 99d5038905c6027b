package astro

import (
	"math"

	"github.com/soniakeys/unit"
)

// LunarArguments are the Moon's fundamental arguments in degrees [0,360).
type LunarArguments struct {
	L float64 // Mean longitude
	M float64 // Mean anomaly
	F float64 // Argument of latitude
	D float64 // Mean elongation from the Sun
}

// LunarArgumentsAt evaluates the lunar argument polynomials at jd.
func LunarArgumentsAt(jd float64) LunarArguments {
	T := JulianCenturies(jd)
	return LunarArguments{
		L: NormalizeDegrees(218.3164477 + 481267.88123421*T - 0.0015786*T*T),
		M: NormalizeDegrees(134.9633964 + 477198.8675055*T + 0.0087414*T*T),
		F: NormalizeDegrees(93.2720950 + 483202.0175233*T - 0.0036539*T*T),
		D: NormalizeDegrees(297.8501921 + 445267.1114034*T - 0.0018819*T*T),
	}
}

// MoonEcliptic returns the Moon's geocentric ecliptic longitude and latitude
// in degrees from the leading periodic terms in M and F.
//
// The series ignores the solar terms in D (evection, variation), so errors of
// one to two degrees are expected.
func MoonEcliptic(jd float64) (lonDeg, latDeg float64) {
	a := LunarArgumentsAt(jd)
	M := unit.AngleFromDeg(a.M)
	F := unit.AngleFromDeg(a.F)

	lon := a.L +
		6.288774*M.Sin() +
		0.213618*(2*M).Sin() -
		0.114332*(2*F).Sin() +
		0.010675*(3*M).Sin()

	lat := 5.128122*F.Sin() +
		0.280602*(M+F).Sin() +
		0.277693*(M-F).Sin()

	return NormalizeDegrees(lon), lat
}

// MoonEquatorial returns the Moon's approximate RA/Dec at jd.
func MoonEquatorial(jd float64) Equatorial {
	lon, lat := MoonEcliptic(jd)
	return EclipticToEquatorial(lon, lat, MeanObliquity(jd))
}

// MoonPhase returns the phase fraction (D/360 + 0.5) mod 1.
// Full moon is 0, new moon is 0.5.
func MoonPhase(jd float64) float64 {
	D := LunarArgumentsAt(jd).D
	return math.Mod(D/360+0.5, 1)
}

// MoonIllumination returns the illuminated fraction of the disk in [0,1]
// from the mean elongation.
func MoonIllumination(jd float64) float64 {
	D := unit.AngleFromDeg(LunarArgumentsAt(jd).D)
	return (1 - D.Cos()) / 2
}

// MoonMeanAnomaly returns the Moon's mean anomaly in radians at jd.
func MoonMeanAnomaly(jd float64) float64 {
	return unit.AngleFromDeg(LunarArgumentsAt(jd).M).Rad()
}
