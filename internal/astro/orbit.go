package astro

import (
	"errors"
	"fmt"
	"math"
)

// Kepler solver limits.
const (
	KeplerTolerance     = 1e-12
	KeplerMaxIterations = 50

	// minKeplerDerivative guards the Newton step against a vanishing 1 - e·cos(E).
	minKeplerDerivative = 1e-10

	// highEccentricity is the e above which the iteration is seeded at π.
	highEccentricity = 0.8
)

// ErrInvalidEccentricity is returned for eccentricities outside [0,1).
var ErrInvalidEccentricity = errors.New("eccentricity out of range [0,1)")

// KeplerSolution is the detailed result of SolveKeplerDetailed.
type KeplerSolution struct {
	E          float64 // Eccentric anomaly, radians
	Iterations int
	Converged  bool // false when the iteration cap or the derivative guard stopped it
}

// SolveKepler solves Kepler's equation M = E - e·sin(E) for the eccentric
// anomaly E in radians. Eccentricities outside [0,1) are rejected.
func SolveKepler(meanAnomalyRad, e float64) (float64, error) {
	sol, err := SolveKeplerDetailed(meanAnomalyRad, e)
	return sol.E, err
}

// SolveKeplerDetailed is SolveKepler with iteration diagnostics.
//
// Newton-Raphson is seeded at M, or at π for e > 0.8. It stops when
// |ΔE| < 1e-12 or after 50 iterations. If the derivative 1 - e·cos(E) comes
// within 1e-10 of zero it stops and returns the current estimate. The
// solution is computed for M reduced to [0,2π), where the π seed lies on the
// correct side of the root, and shifted back by the same whole number of
// revolutions.
func SolveKeplerDetailed(meanAnomalyRad, e float64) (KeplerSolution, error) {
	if math.IsNaN(e) || e < 0 || e >= 1 {
		return KeplerSolution{}, fmt.Errorf("solve kepler: e=%v: %w", e, ErrInvalidEccentricity)
	}
	if isBad(meanAnomalyRad) {
		return KeplerSolution{}, fmt.Errorf("solve kepler: mean anomaly %v is not finite", meanAnomalyRad)
	}

	revs := math.Floor(meanAnomalyRad / (2 * math.Pi))
	M := meanAnomalyRad - revs*2*math.Pi

	E := M
	if e > highEccentricity {
		E = math.Pi
	}

	sol := KeplerSolution{}
	for sol.Iterations < KeplerMaxIterations {
		fp := 1 - e*math.Cos(E)
		if math.Abs(fp) < minKeplerDerivative {
			break
		}
		delta := (E - e*math.Sin(E) - M) / fp
		E -= delta
		sol.Iterations++
		if math.Abs(delta) < KeplerTolerance {
			sol.Converged = true
			break
		}
	}

	sol.E = E + revs*2*math.Pi
	return sol, nil
}

// TrueAnomaly returns the true anomaly in radians for eccentric anomaly E.
func TrueAnomaly(E, e float64) float64 {
	return 2 * math.Atan(math.Sqrt((1+e)/(1-e))*math.Tan(E/2))
}

// OrbitalRadius returns the orbit radius at true anomaly nu (radians) for
// semi-major axis a and eccentricity e.
func OrbitalRadius(a, e, nu float64) float64 {
	return a * (1 - e*e) / (1 + e*math.Cos(nu))
}

// OrbitalElements describes a body's orbit for rendering. The semi-major axis
// is a render-space proxy, not a physical distance.
type OrbitalElements struct {
	Eccentricity     float64
	SemiMajorAxis    float64 // Render units
	InclinationDeg   float64
	AxialTiltDeg     float64
	PerigeeLonDeg    float64
	AscendingNodeDeg float64
}

// Moon orbital constants.
const (
	MoonEccentricity   = 0.0549
	MoonInclinationDeg = 5.145
	MoonAxialTiltDeg   = 6.687
	moonPerigeeLonDeg  = 83.353
	moonNodeLonDeg     = 125.045
)

// MoonElements returns the Moon's elements with the semi-major axis set to
// the sky sphere radius, so the Moon renders at the star field's distance.
func MoonElements(skySphereRadius float64) OrbitalElements {
	return OrbitalElements{
		Eccentricity:     MoonEccentricity,
		SemiMajorAxis:    skySphereRadius,
		InclinationDeg:   MoonInclinationDeg,
		AxialTiltDeg:     MoonAxialTiltDeg,
		PerigeeLonDeg:    moonPerigeeLonDeg,
		AscendingNodeDeg: moonNodeLonDeg,
	}
}

// RadiusAt solves the orbit for mean anomaly M (radians) and returns the
// radius together with the Kepler diagnostics.
func (el OrbitalElements) RadiusAt(meanAnomalyRad float64) (float64, KeplerSolution, error) {
	sol, err := SolveKeplerDetailed(meanAnomalyRad, el.Eccentricity)
	if err != nil {
		return 0, sol, err
	}
	nu := TrueAnomaly(sol.E, el.Eccentricity)
	return OrbitalRadius(el.SemiMajorAxis, el.Eccentricity, nu), sol, nil
}

// MoonDistance returns the Moon's render-space radius at jd.
func MoonDistance(jd float64, el OrbitalElements) (float64, KeplerSolution, error) {
	return el.RadiusAt(MoonMeanAnomaly(jd))
}
