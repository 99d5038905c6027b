package astro

import (
	"math"
)

// Vec3 represents a 3D vector in the render frame.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns a unit vector in the same direction.
func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

// Scale returns the vector scaled by a factor.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{X: v.X + u.X, Y: v.Y + u.Y, Z: v.Z + u.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{X: v.X - u.X, Y: v.Y - u.Y, Z: v.Z - u.Z}
}

// Dot returns the scalar product.
func (v Vec3) Dot(u Vec3) float64 {
	return v.X*u.X + v.Y*u.Y + v.Z*u.Z
}

// Cross returns the component-wise cross product v × u.
func (v Vec3) Cross(u Vec3) Vec3 {
	return Vec3{
		X: v.Y*u.Z - v.Z*u.Y,
		Y: v.Z*u.X - v.X*u.Z,
		Z: v.X*u.Y - v.Y*u.X,
	}
}

// Rotate rotates v about axis by angleRad using Rodrigues' formula.
// The axis need not be normalized.
//
// A positive angle about CelestialPoleAxis moves a star westward.
func (v Vec3) Rotate(axis Vec3, angleRad float64) Vec3 {
	k := axis.Normalized()
	cos := math.Cos(angleRad)
	sin := math.Sin(angleRad)
	return v.Scale(cos).
		Add(k.Cross(v).Scale(sin)).
		Add(k.Scale(k.Dot(v) * (1 - cos)))
}

// IsFinite reports whether all components are finite.
func (v Vec3) IsFinite() bool {
	return !isBad(v.X) && !isBad(v.Y) && !isBad(v.Z)
}

func isBad(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

// obliquityJ2000 is the mean obliquity of the ecliptic at J2000, degrees.
const obliquityJ2000 = 23.439291

// MeanObliquity returns the mean obliquity of the ecliptic in degrees.
func MeanObliquity(jd float64) float64 {
	T := JulianCenturies(jd)
	return obliquityJ2000 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T
}

// EclipticToEquatorial converts ecliptic longitude/latitude (degrees) to
// equatorial coordinates using obliquity epsDeg.
func EclipticToEquatorial(lonDeg, latDeg, epsDeg float64) Equatorial {
	lon := degToRad(lonDeg)
	lat := degToRad(latDeg)
	eps := degToRad(epsDeg)

	ra := math.Atan2(math.Sin(lon)*math.Cos(eps)-math.Tan(lat)*math.Sin(eps), math.Cos(lon))
	dec := math.Asin(clamp(math.Sin(lat)*math.Cos(eps)+math.Cos(lat)*math.Sin(eps)*math.Sin(lon), -1, 1))

	return Equatorial{
		RA:  NormalizeDegrees(radToDeg(ra)),
		Dec: radToDeg(dec),
	}
}
