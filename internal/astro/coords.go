// Package astro provides the celestial position engine: time scales, sidereal
// time, equatorial to horizontal transforms, refraction, render-space
// Cartesian vectors, Kepler's equation and the low-order Sun and Moon series.
//
// Every function here is pure. Right ascension is always in degrees.
package astro

import (
	"math"
)

// zenithEpsilon is the cos(alt) below which azimuth is treated as undefined.
const zenithEpsilon = 1e-9

// Equatorial holds equatorial coordinates in degrees.
type Equatorial struct {
	RA  float64 // Right ascension, degrees [0,360)
	Dec float64 // Declination, degrees [-90,90]
}

// Horizontal holds observer-relative coordinates in degrees.
//
// Azimuth: 0° = North, 90° = East, 180° = South, 270° = West.
type Horizontal struct {
	Alt float64
	Az  float64
}

// Observer represents a ground-based observer location.
type Observer struct {
	LatDeg    float64 // Latitude in degrees (north positive)
	LonDeg    float64 // Longitude in degrees (east positive)
	AltitudeM float64 // Height above sea level, meters; carried, not used numerically
	UTCOffset float64 // Civil time offset from UTC, hours
	Name      string  // Optional name for the site
}

// Normalized returns o with longitude folded into [-180,180) and latitude
// clamped to [-90,90].
func (o Observer) Normalized() Observer {
	o.LonDeg = NormalizeSigned(o.LonDeg)
	o.LatDeg = clamp(o.LatDeg, -90, 90)
	return o
}

// ToHorizontal converts an object with the given declination and hour angle
// to apparent horizontal coordinates for an observer at latDeg.
//
// The hour angle already carries the right ascension; ra is accepted so the
// call reads like the equatorial pair it came from. Refraction is added for
// objects at or above the horizon, and the result is clamped to [-90,90].
// At the zenith and nadir the azimuth is 0.
func ToHorizontal(ra, dec, hourAngle, latDeg float64) Horizontal {
	_ = ra
	h := GeometricHorizontal(dec, hourAngle, latDeg)
	if h.Alt >= 0 {
		h.Alt = clamp(h.Alt+Refraction(h.Alt), -90, 90)
	}
	return h
}

// GeometricHorizontal is ToHorizontal without atmospheric refraction.
func GeometricHorizontal(dec, hourAngle, latDeg float64) Horizontal {
	lat := degToRad(latDeg)
	d := degToRad(dec)
	ha := degToRad(hourAngle)

	sinAlt := math.Sin(d)*math.Sin(lat) + math.Cos(d)*math.Cos(lat)*math.Cos(ha)
	alt := math.Asin(clamp(sinAlt, -1, 1))

	cosAlt := math.Cos(alt)
	if cosAlt < zenithEpsilon {
		return Horizontal{Alt: radToDeg(alt), Az: 0}
	}

	// Both atan2 arguments share the positive factor cos(lat)*cos(alt), so it
	// is multiplied through instead of divided out.
	y := -math.Sin(ha) * math.Cos(d) * math.Cos(lat)
	x := math.Sin(d) - math.Sin(lat)*sinAlt
	az := math.Atan2(y, x)

	return Horizontal{
		Alt: radToDeg(alt),
		Az:  NormalizeDegrees(radToDeg(az)),
	}
}

// EquatorialToHorizontal converts eq to apparent horizontal coordinates for
// obs at Julian Date jd.
func EquatorialToHorizontal(eq Equatorial, obs Observer, jd float64) Horizontal {
	lst := LocalSiderealTime(jd, obs.LonDeg)
	return ToHorizontal(eq.RA, eq.Dec, HourAngle(eq.RA, lst), obs.LatDeg)
}

// Refraction returns Saemundsson's refraction correction in degrees for a
// geometric altitude in degrees. Objects below the horizon get none.
func Refraction(altDeg float64) float64 {
	if altDeg < 0 || math.IsNaN(altDeg) {
		return 0
	}
	a := altDeg
	return (0.1594 + 0.0196*a + 0.00002*a*a) / (1 + 0.505*a + 0.0845*a*a)
}

// Unrefract recovers the geometric altitude from an apparent one.
func Unrefract(apparentDeg float64) float64 {
	if apparentDeg < 0 {
		return apparentDeg
	}
	geo := apparentDeg
	for i := 0; i < 20; i++ {
		next := apparentDeg - Refraction(geo)
		if next < 0 {
			next = 0
		}
		if math.Abs(next-geo) < 1e-12 {
			return next
		}
		geo = next
	}
	return geo
}

// HorizontalToEquatorial is the geometric inverse of GeometricHorizontal.
// It returns declination and hour angle in degrees.
func HorizontalToEquatorial(h Horizontal, latDeg float64) (dec, hourAngle float64) {
	lat := degToRad(latDeg)
	alt := degToRad(h.Alt)
	az := degToRad(h.Az)

	sinDec := math.Sin(alt)*math.Sin(lat) + math.Cos(alt)*math.Cos(lat)*math.Cos(az)
	d := math.Asin(clamp(sinDec, -1, 1))

	y := -math.Sin(az) * math.Cos(alt) * math.Cos(lat)
	x := math.Sin(alt) - math.Sin(lat)*sinDec
	ha := math.Atan2(y, x)

	return radToDeg(d), NormalizeDegrees(radToDeg(ha))
}

// HorizontalToRADec inverts EquatorialToHorizontal, removing refraction first.
func HorizontalToRADec(h Horizontal, obs Observer, jd float64) Equatorial {
	h.Alt = Unrefract(h.Alt)
	dec, ha := HorizontalToEquatorial(h, obs.LatDeg)
	lst := LocalSiderealTime(jd, obs.LonDeg)
	return Equatorial{RA: NormalizeDegrees(lst - ha), Dec: dec}
}

// ToCartesian converts horizontal coordinates to a render-space vector of
// length radius. Y is up, +Z points north and +X points east.
func ToCartesian(h Horizontal, radius float64) Vec3 {
	alt := degToRad(h.Alt)
	az := degToRad(h.Az)
	return Vec3{
		X: radius * math.Cos(alt) * math.Sin(az),
		Y: radius * math.Sin(alt),
		Z: radius * math.Cos(alt) * math.Cos(az),
	}
}

// FromCartesian is the inverse of ToCartesian.
func FromCartesian(v Vec3) (Horizontal, float64) {
	r := v.Norm()
	if r == 0 {
		return Horizontal{}, 0
	}
	alt := math.Asin(clamp(v.Y/r, -1, 1))
	var az float64
	if math.Hypot(v.X, v.Z)/r >= zenithEpsilon {
		az = NormalizeDegrees(radToDeg(math.Atan2(v.X, v.Z)))
	}
	return Horizontal{Alt: radToDeg(alt), Az: az}, r
}

// CelestialPoleAxis returns the unit vector toward the north celestial pole
// in the render frame for an observer at latDeg.
func CelestialPoleAxis(latDeg float64) Vec3 {
	lat := degToRad(latDeg)
	return Vec3{X: 0, Y: math.Sin(lat), Z: math.Cos(lat)}
}

// AngularSeparation calculates the angular separation between two points on the celestial sphere.
// All coordinates in degrees. Returns separation in degrees.
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	ra1Rad := degToRad(ra1)
	dec1Rad := degToRad(dec1)
	ra2Rad := degToRad(ra2)
	dec2Rad := degToRad(dec2)

	// Vincenty form, well conditioned near 0° and 180°
	dRA := ra2Rad - ra1Rad
	sinD1, cosD1 := math.Sincos(dec1Rad)
	sinD2, cosD2 := math.Sincos(dec2Rad)
	sinDRA, cosDRA := math.Sincos(dRA)

	x := cosD2 * sinDRA
	y := cosD1*sinD2 - sinD1*cosD2*cosDRA
	z := sinD1*sinD2 + cosD1*cosD2*cosDRA

	return radToDeg(math.Atan2(math.Hypot(x, y), z))
}

// HorizontalSeparation is the great-circle distance between two horizontal
// positions, in degrees.
func HorizontalSeparation(a, b Horizontal) float64 {
	// Azimuth runs opposite to RA, but separation is symmetric in longitude.
	return AngularSeparation(a.Az, a.Alt, b.Az, b.Alt)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
