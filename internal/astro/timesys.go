package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// J2000 is the Julian Date of the J2000.0 epoch (2000-01-01 12:00 TT).
const J2000 = 2451545.0

// DaysPerJulianCentury is the length of a Julian century in days.
const DaysPerJulianCentury = 36525.0

// CivilTime is a civil calendar date and time of day, Gregorian calendar.
type CivilTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second float64
}

// JulianDate converts a civil date/time at the given UTC offset to a Julian Date (UT).
//
// The algorithm is Meeus' civil-to-JD conversion for the proleptic Gregorian
// calendar. There is no Julian-calendar branch and no leap-second handling.
// Out-of-range fields (month 13, minute 75) roll over naturally.
func JulianDate(year, month, day, hour, minute int, second, utcOffsetHours float64) float64 {
	// Fold excess months into the year first so floor(y/100) sees the real year.
	y := year + floorDiv(month-1, 12)
	m := mod(month-1, 12) + 1
	if m <= 2 {
		y--
		m += 12
	}

	fy := float64(y)
	a := math.Floor(fy / 100)
	b := 2 - a + math.Floor(a/4)

	jd := math.Floor(365.25*(fy+4716)) +
		math.Floor(30.6001*float64(m+1)) +
		float64(day) + b - 1524.5

	dayFrac := (float64(hour) + float64(minute)/60 + second/3600) / 24
	return jd + dayFrac - utcOffsetHours/24
}

// JulianDate returns the Julian Date (UT) of c observed at utcOffsetHours.
func (c CivilTime) JulianDate(utcOffsetHours float64) float64 {
	return JulianDate(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, utcOffsetHours)
}

// Time converts c to a time.Time in a fixed zone at the given offset.
func (c CivilTime) Time(utcOffsetHours float64) time.Time {
	loc := time.FixedZone("", int(math.Round(utcOffsetHours*3600)))
	whole := math.Floor(c.Second)
	nanos := int(math.Round((c.Second - whole) * 1e9))
	return time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, int(whole), nanos, loc)
}

// Normalized rolls out-of-range fields over into a canonical civil time.
func (c CivilTime) Normalized() CivilTime {
	return CivilFromTime(c.Time(0))
}

// CivilFromTime extracts the civil fields of t in its own location.
func CivilFromTime(t time.Time) CivilTime {
	return CivilTime{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: float64(t.Second()) + float64(t.Nanosecond())/1e9,
	}
}

// CivilFromJD converts a Julian Date (UT) back into civil fields at utcOffsetHours.
// Results are rounded to the microsecond. Dates before the Gregorian reform
// come back in the Julian calendar.
func CivilFromJD(jd, utcOffsetHours float64) CivilTime {
	local := jd + utcOffsetHours/24
	y, m, d := julian.JDToCalendar(local)

	day := math.Floor(d)
	secs := (d - day) * 86400
	micros := math.Round(secs * 1e6)

	t := time.Date(y, time.Month(m), int(day), 0, 0, 0, 0, time.UTC).
		Add(time.Duration(micros) * time.Microsecond)
	return CivilFromTime(t)
}

// JulianDateFromTime returns the Julian Date (UT) of t.
func JulianDateFromTime(t time.Time) float64 {
	_, offset := t.Zone()
	return CivilFromTime(t).JulianDate(float64(offset) / 3600)
}

// JulianCenturies returns Julian centuries elapsed since J2000.
func JulianCenturies(jd float64) float64 {
	return (jd - J2000) / DaysPerJulianCentury
}

// GreenwichSiderealTime returns the Greenwich mean sidereal time in degrees [0,360).
func GreenwichSiderealTime(jd float64) float64 {
	T := JulianCenturies(jd)
	gst := 280.46061837 +
		360.98564736629*(jd-J2000) +
		0.000387933*T*T -
		T*T*T/38710000.0
	return NormalizeDegrees(gst)
}

// LocalSiderealTime returns the local mean sidereal time in degrees [0,360)
// for an observer at lonDeg (east positive).
func LocalSiderealTime(jd, lonDeg float64) float64 {
	return NormalizeDegrees(GreenwichSiderealTime(jd) + lonDeg)
}

// HourAngle returns the local hour angle in degrees [0,360).
// RA and LST are both degrees.
func HourAngle(raDeg, lstDeg float64) float64 {
	return NormalizeDegrees(lstDeg - raDeg + 360)
}

// HoursToDegrees converts a right ascension in hours to degrees.
func HoursToDegrees(h float64) float64 {
	return h * 15
}

// NormalizeDegrees maps an angle to [0,360).
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	// a tiny negative input rounds up to exactly 360
	if a >= 360 || a == 0 {
		a = 0
	}
	return a
}

// NormalizeSigned maps an angle to [-180,180).
func NormalizeSigned(a float64) float64 {
	return NormalizeDegrees(a+180) - 180
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	return a - floorDiv(a, b)*b
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
