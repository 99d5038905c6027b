// Package simclock provides the simulation clock: civil calendar fields,
// a time-scale multiplier and the Julian Date derived from them.
package simclock

import (
	"math"
	"time"

	"github.com/litescript/ls-skydome/internal/astro"
)

// Snapshot is an immutable view of the clock at one instant.
type Snapshot struct {
	Civil     astro.CivilTime
	UTCOffset float64 // hours
	TimeScale float64
	JD        float64
}

// Time returns the snapshot instant as a time.Time in its fixed zone.
func (s Snapshot) Time() time.Time {
	return s.Civil.Time(s.UTCOffset)
}

// AddHours returns a snapshot h simulated hours later. The time scale is
// carried over unchanged.
func (s Snapshot) AddHours(h float64) Snapshot {
	t := s.Time().Add(time.Duration(h * float64(time.Hour)))
	return newSnapshot(astro.CivilFromTime(t), s.UTCOffset, s.TimeScale)
}

func newSnapshot(c astro.CivilTime, offset, scale float64) Snapshot {
	return Snapshot{
		Civil:     c,
		UTCOffset: offset,
		TimeScale: scale,
		JD:        c.JulianDate(offset),
	}
}

// Clock is the mutable simulation clock. It is owned by exactly one driving
// loop and is not safe for concurrent use; hand Snapshot values to readers.
//
// The Julian Date is recomputed from the calendar fields on every change and
// cannot be set independently.
type Clock struct {
	civil  astro.CivilTime
	offset float64
	scale  float64
	jd     float64
}

// New creates a clock at c (local civil time at utcOffset hours) advancing
// at scale simulated seconds per real second.
func New(c astro.CivilTime, utcOffset, scale float64) *Clock {
	clk := &Clock{offset: utcOffset, scale: scale}
	clk.set(c)
	return clk
}

// FromTime creates a clock at t, using t's zone offset.
func FromTime(t time.Time, scale float64) *Clock {
	_, off := t.Zone()
	return New(astro.CivilFromTime(t), float64(off)/3600, scale)
}

func (c *Clock) set(civil astro.CivilTime) {
	c.civil = civil.Normalized()
	c.jd = c.civil.JulianDate(c.offset)
}

// Advance moves simulated time forward by real*scale. Negative scales run the
// clock backwards. Calendar fields roll over through month, year and leap days.
func (c *Clock) Advance(real time.Duration) {
	if real == 0 || c.scale == 0 {
		return
	}
	sim := real.Seconds() * c.scale
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return
	}
	c.AddSeconds(sim)
}

// AddSeconds shifts simulated time by s seconds regardless of the time scale.
func (c *Clock) AddSeconds(s float64) {
	civil := c.civil
	civil.Second += s
	c.set(civil)
}

// SetTime changes the time of day, keeping the date.
func (c *Clock) SetTime(hour, minute int, second float64) {
	civil := c.civil
	civil.Hour, civil.Minute, civil.Second = hour, minute, second
	c.set(civil)
}

// SetDate changes the date, keeping the time of day.
func (c *Clock) SetDate(year, month, day int) {
	civil := c.civil
	civil.Year, civil.Month, civil.Day = year, month, day
	c.set(civil)
}

// SetCivil replaces all calendar fields.
func (c *Clock) SetCivil(civil astro.CivilTime) {
	c.set(civil)
}

// SetUTCOffset changes the zone the calendar fields are read in. The fields
// stay as they are, so the Julian Date moves.
func (c *Clock) SetUTCOffset(hours float64) {
	c.offset = hours
	c.set(c.civil)
}

// SetTimeScale sets simulated seconds per real second.
func (c *Clock) SetTimeScale(scale float64) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return
	}
	c.scale = scale
}

// TimeScale returns simulated seconds per real second.
func (c *Clock) TimeScale() float64 { return c.scale }

// Civil returns the current calendar fields.
func (c *Clock) Civil() astro.CivilTime { return c.civil }

// UTCOffset returns the clock's zone offset in hours.
func (c *Clock) UTCOffset() float64 { return c.offset }

// JulianDate returns the Julian Date (UT) of the current calendar fields.
func (c *Clock) JulianDate() float64 { return c.jd }

// Snapshot returns an immutable copy of the clock state.
func (c *Clock) Snapshot() Snapshot {
	return Snapshot{
		Civil:     c.civil,
		UTCOffset: c.offset,
		TimeScale: c.scale,
		JD:        c.jd,
	}
}
