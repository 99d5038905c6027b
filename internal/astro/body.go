package astro

// Body is anything the engine can place on the sky.
type Body interface {
	Name() string
	// Equatorial returns the body's RA/Dec at Julian Date jd.
	Equatorial(jd float64) Equatorial
	// Static reports whether RA/Dec are constant over time, which makes
	// the rigid-rotation trajectory valid for it.
	Static() bool
}

// FixedBody is a body with constant equatorial coordinates.
type FixedBody struct {
	Label string
	Eq    Equatorial
}

// Name returns the catalog label.
func (b FixedBody) Name() string { return b.Label }

// Equatorial returns Eq at any date.
func (b FixedBody) Equatorial(float64) Equatorial { return b.Eq }

// Static is always true for a fixed body.
func (b FixedBody) Static() bool { return true }

// Sun is the Sun as a Body.
type Sun struct{}

// Name returns "Sun".
func (Sun) Name() string { return "Sun" }

// Equatorial returns the apparent solar RA/Dec at jd.
func (Sun) Equatorial(jd float64) Equatorial { return SunEquatorial(jd) }

// Static is false; the Sun moves about a degree a day.
func (Sun) Static() bool { return false }

// Moon is the Moon as a Body.
type Moon struct{}

// Name returns "Moon".
func (Moon) Name() string { return "Moon" }

// Equatorial returns the approximate lunar RA/Dec at jd.
func (Moon) Equatorial(jd float64) Equatorial { return MoonEquatorial(jd) }

// Static is false.
func (Moon) Static() bool { return false }
