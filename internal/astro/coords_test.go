package astro

import (
	"math"
	"testing"
)

func TestToHorizontalZenith(t *testing.T) {
	// RA=0, Dec=0 from (0°, 0°) with LST=0 is straight overhead.
	ha := HourAngle(0, 0)
	h := ToHorizontal(0, 0, ha, 0)

	if h.Alt != 90 {
		t.Errorf("zenith altitude = %v, want 90 (clamped after refraction)", h.Alt)
	}
	if h.Az != 0 {
		t.Errorf("zenith azimuth = %v, want 0 by convention", h.Az)
	}
}

func TestGeometricHorizontal(t *testing.T) {
	tests := []struct {
		name            string
		dec, ha, lat    float64
		wantAlt, wantAz float64
	}{
		{"on meridian south", 0, 0, 45, 45, 180},
		{"on meridian north", 60, 0, 30, 60, 0},
		{"rising due east", 0, 270, 40, 0, 90},
		{"setting due west", 0, 90, 40, 0, 270},
		{"celestial pole", 90, 123, 37.5, 37.5, 0},
		{"lower culmination", 70, 180, 50, 30, 0},
		{"below horizon", -60, 0, 50, -20, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := GeometricHorizontal(tt.dec, tt.ha, tt.lat)
			if math.Abs(h.Alt-tt.wantAlt) > 1e-9 {
				t.Errorf("Alt = %v, want %v", h.Alt, tt.wantAlt)
			}
			if angleDiff(h.Az, tt.wantAz) > 1e-7 {
				t.Errorf("Az = %v, want %v", h.Az, tt.wantAz)
			}
		})
	}
}

func TestToHorizontalRanges(t *testing.T) {
	for lat := -90.0; lat <= 90; lat += 15 {
		for dec := -90.0; dec <= 90; dec += 10 {
			for ha := 0.0; ha < 360; ha += 7.5 {
				h := ToHorizontal(0, dec, ha, lat)
				if math.IsNaN(h.Alt) || math.IsNaN(h.Az) {
					t.Fatalf("NaN at lat=%v dec=%v ha=%v", lat, dec, ha)
				}
				if h.Alt < -90 || h.Alt > 90 {
					t.Errorf("Alt out of range at lat=%v dec=%v ha=%v: %v", lat, dec, ha, h.Alt)
				}
				if h.Az < 0 || h.Az >= 360 {
					t.Errorf("Az out of range at lat=%v dec=%v ha=%v: %v", lat, dec, ha, h.Az)
				}
			}
		}
	}
}

func TestToHorizontalAppliesRefraction(t *testing.T) {
	geo := GeometricHorizontal(10, 40, 35)
	app := ToHorizontal(0, 10, 40, 35)
	if geo.Alt < 0 {
		t.Fatalf("test case should be above the horizon, alt=%v", geo.Alt)
	}
	if d := app.Alt - geo.Alt; math.Abs(d-Refraction(geo.Alt)) > 1e-12 {
		t.Errorf("refraction shift = %v, want %v", d, Refraction(geo.Alt))
	}

	below := GeometricHorizontal(-70, 0, 35)
	if below.Alt >= 0 {
		t.Fatalf("test case should be below the horizon, alt=%v", below.Alt)
	}
	if got := ToHorizontal(0, -70, 0, 35); got.Alt != below.Alt {
		t.Errorf("below-horizon altitude changed: %v vs %v", got.Alt, below.Alt)
	}
}

func TestRefraction(t *testing.T) {
	for a := -90.0; a < 0; a += 0.5 {
		if r := Refraction(a); r != 0 {
			t.Fatalf("Refraction(%v) = %v, want 0", a, r)
		}
	}

	prev := math.Inf(1)
	for a := 0.0; a <= 90; a += 0.25 {
		r := Refraction(a)
		if r <= 0 || r >= 1 {
			t.Fatalf("Refraction(%v) = %v, want in (0,1)", a, r)
		}
		if r > prev {
			t.Fatalf("Refraction not decreasing at %v: %v > %v", a, r, prev)
		}
		prev = r
	}

	if got := Refraction(0); math.Abs(got-0.1594) > 1e-12 {
		t.Errorf("Refraction(0) = %v, want 0.1594", got)
	}
}

func TestUnrefract(t *testing.T) {
	for _, geo := range []float64{0, 0.5, 5, 20, 45, 80} {
		app := geo + Refraction(geo)
		if got := Unrefract(app); math.Abs(got-geo) > 1e-9 {
			t.Errorf("Unrefract(%v) = %v, want %v", app, got, geo)
		}
	}
	if got := Unrefract(-12); got != -12 {
		t.Errorf("Unrefract(-12) = %v, want -12", got)
	}
}

func TestCartesianRoundTrip(t *testing.T) {
	tests := []Horizontal{
		{Alt: 0, Az: 0},
		{Alt: 0, Az: 90},
		{Alt: 30, Az: 215},
		{Alt: -45, Az: 300},
		{Alt: 89.5, Az: 12},
	}
	for _, h := range tests {
		v := ToCartesian(h, 500)
		if math.Abs(v.Norm()-500) > 1e-9 {
			t.Errorf("ToCartesian(%+v) radius = %v, want 500", h, v.Norm())
		}
		back, r := FromCartesian(v)
		if math.Abs(r-500) > 1e-9 || math.Abs(back.Alt-h.Alt) > 1e-9 || angleDiff(back.Az, h.Az) > 1e-9 {
			t.Errorf("FromCartesian(ToCartesian(%+v)) = %+v, r=%v", h, back, r)
		}
	}
}

func TestToCartesianAxes(t *testing.T) {
	tests := []struct {
		name string
		h    Horizontal
		want Vec3
	}{
		{"north horizon is +Z", Horizontal{Alt: 0, Az: 0}, Vec3{0, 0, 1}},
		{"east horizon is +X", Horizontal{Alt: 0, Az: 90}, Vec3{1, 0, 0}},
		{"zenith is +Y", Horizontal{Alt: 90, Az: 0}, Vec3{0, 1, 0}},
		{"south horizon is -Z", Horizontal{Alt: 0, Az: 180}, Vec3{0, 0, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToCartesian(tt.h, 1)
			if got.Sub(tt.want).Norm() > 1e-12 {
				t.Errorf("ToCartesian = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHorizontalEquatorialRoundTrip(t *testing.T) {
	for lat := -80.0; lat <= 80; lat += 20 {
		for dec := -85.0; dec <= 85; dec += 17 {
			for ha := 0.0; ha < 360; ha += 30 {
				geo := GeometricHorizontal(dec, ha, lat)
				if geo.Alt < 0 || geo.Alt > 89 {
					continue
				}
				app := ToHorizontal(0, dec, ha, lat)
				h, _ := FromCartesian(ToCartesian(app, 100))
				h.Alt = Unrefract(h.Alt)

				gotDec, gotHA := HorizontalToEquatorial(h, lat)
				if math.Abs(gotDec-dec) > 1e-6 || angleDiff(gotHA, ha) > 1e-6 {
					t.Errorf("lat=%v dec=%v ha=%v: recovered dec=%v ha=%v", lat, dec, ha, gotDec, gotHA)
				}
			}
		}
	}
}

func TestHorizontalToRADec(t *testing.T) {
	obs := Observer{LatDeg: 37.5665, LonDeg: 126.9780}
	jd := JulianDate(2024, 12, 1, 17, 0, 0, 9)

	vega := Equatorial{RA: 279.235, Dec: 38.784}
	h := EquatorialToHorizontal(vega, obs, jd)
	if h.Alt < 0 {
		t.Fatalf("Vega should be up, alt=%v", h.Alt)
	}
	got := HorizontalToRADec(h, obs, jd)
	if AngularSeparation(got.RA, got.Dec, vega.RA, vega.Dec) > 1e-6 {
		t.Errorf("HorizontalToRADec = %+v, want %+v", got, vega)
	}
}

func TestObserverNormalized(t *testing.T) {
	o := Observer{LatDeg: 95, LonDeg: 270}.Normalized()
	if o.LatDeg != 90 || math.Abs(o.LonDeg+90) > 1e-9 {
		t.Errorf("Normalized() = %+v", o)
	}
}

func TestAngularSeparation(t *testing.T) {
	tests := []struct {
		name                 string
		ra1, dec1, ra2, dec2 float64
		want                 float64
	}{
		{"same point", 10, 20, 10, 20, 0},
		{"equator quarter", 0, 0, 90, 0, 90},
		{"poles", 0, 90, 0, -90, 180},
		{"across RA wrap", 359, 0, 1, 0, 2},
		{"antipodal off equator", 30, 40, 210, -40, 180},
		{"near antipodal", 0, 0, 179.9999, 0, 179.9999},
		{"tiny", 100, 10, 100, 10.000001, 0.000001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngularSeparation(tt.ra1, tt.dec1, tt.ra2, tt.dec2)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AngularSeparation() = %v, want %v", got, tt.want)
			}
		})
	}
}

// angleDiff returns the absolute difference between two angles in degrees,
// accounting for wrap-around.
func angleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeDegrees(a) - NormalizeDegrees(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}
