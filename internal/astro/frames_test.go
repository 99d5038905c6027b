package astro

import (
	"math"
	"testing"
)

func TestVec3Norm(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want float64
	}{
		{"zero", Vec3{0, 0, 0}, 0},
		{"unit x", Vec3{1, 0, 0}, 1},
		{"unit y", Vec3{0, 1, 0}, 1},
		{"unit z", Vec3{0, 0, 1}, 1},
		{"3-4-5", Vec3{3, 4, 0}, 5},
		{"negative", Vec3{-3, -4, 0}, 5},
		{"3D", Vec3{1, 2, 2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Norm()
			if math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("Norm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVec3Normalized(t *testing.T) {
	if got := (Vec3{0, 3, 4}).Normalized(); math.Abs(got.Norm()-1) > 1e-12 {
		t.Errorf("Normalized() norm = %v, want 1", got.Norm())
	}
	if got := (Vec3{}).Normalized(); got != (Vec3{}) {
		t.Errorf("zero Normalized() = %+v, want zero", got)
	}
}

func TestVec3Cross(t *testing.T) {
	x, y, z := Vec3{1, 0, 0}, Vec3{0, 1, 0}, Vec3{0, 0, 1}
	if got := x.Cross(y); got != z {
		t.Errorf("x×y = %+v, want %+v", got, z)
	}
	if got := y.Cross(x); got != z.Scale(-1) {
		t.Errorf("y×x = %+v, want -z", got)
	}
	if got := x.Dot(y); got != 0 {
		t.Errorf("x·y = %v, want 0", got)
	}
}

func TestVec3Rotate(t *testing.T) {
	tests := []struct {
		name  string
		v     Vec3
		axis  Vec3
		angle float64
		want  Vec3
	}{
		{"quarter turn about z", Vec3{1, 0, 0}, Vec3{0, 0, 1}, math.Pi / 2, Vec3{0, 1, 0}},
		{"unnormalized axis", Vec3{1, 0, 0}, Vec3{0, 0, 5}, math.Pi, Vec3{-1, 0, 0}},
		{"vector on axis", Vec3{0, 2, 0}, Vec3{0, 1, 0}, 1.3, Vec3{0, 2, 0}},
		{"full turn", Vec3{1, 2, 3}, Vec3{1, 1, 0}, 2 * math.Pi, Vec3{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Rotate(tt.axis, tt.angle)
			if got.Sub(tt.want).Norm() > 1e-12 {
				t.Errorf("Rotate() = %+v, want %+v", got, tt.want)
			}
			if math.Abs(got.Norm()-tt.v.Norm()) > 1e-12 {
				t.Errorf("Rotate() changed length: %v -> %v", tt.v.Norm(), got.Norm())
			}
		})
	}
}

func TestRotateAboutPoleMatchesHourAngle(t *testing.T) {
	// Advancing the hour angle is the same as rotating about the pole axis.
	const lat = 37.5
	axis := CelestialPoleAxis(lat)
	for _, dec := range []float64{-20, 0, 45, 80} {
		for ha := 0.0; ha < 360; ha += 45 {
			v0 := ToCartesian(GeometricHorizontal(dec, ha, lat), 1)
			want := ToCartesian(GeometricHorizontal(dec, ha+15, lat), 1)
			got := v0.Rotate(axis, 15*math.Pi/180)
			if got.Sub(want).Norm() > 1e-9 {
				t.Errorf("dec=%v ha=%v: rotated %+v, want %+v", dec, ha, got, want)
			}
		}
	}
}

func TestCelestialPoleAxis(t *testing.T) {
	// The pole sits due north at an altitude equal to the latitude.
	h, r := FromCartesian(CelestialPoleAxis(52))
	if math.Abs(r-1) > 1e-12 || math.Abs(h.Alt-52) > 1e-9 || h.Az != 0 {
		t.Errorf("pole axis = %+v (r=%v)", h, r)
	}
}

func TestEclipticToEquatorial(t *testing.T) {
	eps := obliquityJ2000
	tests := []struct {
		name     string
		lon, lat float64
		want     Equatorial
	}{
		{"vernal equinox", 0, 0, Equatorial{RA: 0, Dec: 0}},
		{"summer solstice", 90, 0, Equatorial{RA: 90, Dec: eps}},
		{"autumnal equinox", 180, 0, Equatorial{RA: 180, Dec: 0}},
		{"ecliptic pole", 0, 90, Equatorial{RA: 270, Dec: 90 - eps}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EclipticToEquatorial(tt.lon, tt.lat, eps)
			if AngularSeparation(got.RA, got.Dec, tt.want.RA, tt.want.Dec) > 1e-9 {
				t.Errorf("EclipticToEquatorial = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
	if (Vec3{1, math.NaN(), 3}).IsFinite() || (Vec3{math.Inf(1), 0, 0}).IsFinite() {
		t.Error("non-finite vector reported finite")
	}
}
