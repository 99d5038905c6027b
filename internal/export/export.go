// Package export turns frames and trajectories into JSON documents and
// plain-text tables for the headless modes.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/scene"
	"github.com/litescript/ls-skydome/internal/trajectory"
)

// FrameExport is the JSON-serializable representation of a frame.
type FrameExport struct {
	SimTime  time.Time      `json:"sim_time"`
	JD       float64        `json:"jd"`
	LST      float64        `json:"lst_deg"`
	Observer ObserverExport `json:"observer"`
	Twilight string         `json:"twilight"`
	Sun      BodyExport     `json:"sun"`
	Moon     MoonExport     `json:"moon"`
	Stars    []BodyExport   `json:"stars"`
	Lines    []LineExport   `json:"lines,omitempty"`
}

// ObserverExport is a JSON-friendly observer.
type ObserverExport struct {
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	UTCOffset float64 `json:"utc_offset"`
}

// BodyExport is a JSON-friendly placement.
type BodyExport struct {
	Name      string     `json:"name"`
	HIP       int        `json:"hip,omitempty"`
	Magnitude float64    `json:"magnitude"`
	RA        float64    `json:"ra_deg"`
	Dec       float64    `json:"dec_deg"`
	Altitude  float64    `json:"alt_deg"`
	Azimuth   float64    `json:"az_deg"`
	Position  [3]float64 `json:"position"`
	Scale     float64    `json:"scale,omitempty"`
	Visible   bool       `json:"visible"`
}

// MoonExport adds phase fields.
type MoonExport struct {
	BodyExport
	Phase        float64 `json:"phase"`
	Illumination float64 `json:"illumination"`
}

// LineExport is a constellation polyline.
type LineExport struct {
	Name   string       `json:"name"`
	Points [][3]float64 `json:"points"`
}

// ExportFrame converts a frame to an exportable format.
func ExportFrame(f *scene.Frame, simTime time.Time) *FrameExport {
	if f == nil {
		return &FrameExport{SimTime: simTime}
	}

	export := &FrameExport{
		SimTime: simTime,
		JD:      f.JD,
		LST:     f.LST,
		Observer: ObserverExport{
			Name:      f.Observer.Name,
			Latitude:  f.Observer.LatDeg,
			Longitude: f.Observer.LonDeg,
			UTCOffset: f.Observer.UTCOffset,
		},
		Twilight: f.Twilight.String(),
		Sun:      bodyExport(f.Sun),
		Moon: MoonExport{
			BodyExport:   bodyExport(f.Moon.Placement),
			Phase:        f.Moon.Phase,
			Illumination: f.Moon.Illumination,
		},
		Stars: make([]BodyExport, 0, len(f.Stars)),
	}
	for _, s := range f.Stars {
		export.Stars = append(export.Stars, bodyExport(s))
	}
	for _, ln := range f.Lines {
		le := LineExport{Name: ln.Name, Points: make([][3]float64, len(ln.Points))}
		for i, p := range ln.Points {
			le.Points[i] = vec(p)
		}
		export.Lines = append(export.Lines, le)
	}
	return export
}

func bodyExport(p scene.Placement) BodyExport {
	return BodyExport{
		Name:      p.Name,
		HIP:       p.HIP,
		Magnitude: p.Magnitude,
		RA:        p.Equatorial.RA,
		Dec:       p.Equatorial.Dec,
		Altitude:  p.Horizontal.Alt,
		Azimuth:   p.Horizontal.Az,
		Position:  vec(p.Position),
		Scale:     p.Scale,
		Visible:   p.Visible(),
	}
}

func vec(v astro.Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// WriteJSON writes the frame as JSON to the given writer.
func (e *FrameExport) WriteJSON(w io.Writer) error {
	return writeJSON(w, e)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PositionRow represents one row in the positions table.
type PositionRow struct {
	Name      string
	Magnitude float64
	RA        string
	Dec       string
	HourAngle float64
	Altitude  float64
	Azimuth   float64
	Visible   bool
}

// GeneratePositionRows creates rows for the Sun, the Moon and every star,
// stars sorted by altitude, highest first.
func GeneratePositionRows(f *scene.Frame) []PositionRow {
	if f == nil {
		return nil
	}
	row := func(p scene.Placement) PositionRow {
		return PositionRow{
			Name:      p.Name,
			Magnitude: p.Magnitude,
			RA:        FormatRA(p.Equatorial.RA),
			Dec:       FormatDec(p.Equatorial.Dec),
			HourAngle: astro.HourAngle(p.Equatorial.RA, f.LST),
			Altitude:  p.Horizontal.Alt,
			Azimuth:   p.Horizontal.Az,
			Visible:   p.Visible(),
		}
	}

	stars := append([]scene.Placement(nil), f.Stars...)
	sort.SliceStable(stars, func(i, j int) bool {
		return stars[i].Horizontal.Alt > stars[j].Horizontal.Alt
	})

	rows := make([]PositionRow, 0, len(stars)+2)
	rows = append(rows, row(f.Sun), row(f.Moon.Placement))
	for _, s := range stars {
		rows = append(rows, row(s))
	}
	return rows
}

// WritePositionsTable writes a text table to the given writer.
func WritePositionsTable(w io.Writer, f *scene.Frame, simTime time.Time) {
	rows := GeneratePositionRows(f)

	fmt.Fprintf(w, "Sky @ %s\n", simTime.Format(time.RFC3339))
	if f != nil {
		fmt.Fprintf(w, "Observer %.4f, %.4f  JD %.5f  LST %s  %s\n",
			f.Observer.LatDeg, f.Observer.LonDeg, f.JD, FormatRA(f.LST), f.Twilight)
	}
	fmt.Fprintln(w, strings.Repeat("─", 90))

	if len(rows) == 0 {
		fmt.Fprintln(w, "No objects")
		return
	}

	// Header
	fmt.Fprintf(w, "%-14s %6s %-12s %-11s %8s %8s %8s %-3s\n",
		"Name", "Mag", "RA", "Dec", "HA", "Alt", "Az", "Up")
	fmt.Fprintln(w, strings.Repeat("─", 90))

	visible := 0
	for _, r := range rows {
		up := ""
		if r.Visible {
			up = "*"
			visible++
		}
		fmt.Fprintf(w, "%-14s %6.2f %-12s %-11s %8.3f %8.3f %8.3f %-3s\n",
			truncateStr(r.Name, 14),
			r.Magnitude,
			r.RA,
			r.Dec,
			r.HourAngle,
			r.Altitude,
			r.Azimuth,
			up,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d objects, %d above the horizon\n", len(rows), visible)
}

// TrajectoryExport is a JSON-friendly trajectory.
type TrajectoryExport struct {
	Name        string             `json:"name"`
	Strategy    string             `json:"strategy"`
	Radius      float64            `json:"radius"`
	Points      []PointExport      `json:"points"`
	Crossings   []CrossingExport   `json:"crossings,omitempty"`
	Culmination *CulminationExport `json:"culmination,omitempty"`
}

// PointExport is one trajectory point.
type PointExport struct {
	Time        time.Time  `json:"time"`
	OffsetHours float64    `json:"offset_hours"`
	JD          float64    `json:"jd"`
	Altitude    float64    `json:"alt_deg"`
	Azimuth     float64    `json:"az_deg"`
	Position    [3]float64 `json:"position"`
}

// CrossingExport is a horizon crossing.
type CrossingExport struct {
	Kind    string    `json:"kind"`
	Time    time.Time `json:"time"`
	Azimuth float64   `json:"az_deg"`
}

// CulminationExport is the highest point in the window.
type CulminationExport struct {
	Time     time.Time `json:"time"`
	Altitude float64   `json:"alt_deg"`
}

// ExportTrajectory converts a sample, with times shown at utcOffset hours.
func ExportTrajectory(s *trajectory.Sample, utcOffset float64) *TrajectoryExport {
	if s == nil {
		return &TrajectoryExport{}
	}
	export := &TrajectoryExport{
		Name:     s.Name,
		Strategy: s.Strategy.String(),
		Radius:   s.Radius,
		Points:   make([]PointExport, len(s.Points)),
	}
	for i, p := range s.Points {
		export.Points[i] = PointExport{
			Time:        jdTime(p.JD, utcOffset),
			OffsetHours: p.OffsetHours,
			JD:          p.JD,
			Altitude:    p.Horizontal.Alt,
			Azimuth:     p.Horizontal.Az,
			Position:    vec(p.Position),
		}
	}
	for _, c := range trajectory.Crossings(s) {
		export.Crossings = append(export.Crossings, CrossingExport{
			Kind:    c.Kind.String(),
			Time:    jdTime(c.JD, utcOffset),
			Azimuth: c.Azimuth,
		})
	}
	if c, ok := trajectory.Culminate(s); ok {
		export.Culmination = &CulminationExport{Time: jdTime(c.JD, utcOffset), Altitude: c.Altitude}
	}
	return export
}

// WriteJSON writes the trajectory as JSON to the given writer.
func (e *TrajectoryExport) WriteJSON(w io.Writer) error {
	return writeJSON(w, e)
}

// WriteTrajectory writes a trajectory table to the given writer.
func WriteTrajectory(w io.Writer, s *trajectory.Sample, utcOffset float64) {
	e := ExportTrajectory(s, utcOffset)

	fmt.Fprintf(w, "Trajectory: %s (%s, %d points)\n", e.Name, e.Strategy, len(e.Points))
	fmt.Fprintln(w, strings.Repeat("─", 90))
	if len(e.Points) == 0 {
		fmt.Fprintln(w, "No points")
		return
	}

	fmt.Fprintf(w, "%-25s %8s %9s %9s %30s\n", "Time", "Offset", "Alt", "Az", "Position")
	fmt.Fprintln(w, strings.Repeat("─", 90))
	for _, p := range e.Points {
		fmt.Fprintf(w, "%-25s %7.2fh %9.3f %9.3f %30s\n",
			p.Time.Format(time.RFC3339),
			p.OffsetHours,
			p.Altitude,
			p.Azimuth,
			fmt.Sprintf("(%.2f, %.2f, %.2f)", p.Position[0], p.Position[1], p.Position[2]),
		)
	}

	fmt.Fprintln(w)
	for _, c := range e.Crossings {
		fmt.Fprintf(w, "%-5s %s at az %.1f°\n", strings.ToUpper(c.Kind), c.Time.Format("15:04"), c.Azimuth)
	}
	if e.Culmination != nil {
		fmt.Fprintf(w, "PEAK  %s at alt %.1f°\n", e.Culmination.Time.Format("15:04"), e.Culmination.Altitude)
	}
}

func jdTime(jd, utcOffset float64) time.Time {
	return astro.CivilFromJD(jd, utcOffset).Time(utcOffset)
}

// FormatRA formats degrees of right ascension as hh:mm:ss.s.
func FormatRA(deg float64) string {
	tenths := int(math.Round(astro.NormalizeDegrees(deg) / 15 * 36000))
	tenths %= 24 * 36000
	h := tenths / 36000
	m := tenths / 600 % 60
	s := float64(tenths%600) / 10
	return fmt.Sprintf("%02dh%02dm%04.1fs", h, m, s)
}

// FormatDec formats degrees of declination as ±dd°mm'ss".
func FormatDec(deg float64) string {
	sign := "+"
	if deg < 0 {
		sign = "-"
		deg = -deg
	}
	secs := int(math.Round(deg * 3600))
	return fmt.Sprintf("%s%02d°%02d'%02d\"", sign, secs/3600, secs/60%60, secs%60)
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
