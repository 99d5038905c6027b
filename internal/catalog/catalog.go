// Package catalog loads star catalogs and constellation line groups.
//
// Catalog files are JSON Lines, one star per line:
//
//	{"hip":32349,"main_id":"Sirius","ra":101.287,"dec":-16.716,"V":-1.46,"sp_type":"A1V","distance_parsec":2.64}
//
// Lines that fail to parse are skipped with a warning.
package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/litescript/ls-skydome/internal/astro"
	"github.com/litescript/ls-skydome/internal/logging"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 1 << 20

// Object is a catalog star. Immutable once loaded.
type Object struct {
	HIP            int
	Label          string
	RA             float64 // degrees [0,360)
	Dec            float64 // degrees [-90,90]
	Magnitude      float64 // apparent V magnitude
	SpectralType   string
	DistanceParsec float64 // 0 when unknown
}

// Name returns the display name, falling back to the HIP designation.
func (o Object) Name() string {
	if o.Label != "" {
		return o.Label
	}
	return fmt.Sprintf("HIP %d", o.HIP)
}

// Equatorial returns the star's fixed RA/Dec.
func (o Object) Equatorial(float64) astro.Equatorial {
	return astro.Equatorial{RA: o.RA, Dec: o.Dec}
}

// Static reports true; catalog stars do not move.
func (o Object) Static() bool { return true }

// record is the wire form of one catalog line.
type record struct {
	HIP      *int     `json:"hip"`
	MainID   string   `json:"main_id"`
	RA       *float64 `json:"ra"`
	Dec      *float64 `json:"dec"`
	V        *float64 `json:"V"`
	SpType   string   `json:"sp_type"`
	Distance *float64 `json:"distance_parsec"`
}

// RAUnit is the unit of the ra field in a catalog file.
type RAUnit int

const (
	RADegrees RAUnit = iota
	RAHours
)

// ParseRAUnit parses "deg"/"degrees" or "h"/"hours".
func ParseRAUnit(s string) (RAUnit, error) {
	switch strings.ToLower(s) {
	case "", "deg", "degrees":
		return RADegrees, nil
	case "h", "hour", "hours":
		return RAHours, nil
	}
	return RADegrees, fmt.Errorf("unknown ra unit %q", s)
}

// Options controls catalog loading.
type Options struct {
	RAUnit RAUnit
	Logger *logging.Logger
}

func (o Options) logger() *logging.Logger {
	if o.Logger == nil {
		return logging.Discard()
	}
	return o.Logger
}

// LoadReport summarizes a load.
type LoadReport struct {
	Lines      int
	Loaded     int
	Skipped    int
	Duplicates int
}

// Catalog is an immutable, HIP-indexed set of stars.
type Catalog struct {
	objects []Object
	byHIP   map[int]int
}

// New builds a catalog from objects. Later duplicates of a HIP id are dropped.
func New(objects []Object) *Catalog {
	c := &Catalog{byHIP: make(map[int]int, len(objects))}
	for _, o := range objects {
		if _, dup := c.byHIP[o.HIP]; dup {
			continue
		}
		c.byHIP[o.HIP] = len(c.objects)
		c.objects = append(c.objects, o)
	}
	return c
}

// Load reads a JSONL catalog from r. Malformed or out-of-range records are
// skipped and logged; the only returned error is a read failure.
func Load(r io.Reader, opts Options) (*Catalog, LoadReport, error) {
	log := opts.logger()
	c := &Catalog{byHIP: make(map[int]int)}
	var rep LoadReport

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		raw, tooLong, err := readLine(br)
		if len(raw) > 0 || tooLong || err == nil {
			rep.Lines++
		}
		if err != nil && err != io.EOF {
			return c, rep, fmt.Errorf("failed to read catalog: %w", err)
		}
		if tooLong {
			rep.Skipped++
			log.Warn("line %d skipped: record longer than %d bytes", rep.Lines, maxLineBytes)
		} else if line := strings.TrimSpace(string(raw)); line != "" && !strings.HasPrefix(line, "#") {
			c.add(line, opts, &rep, log)
		}
		if err == io.EOF {
			break
		}
	}

	log.Debug("loaded %d stars (%d skipped, %d duplicates)", rep.Loaded, rep.Skipped, rep.Duplicates)
	return c, rep, nil
}

func (c *Catalog) add(line string, opts Options, rep *LoadReport, log *logging.Logger) {
	obj, err := parseRecord(line, opts.RAUnit)
	if err != nil {
		rep.Skipped++
		log.Warn("line %d skipped: %v", rep.Lines, err)
		return
	}
	if _, dup := c.byHIP[obj.HIP]; dup {
		rep.Duplicates++
		log.Warn("line %d: duplicate HIP %d ignored", rep.Lines, obj.HIP)
		return
	}
	c.byHIP[obj.HIP] = len(c.objects)
	c.objects = append(c.objects, obj)
	rep.Loaded++
}

// readLine returns the next newline-terminated line without its terminator.
// A line longer than maxLineBytes is consumed up to its newline and reported
// as tooLong with no content. At end of input err is io.EOF.
func readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, rerr := br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineBytes+1 {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if rerr == bufio.ErrBufferFull {
			continue
		}
		return bytes.TrimRight(line, "\r\n"), tooLong, rerr
	}
}

func parseRecord(line string, unit RAUnit) (Object, error) {
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return Object{}, fmt.Errorf("malformed json: %w", err)
	}
	if rec.HIP == nil {
		return Object{}, fmt.Errorf("missing hip")
	}
	if rec.RA == nil || rec.Dec == nil {
		return Object{}, fmt.Errorf("HIP %d: missing ra/dec", *rec.HIP)
	}

	ra, dec := *rec.RA, *rec.Dec
	if !finite(ra) || !finite(dec) {
		return Object{}, fmt.Errorf("HIP %d: non-finite coordinates", *rec.HIP)
	}
	if unit == RAHours {
		ra = astro.HoursToDegrees(ra)
	}
	if dec < -90 || dec > 90 {
		return Object{}, fmt.Errorf("HIP %d: dec %.3f out of range", *rec.HIP, dec)
	}

	obj := Object{
		HIP:          *rec.HIP,
		Label:        strings.TrimSpace(rec.MainID),
		RA:           astro.NormalizeDegrees(ra),
		Dec:          dec,
		SpectralType: rec.SpType,
	}
	if rec.V != nil && finite(*rec.V) {
		obj.Magnitude = *rec.V
	} else {
		// Unknown brightness renders as a faint star.
		obj.Magnitude = 6
	}
	if rec.Distance != nil && finite(*rec.Distance) && *rec.Distance > 0 {
		obj.DistanceParsec = *rec.Distance
	}
	return obj, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Len returns the number of stars.
func (c *Catalog) Len() int {
	return len(c.objects)
}

// Objects returns the stars in load order. The slice must not be modified.
func (c *Catalog) Objects() []Object {
	return c.objects
}

// Lookup returns the star with the given HIP id.
func (c *Catalog) Lookup(hip int) (Object, bool) {
	i, ok := c.byHIP[hip]
	if !ok {
		return Object{}, false
	}
	return c.objects[i], true
}

// Find returns the first star whose name matches, case-insensitively.
// "HIP 32349" also resolves by id.
func (c *Catalog) Find(name string) (Object, bool) {
	var hip int
	if _, err := fmt.Sscanf(strings.ToUpper(strings.TrimSpace(name)), "HIP %d", &hip); err == nil {
		return c.Lookup(hip)
	}
	for _, o := range c.objects {
		if strings.EqualFold(o.Label, name) {
			return o, true
		}
	}
	return Object{}, false
}

// Brightest returns up to n stars sorted by magnitude, brightest first.
func (c *Catalog) Brightest(n int) []Object {
	out := make([]Object, len(c.objects))
	copy(out, c.objects)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Magnitude < out[j].Magnitude
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
