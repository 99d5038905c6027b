package catalog

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/litescript/ls-skydome/internal/logging"
)

const sampleJSONL = `{"hip":32349,"main_id":"Sirius","ra":101.287,"dec":-16.716,"V":-1.46,"sp_type":"A1V","distance_parsec":2.64}
# comment lines are ignored

{"hip":91262,"main_id":"Vega","ra":279.235,"dec":38.784,"V":0.03,"sp_type":"A0Va","distance_parsec":7.68}
{"hip":1,"main_id":"broken",
{"main_id":"NoHip","ra":1,"dec":2}
{"hip":2,"main_id":"TooFarSouth","ra":10,"dec":-95}
{"hip":32349,"main_id":"Sirius again","ra":0,"dec":0}
{"hip":3,"main_id":"","ra":-10,"dec":5,"distance_parsec":-1}
`

func TestLoadSkipsMalformedLines(t *testing.T) {
	log := logging.Discard()
	cat, rep, err := Load(strings.NewReader(sampleJSONL), Options{Logger: log})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cat.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cat.Len())
	}
	if rep.Loaded != 3 || rep.Skipped != 3 || rep.Duplicates != 1 {
		t.Errorf("report = %+v, want loaded=3 skipped=3 duplicates=1", rep)
	}
	if log.Warnings() != 4 {
		t.Errorf("Warnings() = %d, want 4", log.Warnings())
	}

	sirius, ok := cat.Lookup(32349)
	if !ok {
		t.Fatal("Sirius not found")
	}
	if sirius.Label != "Sirius" {
		t.Errorf("duplicate replaced the first record: %+v", sirius)
	}
	if sirius.Magnitude != -1.46 || sirius.SpectralType != "A1V" || sirius.DistanceParsec != 2.64 {
		t.Errorf("Sirius fields = %+v", sirius)
	}
}

func TestLoadSkipsOversizeLine(t *testing.T) {
	huge := `{"hip":2,"main_id":"` + strings.Repeat("x", 2*maxLineBytes) + `","ra":1,"dec":1}`
	input := `{"hip":1,"ra":10,"dec":10,"V":1}` + "\n" + huge + "\n" + `{"hip":3,"ra":30,"dec":30,"V":3}` + "\n"

	log := logging.Discard()
	cat, rep, err := Load(strings.NewReader(input), Options{Logger: log})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rep.Lines != 3 || rep.Loaded != 2 || rep.Skipped != 1 {
		t.Errorf("report = %+v, want lines=3 loaded=2 skipped=1", rep)
	}
	if _, ok := cat.Lookup(3); !ok {
		t.Error("record after the oversize line was not loaded")
	}
	if _, ok := cat.Lookup(2); ok {
		t.Error("oversize record was loaded")
	}
	if log.Warnings() != 1 {
		t.Errorf("Warnings() = %d, want 1", log.Warnings())
	}
}

func TestLoadLastLineWithoutNewline(t *testing.T) {
	cat, rep, err := Load(strings.NewReader(`{"hip":1,"ra":10,"dec":10}`+"\r\n"+`{"hip":2,"ra":20,"dec":20}`), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 2 || rep.Lines != 2 {
		t.Errorf("Len() = %d, report = %+v, want 2 stars on 2 lines", cat.Len(), rep)
	}
}

func TestLoadNormalizesRecords(t *testing.T) {
	cat, _, err := Load(strings.NewReader(sampleJSONL), Options{})
	if err != nil {
		t.Fatal(err)
	}
	o, ok := cat.Lookup(3)
	if !ok {
		t.Fatal("HIP 3 missing")
	}
	if math.Abs(o.RA-350) > 1e-9 {
		t.Errorf("RA = %v, want 350", o.RA)
	}
	if o.DistanceParsec != 0 {
		t.Errorf("negative distance should be treated as unknown, got %v", o.DistanceParsec)
	}
	if o.Magnitude != 6 {
		t.Errorf("missing V should default to 6, got %v", o.Magnitude)
	}
	if o.Name() != "HIP 3" {
		t.Errorf("Name() = %q, want HIP 3", o.Name())
	}
}

func TestLoadRAHours(t *testing.T) {
	in := `{"hip":7,"main_id":"x","ra":6.5,"dec":0}`
	cat, _, err := Load(strings.NewReader(in), Options{RAUnit: RAHours})
	if err != nil {
		t.Fatal(err)
	}
	o, _ := cat.Lookup(7)
	if math.Abs(o.RA-97.5) > 1e-9 {
		t.Errorf("RA = %v, want 97.5", o.RA)
	}
}

func TestParseRAUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    RAUnit
		wantErr bool
	}{
		{"", RADegrees, false},
		{"degrees", RADegrees, false},
		{"hours", RAHours, false},
		{"H", RAHours, false},
		{"radians", RADegrees, true},
	}
	for _, tt := range tests {
		got, err := ParseRAUnit(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseRAUnit(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestFind(t *testing.T) {
	cat, _, _ := Load(strings.NewReader(sampleJSONL), Options{})

	tests := []struct {
		query string
		hip   int
		ok    bool
	}{
		{"vega", 91262, true},
		{"HIP 32349", 32349, true},
		{"hip 3", 3, true},
		{"Betelgeuse", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			o, ok := cat.Find(tt.query)
			if ok != tt.ok || (ok && o.HIP != tt.hip) {
				t.Errorf("Find(%q) = %d, %v; want %d, %v", tt.query, o.HIP, ok, tt.hip, tt.ok)
			}
		})
	}
}

func TestBrightest(t *testing.T) {
	cat, _, _ := Load(strings.NewReader(sampleJSONL), Options{})
	top := cat.Brightest(2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].HIP != 32349 || top[1].HIP != 91262 {
		t.Errorf("Brightest order = %d, %d", top[0].HIP, top[1].HIP)
	}
	if all := cat.Brightest(-1); len(all) != cat.Len() {
		t.Errorf("Brightest(-1) len = %d, want %d", len(all), cat.Len())
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stars.jsonl")
	if err := os.WriteFile(path, []byte(sampleJSONL), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, rep, err := LoadFile(path, Options{})
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cat.Len() != 3 || rep.Skipped != 3 {
		t.Errorf("LoadFile Len=%d report=%+v", cat.Len(), rep)
	}

	if _, _, err := LoadFile(filepath.Join(dir, "missing.jsonl"), Options{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewDropsDuplicates(t *testing.T) {
	cat := New([]Object{{HIP: 1, Label: "a"}, {HIP: 1, Label: "b"}, {HIP: 2}})
	if cat.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cat.Len())
	}
	if o, _ := cat.Lookup(1); o.Label != "a" {
		t.Errorf("Lookup(1) = %q, want a", o.Label)
	}
}

func TestDefault(t *testing.T) {
	log := logging.Discard()
	cat, cs, err := Default(log)
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if cat.Len() < 50 {
		t.Errorf("embedded catalog has %d stars, want >= 50", cat.Len())
	}
	if log.Warnings() != 0 {
		t.Errorf("embedded catalog produced %d warnings", log.Warnings())
	}

	lines := cs.Resolve(cat, log)
	if len(lines) != len(cs.Lines) {
		t.Errorf("resolved %d polylines, want %d", len(lines), len(cs.Lines))
	}
	if log.Warnings() != 0 {
		t.Errorf("embedded constellations reference missing stars (%d warnings)", log.Warnings())
	}

	for _, o := range cat.Objects() {
		if o.RA < 0 || o.RA >= 360 || o.Dec < -90 || o.Dec > 90 {
			t.Errorf("%s out of range: ra=%v dec=%v", o.Name(), o.RA, o.Dec)
		}
	}
}
