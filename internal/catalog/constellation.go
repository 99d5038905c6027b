package catalog

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/litescript/ls-skydome/internal/logging"
)

// LineGroup is one constellation polyline as HIP ids in drawing order.
type LineGroup struct {
	Name   string `json:"name,omitempty"`
	Points []int  `json:"points"`
}

// Constellations is a parsed constellation line file.
type Constellations struct {
	Lines []LineGroup `json:"lines"`
}

// Polyline is a resolved line group whose ids all exist in a catalog.
type Polyline struct {
	Name string
	HIP  []int
}

// LoadConstellations parses a {"lines":[{"points":[...]}]} document.
func LoadConstellations(r io.Reader) (*Constellations, error) {
	var cs Constellations
	if err := json.NewDecoder(r).Decode(&cs); err != nil {
		return nil, fmt.Errorf("failed to parse constellation lines: %w", err)
	}
	return &cs, nil
}

// Resolve maps each line group onto cat. HIP ids missing from the catalog are
// skipped with a warning. The group is split at the gap so that no segment
// bridges a missing star. Runs shorter than two points are dropped.
func (cs *Constellations) Resolve(cat *Catalog, log *logging.Logger) []Polyline {
	if log == nil {
		log = logging.Discard()
	}
	var out []Polyline
	for gi, g := range cs.Lines {
		var run []int
		flush := func() {
			if len(run) >= 2 {
				out = append(out, Polyline{Name: g.Name, HIP: run})
			}
			run = nil
		}
		for _, hip := range g.Points {
			if _, ok := cat.Lookup(hip); !ok {
				log.Warn("line group %d: HIP %d not in catalog, skipped", gi, hip)
				flush()
				continue
			}
			run = append(run, hip)
		}
		flush()
	}
	return out
}
