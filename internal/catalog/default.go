package catalog

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/litescript/ls-skydome/internal/logging"
)

//go:embed data/bright_stars.jsonl
var brightStarsJSONL []byte

//go:embed data/constellations.json
var constellationsJSON []byte

// Default returns the built-in bright star catalog and its line groups.
// Coordinates are J2000.
func Default(log *logging.Logger) (*Catalog, *Constellations, error) {
	cat, _, err := Load(bytes.NewReader(brightStarsJSONL), Options{Logger: log})
	if err != nil {
		return nil, nil, fmt.Errorf("embedded catalog: %w", err)
	}
	cs, err := LoadConstellations(bytes.NewReader(constellationsJSON))
	if err != nil {
		return nil, nil, fmt.Errorf("embedded constellations: %w", err)
	}
	return cat, cs, nil
}
