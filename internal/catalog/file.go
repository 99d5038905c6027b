package catalog

import (
	"fmt"
	"io"

	"golang.org/x/exp/mmap"
)

// LoadFile memory-maps path and loads it as a JSONL catalog.
func LoadFile(path string, opts Options) (*Catalog, LoadReport, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer r.Close()

	c, rep, err := Load(io.NewSectionReader(r, 0, int64(r.Len())), opts)
	if err != nil {
		return nil, rep, fmt.Errorf("%s: %w", path, err)
	}
	opts.logger().Info("catalog %s: %d stars", path, rep.Loaded)
	return c, rep, nil
}

// LoadConstellationsFile memory-maps path and parses it as constellation lines.
func LoadConstellationsFile(path string) (*Constellations, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open constellation lines %s: %w", path, err)
	}
	defer r.Close()

	cs, err := LoadConstellations(io.NewSectionReader(r, 0, int64(r.Len())))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cs, nil
}
