// Package reference loads the gold-standard rating tables and aligns a
// participant's reconstructed trace against them.
//
// Both tables share one layout: row 0 holds block-name column headers,
// row 1 is blank, and the remaining rows hold numeric values, one column
// per block. Columns are matched case-insensitively and non-finite or
// empty cells are dropped, so columns may have different lengths.
package reference

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Store holds the reference rating series and stimulus durations for every
// block in the study, keyed by lowercased block name.
type Store struct {
	ratings   map[string][]float64
	durations map[string]float64
}

// Load reads the two reference tables. The ratings table supplies one
// series per block; the durations table supplies a single value per block.
func Load(ratingsPath, durationsPath string) (*Store, error) {
	ratings, err := readTable(ratingsPath)
	if err != nil {
		return nil, err
	}
	durationCols, err := readTable(durationsPath)
	if err != nil {
		return nil, err
	}

	durations := make(map[string]float64, len(durationCols))
	for name, col := range durationCols {
		if len(col) == 0 {
			continue
		}
		durations[name] = col[0]
	}

	return &Store{ratings: ratings, durations: durations}, nil
}

// Lookup returns the reference series and duration for a block name,
// matched case-insensitively.
func (s *Store) Lookup(blockName string) ([]float64, float64, error) {
	key := strings.ToLower(blockName)

	series, ok := s.ratings[key]
	if !ok || len(series) == 0 {
		return nil, 0, fmt.Errorf("%w: no rating series for %q", ErrMissingColumn, blockName)
	}
	duration, ok := s.durations[key]
	if !ok {
		return nil, 0, fmt.Errorf("%w: no duration for %q", ErrMissingColumn, blockName)
	}
	return series, duration, nil
}

// readTable parses one reference table into per-column value slices.
func readTable(path string) (map[string][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedTable, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // column counts vary below the headers
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedTable, path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: %s: expected headers, a blank row, and data", ErrMalformedTable, path)
	}

	headers := records[0]
	out := make(map[string][]float64, len(headers))
	for col, name := range headers {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		var values []float64
		// Row 1 is the blank spacer. encoding/csv drops fully blank
		// lines, so it shows up either not at all or as a row of empty
		// cells; both forms contribute nothing below.
		for row := 1; row < len(records); row++ {
			if col >= len(records[row]) {
				continue
			}
			cell := strings.TrimSpace(records[row][col])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d col %d: %w", ErrMalformedTable, path, row, col, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values = append(values, v)
		}
		out[key] = values
	}

	return out, nil
}
