package coresistance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Required CSV columns. Any other column is ignored.
const (
	ColumnAntibiotic1 = "Antibiotic_1"
	ColumnAntibiotic2 = "Antibiotic_2"
	ColumnPhi         = "Phi"
)

// ErrDataNotFound is returned when the input CSV does not exist.
var ErrDataNotFound = errors.New("data file not found")

// LoadPairs reads the co-resistance CSV at path, keeping file order.
func LoadPairs(path string) ([]Pair, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDataNotFound, path)
		}
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer file.Close()

	pairs, err := ReadPairs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return pairs, nil
}

// ReadPairs parses co-resistance rows from r. The first record is the header.
func ReadPairs(r io.Reader) ([]Pair, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx1, idx2, idxPhi, err := locateColumns(header)
	if err != nil {
		return nil, err
	}
	maxIdx := max(idx1, idx2, idxPhi)

	var pairs []Pair
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		if len(record) <= maxIdx {
			return nil, fmt.Errorf("row %d: expected at least %d fields, got %d", line, maxIdx+1, len(record))
		}

		phi, err := strconv.ParseFloat(strings.TrimSpace(record[idxPhi]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid %s value %q: %w", line, ColumnPhi, record[idxPhi], err)
		}
		if math.IsNaN(phi) || math.IsInf(phi, 0) {
			return nil, fmt.Errorf("row %d: %s value %q is not a finite number", line, ColumnPhi, record[idxPhi])
		}

		pairs = append(pairs, Pair{
			Antibiotic1: record[idx1],
			Antibiotic2: record[idx2],
			Phi:         phi,
		})
	}

	return pairs, nil
}

// locateColumns maps the required columns to header positions. A repeated name
// resolves to its first occurrence.
func locateColumns(header []string) (idx1, idx2, idxPhi int, err error) {
	idx1, idx2, idxPhi = -1, -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch {
		case name == ColumnAntibiotic1 && idx1 < 0:
			idx1 = i
		case name == ColumnAntibiotic2 && idx2 < 0:
			idx2 = i
		case name == ColumnPhi && idxPhi < 0:
			idxPhi = i
		}
	}

	var missing []string
	if idx1 < 0 {
		missing = append(missing, ColumnAntibiotic1)
	}
	if idx2 < 0 {
		missing = append(missing, ColumnAntibiotic2)
	}
	if idxPhi < 0 {
		missing = append(missing, ColumnPhi)
	}
	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx1, idx2, idxPhi, nil
}
