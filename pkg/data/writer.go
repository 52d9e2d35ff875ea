package data

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
)

// WritePredictions writes a single-column CSV with the given header and one
// row per value, replacing any existing file at path.
func WritePredictions(path, header string, values []float64) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("data: create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("data: close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(file)
	cw := csv.NewWriter(bw)
	if err := cw.Write([]string{header}); err != nil {
		return fmt.Errorf("data: write header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("data: write header: %w", err)
	}
	// Values never need quoting; a missing one is written as a quoted empty
	// field so the row survives a round trip.
	for i, v := range values {
		cell := formatFloat(v)
		if math.IsNaN(v) {
			cell = `""`
		}
		if _, err := bw.WriteString(cell + "\n"); err != nil {
			return fmt.Errorf("data: write row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// formatFloat renders v the shortest way that round-trips, keeping a
// trailing ".0" on integral values.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "inf"
		}
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v == math.Trunc(v) && math.Abs(v) < 1e16 {
		s += ".0"
	}
	return s
}
