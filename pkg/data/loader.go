package data

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var nan = math.NaN()

// missingTokens are the cell values read as "no value".
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"NULL": {},
	"null": {},
	"None": {},
	"#N/A": {},
	"<NA>": {},
}

// IsMissing reports whether a raw CSV cell denotes a missing value.
func IsMissing(s string) bool {
	_, ok := missingTokens[strings.TrimSpace(s)]
	return ok
}

// record is one CSV row as produced by streamRecords.
type record struct {
	fields []string
	err    error
}

// streamRecords streams rows of r through the returned channel until EOF or
// the first read error. Close done to stop early.
func streamRecords(r *csv.Reader, done <-chan struct{}) <-chan record {
	out := make(chan record, 64)
	go func() {
		defer close(out)
		for {
			rec, err := r.Read()
			if err == io.EOF {
				return
			}
			select {
			case <-done:
				return
			case out <- record{fields: rec, err: err}:
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

// ReadCSV loads a headered CSV file into a Frame.
// A missing file yields an error that matches fs.ErrNotExist.
func ReadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("data: open %s: %w", path, err)
	}
	defer file.Close()

	f, err := Parse(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("data: read %s: %w", path, err)
	}
	return f, nil
}

// Parse reads a headered CSV stream into a Frame. Rows are streamed with
// encoding/csv and typed by gota: a column is numeric when every observed
// cell is an int, float or bool, categorical otherwise. A column with no
// observed cell is numeric and all NaN.
func Parse(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyHeader
	}
	if err != nil {
		return nil, err
	}
	header = uniqueNames(header)
	reader.FieldsPerRecord = len(header)

	records := [][]string{header}
	done := make(chan struct{})
	defer close(done)
	for rec := range streamRecords(reader, done) {
		if rec.err != nil {
			return nil, rec.err
		}
		for j, v := range rec.fields {
			if IsMissing(v) {
				rec.fields[j] = naToken
			}
		}
		records = append(records, rec.fields)
	}
	return fromRecords(header, records)
}

// naToken is the single spelling of a missing cell handed to gota.
const naToken = "NaN"

func fromRecords(header []string, records [][]string) (*Frame, error) {
	rows := len(records) - 1
	f := NewFrame(rows)
	if rows == 0 {
		for _, name := range header {
			if err := f.Add(&Column{Name: name, Kind: Numeric, Num: []float64{}}); err != nil {
				return nil, err
			}
		}
		return f, nil
	}

	// Columns without an observed cell are pinned to float; type detection
	// has nothing to go on for them.
	types := map[string]series.Type{}
	for j, name := range header {
		observed := false
		for _, rec := range records[1:] {
			if rec[j] != naToken {
				observed = true
				break
			}
		}
		if !observed {
			types[name] = series.Float
		}
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{naToken}),
		dataframe.WithTypes(types),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("data: %w", df.Err)
	}
	// gota renames blank headers, so columns are matched by position.
	names := df.Names()
	for j, name := range header {
		if err := f.Add(fromSeries(name, df.Col(names[j]))); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func fromSeries(name string, s series.Series) *Column {
	n := s.Len()
	observed := 0
	for i := 0; i < n; i++ {
		if !s.Elem(i).IsNA() {
			observed++
		}
	}
	if observed == 0 {
		nums := make([]float64, n)
		for i := range nums {
			nums[i] = nan
		}
		return &Column{Name: name, Kind: Numeric, Num: nums}
	}
	if s.Type() != series.String {
		return &Column{Name: name, Kind: Numeric, Num: s.Float()}
	}

	c := &Column{Name: name, Kind: Categorical, Str: make([]string, n), Missing: make([]bool, n)}
	recs := s.Records()
	for i := 0; i < n; i++ {
		if s.Elem(i).IsNA() {
			c.Missing[i] = true
			continue
		}
		c.Str[i] = recs[i]
	}
	return c
}

// uniqueNames suffixes repeated header names with ".1", ".2", ...
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		name := h
		for n := 1; taken[name]; n++ {
			name = h + "." + strconv.Itoa(n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

// IsNotExist reports whether err came from opening a file that does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
