// Package frame provides a small column-oriented table of string cells.
//
// A Frame is what the feature pipeline consumes: ordered, named columns with
// a per-cell validity flag so that missing values survive loading. Numeric
// interpretation happens in the transformers, not here.
package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// DefaultMissingTokens are the cell values loaded as missing.
var DefaultMissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "<NA>", "None"}

// Column is a named column of string cells.
type Column struct {
	Name   string
	Values []string
	// Valid[i] is false when row i is missing.
	Valid []bool
}

// Frame is an ordered set of equally long columns.
type Frame struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New builds a Frame from columns. All columns must have the same length and
// unique names.
func New(columns ...Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if _, dup := f.index[c.Name]; dup {
			return nil, scigoErrors.NewValueError("frame.New", fmt.Sprintf("duplicate column %q", c.Name))
		}
		if i == 0 {
			f.rows = len(c.Values)
		} else if len(c.Values) != f.rows {
			return nil, scigoErrors.NewDimensionError("frame.New", f.rows, len(c.Values), 0)
		}
		if c.Valid == nil {
			c.Valid = make([]bool, len(c.Values))
			for j := range c.Valid {
				c.Valid[j] = true
			}
		} else if len(c.Valid) != len(c.Values) {
			return nil, scigoErrors.NewDimensionError("frame.New", len(c.Values), len(c.Valid), 0)
		}
		f.index[c.Name] = i
		f.columns = append(f.columns, c)
	}
	return f, nil
}

// FromRecords builds a Frame from a header and string rows, marking the
// DefaultMissingTokens as missing.
func FromRecords(header []string, records [][]string) (*Frame, error) {
	missing := make(map[string]struct{}, len(DefaultMissingTokens))
	for _, tok := range DefaultMissingTokens {
		missing[tok] = struct{}{}
	}
	cols := make([]Column, len(header))
	for j, name := range header {
		cols[j] = Column{
			Name:   strings.TrimSpace(name),
			Values: make([]string, len(records)),
			Valid:  make([]bool, len(records)),
		}
	}
	for i, rec := range records {
		if len(rec) != len(header) {
			return nil, scigoErrors.NewDimensionError(fmt.Sprintf("frame.FromRecords row %d", i+1), len(header), len(rec), 1)
		}
		for j, cell := range rec {
			if _, isNA := missing[strings.TrimSpace(cell)]; isNA {
				continue
			}
			cols[j].Values[i] = cell
			cols[j].Valid[i] = true
		}
	}
	return New(cols...)
}

// ReadCSV loads a CSV with a header row.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, scigoErrors.Wrap(err, "read csv")
	}
	if len(records) == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "csv has no header")
	}
	return FromRecords(records[0], records[1:])
}

// ReadCSVFile opens path and loads it with ReadCSV.
func ReadCSVFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, scigoErrors.Wrapf(err, "open %s", path)
	}
	defer file.Close()
	return ReadCSV(file)
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.columns) }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Missing returns the names that are not columns of f, in argument order.
func (f *Frame) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !f.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Column returns the named column.
func (f *Frame) Column(name string) (Column, error) {
	i, ok := f.index[name]
	if !ok {
		return Column{}, scigoErrors.NewValueError("frame.Column", fmt.Sprintf("column %q not found", name))
	}
	return f.columns[i], nil
}

// Select returns a Frame with the named columns in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	if miss := f.Missing(names...); len(miss) > 0 {
		return nil, scigoErrors.NewValueError("frame.Select", fmt.Sprintf("columns not found: %s", strings.Join(miss, ", ")))
	}
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = f.columns[f.index[n]]
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = f.rows
	return out, nil
}

// Drop returns a Frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	out := &Frame{index: make(map[string]int), rows: f.rows}
	for _, c := range f.columns {
		if _, ok := skip[c.Name]; ok {
			continue
		}
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c)
	}
	return out
}

// Take returns a Frame with the rows at idx, in idx order.
func (f *Frame) Take(idx []int) *Frame {
	out := &Frame{index: make(map[string]int, len(f.columns)), rows: len(idx)}
	for j, c := range f.columns {
		nc := Column{Name: c.Name, Values: make([]string, len(idx)), Valid: make([]bool, len(idx))}
		for i, r := range idx {
			nc.Values[i] = c.Values[r]
			nc.Valid[i] = c.Valid[r]
		}
		out.index[c.Name] = j
		out.columns = append(out.columns, nc)
	}
	return out
}

// Float parses the named column as float64. Missing or unparsable cells are
// reported as an error naming the first offending row.
func (f *Frame) Float(name string) (*mat.VecDense, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		if !c.Valid[i] {
			return nil, scigoErrors.NewValueError("frame.Float", fmt.Sprintf("column %q row %d is missing", name, i))
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, scigoErrors.NewValueError("frame.Float", fmt.Sprintf("column %q row %d: %q is not numeric", name, i, v))
		}
		out[i] = x
	}
	if len(out) == 0 {
		return nil, scigoErrors.Wrapf(scigoErrors.ErrEmptyData, "column %q", name)
	}
	return mat.NewVecDense(len(out), out), nil
}
