package preprocessing

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/frame"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// The parsers below turn raw string columns into the input of an encoder.
// They are stateless and never fail on cell content: malformed cells degrade
// to a documented value.

func singleColumn(op string, X *frame.Frame) (frame.Column, error) {
	if X.Width() != 1 {
		return frame.Column{}, scigoErrors.NewDimensionError(op, 1, X.Width(), 1)
	}
	return X.Column(X.Names()[0])
}

// SetParser parses values of the form "<count><Separator><a,b,c>" into
// label sets. Missing values and values without the separator yield the
// empty set. Labels are trimmed and empty labels are skipped.
type SetParser struct {
	Separator     string
	ItemSeparator string
}

// NewSetParser returns the parser for "3- B,S,C" style values.
func NewSetParser() SetParser {
	return SetParser{Separator: "-", ItemSeparator: ","}
}

// Parse implements the cleaning step of a set-valued branch.
func (p SetParser) Parse(X *frame.Frame) ([][]string, error) {
	col, err := singleColumn("SetParser.Parse", X)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(col.Values))
	for i, v := range col.Values {
		out[i] = p.ParseValue(v, col.Valid[i])
	}
	return out, nil
}

// ParseValue parses a single cell.
func (p SetParser) ParseValue(v string, valid bool) []string {
	if !valid {
		return []string{}
	}
	_, rest, ok := strings.Cut(v, p.Separator)
	if !ok {
		return []string{}
	}
	items := strings.Split(rest, p.ItemSeparator)
	set := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		set = append(set, it)
	}
	return set
}

// PercentParser strips a trailing Suffix and parses the number. A value
// without the suffix, or one that does not parse, becomes NaN; the scaler
// that follows imputes NaN with the fitted mean.
type PercentParser struct {
	Suffix string
}

// NewPercentParser returns a parser for "70%" style values.
func NewPercentParser() PercentParser {
	return PercentParser{Suffix: "%"}
}

// Parse returns an n x 1 matrix.
func (p PercentParser) Parse(X *frame.Frame) (mat.Matrix, error) {
	col, err := singleColumn("PercentParser.Parse", X)
	if err != nil {
		return nil, err
	}
	if len(col.Values) == 0 {
		return emptyDense(0, 1), nil
	}
	out := mat.NewVecDense(len(col.Values), nil)
	malformed := 0
	for i, v := range col.Values {
		x, ok := p.ParseValue(v, col.Valid[i])
		if !ok && col.Valid[i] {
			malformed++
		}
		out.SetVec(i, x)
	}
	if malformed > 0 {
		scigoErrors.Warn(scigoErrors.NewDataConversionWarning("string", "float64",
			strconv.Itoa(malformed)+" value(s) without "+strconv.Quote(p.Suffix)+" suffix treated as missing"))
	}
	return out, nil
}

// ParseValue parses a single cell. ok is false when the cell degraded to NaN.
func (p PercentParser) ParseValue(v string, valid bool) (float64, bool) {
	if !valid {
		return math.NaN(), false
	}
	v = strings.TrimSpace(v)
	num, found := strings.CutSuffix(v, p.Suffix)
	if !found {
		return math.NaN(), false
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return math.NaN(), false
	}
	return x, true
}

// LeadingCountParser reads the single ASCII digit that starts a set-valued
// string ("3- B,S,C" -> 3). Missing values, and values that do not start
// with a digit followed by the separator, count as 0.
type LeadingCountParser struct {
	Separator string
}

// NewLeadingCountParser returns a parser for "3- B,S,C" style values.
func NewLeadingCountParser() LeadingCountParser {
	return LeadingCountParser{Separator: "-"}
}

// Parse returns an n x 1 matrix of counts.
func (p LeadingCountParser) Parse(X *frame.Frame) (mat.Matrix, error) {
	col, err := singleColumn("LeadingCountParser.Parse", X)
	if err != nil {
		return nil, err
	}
	if len(col.Values) == 0 {
		return emptyDense(0, 1), nil
	}
	out := mat.NewVecDense(len(col.Values), nil)
	for i, v := range col.Values {
		out.SetVec(i, float64(p.ParseValue(v, col.Valid[i])))
	}
	return out, nil
}

// ParseValue parses a single cell.
func (p LeadingCountParser) ParseValue(v string, valid bool) int {
	v = strings.TrimSpace(v)
	if !valid || len(v) == 0 {
		return 0
	}
	c := v[0]
	if c < '0' || c > '9' {
		return 0
	}
	if !strings.HasPrefix(strings.TrimSpace(v[1:]), p.Separator) {
		return 0
	}
	return int(c - '0')
}

// NumericParser parses every column as float64; missing and unparsable
// cells become Missing.
type NumericParser struct {
	Missing float64
}

// NewNumericParser returns a parser that marks bad cells as NaN.
func NewNumericParser() NumericParser {
	return NumericParser{Missing: math.NaN()}
}

// Parse returns an n x width matrix.
func (p NumericParser) Parse(X *frame.Frame) (mat.Matrix, error) {
	rows, cols := X.Len(), X.Width()
	if rows == 0 || cols == 0 {
		return emptyDense(rows, cols), nil
	}
	out := mat.NewDense(rows, cols, nil)
	for j, name := range X.Names() {
		col, _ := X.Column(name)
		for i, v := range col.Values {
			x := p.Missing
			if col.Valid[i] {
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
					x = parsed
				}
			}
			out.Set(i, j, x)
		}
	}
	return out, nil
}
