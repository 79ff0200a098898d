package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/chocotune/core/frame"
	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

var ingredients = []string{"B", "S", "S*", "C", "V", "L", "Sa"}

func mustFrame(t *testing.T, cols ...frame.Column) *frame.Frame {
	t.Helper()
	f, err := frame.New(cols...)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func col(name string, values ...string) frame.Column {
	c := frame.Column{Name: name, Values: values, Valid: make([]bool, len(values))}
	for i, v := range values {
		c.Valid[i] = v != ""
	}
	return c
}

func rowOf(m *mat.Dense, i int) []float64 {
	_, c := m.Dims()
	out := make([]float64, c)
	mat.Row(out, i, m)
	return out
}

func equalRow(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func silenceWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	scigoErrors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { scigoErrors.SetWarningHandler(func(error) {}) })
	return &got
}

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, math.NaN(),
		3, 10,
		4, 10,
	})
	s := NewStandardScalerDefault()
	if err := s.Fit(X, nil); err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.Mean[0]-2.5) > 1e-12 {
		t.Errorf("mean = %v", s.Mean[0])
	}
	if math.Abs(s.Scale[0]-math.Sqrt(1.25)) > 1e-12 {
		t.Errorf("population std = %v", s.Scale[0])
	}
	if s.Scale[1] != 1 {
		t.Errorf("constant column scale = %v, want 1", s.Scale[1])
	}

	out, err := s.Transform(X)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.At(1, 1); v != 0 {
		t.Errorf("NaN should be imputed to the mean (0 after scaling), got %v", v)
	}

	back, err := s.InverseTransform(out)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(back.At(2, 0)-3) > 1e-12 {
		t.Errorf("inverse = %v", back.At(2, 0))
	}

	if _, err := s.Transform(mat.NewDense(1, 3, nil)); err == nil {
		t.Error("expected dimension error")
	}
	if _, err := NewStandardScalerDefault().Transform(X); err == nil {
		t.Error("expected not-fitted error")
	}
}

func TestOneHotEncoderUnknownCategoryIsAllZero(t *testing.T) {
	train := mustFrame(t, col("company_location", "France", "U.S.A.", "Belgium", "France"))
	enc := NewOneHotEncoder()
	if err := enc.Fit(train, nil); err != nil {
		t.Fatal(err)
	}
	test := mustFrame(t, col("company_location", "Japan", "France", ""))
	out, err := enc.Transform(test)
	if err != nil {
		t.Fatalf("unknown categories must not fail: %v", err)
	}
	tests := []struct {
		row  int
		want []float64
	}{
		{0, []float64{0, 0, 0}},
		{1, []float64{0, 1, 0}},
		{2, []float64{0, 0, 0}},
	}
	for _, tt := range tests {
		if got := rowOf(out, tt.row); !equalRow(got, tt.want) {
			t.Errorf("row %d = %v, want %v", tt.row, got, tt.want)
		}
	}
}

func TestOneHotEncoderErrorPolicy(t *testing.T) {
	enc := NewOneHotEncoder(WithOneHotPolicy(UnknownPolicy{Mode: ErrorOnUnknown}))
	if err := enc.Fit(mustFrame(t, col("c", "a", "b")), nil); err != nil {
		t.Fatal(err)
	}
	_, err := enc.Transform(mustFrame(t, col("c", "z")))
	var valErr *scigoErrors.ValueError
	if !scigoErrors.As(err, &valErr) {
		t.Fatalf("expected ValueError, got %v", err)
	}
}

func TestOneHotEncoderInfrequentAndDrop(t *testing.T) {
	train := mustFrame(t,
		col("maker", "A", "A", "A", "B", "B", "B", "C", "D"),
		col("bean", "x", "y", "x", "y", "x", "y", "x", "y"),
	)
	enc := NewOneHotEncoder(
		WithMinFrequency(map[string]int{"maker": 2}),
		WithDropIfBinary(),
	)
	if err := enc.Fit(train, nil); err != nil {
		t.Fatal(err)
	}
	wantNames := []string{"maker_A", "maker_B", "maker_infrequent_sklearn", "bean_y"}
	names := enc.FeatureNames()
	if len(names) != len(wantNames) {
		t.Fatalf("names = %v", names)
	}
	for i := range names {
		if names[i] != wantNames[i] {
			t.Errorf("name %d = %s, want %s", i, names[i], wantNames[i])
		}
	}

	out, err := enc.Transform(mustFrame(t, col("maker", "C", "D", "A", "E"), col("bean", "y", "x", "y", "x")))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		row  int
		want []float64
	}{
		{0, []float64{0, 0, 1, 1}},
		{1, []float64{0, 0, 1, 0}},
		{2, []float64{1, 0, 0, 1}},
		{3, []float64{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		if got := rowOf(out, tt.row); !equalRow(got, tt.want) {
			t.Errorf("row %d = %v, want %v", tt.row, got, tt.want)
		}
	}
}

func TestOrdinalEncoder(t *testing.T) {
	enc := NewOrdinalEncoder(DefaultUnknownPolicy())
	if err := enc.Fit(mustFrame(t, col("review_date", "2019", "2006", "2012", "2006")), nil); err != nil {
		t.Fatal(err)
	}
	out, err := enc.Transform(mustFrame(t, col("review_date", "2006", "2012", "2019", "2021", "")))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, 2, -1, -1}
	for i, w := range want {
		if got := out.At(i, 0); got != w {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
}

func TestSetValueEncoder(t *testing.T) {
	warnings := silenceWarnings(t)
	enc := NewSetValueEncoder(ingredients, DefaultUnknownPolicy())
	if err := enc.Fit(nil, nil); err != nil {
		t.Fatalf("Fit must accept an unused target: %v", err)
	}
	out, err := enc.Transform([][]string{
		{"B", "S", "C"},
		{},
		{"B", "Sa", "X"},
	})
	if err != nil {
		t.Fatalf("unknown labels must not fail: %v", err)
	}
	tests := []struct {
		row  int
		want []float64
	}{
		{0, []float64{1, 1, 0, 1, 0, 0, 0}},
		{1, []float64{0, 0, 0, 0, 0, 0, 0}},
		{2, []float64{1, 0, 0, 0, 0, 0, 1}},
	}
	for _, tt := range tests {
		if got := rowOf(out, tt.row); !equalRow(got, tt.want) {
			t.Errorf("row %d = %v, want %v", tt.row, got, tt.want)
		}
	}
	if len(*warnings) != 1 {
		t.Errorf("expected one UnknownLabelWarning, got %v", *warnings)
	}
}

func TestMultiLabelBinarizerRejectsDuplicateClasses(t *testing.T) {
	b := NewMultiLabelBinarizer([]string{"B", "B"}, DefaultUnknownPolicy())
	if err := b.Fit(nil); err == nil {
		t.Fatal("expected validation error for duplicate classes")
	}
}

func TestSetParser(t *testing.T) {
	p := NewSetParser()
	tests := []struct {
		name  string
		value string
		valid bool
		want  []string
	}{
		{"regular", "3- B,S,C", true, []string{"B", "S", "C"}},
		{"star label", "4- B,S*,C,Sa", true, []string{"B", "S*", "C", "Sa"}},
		{"missing", "", false, []string{}},
		{"no separator", "BSC", true, []string{}},
		{"empty list", "0-", true, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ParseValue(tt.value, tt.valid)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestPercentParser(t *testing.T) {
	warnings := silenceWarnings(t)
	p := NewPercentParser()
	out, err := p.Parse(mustFrame(t, col("cocoa_percent", "70%", "72.5%", "", "65")))
	if err != nil {
		t.Fatal(err)
	}
	if out.At(0, 0) != 70 || out.At(1, 0) != 72.5 {
		t.Errorf("parsed = %v, %v", out.At(0, 0), out.At(1, 0))
	}
	if !math.IsNaN(out.At(2, 0)) {
		t.Errorf("missing value should be NaN, got %v", out.At(2, 0))
	}
	if !math.IsNaN(out.At(3, 0)) {
		t.Errorf("value without suffix should degrade to NaN, got %v", out.At(3, 0))
	}
	if len(*warnings) != 1 {
		t.Errorf("expected one DataConversionWarning, got %d", len(*warnings))
	}

	s := NewStandardScalerDefault()
	if err := s.Fit(out, nil); err != nil {
		t.Fatal(err)
	}
	scaled, err := s.Transform(out)
	if err != nil {
		t.Fatal(err)
	}
	if scaled.At(3, 0) != 0 {
		t.Errorf("degraded value should standardize to 0, got %v", scaled.At(3, 0))
	}
}

func TestLeadingCountParser(t *testing.T) {
	p := NewLeadingCountParser()
	tests := []struct {
		value string
		valid bool
		want  int
	}{
		{"3- B,S,C", true, 3},
		{"7- B,S,C,V,L,Sa,S*", true, 7},
		{"", false, 0},
		{"B,S", true, 0},
		{"3 B,S", true, 0},
	}
	for _, tt := range tests {
		if got := p.ParseValue(tt.value, tt.valid); got != tt.want {
			t.Errorf("ParseValue(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestNumericParser(t *testing.T) {
	out, err := NewNumericParser().Parse(mustFrame(t, col("review_date", "2006", "x", "")))
	if err != nil {
		t.Fatal(err)
	}
	if out.At(0, 0) != 2006 || !math.IsNaN(out.At(1, 0)) || !math.IsNaN(out.At(2, 0)) {
		t.Errorf("parsed %v %v %v", out.At(0, 0), out.At(1, 0), out.At(2, 0))
	}
}
