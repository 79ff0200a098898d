package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "chocotune: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			wantMsg: "chocotune: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}
			if formatted := fmt.Sprintf("%+v", err); !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}
			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Transform", 7, 3, 1)
	want := "chocotune: Transform: dimension mismatch on axis 1 (features). Expected 7, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dimErr.Expected != 7 || dimErr.Got != 3 {
		t.Errorf("unexpected fields: %+v", dimErr)
	}
}

func TestNewPreconditionError(t *testing.T) {
	err := NewPreconditionError("TuneAndDump", "target column \"rating\" not found")
	var pre *PreconditionError
	if !As(err, &pre) {
		t.Fatal("Error should be castable to *PreconditionError")
	}
	if pre.Op != "TuneAndDump" {
		t.Errorf("Op = %q", pre.Op)
	}
	wrapped := Wrap(err, "tune ridge")
	if !As(wrapped, &pre) {
		t.Error("wrapped error should still be a *PreconditionError")
	}
	if !strings.Contains(wrapped.Error(), "precondition failed") {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}

func TestWarnRoutesToHandler(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(error) {})

	Warn(NewUnknownLabelWarning("SetValueEncoder", []string{"X", "Y"}))
	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	if msg := got[0].Error(); msg != "SetValueEncoder: unknown label(s) X, Y will be ignored" {
		t.Errorf("unexpected warning message: %s", msg)
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "fold %d", 3)
	if !Is(wrapped, ErrEmptyData) {
		t.Error("wrapped error should match ErrEmptyData")
	}
	if !strings.Contains(wrapped.Error(), "fold 3") {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}

func TestCheckMatrix(t *testing.T) {
	m := fakeMatrix{{1, 2}, {3, nan()}}
	err := CheckMatrix("Predict", m)
	var valErr *ValueError
	if !As(err, &valErr) {
		t.Fatalf("expected ValueError, got %v", err)
	}
	if err := CheckMatrix("Predict", fakeMatrix{{1}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

type fakeMatrix [][]float64

func (m fakeMatrix) At(i, j int) float64 { return m[i][j] }
func (m fakeMatrix) Dims() (int, int)    { return len(m), len(m[0]) }

func nan() float64 {
	var zero float64
	return zero / zero
}
