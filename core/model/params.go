package model

import (
	"fmt"
	"math"
	"strings"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// AsInt converts a hyperparameter value to int. Integral floats are accepted
// so that values decoded from YAML or JSON keep working.
func AsInt(name string, v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int(x), nil
		}
	}
	return 0, scigoErrors.NewValidationError(name, "must be an integer", v)
}

// AsFloat converts a hyperparameter value to float64.
func AsFloat(name string, v interface{}) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	default:
		return 0, scigoErrors.NewValidationError(name, "must be a number", v)
	}
	if scigoErrors.CheckScalar(name, f) != nil {
		return 0, scigoErrors.NewValidationError(name, "must be finite", v)
	}
	return f, nil
}

// AsString converts a hyperparameter value to string.
func AsString(name string, v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", scigoErrors.NewValidationError(name, "must be a string", v)
}

// SplitParam splits "step__rest" into its first segment and the remainder.
// ok is false when the name has no "__" separator.
func SplitParam(name string) (head, rest string, ok bool) {
	return strings.Cut(name, "__")
}

// UnknownParam returns the error used for a hyperparameter name a model does
// not recognize.
func UnknownParam(modelName, param string) error {
	return scigoErrors.NewValidationError(param, fmt.Sprintf("invalid parameter for %s", modelName), param)
}
