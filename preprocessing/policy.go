// Package preprocessing provides the encoders, scalers and cell parsers used
// by the feature pipeline.
//
// Every encoder that can meet a value it did not see at fit time takes an
// explicit UnknownPolicy. With IgnoreUnknown such values degrade to an
// all-zero or empty representation; with ErrorOnUnknown they are reported as
// a ValueError.
package preprocessing

import (
	"fmt"
	"strings"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

// UnknownMode selects how unseen values are handled at transform time.
type UnknownMode int

const (
	// IgnoreUnknown degrades unseen values to zeros or the empty set.
	IgnoreUnknown UnknownMode = iota
	// ErrorOnUnknown fails the transform.
	ErrorOnUnknown
)

func (m UnknownMode) String() string {
	switch m {
	case IgnoreUnknown:
		return "ignore"
	case ErrorOnUnknown:
		return "error"
	default:
		return fmt.Sprintf("UnknownMode(%d)", int(m))
	}
}

// UnknownPolicy is shared by the encoders of one pipeline.
type UnknownPolicy struct {
	Mode UnknownMode
}

// DefaultUnknownPolicy ignores unseen values.
func DefaultUnknownPolicy() UnknownPolicy {
	return UnknownPolicy{Mode: IgnoreUnknown}
}

// check returns nil when unknown values are tolerated, or a ValueError
// listing them.
func (p UnknownPolicy) check(op, column string, unknown []string) error {
	if len(unknown) == 0 || p.Mode == IgnoreUnknown {
		return nil
	}
	return scigoErrors.NewValueError(op, fmt.Sprintf("found unknown values %s in column %q", strings.Join(unknown, ", "), column))
}
