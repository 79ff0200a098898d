package log

import (
	"github.com/rs/zerolog"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

func init() {
	zerolog.ErrorStackFieldName = StacktraceKey
	zerolog.ErrorStackMarshaler = marshalStack
}

// marshalStack extracts the stack recorded by cockroachdb/errors.
func marshalStack(err error) interface{} {
	return extractStacktrace(err)
}

func extractStacktrace(err error) string {
	details := scigoErrors.GetSafeDetails(err)
	if len(details) > 0 {
		return details[0]
	}
	return ""
}
