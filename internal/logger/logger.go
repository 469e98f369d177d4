// Package logger provides the configured zerolog logger shared by the
// service and CLI entrypoints.
package logger

import (
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// New returns a zerolog.Logger writing JSON to stdout at info level.
// Call sites should use .Stack() on error events to include stacks.
func New(serviceName string) zerolog.Logger {
	return newLogger(serviceName, zerolog.InfoLevel)
}

// NewDebug returns a logger at debug level; deduplication decisions and
// fallback reads log at debug and are only visible with this.
func NewDebug(serviceName string) zerolog.Logger {
	return newLogger(serviceName, zerolog.DebugLevel)
}

func newLogger(serviceName string, level zerolog.Level) zerolog.Logger {
	// Wire zerolog to github.com/pkg/errors so wrapped errors render their
	// stack traces, and plain errors get one attached when .Stack() is used.
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); ok {
			return err
		}
		return pkgerrors.WithStack(err)
	}

	return zerolog.New(os.Stdout).Level(level).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
