package library

import (
	"io"

	"github.com/rs/zerolog"
)

// Package logger for operational tracing of engine mutations. Silent
// until a caller routes it somewhere.
var logger = zerolog.New(io.Discard)

// SetLogger routes the package's logging.
func SetLogger(l zerolog.Logger) {
	logger = l
}
