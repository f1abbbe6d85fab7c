package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger. Output is JSON on stderr; every record is
// tagged with the owning service name.
func New(service string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", service).
		Logger()
}
