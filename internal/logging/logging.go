package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns the application logger. Console output in development,
// JSON elsewhere.
func New(development bool) zerolog.Logger {
	if development {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Security derives the audit logger used for security events (rate-limit
// blocks, traversal attempts). Kept on a separate channel so these can be
// filtered and shipped independently of ordinary error logs.
func Security(base zerolog.Logger) zerolog.Logger {
	return base.With().Str("channel", "security").Logger()
}
