package infra

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so callers outside the infra package can
// depend on the logging contract without importing the module directly.
type Logger = zerolog.Logger

// NewLogger builds the process logger. The level comes from the explicit
// override when one is given, otherwise development runs at debug and
// everything else at info. Development output is pretty-printed.
func NewLogger(appEnv, level string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if appEnv == "development" {
		lvl = zerolog.DebugLevel
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil && parsed != zerolog.NoLevel {
			lvl = parsed
		}
	}

	var out = zerolog.New(os.Stdout)
	if appEnv == "development" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return out.Level(lvl).With().
		Timestamp().
		Str("svc", "fitstudio").
		Logger()
}
