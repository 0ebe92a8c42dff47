package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseZerologLevel maps a config log level to zerolog, defaulting to info.
func ParseZerologLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewZerolog builds the component logger used by the dispatcher, journal worker and
// storage backends. Each writer gets plain console formatting with UTC timestamps.
func NewZerolog(level string, writers ...io.Writer) zerolog.Logger {
	var outs []io.Writer
	for _, w := range writers {
		if w == nil {
			continue
		}
		outs = append(outs, zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}
	if len(outs) == 0 {
		return zerolog.Nop()
	}

	return zerolog.New(zerolog.MultiLevelWriter(outs...)).
		Level(ParseZerologLevel(level)).
		With().
		Timestamp().
		Logger()
}
