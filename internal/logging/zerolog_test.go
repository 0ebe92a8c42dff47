package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseZerologLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"Warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseZerologLevel(tt.input))
		})
	}
}

func TestNewZerolog_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	log := NewZerolog("info", &a, nil, &b)

	log.Debug().Msg("hidden")
	log.Info().Str("tank", "7").Msg("resized")

	for _, buf := range []*bytes.Buffer{&a, &b} {
		out := buf.String()
		assert.Contains(t, out, "resized")
		assert.Contains(t, out, "tank=7")
		assert.NotContains(t, out, "hidden")
	}
}

func TestNewZerolog_NoWriters(t *testing.T) {
	log := NewZerolog("debug")
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
}
