package hostabi

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/SmartTank/extension/internal/dispatcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

type mockLogger struct{}

func (mockLogger) Debug(string, ...any) {}
func (mockLogger) Info(string, ...any)  {}
func (mockLogger) Error(string, ...any) {}

func TestFormatResponse(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		result   any
		err      error
		expected string
	}{
		{
			name:     "success with string array",
			command:  ":VERSION:",
			result:   []string{"0.0.1", "2026-02-01"},
			expected: `["ok",":VERSION:",["0.0.1","2026-02-01"]]`,
		},
		{
			name:     "success with simple string",
			command:  ":TANK:REMOVE:",
			result:   "ok",
			expected: `["ok",":TANK:REMOVE:","ok"]`,
		},
		{
			name:     "success with path string",
			command:  ":GETDIR:MODULE:",
			result:   `C:\Games\SmartTank`,
			expected: `["ok",":GETDIR:MODULE:","C:\\Games\\SmartTank"]`,
		},
		{
			name:     "success with nil result",
			command:  ":SOME:CMD:",
			expected: `["ok",":SOME:CMD:"]`,
		},
		{
			name:     "error response",
			command:  ":LOG:",
			err:      errors.New(`no "handler" registered`),
			expected: `["error",":LOG:","no \"handler\" registered"]`,
		},
		{
			name:     "success with struct",
			command:  ":TANK:ACTIVATE:",
			result:   struct{ ID int `json:"id"` }{ID: 3},
			expected: `["ok",":TANK:ACTIVATE:",{"id":3}]`,
		},
		{
			name:     "unencodable result",
			command:  ":BAD:",
			result:   make(chan int),
			expected: `["error",":BAD:","encoding result: json: unsupported type: chan int"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatResponse(tt.command, tt.result, tt.err))
		})
	}
}

func withDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.NewWithMeter(mockLogger{}, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	prev := GetDispatcher()
	SetDispatcher(d)
	t.Cleanup(func() {
		SetDispatcher(prev)
		d.Close()
	})
	return d
}

func TestCall(t *testing.T) {
	d := withDispatcher(t)
	d.Register(":ECHO:", func(e dispatcher.Event) (any, error) {
		return e.Args, nil
	})
	d.Register(":FAIL:", func(e dispatcher.Event) (any, error) {
		return nil, errors.New("boom")
	})

	assert.Equal(t, `["ok",":ECHO:",["a","b"]]`, Call(":ECHO:", []string{"a", "b"}))
	assert.Equal(t, `["error",":FAIL:","boom"]`, Call(":FAIL:", nil))
	assert.Equal(t, `["error",":MISSING:","no handler registered"]`, Call(":MISSING:", nil))
}

func TestCall_NoDispatcher(t *testing.T) {
	prev := GetDispatcher()
	SetDispatcher(nil)
	t.Cleanup(func() { SetDispatcher(prev) })

	assert.Equal(t, `["error",":ANY:","no handler registered"]`, Call(":ANY:", nil))
}

func TestCallRaw(t *testing.T) {
	d := withDispatcher(t)
	d.Register(":ECHO:", func(e dispatcher.Event) (any, error) {
		return e.Args, nil
	})

	assert.Equal(t, `["ok",":ECHO:",null]`, CallRaw(":ECHO:"))
	assert.Equal(t, `["ok",":ECHO:",["{\"id\":3}"]]`, CallRaw(`:ECHO:|{"id":3}`))
	assert.Equal(t, `["ok",":ECHO:",["a|b"]]`, CallRaw(":ECHO:|a|b"))
}

func TestCallRaw_Timestamp(t *testing.T) {
	prev := GetDispatcher()
	SetDispatcher(nil)
	t.Cleanup(func() { SetDispatcher(prev) })

	reply := CallRaw(CmdTimestamp)
	require.Regexp(t, `^\["ok",":TIMESTAMP:","\d+"\]$`, reply)

	ts := reply[len(`["ok",":TIMESTAMP:","`) : len(reply)-2]
	_, err := strconv.ParseInt(ts, 10, 64)
	assert.NoError(t, err)
}

func TestVersion(t *testing.T) {
	prev := Version()
	t.Cleanup(func() { SetVersion(prev) })

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", Version())
}

func TestFitReply(t *testing.T) {
	full := `["ok",":TANK:INFO:",{"id":3,"shape":"Cylinder","diameter":1.25}]`

	tests := []struct {
		name     string
		limit    int
		expected string
	}{
		{"fits with terminator", len(full) + 1, full},
		{"no room for terminator", len(full), `["error",":TANK:INFO:","reply too large"]`},
		{"small buffer", 42, `["error",":TANK:INFO:","reply too large"]`},
		{"command does not fit either", 41, `["error","","reply too large"]`},
		{"smallest error reply", 31, `["error","","reply too large"]`},
		{"nothing fits", 30, ""},
		{"zero", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitReply(":TANK:INFO:", full, tt.limit)
			assert.Equal(t, tt.expected, got)
			if got != "" {
				assert.Less(t, len(got), tt.limit)
				assert.True(t, json.Valid([]byte(got)), "reply stays valid JSON")
			}
		})
	}
}
