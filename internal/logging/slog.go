package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// osStdout is the console sink; tests swap it for a pipe.
var osStdout io.Writer = os.Stdout

// SlogManager owns the host-facing logger: a text log (file, or the console when
// there is no file) and an optional JSON copy shipped to a remote sink such as Graylog.
type SlogManager struct {
	logger *slog.Logger
	remote io.Writer
}

func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel accepts slog level names in any case and falls back to info.
func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// utcTime renders record times as RFC3339 in UTC.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Setup (re)builds the logger. It may be called again once the config is read; the
// previous sinks stop receiving records. provider may be nil.
func (m *SlogManager) Setup(file io.Writer, level string, remote io.Writer, provider ContextProvider) {
	opts := &slog.HandlerOptions{Level: parseLevel(level), ReplaceAttr: utcTime}

	text := osStdout
	if file != nil {
		text = file
	}
	sinks := []slog.Handler{slog.NewTextHandler(text, opts)}
	if remote != nil {
		sinks = append(sinks, slog.NewJSONHandler(remote, opts))
	}

	var h slog.Handler = NewFanout(sinks...)
	if provider != nil {
		h = withContext{Handler: h, provider: provider}
	}

	m.remote = remote
	m.logger = slog.New(h)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns slog.Default until Setup has run.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Close releases the remote sink if it can be closed.
func (m *SlogManager) Close() error {
	if c, ok := m.remote.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WriteLog logs data on behalf of functionName. The host's :LOG: command ends up here.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), parseLevel(level), data, "function", functionName)
}
