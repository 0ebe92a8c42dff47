package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textAt(buf *bytes.Buffer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})
}

type failing struct{ slog.Handler }

func (failing) Enabled(context.Context, slog.Level) bool  { return true }
func (failing) Handle(context.Context, slog.Record) error { return errors.New("sink down") }
func (f failing) WithAttrs([]slog.Attr) slog.Handler      { return f }
func (f failing) WithGroup(string) slog.Handler           { return f }

func TestFanout(t *testing.T) {
	var info, debug bytes.Buffer
	f := NewFanout(nil, textAt(&info, slog.LevelInfo), nil, textAt(&debug, slog.LevelDebug))
	require.Len(t, f, 2)

	log := slog.New(f)
	log.Debug("proposal", "to", 2.5)
	log.Info("fuel matched", "to", "LiquidFuel")

	assert.NotContains(t, info.String(), "proposal")
	assert.Contains(t, info.String(), "fuel matched")
	assert.Contains(t, debug.String(), "proposal")
	assert.Contains(t, debug.String(), "fuel matched")
}

func TestFanout_Enabled(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	assert.False(t, NewFanout().Enabled(ctx, slog.LevelError))
	assert.False(t, NewFanout(textAt(&buf, slog.LevelWarn)).Enabled(ctx, slog.LevelInfo))
	assert.True(t, NewFanout(textAt(&buf, slog.LevelWarn), textAt(&buf, slog.LevelInfo)).Enabled(ctx, slog.LevelInfo))
}

func TestFanout_FailingSink(t *testing.T) {
	var buf bytes.Buffer
	f := NewFanout(failing{}, textAt(&buf, slog.LevelInfo))

	var r slog.Record
	r.Level = slog.LevelInfo
	r.Message = "still delivered"
	err := f.Handle(context.Background(), r)

	assert.EqualError(t, err, "sink down")
	assert.Contains(t, buf.String(), "still delivered")
}

func TestFanout_AttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	f := NewFanout(textAt(&a, slog.LevelInfo), textAt(&b, slog.LevelInfo))

	slog.New(f.WithAttrs([]slog.Attr{slog.Int("tank", 4)}).WithGroup("fit")).Info("solved", "length", 1.5)

	for _, out := range []string{a.String(), b.String()} {
		assert.Contains(t, out, "tank=4")
		assert.Contains(t, out, "fit.length=1.5")
	}
	assert.Equal(t, f, f.WithGroup(""))
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	h := withContext{Handler: textAt(&buf, slog.LevelInfo), provider: func() []slog.Attr {
		calls++
		return []slog.Attr{slog.Int("tanks", calls)}
	}}

	log := slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "handlers")}))
	log.Info("first")
	log.Info("second")

	assert.Contains(t, buf.String(), "component=handlers")
	assert.Contains(t, buf.String(), "tanks=1")
	assert.Contains(t, buf.String(), "tanks=2")
	assert.IsType(t, withContext{}, h.WithGroup("grp"))
}
