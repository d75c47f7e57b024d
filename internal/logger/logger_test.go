package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prettyLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return New(Config{Writer: buf, Format: FormatPretty, Level: level, NoColor: true})
}

func TestNew_FormatFromEnvironment(t *testing.T) {
	tests := []struct {
		env      string
		wantJSON bool
	}{
		{"production", true},
		{"development", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			New(Config{Writer: &buf, Environment: tt.env, NoColor: true}).Info("hello", "k", "v")

			out := buf.String()
			if tt.wantJSON {
				assert.Contains(t, out, `"msg":"hello"`)
				assert.Contains(t, out, `"k":"v"`)
			} else {
				assert.Contains(t, out, "INF hello k=v")
			}
		})
	}
}

func TestNew_ExplicitFormatWins(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Writer: &buf, Environment: "production", Format: FormatPretty, NoColor: true}).Warn("careful")
	assert.Contains(t, buf.String(), "WRN careful")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := prettyLogger(&buf, slog.LevelWarn)

	log.Debug("debug line")
	log.Info("info line")
	log.Warn("warn line")
	log.Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "WRN warn line")
	assert.Contains(t, out, "ERR error line")
}

func TestPrettyHandler_Attrs(t *testing.T) {
	var buf bytes.Buffer
	log := prettyLogger(&buf, slog.LevelDebug).
		With("component", "cache").
		WithGroup("req").
		With("id", 7)

	log.Debug("stored page", "key", "abc", "error", errors.New("disk full"), slog.Group("timing", "ms", 12))

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "DBG stored page")
	assert.Contains(t, line, "component=cache")
	assert.Contains(t, line, "req.id=7")
	assert.Contains(t, line, "req.key=abc")
	assert.Contains(t, line, `req.error="disk full"`)
	assert.Contains(t, line, "req.timing.ms=12")
	assert.NotContains(t, line, "\033[")
}

func TestPrettyHandler_Colors(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Writer: &buf, Format: FormatPretty}).Error("boom")
	assert.Contains(t, buf.String(), colorRed+"ERR"+colorReset)
}

func TestPrettyHandler_Source(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Writer: &buf, Format: FormatPretty, AddSource: true, NoColor: true}).Info("where")
	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestPrettyHandler_Record(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)
	h.noColor = true

	ts := time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "at", 0)
	r.AddAttrs(slog.Time("when", ts), slog.String("empty", ""), slog.Duration("took", 2*time.Second))
	require.NoError(t, h.Handle(context.Background(), r))

	assert.Equal(t, `14:05:09 INF at when=2024-03-01T14:05:09Z empty="" took=2s`+"\n", buf.String())
}

func TestPrettyHandler_EnabledDefaultsToInfo(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("dropped", "k", 1) })
}
