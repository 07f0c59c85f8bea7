package xlog_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xinfer/pkg/observability/xlog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  xlog.Level
		err   bool
	}{
		{"debug", xlog.LevelDebug, false},
		{"INFO", xlog.LevelInfo, false},
		{"Warn", xlog.LevelWarn, false},
		{"warning", xlog.LevelWarn, false},
		{"WARNING", xlog.LevelWarn, false},
		{"error", xlog.LevelError, false},
		{"CRITICAL", xlog.LevelError, false},
		{"fatal", xlog.LevelError, false},
		{"  info  ", xlog.LevelInfo, false},
		{"verbose", xlog.LevelInfo, true},
		{"", xlog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := xlog.ParseLevel(tt.input)
			if tt.err {
				assert.ErrorIs(t, err, xlog.ErrUnknownLevel)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", xlog.LevelDebug.String())
	assert.Equal(t, "INFO", xlog.LevelInfo.String())
	assert.Equal(t, "WARN", xlog.LevelWarn.String())
	assert.Equal(t, "ERROR", xlog.LevelError.String())
	assert.Equal(t, slog.Level(2).String(), xlog.Level(2).String())
}

func TestLevel_TextRoundTrip(t *testing.T) {
	var l xlog.Level
	require.NoError(t, l.UnmarshalText([]byte("warning")))
	assert.Equal(t, xlog.LevelWarn, l)

	b, err := l.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "WARN", string(b))

	assert.Error(t, l.UnmarshalText([]byte("nope")))
	assert.Equal(t, xlog.LevelWarn, l, "失败时保持原值")
}
