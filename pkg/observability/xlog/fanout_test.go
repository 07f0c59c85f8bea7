package xlog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/omeyang/xinfer/pkg/observability/xlog"
)

type failingHandler struct {
	slog.Handler
	err error
}

func (f failingHandler) Handle(context.Context, slog.Record) error { return f.err }

func TestFanoutHandler(t *testing.T) {
	var info, warn bytes.Buffer
	warnLevel := new(slog.LevelVar)
	warnLevel.Set(slog.LevelWarn)

	h := xlog.NewFanoutHandler(
		xlog.NewPatternHandler(&info, &xlog.PatternOptions{Template: "{message}"}),
		nil,
		xlog.NewPatternHandler(&warn, &xlog.PatternOptions{Template: "{message}", Level: warnLevel}),
	)
	assert.Equal(t, 2, h.Len())

	ctx := context.Background()
	assert.True(t, h.Enabled(ctx, slog.LevelInfo))
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("a", "1")}).WithGroup(""))
	logger.Info("i")
	logger.Warn("w")

	assert.Equal(t, "i a=1\nw a=1\n", info.String())
	assert.Equal(t, "w a=1\n", warn.String())
}

func TestFanoutHandler_JoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	var ok bytes.Buffer
	base := slog.NewTextHandler(&bytes.Buffer{}, nil)

	h := xlog.NewFanoutHandler(
		failingHandler{Handler: base, err: errA},
		xlog.NewPatternHandler(&ok, &xlog.PatternOptions{Template: "{message}"}),
		failingHandler{Handler: base, err: errB},
	)
	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "m", 0))
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, "m\n", ok.String(), "单个失败不影响其余 handler")
}

func TestFanoutHandler_Empty(t *testing.T) {
	h := xlog.NewFanoutHandler()
	assert.Zero(t, h.Len())
	assert.False(t, h.Enabled(context.Background(), slog.LevelError))
	assert.NoError(t, h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "m", 0)))
}
