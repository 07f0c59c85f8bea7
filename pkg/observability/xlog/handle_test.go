package xlog_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xinfer/pkg/observability/xlog"
)

func patternSink(name string, buf *bytes.Buffer) xlog.Sink {
	return xlog.Sink{
		Name:    name,
		Handler: xlog.NewPatternHandler(buf, &xlog.PatternOptions{Template: "{logger} {level} {message}"}),
	}
}

func TestHandle_LoggerNameAttached(t *testing.T) {
	var buf bytes.Buffer
	h := xlog.NewHandle("vllm.engine", patternSink("console", &buf))

	h.Info(context.Background(), "ready")
	assert.Equal(t, "vllm.engine INFO ready\n", buf.String())
	assert.Equal(t, "vllm.engine", h.Name())
}

func TestHandle_SetSinksReplaces(t *testing.T) {
	var first, second, third bytes.Buffer
	h := xlog.NewHandle("mod", patternSink("console", &first))
	derived := h.With(slog.String("k", "v"))
	sl := h.Slog()

	old := h.SetSinks(patternSink("console", &second), patternSink("file", &third))
	require.Len(t, old, 1)
	assert.Equal(t, "console", old[0].Name)
	assert.Equal(t, []string{"console", "file"}, h.SinkNames())

	h.Info(context.Background(), "a")
	derived.Info(context.Background(), "b")
	sl.Info("c")

	assert.Empty(t, first.String(), "旧 sink 不再接收记录")
	want := "mod INFO a\nmod INFO b k=v\nmod INFO c\n"
	assert.Equal(t, want, second.String())
	assert.Equal(t, want, third.String())
}

func TestHandle_SetSinksIgnoresNilHandler(t *testing.T) {
	h := xlog.NewHandle("mod")
	h.SetSinks(xlog.Sink{Name: "broken"}, patternSink("console", &bytes.Buffer{}))
	assert.Equal(t, []string{"console"}, h.SinkNames())

	sinks := h.Sinks()
	sinks[0].Name = "mutated"
	assert.Equal(t, []string{"console"}, h.SinkNames(), "Sinks 返回副本")
}

func TestHandle_NoSinksDropsRecords(t *testing.T) {
	h := xlog.NewHandle("mod")
	assert.False(t, h.Enabled(context.Background(), xlog.LevelError))
	h.Error(context.Background(), "nowhere")
}

func TestHandle_LevelGate(t *testing.T) {
	var buf bytes.Buffer
	sink := xlog.Sink{
		Name:    "console",
		Handler: xlog.NewPatternHandler(&buf, &xlog.PatternOptions{Template: "{message}", Level: slog.LevelDebug}),
	}
	h := xlog.NewHandle("mod", sink)
	assert.Equal(t, xlog.LevelDebug, h.GetLevel())

	h.Debug(context.Background(), "one")
	h.SetLevel(xlog.LevelWarn)
	h.Info(context.Background(), "two")
	h.Warn(context.Background(), "three")
	assert.Equal(t, "one\nthree\n", buf.String())
}

func TestHandle_DerivedCacheFollowsGeneration(t *testing.T) {
	var a, b bytes.Buffer
	h := xlog.NewHandle("mod", patternSink("console", &a))
	derived := h.WithGroup("req").With(slog.String("id", "1"))

	derived.Info(context.Background(), "x")
	derived.Info(context.Background(), "y")
	h.SetSinks(patternSink("console", &b))
	derived.Info(context.Background(), "z")

	assert.Equal(t, "mod INFO x req.id=1\nmod INFO y req.id=1\n", a.String())
	assert.Equal(t, "mod INFO z req.id=1\n", b.String())
}

func TestHandle_ConcurrentSwap(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	h := xlog.NewHandle("mod", xlog.Sink{Name: "console", Handler: xlog.NewPatternHandler(&lockedWriter{mu: &mu, w: &buf}, nil)})

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Go(func() {
			for j := range 100 {
				h.Info(context.Background(), fmt.Sprintf("%d-%d", i, j))
			}
		})
	}
	wg.Go(func() {
		for range 50 {
			h.SetSinks(xlog.Sink{Name: "console", Handler: xlog.NewPatternHandler(&lockedWriter{mu: &mu, w: &buf}, nil)})
		}
	})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 400, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestNamed_SameInstance(t *testing.T) {
	a := xlog.Named("xlog_test.named")
	b := xlog.Named("xlog_test.named")
	assert.Same(t, a, b)
	assert.Equal(t, []string{"default"}, a.SinkNames())

	got, ok := xlog.Lookup("xlog_test.named")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Contains(t, xlog.Names(), "xlog_test.named")

	_, ok = xlog.Lookup("xlog_test.missing")
	assert.False(t, ok)
}

func TestRegister(t *testing.T) {
	h := xlog.NewHandle("xlog_test.register")
	assert.Same(t, h, xlog.Register(h))
	assert.Same(t, h, xlog.Register(xlog.NewHandle("xlog_test.register")), "同名返回已注册的句柄")
	assert.Same(t, h, xlog.Named("xlog_test.register"))
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
