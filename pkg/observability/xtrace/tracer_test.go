package xtrace_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xinfer/pkg/context/xctx"
	"github.com/omeyang/xinfer/pkg/host/xhost"
	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/observability/xtrace"
)

type engine struct{ calls int }

func (e *engine) Step(batch int, requestID string, priority int) (string, error) {
	e.calls++
	if batch < 0 {
		return "", errors.New("bad batch")
	}
	return requestID + "-done", nil
}

func (e *engine) Abort(reqID *string) bool { return reqID != nil }

func (e *engine) Stats(verbose bool) int { return 1 }

func (e *engine) Crash(requestID string) { panic("kv cache exhausted") }

func (e *engine) Tags(requestID string, tags ...string) int { return len(tags) }

func (e *engine) Run(ctx context.Context, requestID string) string { return xctx.ThreadName(ctx) }

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	table  *xhost.Table
	tracer *xtrace.Tracer
	logs   *syncBuffer
	warns  *syncBuffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{table: xhost.New(), logs: &syncBuffer{}, warns: &syncBuffer{}}

	h := xlog.NewHandle("vllm.core", xlog.Sink{
		Name:    "console",
		Handler: xlog.NewPatternHandler(f.logs, &xlog.PatternOptions{Template: "{level} [{logger}] {message}"}),
	})
	require.NoError(t, f.table.RegisterLogger("vllm.core", h))

	methods := []xhost.Method{
		{ID: "vllm.core.Engine:Step", Func: (*engine).Step, Params: []string{"recv", "batch", "requestID", "priority"}},
		{ID: "vllm.core.Engine:Abort", Func: (*engine).Abort, Params: []string{"recv", "reqID"}},
		{ID: "vllm.core.Engine:Stats", Func: (*engine).Stats, Params: []string{"recv", "verbose"}},
		{ID: "vllm.core.Engine:Crash", Func: (*engine).Crash, Params: []string{"recv", "requestID"}},
		{ID: "vllm.core.Engine:Tags", Func: (*engine).Tags, Params: []string{"recv", "requestID", "tags"}},
	}
	for _, m := range methods {
		require.NoError(t, f.table.RegisterMethod(m))
	}

	warnLogger, _, err := xlog.New().SetOutput(f.warns).Build()
	require.NoError(t, err)
	f.tracer = xtrace.NewTracer(f.table, xtrace.WithLogger(warnLogger))
	return f
}

func TestTracer_TracedCall(t *testing.T) {
	f := newFixture(t)
	o := f.tracer.Install(context.Background(), "vllm.core.Engine:Step")
	require.Equal(t, xtrace.StatusInstalled, o.Status)
	require.NoError(t, o.Err)

	e := &engine{}
	out, err := f.table.Call("vllm.core.Engine:Step", e, 4, "abc", 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"abc-done", nil}, out, "返回值不变")
	assert.Equal(t, 1, e.calls)

	assert.Equal(t,
		"INFO [vllm.core] [request_id=abc] Start calling method `vllm.core.Engine.Step`\n"+
			"INFO [vllm.core] [request_id=abc] End calling method `vllm.core.Engine.Step`\n",
		f.logs.String())
}

func TestTracer_ErrorResultAttached(t *testing.T) {
	f := newFixture(t)
	f.tracer.Install(context.Background(), "vllm.core.Engine:Step")

	out, err := f.table.Call("vllm.core.Engine:Step", &engine{}, -1, "abc", 0)
	require.NoError(t, err)
	assert.EqualError(t, out[1].(error), "bad batch")
	assert.Contains(t, f.logs.String(), "End calling method `vllm.core.Engine.Step` error=\"bad batch\"")
}

func TestTracer_EmptyCorrelationValue(t *testing.T) {
	f := newFixture(t)
	f.tracer.InstallAll(context.Background(), []string{"vllm.core.Engine:Step", "vllm.core.Engine:Abort"})

	out, err := f.table.Call("vllm.core.Engine:Step", &engine{}, 1, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "-done", out[0])

	out, err = f.table.Call("vllm.core.Engine:Abort", &engine{}, nil)
	require.NoError(t, err)
	assert.Equal(t, false, out[0])

	logs := f.logs.String()
	assert.NotContains(t, logs, "Start calling")
	assert.NotContains(t, logs, "End calling")
	assert.Equal(t, 2, strings.Count(logs, "without trace"))

	id := "r-1"
	_, err = f.table.Call("vllm.core.Engine:Abort", &engine{}, &id)
	require.NoError(t, err)
	assert.Contains(t, f.logs.String(), "[request_id=r-1] Start calling method `vllm.core.Engine.Abort`")
}

func TestTracer_PanicPropagates(t *testing.T) {
	f := newFixture(t)
	f.tracer.Install(context.Background(), "vllm.core.Engine:Crash")

	assert.PanicsWithValue(t, "kv cache exhausted", func() {
		_, _ = f.table.Call("vllm.core.Engine:Crash", &engine{}, "abc")
	})
	logs := f.logs.String()
	assert.Contains(t, logs, "[request_id=abc] Start calling method `vllm.core.Engine.Crash`")
	assert.Contains(t, logs, "ERROR [vllm.core] [request_id=abc] Method `vllm.core.Engine.Crash` panicked")
	assert.Contains(t, logs, "stack=", "附带调用栈")
	assert.NotContains(t, logs, "End calling")
}

func TestTracer_Variadic(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, xtrace.StatusInstalled, f.tracer.Install(context.Background(), "vllm.core.Engine:Tags").Status)

	out, err := f.table.Call("vllm.core.Engine:Tags", &engine{}, "v1", "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, []any{3}, out)
	assert.Contains(t, f.logs.String(), "[request_id=v1] End calling method")
}

func TestTracer_Outcomes(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		id     string
		status xtrace.Status
		err    error
	}{
		{"vllm.core.Engine:Step", xtrace.StatusInstalled, nil},
		{"vllm.core.Engine:Missing", xtrace.StatusSkipped, xtrace.ErrNotFound},
		{"not-an-id", xtrace.StatusSkipped, xtrace.ErrInvalidMethodID},
		{"vllm.core.Engine:Stats", xtrace.StatusIndeterminate, xtrace.ErrNoCorrelationParam},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			o := f.tracer.Install(context.Background(), tt.id)
			assert.Equal(t, tt.status, o.Status)
			if tt.err == nil {
				assert.NoError(t, o.Err)
				return
			}
			assert.ErrorIs(t, o.Err, xtrace.ErrResolution)
			assert.ErrorIs(t, o.Err, tt.err)
			var re *xtrace.ResolutionError
			require.ErrorAs(t, o.Err, &re)
			assert.Equal(t, tt.id, re.ID)
		})
	}
	assert.Contains(t, f.warns.String(), "skip tracing method")
}

func TestTracer_InstallAllReport(t *testing.T) {
	f := newFixture(t)
	r := f.tracer.InstallAll(context.Background(), []string{
		"vllm.core.Engine:Step",
		"vllm.core.Engine:Gone",
		"vllm.core.Engine:Stats",
		"vllm.core.Engine:Abort",
	})
	assert.Equal(t, []string{"vllm.core.Engine:Step", "vllm.core.Engine:Abort"}, r.Installed)
	assert.Equal(t, []string{"vllm.core.Engine:Gone"}, r.Skipped)
	assert.Equal(t, []string{"vllm.core.Engine:Stats"}, r.Indeterminate)
	assert.Equal(t, 4, r.Total())

	idx, ok := f.tracer.Cache().Get("vllm.core.Engine:Step")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Zero(t, f.tracer.InstallAll(ctx, []string{"vllm.core.Engine:Crash"}).Total())
}

func TestTracer_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.tracer.Install(context.Background(), "vllm.core.Engine:Step")
	f.tracer.Install(context.Background(), "vllm.core.Engine:Step")

	_, err := f.table.Call("vllm.core.Engine:Step", &engine{}, 1, "x", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(f.logs.String(), "Start calling"), "不重复包装")

	orig, ok := f.tracer.Original("vllm.core.Engine:Step")
	require.True(t, ok)
	s, err := orig.(func(*engine, int, string, int) (string, error))(&engine{}, 1, "y", 0)
	require.NoError(t, err)
	assert.Equal(t, "y-done", s)
	assert.Equal(t, 1, strings.Count(f.logs.String(), "Start calling"), "原函数不输出追踪日志")

	m, _ := f.table.Lookup("vllm.core.Engine:Step")
	assert.Equal(t, []string{"recv", "batch", "requestID", "priority"}, m.Params, "登记信息保持不变")
}

func TestTracer_SharedTableWrapsOnce(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, xtrace.StatusInstalled, f.tracer.Install(context.Background(), "vllm.core.Engine:Step").Status)

	second := xtrace.NewTracer(f.table)
	require.Equal(t, xtrace.StatusInstalled, second.Install(context.Background(), "vllm.core.Engine:Step").Status)

	_, err := f.table.Call("vllm.core.Engine:Step", &engine{}, 1, "rid-7", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(f.logs.String(), "Start calling"), "同一张表上的第二个 Tracer 不重复包装")
	assert.Equal(t, 1, strings.Count(f.logs.String(), "End calling"))

	_, ok := second.Original("vllm.core.Engine:Step")
	assert.False(t, ok, "第二个 Tracer 不持有该槽位")
	assert.Empty(t, second.Uninstall(context.Background()), "不还原其他 Tracer 的包装")
}

func TestTracer_Uninstall(t *testing.T) {
	f := newFixture(t)
	f.tracer.InstallAll(context.Background(), []string{"vllm.core.Engine:Step", "vllm.core.Engine:Abort"})

	assert.Equal(t, []string{"vllm.core.Engine:Abort", "vllm.core.Engine:Step"}, f.tracer.Uninstall(context.Background()))
	assert.Empty(t, f.tracer.Uninstall(context.Background()))

	_, err := f.table.Call("vllm.core.Engine:Step", &engine{}, 1, "x", 0)
	require.NoError(t, err)
	assert.NotContains(t, f.logs.String(), "Start calling", "还原后调用原函数")

	m, _ := f.table.Lookup("vllm.core.Engine:Step")
	assert.Nil(t, m.Original)
	assert.Equal(t, xtrace.StatusInstalled, f.tracer.Install(context.Background(), "vllm.core.Engine:Step").Status, "可以重新安装")
}

func TestTracer_CallerContext(t *testing.T) {
	tbl := xhost.New()
	var buf syncBuffer
	h := xlog.NewHandle("vllm.worker", xlog.Sink{
		Name:    "console",
		Handler: xlog.NewPatternHandler(&buf, &xlog.PatternOptions{Template: "[{thread}] {message}"}),
	})
	require.NoError(t, tbl.RegisterLogger("vllm.worker", h))
	require.NoError(t, tbl.RegisterMethod(xhost.Method{
		ID: "vllm.worker.Engine:Run", Func: (*engine).Run, Params: []string{"recv", "ctx", "requestID"},
	}))
	tr := xtrace.NewTracer(tbl)
	require.Equal(t, xtrace.StatusInstalled, tr.Install(context.Background(), "vllm.worker.Engine:Run").Status)

	ctx, err := xctx.WithThreadName(context.Background(), "engine-core")
	require.NoError(t, err)
	out, err := tbl.Call("vllm.worker.Engine:Run", &engine{}, ctx, "rid-9")
	require.NoError(t, err)
	assert.Equal(t, "engine-core", out[0], "调用方的 ctx 原样传给原函数")
	assert.Contains(t, buf.String(), "[engine-core] [request_id=rid-9] Start calling method")
	assert.Contains(t, buf.String(), "[engine-core] [request_id=rid-9] End calling method")

	// nil ctx 退回 Background
	_, err = tbl.Call("vllm.worker.Engine:Run", &engine{}, nil, "rid-10")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[request_id=rid-10] Start calling method")
}

func TestTracer_FrozenRejectsNewMethods(t *testing.T) {
	f := newFixture(t)
	f.tracer.Install(context.Background(), "vllm.core.Engine:Step")
	f.tracer.Freeze()

	assert.Equal(t, xtrace.StatusInstalled, f.tracer.Install(context.Background(), "vllm.core.Engine:Step").Status)
	o := f.tracer.Install(context.Background(), "vllm.core.Engine:Abort")
	assert.Equal(t, xtrace.StatusSkipped, o.Status)
	assert.ErrorIs(t, o.Err, xtrace.ErrFrozen)
}

func TestTracer_FallbackModuleLogger(t *testing.T) {
	tbl := xhost.New()
	require.NoError(t, tbl.RegisterMethod(xhost.Method{
		ID: "xtrace_test.fallback.Engine:Step", Func: (*engine).Step,
		Params: []string{"recv", "batch", "request_id", "priority"},
	}))
	var buf bytes.Buffer
	xlog.Named("xtrace_test.fallback").SetSinks(xlog.Sink{
		Name: "console", Handler: xlog.NewPatternHandler(&buf, &xlog.PatternOptions{Template: "{logger}: {message}"}),
	})

	tr := xtrace.NewTracer(tbl)
	require.Equal(t, xtrace.StatusInstalled, tr.Install(context.Background(), "xtrace_test.fallback.Engine:Step").Status)
	_, err := tbl.Call("xtrace_test.fallback.Engine:Step", &engine{}, 1, "q", 0)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "xtrace_test.fallback: [request_id=q] Start calling method")
}

func TestTracer_ConcurrentCalls(t *testing.T) {
	f := newFixture(t)
	f.tracer.Install(context.Background(), "vllm.core.Engine:Step")
	f.tracer.Freeze()

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 50 {
				_, err := f.table.Call("vllm.core.Engine:Step", &engine{}, 1, "c", 0)
				assert.NoError(t, err)
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 400, strings.Count(f.logs.String(), "Start calling"))
	assert.Equal(t, 400, strings.Count(f.logs.String(), "End calling"))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "installed", xtrace.StatusInstalled.String())
	assert.Equal(t, "skipped", xtrace.StatusSkipped.String())
	assert.Equal(t, "indeterminate", xtrace.StatusIndeterminate.String())
	assert.Equal(t, "Status(9)", xtrace.Status(9).String())
}
