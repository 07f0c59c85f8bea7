package xscan_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/scan/xscan"
)

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

func fixtureRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("testdata", "hostmod"))
	require.NoError(t, err)
	return root
}

func newScanner(t *testing.T, opts ...xscan.Option) (*xscan.Scanner, *syncBuffer) {
	t.Helper()
	logs := &syncBuffer{}
	h := xlog.NewHandle("xscan.test", xlog.Sink{
		Name:    "console",
		Handler: xlog.NewPatternHandler(logs, &xlog.PatternOptions{Template: "{level} {message}"}),
	})
	return xscan.New(append([]xscan.Option{xscan.WithLogger(h)}, opts...)...), logs
}

func TestScan_Fixture(t *testing.T) {
	s, logs := newScanner(t)

	res, err := s.Scan(context.Background(), fixtureRoot(t))
	require.NoError(t, err)

	assert.Equal(t, "vllm", res.ModulePath)
	assert.Equal(t, []string{
		"vllm.engine",
		"vllm.engine.core",
		"vllm.entrypoints.openai",
	}, res.Loggers)
	assert.Equal(t, []string{
		"vllm.engine.Engine:Abort",
		"vllm.engine.Engine:Step",
		"vllm.engine.core.Scheduler:Schedule",
		"vllm.entrypoints.openai.Server:Handle",
		"vllm.utils.Helper:Assist",
	}, res.Methods)
	assert.Equal(t, []string{"vllm/broken", "vllm/broken/sub"}, res.Skipped)

	assert.Equal(t, []string{"recv", "requestID", "n"}, res.Params["vllm.engine.Engine:Step"])
	assert.Equal(t, []string{"recv", "ctx", "req_id", "arg2"}, res.Params["vllm.engine.core.Scheduler:Schedule"])
	assert.Equal(t, []string{"recv", "r", "request_id", "opts"}, res.Params["vllm.entrypoints.openai.Server:Handle"])
	assert.Len(t, res.Params, len(res.Methods))
	assert.Equal(t, "vllm/entrypoints/openai", res.Imports["vllm.entrypoints.openai"])
	assert.Equal(t, "vllm/utils", res.Imports["vllm.utils"])
	assert.NotContains(t, res.Imports, "vllm.logging")

	out := logs.String()
	assert.Contains(t, out, "skip package with errors")
	assert.Equal(t, 1, strings.Count(out, "skip package with errors"), "子包只随父包跳过，不单独告警")
}

func TestScan_Deterministic(t *testing.T) {
	s, _ := newScanner(t)
	root := fixtureRoot(t)

	first, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScan_Options(t *testing.T) {
	tests := []struct {
		name        string
		opts        []xscan.Option
		wantMethods []string
		absent      []string
	}{
		{
			name:        "保留Init",
			opts:        []xscan.Option{xscan.WithIgnoreInit(false)},
			wantMethods: []string{"vllm.engine.Engine:Init"},
		},
		{
			name:        "包含未导出符号",
			opts:        []xscan.Option{xscan.WithExportedOnly(false)},
			wantMethods: []string{"vllm.engine.Engine:flush", "vllm.engine.engineState:Reset"},
			absent:      []string{"vllm.engine.Engine:Init"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newScanner(t, tt.opts...)
			methods, err := s.Methods(context.Background(), fixtureRoot(t))
			require.NoError(t, err)

			for _, m := range tt.wantMethods {
				assert.Contains(t, methods, m)
			}
			for _, m := range tt.absent {
				assert.NotContains(t, methods, m)
			}
			assert.NotContains(t, methods, "vllm.utils.Helper:Lookup", "requestId 大小写不匹配")
			assert.NotContains(t, methods, "vllm.engine.Helper:Assist", "别名不属于声明包")
			assert.NotContains(t, methods, "vllm.engine.Runner:Run", "接口方法不可包装")
		})
	}
}

func TestLoggers_CustomTypes(t *testing.T) {
	s, _ := newScanner(t, xscan.WithLoggerTypes("*vllm/logging.Logger"))

	loggers, err := s.Loggers(context.Background(), fixtureRoot(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"vllm.logging"}, loggers)
}

func TestScan_LoadErrors(t *testing.T) {
	s, _ := newScanner(t)

	_, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, xscan.ErrLoad)
}

func TestScan_Canceled(t *testing.T) {
	s, _ := newScanner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx, fixtureRoot(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "vllm.engine.core", xscan.ModuleName("vllm/engine/core"))
	assert.Equal(t, "vllm", xscan.ModuleName("vllm"))
}
