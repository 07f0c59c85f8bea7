package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xinfer/pkg/scan/xartifact"
)

// runApp 以内存缓冲区运行 CLI，返回标准输出、标准错误与退出码
func runApp(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := createApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(context.Background(), append([]string{"xinferscan"}, args...))
	return stdout.String(), stderr.String(), exitCode(err)
}

func sampleRecord(version string, methods ...string) *xartifact.Record {
	r := &xartifact.Record{
		PackageName:          "vllm",
		PackageVersion:       version,
		ModulesWithLogger:    []string{"vllm.engine", "vllm.engine.core", "vllm.entrypoints.openai"},
		MethodsWithRequestID: methods,
		MethodParams:         map[string][]string{},
	}
	for _, id := range methods {
		r.MethodParams[id] = []string{"recv", "request_id"}
	}
	r.Normalize()
	return r
}

func saveRecord(t *testing.T, dir string, r *xartifact.Record) string {
	t.Helper()
	path, err := xartifact.Save(dir, r)
	require.NoError(t, err)
	return path
}

func fixtureRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", "..", "pkg", "scan", "xscan", "testdata", "hostmod"))
	require.NoError(t, err)
	return root
}

func TestScanCommand(t *testing.T) {
	out := t.TempDir()

	stdout, _, code := runApp(t, "scan", "--root", fixtureRoot(t), "--out", out, "--version", "0.8.5")
	require.Equal(t, 0, code)

	path := filepath.Join(out, "vllm__v0_8_5.json")
	assert.Contains(t, stdout, "artifact: "+path)
	assert.Contains(t, stdout, "skipped: vllm/broken")

	rec, err := xartifact.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "vllm", rec.PackageName)
	assert.Equal(t, "0.8.5", rec.PackageVersion)
	assert.Contains(t, rec.ModulesWithLogger, "vllm.engine")
	assert.Contains(t, rec.MethodsWithRequestID, "vllm.engine.Engine:Step")
	assert.Equal(t, "vllm/engine", rec.ImportPath("vllm.engine"))
}

func TestScanCommand_NameAndUnknownVersion(t *testing.T) {
	out := t.TempDir()

	_, _, code := runApp(t, "scan", "-r", fixtureRoot(t), "-o", out, "-n", "host")
	require.Equal(t, 0, code)

	rec, err := xartifact.Load(filepath.Join(out, "host__vunknown.json"))
	require.NoError(t, err)
	assert.Equal(t, "host", rec.PackageName)
	assert.Equal(t, xartifact.UnknownVersion, rec.PackageVersion)
}

func TestScanCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"根目录不存在", []string{"scan", "--root", filepath.Join(t.TempDir(), "missing"), "--out", t.TempDir()}, 1},
		{"非法日志级别", []string{"--log-level", "loud", "scan", "--root", "."}, 2},
		{"未知 flag", []string{"scan", "--bogus"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, code := runApp(t, tt.args...)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestGenCommand(t *testing.T) {
	dir := t.TempDir()
	path := saveRecord(t, dir, sampleRecord("0.8.5", "vllm.engine.Engine:Step"))

	t.Run("写到标准输出", func(t *testing.T) {
		stdout, _, code := runApp(t, "gen", "--package", "vllmreg", path)
		require.Equal(t, 0, code)
		assert.Contains(t, stdout, "// Code generated by xinferscan from vllm__v0_8_5.json; DO NOT EDIT.")
		assert.Contains(t, stdout, "package vllmreg")
		assert.Contains(t, stdout, "(*p0.Engine).Step")
	})

	t.Run("写到文件", func(t *testing.T) {
		target := filepath.Join(dir, "gen", "hostreg.go")
		stdout, _, code := runApp(t, "gen", "-o", target, path)
		require.Equal(t, 0, code)
		assert.Contains(t, stdout, "generated: "+target)

		src, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(src), "package "+xartifact.DefaultGenPackage)
	})

	t.Run("缺少参数", func(t *testing.T) {
		_, _, code := runApp(t, "gen")
		assert.Equal(t, 2, code)
	})

	t.Run("非法包名", func(t *testing.T) {
		_, _, code := runApp(t, "gen", "--package", "not-valid", path)
		assert.Equal(t, 1, code)
	})

	t.Run("产物损坏", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
		_, _, code := runApp(t, "gen", bad)
		assert.Equal(t, 1, code)
	})
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	oldPath := saveRecord(t, dir, sampleRecord("0.8.4", "vllm.engine.Engine:Step"))
	samePath := saveRecord(t, dir, sampleRecord("0.8.5", "vllm.engine.Engine:Step"))
	newPath := saveRecord(t, dir, sampleRecord("0.9.0", "vllm.engine.Engine:Abort"))

	t.Run("无差异", func(t *testing.T) {
		stdout, _, code := runApp(t, "diff", oldPath, samePath)
		assert.Equal(t, 0, code)
		assert.Equal(t, "no changes\n", stdout)
	})

	t.Run("有差异", func(t *testing.T) {
		stdout, _, code := runApp(t, "diff", oldPath, newPath)
		assert.Equal(t, 1, code)
		assert.Equal(t, "+ method vllm.engine.Engine:Abort\n- method vllm.engine.Engine:Step\n", stdout)
	})

	t.Run("参数个数错误", func(t *testing.T) {
		_, _, code := runApp(t, "diff", oldPath)
		assert.Equal(t, 2, code)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, _, code := runApp(t, "diff", oldPath, filepath.Join(dir, "missing.json"))
		assert.Equal(t, 1, code)
	})
}

func TestShowCommand(t *testing.T) {
	path := saveRecord(t, t.TempDir(), sampleRecord("0.8.5", "vllm.engine.Engine:Step"))

	t.Run("完整产物", func(t *testing.T) {
		stdout, _, code := runApp(t, "show", path)
		require.Equal(t, 0, code)
		assert.Contains(t, stdout, `"package_name": "vllm"`)
		assert.Contains(t, stdout, `"methods_with_request_id": [`)
	})

	t.Run("根模块过滤", func(t *testing.T) {
		stdout, _, code := runApp(t, "show", "--loggers-under", "vllm.engine", path)
		require.Equal(t, 0, code)
		assert.Equal(t, "vllm.engine\nvllm.engine.core\n", stdout)
	})

	t.Run("缺少参数", func(t *testing.T) {
		_, _, code := runApp(t, "show")
		assert.Equal(t, 2, code)
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"成功", nil, 0},
		{"exitError", &exitError{code: 1}, 1},
		{"包装的 exitError", errors.Join(errors.New("x"), &exitError{code: 3}), 3},
		{"usageError", newUsageError("bad"), 2},
		{"CLI 参数错误", errors.New("flag provided but not defined: -x"), 2},
		{"普通错误", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
