package xplugin_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xinfer/pkg/config/xconf"
	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/plugin/xplugin"
)

func TestDefaultSettings(t *testing.T) {
	s := xplugin.DefaultSettings()

	assert.Equal(t, "standalone", s.AppName)
	assert.Equal(t, []string{"vllm"}, s.RootModules)
	assert.Equal(t, xlog.DefaultPattern, s.Format)
	assert.Equal(t, "2006-01-02 15:04:05", s.DateFormat)
	assert.Equal(t, "api_server.log", s.Filename)
	assert.Equal(t, int64(8388608), s.MaxBytes)
	assert.Equal(t, 5, s.BackupCount)
	assert.Equal(t, "INFO", s.Level)
	assert.True(t, s.TraceMethods)
	assert.False(t, s.LogRequestResponse)
	assert.False(t, s.DebugLogResponse)
	assert.NoError(t, s.Validate())
}

func TestLoadSettings_Env(t *testing.T) {
	t.Setenv(xplugin.EnvConfigFile, "")
	t.Setenv("APP_NAME", "qwen")
	t.Setenv("LOG_ROOT_MODULES", "vllm, lmcache ,")
	t.Setenv("LOG_FILE_MAX_BYTES", "1048576")
	t.Setenv("LOG_FILE_BACKUP_COUNT", "3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRACE_METHODS_WITH_REQUEST_ID", "false")
	t.Setenv("LOG_REQUEST_RESPONSE", "true")

	s, err := xplugin.LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "qwen", s.AppName)
	assert.Equal(t, []string{"vllm", "lmcache"}, s.RootModules)
	assert.Equal(t, int64(1048576), s.MaxBytes)
	assert.Equal(t, 3, s.BackupCount)
	assert.Equal(t, "debug", s.Level)
	assert.False(t, s.TraceMethods)
	assert.True(t, s.LogRequestResponse)
	assert.Equal(t, "api_server.log", s.Filename, "未设置的字段保持默认值")
}

func TestLoadSettings_FileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xinfer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_name: from-file\nlog_level: WARN\nlog_filename: engine.log\n"), 0o600))
	t.Setenv(xplugin.EnvConfigFile, path)
	t.Setenv("LOG_LEVEL", "ERROR")

	s, err := xplugin.LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "from-file", s.AppName)
	assert.Equal(t, "engine.log", s.Filename)
	assert.Equal(t, "ERROR", s.Level, "环境变量优先于文件")
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"未知级别", map[string]string{"LOG_LEVEL": "chatty"}},
		{"轮转阈值非法", map[string]string{"LOG_FILE_MAX_BYTES": "0"}},
		{"备份数非法", map[string]string{"LOG_FILE_BACKUP_COUNT": "0"}},
		{"类型错误", map[string]string{"LOG_FILE_MAX_BYTES": "eight"}},
		{"配置文件不存在", map[string]string{xplugin.EnvConfigFile: "/nonexistent/xinfer.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(xplugin.EnvConfigFile, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := xplugin.LoadSettings()
			assert.ErrorIs(t, err, xplugin.ErrSettings)
		})
	}
}

func TestPlugin_WatchLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xinfer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: INFO\n"), 0o600))
	t.Setenv(xplugin.EnvConfigFile, path)
	t.Setenv("LOG_LEVEL", "")

	cfg, err := xplugin.NewConfig()
	require.NoError(t, err)
	s, err := xplugin.SettingsFrom(cfg)
	require.NoError(t, err)

	h := newHost(t)
	p, err := xplugin.Register(context.Background(), s, h.table, record(), h.options()...)
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	w, err := p.Watch(context.Background(), cfg, xconf.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("log_level: DEBUG\n"), 0o600))
	assert.Eventually(t, func() bool {
		return p.LevelVar().Level() == slog.LevelDebug
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("log_level: nonsense\n"), 0o600))
	assert.Eventually(t, func() bool {
		return strings.Contains(h.warns.String(), "reloaded config is invalid")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, slog.LevelDebug, p.LevelVar().Level(), "无效配置不改变级别")
}
