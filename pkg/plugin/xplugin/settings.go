package xplugin

import (
	"fmt"
	"os"
	"strings"

	"github.com/omeyang/xinfer/pkg/config/xconf"
	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/observability/xsink"
)

// EnvConfigFile 指定可选配置文件（YAML/JSON）的环境变量，环境变量优先于文件
const EnvConfigFile = "XINFER_CONFIG_FILE"

// EnvNames 参与覆盖的环境变量，键名为其小写形式
var EnvNames = []string{
	"APP_NAME",
	"LOG_ROOT_MODULES",
	"LOG_FORMAT",
	"LOG_DATE_FORMAT",
	"LOG_FILENAME",
	"LOG_FILE_MAX_BYTES",
	"LOG_FILE_BACKUP_COUNT",
	"LOG_FILE_PROCESS_LOCK",
	"LOG_LEVEL",
	"LOG_CONFIG_PATH",
	"TRACE_METHODS_WITH_REQUEST_ID",
	"LOG_REQUEST_RESPONSE",
	"DEBUG_LOG_RESPONSE",
}

// Settings 插件配置
type Settings struct {
	AppName       string   `koanf:"app_name"`
	RootModules   []string `koanf:"log_root_modules"`
	Format        string   `koanf:"log_format"`
	DateFormat    string   `koanf:"log_date_format"`
	Filename      string   `koanf:"log_filename"`
	MaxBytes      int64    `koanf:"log_file_max_bytes"`
	BackupCount   int      `koanf:"log_file_backup_count"`
	ProcessLock   bool     `koanf:"log_file_process_lock"`
	Level         string   `koanf:"log_level"`
	LogConfigPath string   `koanf:"log_config_path"`

	TraceMethods       bool `koanf:"trace_methods_with_request_id"`
	LogRequestResponse bool `koanf:"log_request_response"`
	DebugLogResponse   bool `koanf:"debug_log_response"`
}

// DefaultSettings 返回默认配置
func DefaultSettings() Settings {
	return Settings{
		AppName:      xsink.DefaultAppName,
		RootModules:  []string{"vllm"},
		Format:       xlog.DefaultPattern,
		DateFormat:   xlog.DefaultTimeLayout,
		Filename:     xsink.DefaultFilename,
		MaxBytes:     xsink.DefaultMaxBytes,
		BackupCount:  xsink.DefaultBackupCount,
		Level:        "INFO",
		TraceMethods: true,
	}
}

// NewConfig 创建 默认值 → XINFER_CONFIG_FILE → 环境变量 的分层配置，
// opts 追加在默认选项之后。
func NewConfig(opts ...xconf.Option) (xconf.Config, error) {
	base := []xconf.Option{
		xconf.WithDefaults(DefaultSettings()),
		xconf.WithFile(os.Getenv(EnvConfigFile)),
		xconf.WithEnv(EnvNames...),
	}
	return xconf.New(append(base, opts...)...)
}

// LoadSettings 读取并校验配置
func LoadSettings(opts ...xconf.Option) (Settings, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrSettings, err)
	}
	return SettingsFrom(cfg)
}

// SettingsFrom 从已加载的配置读取并校验 Settings
func SettingsFrom(cfg xconf.Config) (Settings, error) {
	var s Settings
	if err := cfg.Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrSettings, err)
	}
	s.normalize()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) normalize() {
	roots := s.RootModules[:0]
	for _, r := range s.RootModules {
		if r = strings.TrimSpace(r); r != "" {
			roots = append(roots, r)
		}
	}
	s.RootModules = roots
}

// Validate 校验级别与文件参数
func (s Settings) Validate() error {
	if _, err := s.LogLevel(); err != nil {
		return err
	}
	if s.MaxBytes <= 0 {
		return fmt.Errorf("%w: log_file_max_bytes must be positive, got %d", ErrSettings, s.MaxBytes)
	}
	if s.BackupCount < 1 {
		return fmt.Errorf("%w: log_file_backup_count must be at least 1, got %d", ErrSettings, s.BackupCount)
	}
	return nil
}

// LogLevel 解析 Level 字段
func (s Settings) LogLevel() (xlog.Level, error) {
	lv, err := xlog.ParseLevel(s.Level)
	if err != nil {
		return lv, fmt.Errorf("%w: %w", ErrSettings, err)
	}
	return lv, nil
}

// sinkOptions 转换为 xsink 选项
func (s Settings) sinkOptions() []xsink.Option {
	return []xsink.Option{
		xsink.WithAppName(s.AppName),
		xsink.WithPattern(s.Format),
		xsink.WithTimeLayout(s.DateFormat),
		xsink.WithFilename(s.Filename),
		xsink.WithMaxBytes(s.MaxBytes),
		xsink.WithBackupCount(s.BackupCount),
		xsink.WithProcessLock(s.ProcessLock),
	}
}
