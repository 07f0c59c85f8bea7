package xscan

import (
	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/observability/xmetrics"
)

// DefaultLoggerTypes 默认识别的 logger 静态类型
var DefaultLoggerTypes = []string{
	"*log/slog.Logger",
	"*log.Logger",
	"*github.com/omeyang/xinfer/pkg/observability/xlog.Handle",
}

// LoggerVarName 模块 logger 变量名，必须精确匹配
const LoggerVarName = "logger"

// Option 配置 Scanner
type Option func(*Scanner)

// WithLogger 设置告警输出的 logger
func WithLogger(l xlog.Logger) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// WithObserver 设置指标观测器
func WithObserver(o xmetrics.Observer) Option {
	return func(s *Scanner) {
		s.observer = o
	}
}

// WithLoggerTypes 覆盖可识别的 logger 类型（types.TypeString 形式，如 "*log/slog.Logger"）
func WithLoggerTypes(types ...string) Option {
	return func(s *Scanner) {
		if len(types) == 0 {
			return
		}
		s.loggerTypes = make(map[string]struct{}, len(types))
		for _, t := range types {
			s.loggerTypes[t] = struct{}{}
		}
	}
}

// WithIgnoreInit 是否排除 Init 方法，默认 true
func WithIgnoreInit(ignore bool) Option {
	return func(s *Scanner) {
		s.ignoreInit = ignore
	}
}

// WithExportedOnly 是否只报告导出类型的导出方法，默认 true。
// 生成的注册文件只能引用导出符号。
func WithExportedOnly(exported bool) Option {
	return func(s *Scanner) {
		s.exportedOnly = exported
	}
}

// WithBuildFlags 透传给 go list 的构建参数，如 "-tags=cuda"
func WithBuildFlags(flags ...string) Option {
	return func(s *Scanner) {
		s.buildFlags = append([]string(nil), flags...)
	}
}

// WithEnv 设置加载时的环境变量（nil 表示继承当前进程）
func WithEnv(env []string) Option {
	return func(s *Scanner) {
		s.env = env
	}
}
