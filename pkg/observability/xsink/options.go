package xsink

import (
	"io"
	"log/slog"

	"github.com/omeyang/xinfer/internal/deploy"
	"github.com/omeyang/xinfer/pkg/host/xhost"
	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/observability/xrotate"
)

// 默认值
const (
	DefaultFilename    = "api_server.log"
	DefaultMaxBytes    = xrotate.DefaultMaxBytes
	DefaultBackupCount = xrotate.DefaultMaxBackups
	DefaultAppName     = "standalone"
)

// Option 配置 Reconfigurator
type Option func(*Reconfigurator)

// WithTable 优先从宿主符号表解析模块 logger
func WithTable(t *xhost.Table) Option {
	return func(r *Reconfigurator) {
		r.table = t
	}
}

// WithConsole 设置控制台 sink 的输出，默认 os.Stderr
func WithConsole(w io.Writer) Option {
	return func(r *Reconfigurator) {
		if w != nil {
			r.console = w
		}
	}
}

// WithLogDir 设置日志目录解析器，默认 deploy.Default()
func WithLogDir(d *deploy.LogDir) Option {
	return func(r *Reconfigurator) {
		if d != nil {
			r.logDir = d
		}
	}
}

// WithFilename 设置日志文件名（不含目录）
func WithFilename(name string) Option {
	return func(r *Reconfigurator) {
		r.filename = name
	}
}

// WithMaxBytes 设置单个日志文件的轮转阈值（字节）
func WithMaxBytes(n int64) Option {
	return func(r *Reconfigurator) {
		r.maxBytes = n
	}
}

// WithBackupCount 设置保留的历史文件数
func WithBackupCount(n int) Option {
	return func(r *Reconfigurator) {
		r.backups = n
	}
}

// WithProcessLock 多进程共享同一日志文件时，每次写入持有文件锁
func WithProcessLock(enable bool) Option {
	return func(r *Reconfigurator) {
		r.processLock = enable
	}
}

// WithPattern 设置行模板，为空时使用 xlog.DefaultPattern
func WithPattern(template string) Option {
	return func(r *Reconfigurator) {
		r.pattern = template
	}
}

// WithTimeLayout 设置 {time} 的 Go 时间格式
func WithTimeLayout(layout string) Option {
	return func(r *Reconfigurator) {
		r.timeLayout = layout
	}
}

// WithAppName 设置 {app_name} 的取值
func WithAppName(name string) Option {
	return func(r *Reconfigurator) {
		r.appName = name
	}
}

// WithLevelVar 两个 sink 共享的最小级别，外部修改立即生效
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(r *Reconfigurator) {
		if lv != nil {
			r.level = lv
		}
	}
}

// WithLogger 设置 Reconfigurator 自身告警使用的 logger
func WithLogger(l xlog.Logger) Option {
	return func(r *Reconfigurator) {
		r.logger = l
	}
}
