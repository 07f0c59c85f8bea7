package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// =============================================================================
// 全局 Logger
//
// 各包内部诊断（扫描告警、追踪跳过等）在未注入 Logger 时使用这里的默认实例。
// 默认实例是注册表中名为 PluginLoggerName 的句柄，可像宿主模块一样被重定向。
// =============================================================================

// PluginLoggerName 插件自身诊断日志的模块名
const PluginLoggerName = "xinfer"

// fallback 是未被重定向前所有句柄共用的 stderr handler
var fallback struct {
	once    sync.Once
	handler slog.Handler
}

func fallbackHandler() slog.Handler {
	fallback.once.Do(func() {
		h, _, err := New().BuildHandler()
		if err != nil {
			fmt.Fprintf(os.Stderr, "xlog: build stderr handler: %v, using plain text\n", err)
			h = slog.NewTextHandler(os.Stderr, nil)
		}
		fallback.handler = h
	})
	return fallback.handler
}

var current struct {
	mu     sync.Mutex // 串行化惰性初始化与 ResetDefault
	logger atomic.Pointer[LoggerWithLevel]
}

// Default 返回全局默认 Logger
//
// 未调用 SetDefault 时为 Named(PluginLoggerName)，初始输出到 stderr（Info 级别，text 格式）。
func Default() LoggerWithLevel {
	if l := current.logger.Load(); l != nil {
		return *l
	}
	current.mu.Lock()
	defer current.mu.Unlock()
	if l := current.logger.Load(); l != nil {
		return *l
	}
	var l LoggerWithLevel = Register(NewHandle(PluginLoggerName, Sink{Name: "default", Handler: fallbackHandler()}))
	current.logger.Store(&l)
	return l
}

// SetDefault 替换全局默认 Logger，nil 被忽略
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	current.logger.Store(&l)
}

// ResetDefault 恢复为插件句柄（仅用于测试）
func ResetDefault() {
	current.mu.Lock()
	current.logger.Store(nil)
	current.mu.Unlock()
}

// OrDefault 返回 l，l 为 nil 时返回 Default()
func OrDefault(l Logger) Logger {
	if l == nil {
		return Default()
	}
	return l
}

// skipLogger 能跳过额外调用帧的 Logger（*xlogger 与内嵌它的 *Handle）
type skipLogger interface {
	logWithSkip(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, extraSkip int)
}

// globalLog 全局函数比实例方法多一层调用，需要额外跳过 1 帧
func globalLog(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := Default()
	if sl, ok := l.(skipLogger); ok {
		sl.logWithSkip(ctx, level, msg, attrs, 1)
		return
	}
	switch {
	case level < slog.LevelInfo:
		l.Debug(ctx, msg, attrs...)
	case level < slog.LevelWarn:
		l.Info(ctx, msg, attrs...)
	case level < slog.LevelError:
		l.Warn(ctx, msg, attrs...)
	default:
		l.Error(ctx, msg, attrs...)
	}
}

// Debug 使用全局 Logger 记录 Debug 级别日志
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelDebug, msg, attrs)
}

// Info 使用全局 Logger 记录 Info 级别日志
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelInfo, msg, attrs)
}

// Warn 使用全局 Logger 记录 Warn 级别日志
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelWarn, msg, attrs)
}

// Error 使用全局 Logger 记录 Error 级别日志
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelError, msg, attrs)
}
