package xlog

import (
	"context"
	"log/slog"
)

// Logger 以 ctx 开头的结构化日志接口
//
// ctx 携带 request_id 与 thread，由 handler 取出写入日志行。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Stack 同 Error，附带当前 goroutine 的调用栈
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	With(attrs ...slog.Attr) Logger
	WithGroup(name string) Logger
}

// Leveler 运行时调整级别，配置热更新时使用
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level

	// Enabled 在拼装大载荷前判断是否会输出
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel Builder、Handle 与 Default 返回的类型
type LoggerWithLevel interface {
	Logger
	Leveler
}
