package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

var (
	_ Logger          = (*xlogger)(nil)
	_ LoggerWithLevel = (*xlogger)(nil)
)

// maxStackBytes Stack 捕获的调用栈上限，超出部分被截断
const maxStackBytes = 64 << 10

// shared 同一 logger 及其 With/WithGroup 派生实例共享的状态
type shared struct {
	level     *slog.LevelVar
	addSource bool // 捕获调用者 PC，{func} 占位符依赖它
	onError   func(error)
	failures  atomic.Uint64
	reporting atomic.Bool // onError 正在执行，期间的新错误只计数
}

// xlogger Logger 的实现：handler 之上加调用者定位与错误回调
type xlogger struct {
	handler slog.Handler
	*shared
}

func newXLogger(h slog.Handler, lv *slog.LevelVar, addSource bool, onError func(error)) *xlogger {
	return &xlogger{
		handler: h,
		shared:  &shared{level: lv, addSource: addSource, onError: onError},
	}
}

// callerPC 返回业务调用点，skip 从 callerPC 的调用方开始计数
//
//go:noinline
func (l *xlogger) callerPC(skip int) uintptr {
	if !l.addSource {
		return 0
	}
	var pcs [1]uintptr
	runtime.Callers(skip+2, pcs[:])
	return pcs[0]
}

// logWithSkip extraSkip 为直接调用方与业务代码之间额外的栈帧数
//
//go:noinline
func (l *xlogger) logWithSkip(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, extraSkip int) {
	if !l.handler.Enabled(ctx, level) {
		return
	}
	// 跳过 logWithSkip 与直接调用方
	r := slog.NewRecord(time.Now(), level, msg, l.callerPC(2+extraSkip))
	r.AddAttrs(attrs...)
	l.emit(ctx, r)
}

func (l *xlogger) emit(ctx context.Context, r slog.Record) {
	err := l.handler.Handle(ctx, r)
	if err == nil {
		return
	}
	l.failures.Add(1)
	if l.onError == nil || !l.reporting.CompareAndSwap(false, true) {
		return
	}
	defer l.reporting.Store(false)
	defer func() {
		// 回调 panic 只计数，不影响业务调用链
		if recover() != nil {
			l.failures.Add(1)
		}
	}()
	l.onError(err)
}

//go:noinline
func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logWithSkip(ctx, slog.LevelDebug, msg, attrs, 0)
}

//go:noinline
func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logWithSkip(ctx, slog.LevelInfo, msg, attrs, 0)
}

//go:noinline
func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logWithSkip(ctx, slog.LevelWarn, msg, attrs, 0)
}

//go:noinline
func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logWithSkip(ctx, slog.LevelError, msg, attrs, 0)
}

// Stack 以 ERROR 级别记录，附带当前 goroutine 的调用栈（KeyStack）
//
//go:noinline
func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	if !l.handler.Enabled(ctx, slog.LevelError) {
		return
	}
	buf := make([]byte, 4<<10)
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxStackBytes {
		buf = make([]byte, min(2*len(buf), maxStackBytes))
		n = runtime.Stack(buf, false)
	}

	r := slog.NewRecord(time.Now(), slog.LevelError, msg, l.callerPC(1))
	r.AddAttrs(attrs...)
	r.AddAttrs(slog.String(KeyStack, string(buf[:n])))
	l.emit(ctx, r)
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return &xlogger{handler: l.handler.WithAttrs(attrs), shared: l.shared}
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return &xlogger{handler: l.handler.WithGroup(name), shared: l.shared}
}

// SetLevel 修改共享的级别，派生 logger 同时生效
func (l *xlogger) SetLevel(level Level) {
	l.level.Set(slog.Level(level))
}

func (l *xlogger) GetLevel() Level {
	return Level(l.level.Level())
}

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}

// Slog 返回共享同一 handler 的 *slog.Logger，交给只接受标准库 logger 的代码
func (l *xlogger) Slog() *slog.Logger {
	return slog.New(l.handler)
}
