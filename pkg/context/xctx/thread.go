package xctx

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// =============================================================================
// 线程名
//
// Go 没有可命名的线程，日志格式中的 [thread] 段使用调用方注入的执行单元名称
// （如 "api-server"、"engine-core"），未注入时使用进程名。
// =============================================================================

// KeyThread 线程名的日志字段名
const KeyThread = "thread"

const keyThread = contextKey("xctx:thread")

var processName = sync.OnceValue(func() string {
	if len(os.Args) == 0 || os.Args[0] == "" {
		return "main"
	}
	return filepath.Base(os.Args[0])
})

// WithThreadName 将执行单元名称注入 context
//
// 如果 ctx 为 nil，返回 ErrNilContext。
func WithThreadName(ctx context.Context, name string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyThread, name), nil
}

// ThreadName 从 context 提取执行单元名称，未设置时返回进程名
func ThreadName(ctx context.Context) string {
	if ctx != nil {
		if v, ok := ctx.Value(keyThread).(string); ok && v != "" {
			return v
		}
	}
	return processName()
}
