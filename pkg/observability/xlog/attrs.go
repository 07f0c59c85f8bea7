package xlog

import (
	"log/slog"

	"github.com/omeyang/xinfer/pkg/context/xctx"
)

// 常用属性 Key 常量
const (
	// KeyError 错误字段
	KeyError = "error"

	// KeyStack 堆栈字段
	KeyStack = "stack"

	// KeyLogger 模块 logger 名称，Handle 自动附加；PatternHandler 用于 {logger}
	KeyLogger = "logger"

	// KeyRequestID 关联 ID，引用 xctx 保证跨包一致
	KeyRequestID = xctx.KeyRequestID

	// KeyMethod 被追踪方法的完整名称
	KeyMethod = "method"

	// KeyPath HTTP 请求路径
	KeyPath = "path"

	// KeyCount 计数
	KeyCount = "count"

	// KeyDuration 耗时
	KeyDuration = "duration"
)

// Err 创建错误属性，err 为 nil 时返回空属性（被 handler 忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
