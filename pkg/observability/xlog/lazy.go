package xlog

import "log/slog"

// lazyValue 只在 handler 格式化记录时求值
type lazyValue func() slog.Value

func (f lazyValue) LogValue() slog.Value { return f() }

// LazyString 延迟计算的字符串属性
//
// 用于原始响应块这类大载荷：级别被禁用时 fn 不会被调用。
func LazyString(key string, fn func() string) slog.Attr {
	if fn == nil {
		return slog.String(key, "")
	}
	return slog.Any(key, lazyValue(func() slog.Value { return slog.StringValue(fn()) }))
}
