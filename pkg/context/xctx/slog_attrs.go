package xctx

import (
	"context"
	"log/slog"
)

// AppendRequestAttrs 把 ctx 中显式注入的字段追加到 attrs 后返回
//
// 只追加非空的 request_id 与 thread；thread 的进程名回退值不追加。
func AppendRequestAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if id := RequestID(ctx); id != "" {
		attrs = append(attrs, slog.String(KeyRequestID, id))
	}
	if name, _ := ctx.Value(keyThread).(string); name != "" {
		attrs = append(attrs, slog.String(KeyThread, name))
	}
	return attrs
}

// RequestAttrs 同 AppendRequestAttrs，没有字段时返回 nil
func RequestAttrs(ctx context.Context) []slog.Attr {
	if attrs := AppendRequestAttrs(nil, ctx); len(attrs) > 0 {
		return attrs
	}
	return nil
}
