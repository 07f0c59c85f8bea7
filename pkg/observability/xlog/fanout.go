package xlog

import (
	"context"
	"errors"
	"log/slog"
)

// FanoutHandler 将一条记录分发给多个 handler
//
// 每个 handler 按各自的 Enabled 判断是否接收；单个 handler 失败不影响其余 handler，
// 所有错误合并返回。
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanoutHandler 创建 FanoutHandler，nil handler 被忽略
func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	hs := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	return &FanoutHandler{handlers: hs}
}

// Len 返回下游 handler 数量
func (h *FanoutHandler) Len() int {
	return len(h.handlers)
}

// Enabled 任一下游启用即启用
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle 分发记录
func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs 对每个下游 handler 应用属性
func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		hs[i] = handler.WithAttrs(attrs)
	}
	return &FanoutHandler{handlers: hs}
}

// WithGroup 对每个下游 handler 应用分组
func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	hs := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		hs[i] = handler.WithGroup(name)
	}
	return &FanoutHandler{handlers: hs}
}
