package xlog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/omeyang/xinfer/pkg/context/xctx"
)

// ErrNilHandler NewEnrichHandler 的 base 为 nil
var ErrNilHandler = errors.New("xlog: base handler is nil")

// EnrichHandler 把 ctx 中的 request_id 与显式注入的 thread 追加为记录属性
//
// 用于 text/json 格式；PatternHandler 自行从 ctx 取这两个字段。
type EnrichHandler struct {
	next slog.Handler
}

func NewEnrichHandler(next slog.Handler) (*EnrichHandler, error) {
	if next == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{next: next}, nil
}

func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	var scratch [2]slog.Attr
	if extra := xctx.AppendRequestAttrs(scratch[:0], ctx); len(extra) > 0 {
		// record 可能被其他 handler 共享，追加前复制
		r = r.Clone()
		r.AddAttrs(extra...)
	}
	return h.next.Handle(ctx, r)
}

func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{next: h.next.WithAttrs(attrs)}
}

func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{next: h.next.WithGroup(name)}
}
