package xtrace

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/omeyang/xinfer/pkg/context/xctx"
	"github.com/omeyang/xinfer/pkg/observability/xlog"
)

// HeaderRequestID 关联 ID 的 HTTP Header
const HeaderRequestID = "X-Request-Id"

// ExtractRequestID 从 HTTP Header 读取关联 ID，未携带或不满足 xctx.ValidRequestID 时为空
func ExtractRequestID(h http.Header) string {
	if h == nil {
		return ""
	}
	id := strings.TrimSpace(h.Get(HeaderRequestID))
	if !xctx.ValidRequestID(id) {
		return ""
	}
	return id
}

// MiddlewareOption 中间件选项
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	generate       func() string
	responseHeader bool
	logger         xlog.Logger
}

// WithGenerator 替换关联 ID 生成函数，默认 xctx.GenerateRequestID
func WithGenerator(fn func() string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if fn != nil {
			cfg.generate = fn
		}
	}
}

// WithResponseHeader 是否把关联 ID 写回响应头，默认 true
func WithResponseHeader(enabled bool) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.responseHeader = enabled
	}
}

// WithMiddlewareLogger 设置丢弃无效 ID 时的告警 logger
func WithMiddlewareLogger(l xlog.Logger) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.logger = l
	}
}

// RequestIDMiddleware 返回关联 ID 中间件
//
// 请求头携带有效 X-Request-Id 时沿用，否则生成新的；
// ID 注入 context（xctx.RequestID 可读），并写回响应头。
func RequestIDMiddleware(opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		generate:       xctx.GenerateRequestID,
		responseHeader: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	logger := xlog.OrDefault(cfg.logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id := ExtractRequestID(r.Header)
			if id == "" {
				if raw := r.Header.Get(HeaderRequestID); raw != "" {
					logger.Warn(ctx, "invalid X-Request-Id, generating a new one",
						slog.Int("length", len(raw)))
				}
				id = cfg.generate()
			}

			ctx, err := xctx.WithRequestID(ctx, id)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if cfg.responseHeader {
				w.Header().Set(HeaderRequestID, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectToRequest 把 context 中的关联 ID 写入出站请求头
func InjectToRequest(ctx context.Context, req *http.Request) {
	if req == nil {
		return
	}
	id := xctx.RequestID(ctx)
	if id == "" {
		return
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Header.Set(HeaderRequestID, id)
}

// RequestID 从 context 获取关联 ID（代理到 xctx）
func RequestID(ctx context.Context) string {
	return xctx.RequestID(ctx)
}
