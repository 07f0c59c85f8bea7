package xbodylog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/observability/xmetrics"
	"github.com/omeyang/xinfer/pkg/observability/xtrace"
	"github.com/omeyang/xinfer/pkg/stream/xtee"
)

// Middleware 请求/响应正文日志中间件
type Middleware struct {
	logger        xlog.Logger
	observer      xmetrics.Observer
	paths         map[string]struct{}
	progressEvery int
	verbose       bool
	maxBody       int
	maxParse      int
	buffer        int
}

// New 创建中间件
func New(opts ...Option) *Middleware {
	m := &Middleware{
		logger:        xlog.Named(DefaultLoggerName),
		paths:         map[string]struct{}{PathChatCompletions: {}, PathCompletions: {}},
		progressEvery: DefaultProgressEvery,
		maxBody:       DefaultMaxBody,
		maxParse:      DefaultMaxParse,
		buffer:        xtee.DefaultBuffer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.verbose {
		m.progressEvery = 1
	}
	return m
}

// Handler 包装 next；非补全路径直接透传。
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if _, ok := m.paths[path]; !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		rid := requestID(ctx, w)

		var capture *captureBody
		if r.Body != nil && r.Body != http.NoBody {
			capture = newCaptureBody(r.Body, m.maxBody, m.maxParse, func(body []byte, total int64, complete bool) {
				m.logRequest(ctx, rid, path, body, total, complete)
			})
			r.Body = capture
		}

		obs := xmetrics.Start(ctx, m.observer, xmetrics.Options{
			Component: "xbodylog",
			Operation: path,
		})
		rs := newResponseState(m, ctx, rid, path)
		tw := xtee.New(ctx, w, rs.observe, xtee.WithBuffer(m.buffer))
		rs.tw = tw

		next.ServeHTTP(tw, r)

		err := tw.Close()
		if capture != nil {
			capture.finish()
		}
		rs.finish(tw, err)
		obs.End(xmetrics.Result{
			Err:   err,
			Items: tw.Chunks(),
			Attrs: []xmetrics.Attr{
				xmetrics.String("pattern", rs.pattern()),
				xmetrics.Bool("lossy", tw.Lossy()),
			},
		})
	})
}

// requestID 优先取响应头中的关联 ID（由外层 RequestIDMiddleware 写入），
// 其次取 context。
func requestID(ctx context.Context, w http.ResponseWriter) string {
	if id := w.Header().Get(xtrace.HeaderRequestID); id != "" {
		return id
	}
	return xtrace.RequestID(ctx)
}

func (m *Middleware) logRequest(ctx context.Context, rid, path string, body []byte, total int64, complete bool) {
	text := formatRequestBody(body, total, complete, m.maxBody)
	if !complete {
		m.logger.Info(ctx, fmt.Sprintf("[request_id=%s] Request body of %s (partially read):\n%s", rid, path, text))
		return
	}
	m.logger.Info(ctx, fmt.Sprintf("[request_id=%s] Request body of %s:\n%s", rid, path, text))
}

func (m *Middleware) debugChunk(ctx context.Context, rid, path string, chunk []byte) {
	if !m.verbose {
		return
	}
	m.logger.Debug(ctx, fmt.Sprintf("[request_id=%s] Raw chunk of %s", rid, path),
		slog.Int("bytes", len(chunk)),
		xlog.LazyString("chunk", func() string { return string(chunk) }))
}
