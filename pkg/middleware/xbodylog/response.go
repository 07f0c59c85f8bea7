package xbodylog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strconv"
	"unicode/utf8"

	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/stream/xsse"
	"github.com/omeyang/xinfer/pkg/stream/xtee"
	"github.com/omeyang/xinfer/pkg/util/xjson"
)

const (
	patternUnknown      = "unknown"
	patternStreaming    = "streaming"
	patternNonStreaming = "non-streaming"
)

// responseState 单个响应的观察状态。
// observe 只在 xtee 观察 goroutine 中调用；finish 在 Close 之后调用。
type responseState struct {
	m    *Middleware
	ctx  context.Context
	rid  string
	path string

	// tw 在观察 goroutine 启动前赋值，只用于读取已提交的 Content-Type
	tw *xtee.Writer

	kind   string
	dec    *xsse.Decoder
	chunks int
	done   bool
	body   bytes.Buffer
	total  int64
}

func newResponseState(m *Middleware, ctx context.Context, rid, path string) *responseState {
	rs := &responseState{m: m, ctx: ctx, rid: rid, path: path, kind: patternUnknown}
	rs.dec = xsse.NewDecoder(xsse.WithErrorHandler(func(err error) {
		m.logger.Debug(ctx, "skip sse frame", xlog.Err(err))
	}))
	return rs
}

// isEventStream 判断媒体类型是否为 text/event-stream（忽略参数与大小写）
func isEventStream(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == xsse.ContentType
}

func (rs *responseState) pattern() string {
	return rs.kind
}

func (rs *responseState) prefix() string {
	return "[request_id=" + rs.rid + "]"
}

func (rs *responseState) observe(chunk []byte) error {
	if rs.kind == patternUnknown {
		rs.kind = patternNonStreaming
		if rs.tw != nil && isEventStream(rs.tw.ContentType()) {
			rs.kind = patternStreaming
		}
		rs.m.logger.Info(rs.ctx, fmt.Sprintf("%s Response pattern of %s is %s", rs.prefix(), rs.path, rs.kind))
	}
	rs.m.debugChunk(rs.ctx, rs.rid, rs.path, chunk)

	if rs.kind == patternNonStreaming {
		rs.total += int64(len(chunk))
		if room := rs.m.maxBody - rs.body.Len(); room > 0 {
			rs.body.Write(chunk[:min(len(chunk), room)])
		}
		return nil
	}
	rs.observeStream(chunk)
	return nil
}

func (rs *responseState) observeStream(chunk []byte) {
	if rs.done {
		return
	}
	rs.chunks++
	var content string
	for _, ev := range rs.dec.Decode(chunk) {
		if ev.Type == xsse.EventDone {
			rs.done = true
			break
		}
		c := xsse.ExtractContent(ev.Data)
		rs.dec.Append(c)
		content += c
	}
	// 只含 [DONE] 的分块没有进度可报
	if rs.chunks%rs.m.progressEvery == 0 && (!rs.done || content != "") {
		rs.m.logger.Info(rs.ctx, fmt.Sprintf("%s Streaming response of %s: %d-th content=%s",
			rs.prefix(), rs.path, rs.chunks, strconv.Quote(content)))
	}
	if rs.done {
		rs.m.logger.Info(rs.ctx, fmt.Sprintf("%s Streaming response of %s completed (chunks=%d): full_content=%s",
			rs.prefix(), rs.path, rs.chunks, strconv.Quote(Summarize(rs.dec.Content()))))
	}
}

// finish 输出收尾日志；err 为观察侧错误（通常是请求被取消）。
func (rs *responseState) finish(tw *xtee.Writer, err error) {
	log := rs.m.logger
	if tw.Chunks() == 0 {
		log.Info(rs.ctx, fmt.Sprintf("%s Response body of %s: <empty>", rs.prefix(), rs.path))
		return
	}
	if tw.Lossy() {
		log.Warn(rs.ctx, "response observation is lossy, logged content may be incomplete",
			slog.String("path", rs.path),
			slog.Int64("dropped", tw.Dropped()),
			slog.Int64("chunks", tw.Chunks()))
	}
	if err != nil {
		log.Warn(rs.ctx, fmt.Sprintf("%s Response observation of %s interrupted", rs.prefix(), rs.path), xlog.Err(err))
	}

	switch rs.kind {
	case patternStreaming:
		if !rs.done {
			log.Info(rs.ctx, fmt.Sprintf("%s Streaming response of %s ended (chunks=%d): partial_content=%s",
				rs.prefix(), rs.path, rs.chunks, strconv.Quote(Summarize(rs.dec.Content()))))
		}
	case patternNonStreaming:
		log.Info(rs.ctx, fmt.Sprintf("%s Non-streaming response of %s:\n%s",
			rs.prefix(), rs.path, rs.formatBody()))
	}
}

func (rs *responseState) formatBody() string {
	body := rs.body.Bytes()
	truncated := int64(len(body)) < rs.total
	if truncated {
		body = trimPartialRune(body)
	}
	if !utf8.Valid(body) {
		return fmt.Sprintf("<binary_data: %d bytes>", rs.total)
	}
	text, err := xjson.IndentRaw(body)
	if err != nil {
		text = string(body)
	}
	if truncated {
		text = truncatedMarker(text, rs.total)
	}
	if !rs.m.verbose {
		text = Summarize(text)
	}
	return text
}
