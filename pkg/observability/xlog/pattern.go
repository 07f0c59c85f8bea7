package xlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/omeyang/xinfer/pkg/context/xctx"
)

// DefaultPattern 默认行模板
//
// 与推理服务在 Kubernetes 部署中的日志采集格式一致。
const DefaultPattern = "{time}.{msecs} [{app_name}] [{thread}] {level} [{logger}.{func}] [-] {message}"

// DefaultTimeLayout 默认时间格式（Go layout）
const DefaultTimeLayout = "2006-01-02 15:04:05"

// 模板占位符
const (
	tokTime      = "time"
	tokMsecs     = "msecs"
	tokAppName   = "app_name"
	tokThread    = "thread"
	tokLevel     = "level"
	tokLogger    = "logger"
	tokFunc      = "func"
	tokMessage   = "message"
	tokRequestID = "request_id"
)

// rootLoggerName 记录未携带 logger 名称时 {logger} 的取值
const rootLoggerName = "root"

// PatternOptions PatternHandler 配置
type PatternOptions struct {
	// Template 行模板，为空时使用 DefaultPattern
	Template string

	// TimeLayout {time} 的 Go 时间格式，为空时使用 DefaultTimeLayout
	TimeLayout string

	// AppName 构建时替换 {app_name}，不是逐条记录求值
	AppName string

	// Level 最小级别，nil 时为 Info
	Level slog.Leveler

	// OmitAttrs 为 true 时不在行尾追加 key=value 属性
	OmitAttrs bool
}

type segment struct {
	literal string
	token   string // 为空表示字面量
}

// compiledPattern 解析后的模板，可在多个 handler 之间共享
type compiledPattern struct {
	segments   []segment
	timeLayout string
	omitAttrs  bool
}

// PatternHandler 按行模板输出文本的 slog.Handler
//
// 支持的占位符：{time} {msecs} {app_name} {thread} {level} {logger} {func}
// {message} {request_id}。未知占位符按字面量输出。
// {thread} 取自 xctx.ThreadName，{func} 取自记录的 PC（未捕获时为 "-"）。
type PatternHandler struct {
	w       io.Writer
	mu      *sync.Mutex
	pattern *compiledPattern
	level   slog.Leveler

	logger string // 通过 WithAttrs(KeyLogger) 设置
	prefix string // 分组前缀，如 "req."
	attrs  []byte // 预格式化的 WithAttrs 属性
}

// NewPatternHandler 创建 PatternHandler
func NewPatternHandler(w io.Writer, opts *PatternOptions) *PatternHandler {
	if opts == nil {
		opts = &PatternOptions{}
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	return &PatternHandler{
		w:       w,
		mu:      new(sync.Mutex),
		pattern: compilePattern(opts),
		level:   level,
	}
}

func compilePattern(opts *PatternOptions) *compiledPattern {
	tmpl := opts.Template
	if tmpl == "" {
		tmpl = DefaultPattern
	}
	layout := opts.TimeLayout
	if layout == "" {
		layout = DefaultTimeLayout
	}

	var segs []segment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(tmpl); {
		if tmpl[i] == '{' {
			if end := strings.IndexByte(tmpl[i+1:], '}'); end >= 0 {
				name := tmpl[i+1 : i+1+end]
				switch name {
				case tokAppName:
					lit.WriteString(opts.AppName)
					i += end + 2
					continue
				case tokTime, tokMsecs, tokThread, tokLevel, tokLogger, tokFunc, tokMessage, tokRequestID:
					flush()
					segs = append(segs, segment{token: name})
					i += end + 2
					continue
				}
			}
		}
		lit.WriteByte(tmpl[i])
		i++
	}
	flush()

	return &compiledPattern{segments: segs, timeLayout: layout, omitAttrs: opts.OmitAttrs}
}

// Enabled 实现 slog.Handler
func (h *PatternHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle 实现 slog.Handler，每条记录输出一行
func (h *PatternHandler) Handle(ctx context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	for _, seg := range h.pattern.segments {
		if seg.token == "" {
			buf = append(buf, seg.literal...)
			continue
		}
		buf = h.appendToken(ctx, buf, seg.token, &r)
	}

	if !h.pattern.omitAttrs {
		buf = append(buf, h.attrs...)
		r.Attrs(func(a slog.Attr) bool {
			buf = appendAttr(buf, h.prefix, a)
			return true
		})
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *PatternHandler) appendToken(ctx context.Context, buf []byte, token string, r *slog.Record) []byte {
	switch token {
	case tokTime:
		return r.Time.AppendFormat(buf, h.pattern.timeLayout)
	case tokMsecs:
		ms := r.Time.Nanosecond() / int(time.Millisecond)
		return fmt.Appendf(buf, "%03d", ms)
	case tokThread:
		return append(buf, xctx.ThreadName(ctx)...)
	case tokLevel:
		return append(buf, Level(r.Level).String()...)
	case tokLogger:
		if h.logger == "" {
			return append(buf, rootLoggerName...)
		}
		return append(buf, h.logger...)
	case tokFunc:
		return append(buf, funcName(r.PC)...)
	case tokMessage:
		return append(buf, r.Message...)
	case tokRequestID:
		if id := xctx.RequestID(ctx); id != "" {
			return append(buf, id...)
		}
		return append(buf, '-')
	}
	return buf
}

// funcName 返回 PC 对应函数的短名称，如 "(*Scheduler).schedule" 取 "schedule"
func funcName(pc uintptr) string {
	if pc == 0 {
		return "-"
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	name := frame.Function
	if name == "" {
		return "-"
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// WithAttrs 实现 slog.Handler
//
// 顶层的 KeyLogger 属性作为 {logger} 的取值，不再输出为 key=value。
func (h *PatternHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	for _, a := range attrs {
		if h2.prefix == "" && a.Key == KeyLogger {
			h2.logger = a.Value.Resolve().String()
			continue
		}
		h2.attrs = appendAttr(h2.attrs, h2.prefix, a)
	}
	return h2
}

// WithGroup 实现 slog.Handler
func (h *PatternHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.prefix += name + "."
	return h2
}

func (h *PatternHandler) clone() *PatternHandler {
	h2 := *h
	h2.attrs = append([]byte(nil), h.attrs...)
	return &h2
}

func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return buf
		}
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range group {
			buf = appendAttr(buf, p, ga)
		}
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendMaybeQuoted(buf, v.String())
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339Nano)
	default:
		return appendMaybeQuoted(buf, v.String())
	}
}

func appendMaybeQuoted(buf []byte, s string) []byte {
	if needsQuoting(s) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if unicode.IsSpace(r) || r == '"' || r == '=' || !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}
