package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/omeyang/xinfer/pkg/observability/xrotate"
)

// 输出格式
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatPattern = "pattern" // 见 PatternHandler
)

// ErrFormat SetFormat 收到未知格式
var ErrFormat = errors.New("xlog: unknown format")

// Builder 组装 handler 与 Logger
//
// 链式调用中的配置错误会累积，统一在 Build/BuildHandler 返回。
type Builder struct {
	w         io.Writer
	level     *slog.LevelVar
	format    string
	pattern   PatternOptions
	addSource bool
	enrich    bool
	rotator   xrotate.Rotator
	onError   func(error)
	errs      []error
}

// New 默认 stderr、Info、text 格式并注入 ctx 字段
func New() *Builder {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelInfo)
	return &Builder{w: os.Stderr, level: lv, format: FormatText, enrich: true}
}

func (b *Builder) fail(err error) *Builder {
	b.errs = append(b.errs, err)
	return b
}

func (b *Builder) SetOutput(w io.Writer) *Builder {
	b.w = w
	return b
}

func (b *Builder) SetLevel(level Level) *Builder {
	b.level.Set(slog.Level(level))
	return b
}

// SetLevelString 接受 ParseLevel 支持的级别名
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		return b.fail(err)
	}
	return b.SetLevel(level)
}

// SetLevelVar 与其他 handler 共享 lv，之后的 SetLevel 作用于 lv
func (b *Builder) SetLevelVar(lv *slog.LevelVar) *Builder {
	if lv != nil {
		b.level = lv
	}
	return b
}

// SetFormat 取值 text、json、pattern，大小写不敏感，空串视为 text
func (b *Builder) SetFormat(format string) *Builder {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		b.format = FormatText
	case FormatText, FormatJSON, FormatPattern:
		b.format = f
	default:
		return b.fail(fmt.Errorf("%w %q", ErrFormat, format))
	}
	return b
}

// SetPattern 切换到 pattern 格式，opts.Level 被忽略
func (b *Builder) SetPattern(opts PatternOptions) *Builder {
	b.format = FormatPattern
	b.pattern = opts
	return b
}

func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetEnrich 控制 text/json 格式是否追加 request_id 与 thread，默认开启
func (b *Builder) SetEnrich(enable bool) *Builder {
	b.enrich = enable
	return b
}

// SetRotation 输出到按大小轮转的文件
func (b *Builder) SetRotation(filename string, opts ...xrotate.Option) *Builder {
	r, err := xrotate.NewLumberjack(filename, opts...)
	if err != nil {
		return b.fail(err)
	}
	return b.SetRotator(r)
}

// SetRotator 输出到 r，清理函数负责关闭它
func (b *Builder) SetRotator(r xrotate.Rotator) *Builder {
	if r != nil {
		b.rotator, b.w = r, r
	}
	return b
}

// SetOnError Handler.Handle 失败时同步回调，回调内再次失败不会重入
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// BuildHandler 只构建 handler，用作 Handle 的 sink
func (b *Builder) BuildHandler() (slog.Handler, func() error, error) {
	if err := errors.Join(b.errs...); err != nil {
		if b.rotator != nil {
			_ = b.rotator.Close()
		}
		return nil, nil, err
	}

	var h slog.Handler
	switch b.format {
	case FormatPattern:
		opts := b.pattern
		opts.Level = b.level
		return NewPatternHandler(b.w, &opts), b.cleanup(), nil
	case FormatJSON:
		h = slog.NewJSONHandler(b.w, &slog.HandlerOptions{Level: b.level, AddSource: b.addSource})
	default:
		h = slog.NewTextHandler(b.w, &slog.HandlerOptions{Level: b.level, AddSource: b.addSource})
	}
	if b.enrich {
		h = &EnrichHandler{next: h}
	}
	return h, b.cleanup(), nil
}

// Build 构建 Logger，cleanup 关闭轮转文件（可重复调用）
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	h, cleanup, err := b.BuildHandler()
	if err != nil {
		return nil, nil, err
	}
	// {func} 需要调用者 PC
	capture := b.addSource || b.format == FormatPattern
	return newXLogger(h, b.level, capture, b.onError), cleanup, nil
}

func (b *Builder) cleanup() func() error {
	r := b.rotator
	if r == nil {
		return func() error { return nil }
	}
	return sync.OnceValue(r.Close)
}
