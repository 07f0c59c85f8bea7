package xlog

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// =============================================================================
// 模块级 Logger 句柄
//
// 宿主包中每个模块持有一个 package 级 logger 变量。句柄本身在进程生命周期内
// 不变，输出目标（sink 列表）可以原子地整体替换：替换后所有已持有该句柄
// 或其派生 logger 的代码立即写到新的 sink。
// =============================================================================

// Sink 命名的输出目标
type Sink struct {
	// Name sink 名称，如 "console"、"file"
	Name string

	// Handler 输出 handler，负责格式化与级别过滤
	Handler slog.Handler
}

// sinkState 一次 SetSinks 产生的不可变快照
type sinkState struct {
	gen     uint64
	sinks   []Sink
	handler slog.Handler // 已附加 KeyLogger 的 fanout
}

// Handle 模块级 logger 句柄
//
// 实现 LoggerWithLevel。
// 句柄自身的级别（SetLevel）是 sink 级别之外的额外闸门，默认 Debug。
type Handle struct {
	*xlogger

	name  string
	state atomic.Pointer[sinkState]
	gen   atomic.Uint64
}

// NewHandle 创建未注册的句柄，sinks 为初始输出目标
func NewHandle(name string, sinks ...Sink) *Handle {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelDebug)

	h := &Handle{name: name}
	h.xlogger = newXLogger(&handleHandler{h: h}, lv, true, nil)
	h.SetSinks(sinks...)
	return h
}

// Name 返回模块名
func (h *Handle) Name() string {
	return h.name
}

// SetSinks 用 sinks 整体替换当前输出目标，返回被替换的旧列表
//
// Handler 为 nil 的 sink 被忽略。调用方负责关闭旧 sink 持有的资源。
func (h *Handle) SetSinks(sinks ...Sink) []Sink {
	kept := make([]Sink, 0, len(sinks))
	handlers := make([]slog.Handler, 0, len(sinks))
	for _, s := range sinks {
		if s.Handler == nil {
			continue
		}
		kept = append(kept, s)
		handlers = append(handlers, s.Handler)
	}

	next := &sinkState{
		gen:     h.gen.Add(1),
		sinks:   kept,
		handler: NewFanoutHandler(handlers...).WithAttrs([]slog.Attr{slog.String(KeyLogger, h.name)}),
	}
	old := h.state.Swap(next)
	if old == nil {
		return nil
	}
	return old.sinks
}

// Sinks 返回当前输出目标的副本
func (h *Handle) Sinks() []Sink {
	return slices.Clone(h.state.Load().sinks)
}

// SinkNames 返回当前输出目标名称
func (h *Handle) SinkNames() []string {
	st := h.state.Load()
	names := make([]string, len(st.sinks))
	for i, s := range st.sinks {
		names[i] = s.Name
	}
	return names
}

// =============================================================================
// 动态 handler
// =============================================================================

type handlerOp struct {
	attrs []slog.Attr
	group string
}

type cachedHandler struct {
	gen     uint64
	handler slog.Handler
}

// handleHandler 每次处理记录时读取句柄的当前 sink 快照
//
// WithAttrs/WithGroup 记录为操作序列，在快照变化时重放一次并缓存。
type handleHandler struct {
	h     *Handle
	ops   []handlerOp
	cache atomic.Pointer[cachedHandler]
}

func (d *handleHandler) current() slog.Handler {
	st := d.h.state.Load()
	if c := d.cache.Load(); c != nil && c.gen == st.gen {
		return c.handler
	}
	hh := st.handler
	for _, op := range d.ops {
		if op.group != "" {
			hh = hh.WithGroup(op.group)
		} else {
			hh = hh.WithAttrs(op.attrs)
		}
	}
	d.cache.Store(&cachedHandler{gen: st.gen, handler: hh})
	return hh
}

func (d *handleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < d.h.level.Level() {
		return false
	}
	return d.current().Enabled(ctx, level)
}

func (d *handleHandler) Handle(ctx context.Context, r slog.Record) error {
	return d.current().Handle(ctx, r)
}

func (d *handleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return d
	}
	return &handleHandler{h: d.h, ops: append(slices.Clone(d.ops), handlerOp{attrs: slices.Clone(attrs)})}
}

func (d *handleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return d
	}
	return &handleHandler{h: d.h, ops: append(slices.Clone(d.ops), handlerOp{group: name})}
}

// =============================================================================
// 进程级注册表
// =============================================================================

var registry = struct {
	mu      sync.Mutex
	handles map[string]*Handle
}{handles: make(map[string]*Handle)}

// Named 返回模块名对应的句柄，不存在时创建并注册
//
// 新句柄的初始 sink 名为 "default"，见 defaultHandler。
// 同名总是返回同一个句柄。
func Named(name string) *Handle {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if h, ok := registry.handles[name]; ok {
		return h
	}
	h := NewHandle(name, Sink{Name: "default", Handler: defaultHandler()})
	registry.handles[name] = h
	return h
}

// Lookup 返回已注册的句柄
func Lookup(name string) (*Handle, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	h, ok := registry.handles[name]
	return h, ok
}

// Register 注册外部创建的句柄，同名已存在时返回已有句柄
func Register(h *Handle) *Handle {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if old, ok := registry.handles[h.name]; ok {
		return old
	}
	registry.handles[h.name] = h
	return h
}

// Names 返回已注册的模块名（升序）
func Names() []string {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	names := make([]string, 0, len(registry.handles))
	for n := range registry.handles {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// defaultHandler 新句柄的初始输出
//
// SetDefault 注入的 *xlogger 优先；默认插件句柄不作为其他句柄的输出，
// 否则重定向插件日志会连带改变所有未配置模块。
func defaultHandler() slog.Handler {
	if l := current.logger.Load(); l != nil {
		if xl, ok := (*l).(*xlogger); ok {
			return xl.handler
		}
	}
	return fallbackHandler()
}
