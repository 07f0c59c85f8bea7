package xtrace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/omeyang/xinfer/pkg/context/xctx"
	"github.com/omeyang/xinfer/pkg/host/xhost"
	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/observability/xmetrics"
)

// Status 安装结果
type Status int

const (
	// StatusInstalled 包装函数已写回符号表
	StatusInstalled Status = iota
	// StatusSkipped 方法不存在于当前宿主版本，或标识无效
	StatusSkipped
	// StatusIndeterminate 找不到关联参数
	StatusIndeterminate
)

// String 返回状态名称
func (s Status) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusSkipped:
		return "skipped"
	case StatusIndeterminate:
		return "indeterminate"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome 单个方法的安装结果
type Outcome struct {
	ID     string
	Status Status
	// Err 非 Installed 时为 *ResolutionError
	Err error
}

// Report 批量安装结果，各列表保持输入顺序
type Report struct {
	Installed     []string
	Skipped       []string
	Indeterminate []string
}

func (r *Report) add(o Outcome) {
	switch o.Status {
	case StatusInstalled:
		r.Installed = append(r.Installed, o.ID)
	case StatusIndeterminate:
		r.Indeterminate = append(r.Indeterminate, o.ID)
	default:
		r.Skipped = append(r.Skipped, o.ID)
	}
}

// Total 返回处理的方法总数
func (r Report) Total() int {
	return len(r.Installed) + len(r.Skipped) + len(r.Indeterminate)
}

// Option 配置 Tracer
type Option func(*Tracer)

// WithLogger 设置安装过程告警使用的 logger
func WithLogger(l xlog.Logger) Option {
	return func(t *Tracer) {
		t.logger = l
	}
}

// WithObserver 为每次被追踪的调用记录指标
func WithObserver(o xmetrics.Observer) Option {
	return func(t *Tracer) {
		t.observer = o
	}
}

// WithIndexCache 使用外部 IndexCache
func WithIndexCache(c *IndexCache) Option {
	return func(t *Tracer) {
		if c != nil {
			t.cache = c
		}
	}
}

// Tracer 方法追踪安装器
//
// 同一方法只包装一次：已安装状态记录在符号表槽位上，
// 作用于同一张表的多个 Tracer 也不会重复包装。并发安全。
type Tracer struct {
	table    *xhost.Table
	cache    *IndexCache
	logger   xlog.Logger
	observer xmetrics.Observer

	mu        sync.Mutex
	originals map[string]any
}

// NewTracer 创建作用于 table 的 Tracer
func NewTracer(table *xhost.Table, opts ...Option) *Tracer {
	t := &Tracer{
		table:     table,
		cache:     NewIndexCache(),
		originals: make(map[string]any),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	if t.table == nil {
		t.table = xhost.Default
	}
	t.logger = xlog.OrDefault(t.logger)
	t.observer = xmetrics.OrNoop(t.observer)
	return t
}

// Cache 返回关联参数位置缓存
func (t *Tracer) Cache() *IndexCache {
	return t.cache
}

// Freeze 冻结关联参数位置缓存，之后不能再安装新方法
func (t *Tracer) Freeze() {
	t.cache.Freeze()
}

// Original 返回方法被包装前的函数
func (t *Tracer) Original(id string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn, ok := t.originals[id]
	return fn, ok
}

// InstallAll 依次安装 ids 中的每个方法
//
// ctx 取消时停止，未处理的方法不计入 Report。
func (t *Tracer) InstallAll(ctx context.Context, ids []string) Report {
	var r Report
	for _, id := range ids {
		if ctx.Err() != nil {
			t.logger.Warn(ctx, "trace installation interrupted",
				slog.Int(xlog.KeyCount, r.Total()), xlog.Err(ctx.Err()))
			break
		}
		r.add(t.Install(ctx, id))
	}
	return r
}

// Install 为方法安装追踪包装
//
// 提前结束时记录告警，返回的 Outcome.Err 为 *ResolutionError。
func (t *Tracer) Install(ctx context.Context, id string) Outcome {
	o := t.install(id)
	if o.Err != nil {
		t.logger.Warn(ctx, "skip tracing method",
			slog.String(xlog.KeyMethod, id),
			slog.String("status", o.Status.String()),
			xlog.Err(o.Err))
	}
	return o
}

func (t *Tracer) install(id string) Outcome {
	fail := func(status Status, stage string, err error) Outcome {
		return Outcome{ID: id, Status: status, Err: &ResolutionError{ID: id, Stage: stage, Err: err}}
	}

	desc, err := ParseMethodID(id)
	if err != nil {
		return fail(StatusSkipped, "parse", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, done := t.originals[id]; done {
		return Outcome{ID: id, Status: StatusInstalled}
	}

	m, ok := t.table.Lookup(id)
	if !ok {
		return fail(StatusSkipped, "resolve", ErrNotFound)
	}
	// 槽位已被其他 Tracer 包装，本 Tracer 不持有它
	if m.Original != nil {
		return Outcome{ID: id, Status: StatusInstalled}
	}
	fn := reflect.ValueOf(m.Func)
	if fn.Kind() != reflect.Func {
		return fail(StatusSkipped, "resolve", fmt.Errorf("%w: %T", ErrNotFunc, m.Func))
	}

	idx, ok := t.cache.Get(id)
	if !ok {
		idx, ok = CorrelationIndex(m.Params)
		if !ok {
			return fail(StatusIndeterminate, "index", fmt.Errorf("%w: params %v", ErrNoCorrelationParam, m.Params))
		}
		if err := t.cache.Set(id, idx); err != nil {
			return fail(StatusSkipped, "index", err)
		}
	}
	if idx >= fn.Type().NumIn() {
		return fail(StatusIndeterminate, "index", fmt.Errorf("%w: index %d out of range", ErrNoCorrelationParam, idx))
	}
	desc.Index = &idx

	wrapped := t.wrap(desc, fn)
	if err := t.table.Wrap(id, wrapped.Interface()); err != nil {
		if errors.Is(err, xhost.ErrWrapped) {
			return Outcome{ID: id, Status: StatusInstalled}
		}
		return fail(StatusSkipped, "install", err)
	}
	t.originals[id] = m.Func
	return Outcome{ID: id, Status: StatusInstalled}
}

// Uninstall 还原本 Tracer 包装过的方法，返回被还原的方法标识（升序）
//
// 其他 Tracer 包装的方法不受影响。
func (t *Tracer) Uninstall(ctx context.Context) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var restored []string
	for _, id := range slices.Sorted(maps.Keys(t.originals)) {
		delete(t.originals, id)
		ok, err := t.table.Restore(id)
		if err != nil {
			t.logger.Warn(ctx, "restore traced method failed", slog.String(xlog.KeyMethod, id), xlog.Err(err))
			continue
		}
		if ok {
			restored = append(restored, id)
		}
	}
	return restored
}

// moduleLogger 优先使用符号表登记的模块 logger
func (t *Tracer) moduleLogger(module string) xlog.Logger {
	if h, ok := t.table.Logger(module); ok {
		return h
	}
	return xlog.Named(module)
}

var (
	errorType   = reflect.TypeFor[error]()
	contextType = reflect.TypeFor[context.Context]()
)

// contextIndex 返回第一个 context.Context 参数的位置，没有时返回 -1
func contextIndex(typ reflect.Type) int {
	for i := range typ.NumIn() {
		if typ.In(i) == contextType {
			return i
		}
	}
	return -1
}

// callerContext 取调用方传入的 ctx，保留其中的执行单元名称等字段
func callerContext(args []reflect.Value, i int) context.Context {
	if i >= 0 {
		if ctx, ok := args[i].Interface().(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// wrap 生成与 fn 同类型的包装函数
func (t *Tracer) wrap(desc MethodDescriptor, fn reflect.Value) reflect.Value {
	typ := fn.Type()
	idx := *desc.Index
	id := desc.String()
	name := desc.QualifiedName()
	logger := t.moduleLogger(desc.Module)
	observer := t.observer

	call := fn.Call
	if typ.IsVariadic() {
		call = fn.CallSlice
	}
	returnsErr := typ.NumOut() > 0 && typ.Out(typ.NumOut()-1) == errorType
	ctxIdx := contextIndex(typ)

	return reflect.MakeFunc(typ, func(args []reflect.Value) []reflect.Value {
		base := callerContext(args, ctxIdx)
		rid, ok := correlationValue(args[idx])
		if !ok {
			logger.Warn(base, "request id is empty, calling method without trace",
				slog.String(xlog.KeyMethod, name))
			return call(args)
		}

		ctx, _ := xctx.WithRequestID(base, rid)
		logger.Info(ctx, fmt.Sprintf("[request_id=%s] Start calling method `%s`", rid, name))
		obs := observer.Start(ctx, xmetrics.Options{Component: "xtrace", Operation: id})

		finished := false
		defer func() {
			if finished {
				return
			}
			// panic 继续向上传播，这里只记录调用栈
			logger.Stack(ctx, fmt.Sprintf("[request_id=%s] Method `%s` panicked", rid, name))
			obs.End(xmetrics.Result{Status: xmetrics.StatusPanic})
		}()

		out := call(args)
		finished = true

		var callErr error
		if returnsErr {
			if e, ok := out[len(out)-1].Interface().(error); ok && e != nil {
				callErr = e
			}
		}
		logger.Info(ctx, fmt.Sprintf("[request_id=%s] End calling method `%s`", rid, name), xlog.Err(callErr))
		obs.End(xmetrics.Result{Err: callErr})
		return out
	})
}

// correlationValue 取关联参数的字符串值，空值返回 false
func correlationValue(v reflect.Value) (string, bool) {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "", false
	}
	switch v.Kind() {
	case reflect.String:
		s := v.String()
		return s, s != ""
	case reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		if v.IsNil() {
			return "", false
		}
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		str := s.String()
		return str, str != ""
	}
	return fmt.Sprint(v.Interface()), true
}
