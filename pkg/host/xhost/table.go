package xhost

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/omeyang/xinfer/pkg/observability/xlog"
)

// Method 可调用方法的登记信息
type Method struct {
	// ID 方法标识，形如 "vllm.engine.Scheduler:Schedule"
	ID string

	// Func 方法表达式，接收者为参数 0
	Func any

	// Params 参数名，与 Func 的参数一一对应；为空表示未知
	Params []string

	// Original 第一次被替换前的函数；nil 表示槽位仍是登记时的函数。
	// 登记时忽略。
	Original any
}

// Table 宿主符号表，并发安全
type Table struct {
	mu      sync.RWMutex
	loggers map[string]*xlog.Handle
	methods map[string]*entry
}

type entry struct {
	method Method
	typ    reflect.Type
	fn     reflect.Value
}

// Default 进程级符号表，供生成的注册文件使用
var Default = New()

// New 创建空符号表
func New() *Table {
	return &Table{
		loggers: make(map[string]*xlog.Handle),
		methods: make(map[string]*entry),
	}
}

// RegisterLogger 登记模块的 logger 句柄，同名重复登记同一句柄不报错
func (t *Table) RegisterLogger(module string, h *xlog.Handle) error {
	if module == "" || h == nil {
		return fmt.Errorf("%w: module=%q", ErrInvalidLogger, module)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.loggers[module]; ok && old != h {
		return fmt.Errorf("%w: logger %s", ErrDuplicate, module)
	}
	t.loggers[module] = h
	return nil
}

// Logger 返回模块登记的 logger 句柄
func (t *Table) Logger(module string) (*xlog.Handle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.loggers[module]
	return h, ok
}

// Loggers 返回已登记 logger 的模块名（升序）
func (t *Table) Loggers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.loggers))
	for n := range t.loggers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// RegisterMethod 登记方法
func (t *Table) RegisterMethod(m Method) error {
	if m.ID == "" || m.Func == nil {
		return fmt.Errorf("%w: id=%q", ErrInvalidMethod, m.ID)
	}
	fn := reflect.ValueOf(m.Func)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return fmt.Errorf("%w: %s is %T, not a func", ErrInvalidMethod, m.ID, m.Func)
	}
	if len(m.Params) > 0 && len(m.Params) != fn.Type().NumIn() {
		return fmt.Errorf("%w: %s declares %d params, func takes %d",
			ErrInvalidMethod, m.ID, len(m.Params), fn.Type().NumIn())
	}

	m.Params = slices.Clone(m.Params)
	m.Original = nil
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.methods[m.ID]; ok {
		return fmt.Errorf("%w: method %s", ErrDuplicate, m.ID)
	}
	t.methods[m.ID] = &entry{method: m, typ: fn.Type(), fn: fn}
	return nil
}

// Lookup 返回方法登记信息的副本
func (t *Table) Lookup(id string) (Method, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.methods[id]
	if !ok {
		return Method{}, false
	}
	m := e.method
	m.Params = slices.Clone(m.Params)
	return m, true
}

// Replace 用 fn 替换方法的函数，返回被替换的函数
//
// fn 的类型必须与登记时完全相同；标识与参数名保持不变。
func (t *Table) Replace(id string, fn any) (any, error) {
	return t.replace(id, fn, false)
}

// Wrap 与 Replace 相同，但槽位已被替换过时返回 ErrWrapped
//
// 用于保证同一方法只包装一次，即使多个追踪器作用于同一张表。
func (t *Table) Wrap(id string, fn any) error {
	_, err := t.replace(id, fn, true)
	return err
}

func (t *Table) replace(id string, fn any, once bool) (any, error) {
	v := reflect.ValueOf(fn)
	if fn == nil || v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: replacement for %s is %T", ErrInvalidMethod, id, fn)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.methods[id]
	if !ok {
		return nil, fmt.Errorf("%w: method %s", ErrNotFound, id)
	}
	if v.Type() != e.typ {
		return nil, fmt.Errorf("%w: %s has %s, got %s", ErrTypeMismatch, id, e.typ, v.Type())
	}
	if once && e.method.Original != nil {
		return nil, fmt.Errorf("%w: method %s", ErrWrapped, id)
	}

	m := e.method
	old := m.Func
	if m.Original == nil {
		m.Original = old
	}
	m.Func = fn
	t.methods[id] = &entry{method: m, typ: e.typ, fn: v}
	return old, nil
}

// Restore 把槽位恢复为第一次被替换前的函数，返回是否发生了恢复
func (t *Table) Restore(id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.methods[id]
	if !ok {
		return false, fmt.Errorf("%w: method %s", ErrNotFound, id)
	}
	if e.method.Original == nil {
		return false, nil
	}
	m := e.method
	m.Func, m.Original = m.Original, nil
	t.methods[id] = &entry{method: m, typ: e.typ, fn: reflect.ValueOf(m.Func)}
	return true, nil
}

// Methods 返回已登记的方法标识（升序）
func (t *Table) Methods() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.methods))
	for id := range t.methods {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Call 以位置参数调用方法的当前函数并返回全部结果
//
// nil 实参转换为对应参数类型的零值。方法内部的 panic 原样传播。
func (t *Table) Call(id string, args ...any) ([]any, error) {
	t.mu.RLock()
	e, ok := t.methods[id]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: method %s", ErrNotFound, id)
	}

	in, err := buildArgs(e.typ, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArgs, id, err)
	}
	out := e.fn.Call(in)
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

func buildArgs(typ reflect.Type, args []any) ([]reflect.Value, error) {
	n := typ.NumIn()
	if typ.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("want at least %d args, got %d", n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("want %d args, got %d", n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := paramType(typ, i)
		if a == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		v := reflect.ValueOf(a)
		if !v.Type().AssignableTo(pt) {
			return nil, fmt.Errorf("arg %d: %s is not assignable to %s", i, v.Type(), pt)
		}
		in[i] = v
	}
	return in, nil
}

func paramType(typ reflect.Type, i int) reflect.Type {
	if typ.IsVariadic() && i >= typ.NumIn()-1 {
		return typ.In(typ.NumIn() - 1).Elem()
	}
	return typ.In(i)
}
