package xtrace

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// 关联参数名，按优先级分组：先找 request_id 组，再找 req_id 组
var (
	requestIDParams = []string{"request_id", "requestID"}
	reqIDParams     = []string{"req_id", "reqID"}
)

// IsCorrelationParam 判断参数名是否是关联参数
func IsCorrelationParam(name string) bool {
	for _, group := range [][]string{requestIDParams, reqIDParams} {
		for _, p := range group {
			if p == name {
				return true
			}
		}
	}
	return false
}

// CorrelationIndex 返回关联参数在 params 中的位置
//
// request_id/requestID 优先于 req_id/reqID，同组取第一个出现的。
func CorrelationIndex(params []string) (int, bool) {
	for _, group := range [][]string{requestIDParams, reqIDParams} {
		for i, p := range params {
			for _, name := range group {
				if p == name {
					return i, true
				}
			}
		}
	}
	return -1, false
}

// MethodDescriptor 方法标识解析结果
type MethodDescriptor struct {
	Module string
	Class  string
	Method string

	// Index 关联参数的位置（接收者为 0），未解析时为 nil
	Index *int
}

// ParseMethodID 解析 "module.Class:method"
//
// 先按最后一个 ':' 拆出方法名，再按剩余部分最后一个 '.' 拆出模块与类型。
// "a:b:c" 拆出 owner "a:b"，其中没有 '.'，因此无效。
func ParseMethodID(id string) (MethodDescriptor, error) {
	owner, method, ok := cutLast(id, ':')
	if !ok || owner == "" || method == "" {
		return MethodDescriptor{}, fmt.Errorf("%w: %q", ErrInvalidMethodID, id)
	}
	module, class, ok := cutLast(owner, '.')
	if !ok || module == "" || class == "" {
		return MethodDescriptor{}, fmt.Errorf("%w: %q", ErrInvalidMethodID, id)
	}
	return MethodDescriptor{Module: module, Class: class, Method: method}, nil
}

func cutLast(s string, sep byte) (before, after string, found bool) {
	i := strings.LastIndexByte(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

// String 还原方法标识
func (d MethodDescriptor) String() string {
	return d.Module + "." + d.Class + ":" + d.Method
}

// QualifiedName 追踪日志中的方法全名 "module.Class.method"
func (d MethodDescriptor) QualifiedName() string {
	return d.Module + "." + d.Class + "." + d.Method
}

// =============================================================================
// IndexCache
// =============================================================================

// IndexCache 方法标识到关联参数位置的缓存
//
// 安装阶段写入；Freeze 之后读取不加锁，写入返回 ErrFrozen。
type IndexCache struct {
	mu     sync.Mutex
	m      map[string]int
	frozen atomic.Pointer[map[string]int]
}

// NewIndexCache 创建空缓存
func NewIndexCache() *IndexCache {
	return &IndexCache{m: make(map[string]int)}
}

// Set 记录方法的关联参数位置
func (c *IndexCache) Set(id string, index int) error {
	if c.frozen.Load() != nil {
		return fmt.Errorf("%w: %s", ErrFrozen, id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen.Load() != nil {
		return fmt.Errorf("%w: %s", ErrFrozen, id)
	}
	c.m[id] = index
	return nil
}

// Get 返回方法的关联参数位置
func (c *IndexCache) Get(id string) (int, bool) {
	if m := c.frozen.Load(); m != nil {
		i, ok := (*m)[id]
		return i, ok
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.m[id]
	return i, ok
}

// Freeze 冻结缓存，重复调用无副作用
func (c *IndexCache) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen.Load() != nil {
		return
	}
	m := c.m
	c.frozen.Store(&m)
}

// Frozen 是否已冻结
func (c *IndexCache) Frozen() bool {
	return c.frozen.Load() != nil
}

// Len 返回缓存条目数
func (c *IndexCache) Len() int {
	if m := c.frozen.Load(); m != nil {
		return len(*m)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
