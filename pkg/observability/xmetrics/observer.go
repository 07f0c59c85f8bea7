package xmetrics

import "context"

// Status 观测结果
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
	StatusPanic Status = "panic" // 被追踪的宿主方法 panic，panic 继续向上传播
)

// Attr 附加属性，取值必须是低基数的
type Attr struct {
	Key   string
	Value any
}

// Options 一次观测的标识
//
// Component 取 xtrace、xbodylog、xscan；Operation 为方法标识、请求路径或固定操作名。
type Options struct {
	Component string
	Operation string
	Attrs     []Attr
}

// Result 观测结束时上报的结果
type Result struct {
	Status Status // 为空时由 Err 推导
	Err    error
	Items  int64 // 如 SSE 分块数，0 不记录
	Attrs  []Attr
}

// Observation 进行中的观测，End 只有第一次生效
type Observation interface {
	End(result Result)
}

// Observer 创建观测
type Observer interface {
	Start(ctx context.Context, opts Options) Observation
}

// NoopObserver 未配置指标时使用
type NoopObserver struct{}

func (NoopObserver) Start(context.Context, Options) Observation { return NoopObservation{} }

type NoopObservation struct{}

func (NoopObservation) End(Result) {}

// Start 容忍 nil observer、nil ctx 与返回 nil 的实现，结果总是可调用 End
func Start(ctx context.Context, observer Observer, opts Options) Observation {
	if observer == nil {
		return NoopObservation{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if o := observer.Start(ctx, opts); o != nil {
		return o
	}
	return NoopObservation{}
}

// OrNoop nil 时返回 NoopObserver
func OrNoop(observer Observer) Observer {
	if observer == nil {
		return NoopObserver{}
	}
	return observer
}
