package xmetrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xinfer/pkg/observability/xmetrics"
	unknownComponent           = "unknown"
	unknownOperation           = "unknown"

	metricOperationTotal    = "xinfer.operation.total"
	metricOperationDuration = "xinfer.operation.duration"
	metricOperationItems    = "xinfer.operation.items"
	metricOperationActive   = "xinfer.operation.active"
)

// DurationBuckets 耗时直方图边界（秒）。
// 覆盖单次方法调用（毫秒级）到长流式响应（分钟级）。
var DurationBuckets = []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

type otelConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
	buckets             []float64
}

// Option 定义 OTel Observer 的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider，默认 otel.GetMeterProvider()。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// WithDurationBuckets 覆盖耗时直方图边界，空切片忽略。
func WithDurationBuckets(bounds ...float64) Option {
	return func(cfg *otelConfig) {
		if len(bounds) > 0 {
			cfg.buckets = bounds
		}
	}
}

// instruments 一个 Observer 持有的全部仪表
type instruments struct {
	total    metric.Int64Counter
	items    metric.Int64Counter
	active   metric.Int64UpDownCounter
	duration metric.Float64Histogram
}

func newInstruments(meter metric.Meter, buckets []float64) (*instruments, error) {
	var (
		ins  instruments
		errs []error
		err  error
	)
	if ins.total, err = meter.Int64Counter(metricOperationTotal,
		metric.WithDescription("finished operations"), metric.WithUnit("1")); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", metricOperationTotal, err))
	}
	if ins.items, err = meter.Int64Counter(metricOperationItems,
		metric.WithDescription("items handled by finished operations, e.g. SSE chunks"), metric.WithUnit("1")); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", metricOperationItems, err))
	}
	if ins.active, err = meter.Int64UpDownCounter(metricOperationActive,
		metric.WithDescription("operations in progress"), metric.WithUnit("1")); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", metricOperationActive, err))
	}
	if ins.duration, err = meter.Float64Histogram(metricOperationDuration,
		metric.WithDescription("operation duration"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(buckets...)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", metricOperationDuration, err))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInstrument, errors.Join(errs...))
	}
	return &ins, nil
}

// NewOTelObserver 创建基于 OpenTelemetry 的 Observer。
func NewOTelObserver(opts ...Option) (Observer, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
		buckets:             DurationBuckets,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	ins, err := newInstruments(cfg.meterProvider.Meter(cfg.instrumentationName), cfg.buckets)
	if err != nil {
		return nil, err
	}
	return &otelObserver{ins: ins}, nil
}

type otelObserver struct {
	ins *instruments
}

// Start 开始一次观测，active 计数立即加一。
func (o *otelObserver) Start(ctx context.Context, opts Options) Observation {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &otelObservation{
		ins:       o.ins,
		ctx:       context.WithoutCancel(ctx),
		component: orUnknown(opts.Component, unknownComponent),
		operation: orUnknown(opts.Operation, unknownOperation),
		attrs:     opts.Attrs,
		start:     time.Now(),
	}
	o.ins.active.Add(s.ctx, 1, s.activeSet())
	return s
}

func orUnknown(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

type otelObservation struct {
	ins       *instruments
	ctx       context.Context
	component string
	operation string
	attrs     []Attr
	start     time.Time
	endOnce   sync.Once
}

// activeSet active 只带 component/operation，Start 与 End 必须一致
func (s *otelObservation) activeSet() metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("component", s.component),
		attribute.String("operation", s.operation),
	)
}

// End 结束观测并记录结果，多次调用只记录一次。
// 请求 context 已取消时仍然记录。
func (s *otelObservation) End(result Result) {
	if s == nil {
		return
	}
	s.endOnce.Do(func() {
		elapsed := time.Since(s.start).Seconds()

		attrs := metricAttrs(s.component, s.operation, resolveStatus(result))
		attrs = append(attrs, attrsToOTel(s.attrs)...)
		attrs = append(attrs, attrsToOTel(result.Attrs)...)
		set := metric.WithAttributes(attrs...)

		s.ins.active.Add(s.ctx, -1, s.activeSet())
		s.ins.total.Add(s.ctx, 1, set)
		s.ins.duration.Record(s.ctx, elapsed, set)
		if result.Items > 0 {
			s.ins.items.Add(s.ctx, result.Items, set)
		}
	})
}

func resolveStatus(result Result) Status {
	switch {
	case result.Status != "":
		return result.Status
	case result.Err != nil:
		return StatusError
	default:
		return StatusOK
	}
}

func metricAttrs(component, operation string, status Status) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("component", component),
		attribute.String("operation", operation),
		attribute.String("status", string(status)),
	}
}

// attrsToOTel 跳过空键与 nil 值
func attrsToOTel(attrs []Attr) []attribute.KeyValue {
	var out []attribute.KeyValue
	for _, a := range attrs {
		if a.Key != "" && a.Value != nil {
			out = append(out, toKeyValue(a))
		}
	}
	return out
}

func toKeyValue(a Attr) attribute.KeyValue {
	switch v := a.Value.(type) {
	case string:
		return attribute.String(a.Key, v)
	case bool:
		return attribute.Bool(a.Key, v)
	case int:
		return attribute.Int(a.Key, v)
	case int64:
		return attribute.Int64(a.Key, v)
	default:
		return attribute.String(a.Key, fmt.Sprint(v))
	}
}
