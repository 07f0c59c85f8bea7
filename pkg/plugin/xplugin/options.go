package xplugin

import (
	"github.com/omeyang/xinfer/pkg/middleware/xbodylog"
	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/observability/xmetrics"
	"github.com/omeyang/xinfer/pkg/observability/xsink"
	"github.com/omeyang/xinfer/pkg/observability/xtrace"
)

// Option 配置 Register
type Option func(*options)

type options struct {
	logger      xlog.Logger
	observer    xmetrics.Observer
	sinkOpts    []xsink.Option
	bodyLogOpts []xbodylog.Option
	ridOpts     []xtrace.MiddlewareOption
}

// WithLogger 设置插件自身告警使用的 logger
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver 设置指标观测器，传递给追踪与正文日志
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithSinkOptions 追加 xsink 选项（如控制台输出、日志目录）
func WithSinkOptions(opts ...xsink.Option) Option {
	return func(o *options) {
		o.sinkOpts = append(o.sinkOpts, opts...)
	}
}

// WithBodyLogOptions 追加正文日志中间件选项
func WithBodyLogOptions(opts ...xbodylog.Option) Option {
	return func(o *options) {
		o.bodyLogOpts = append(o.bodyLogOpts, opts...)
	}
}

// WithRequestIDOptions 追加关联 ID 中间件选项
func WithRequestIDOptions(opts ...xtrace.MiddlewareOption) Option {
	return func(o *options) {
		o.ridOpts = append(o.ridOpts, opts...)
	}
}
