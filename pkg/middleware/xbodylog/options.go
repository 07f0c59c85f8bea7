package xbodylog

import (
	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/observability/xmetrics"
)

const (
	// PathChatCompletions 对话补全接口路径
	PathChatCompletions = "/v1/chat/completions"
	// PathCompletions 文本补全接口路径
	PathCompletions = "/v1/completions"

	// DefaultLoggerName 默认日志器名称，与宿主 API server 的日志器一致
	DefaultLoggerName = "vllm.entrypoints.openai.api_server"

	// DefaultProgressEvery 默认每隔多少个分块输出一次流式进度
	DefaultProgressEvery = 10

	// DefaultMaxBody 请求体与非流式响应体的最大捕获字节数
	DefaultMaxBody = 4 << 20

	// DefaultMaxParse JSON 请求体为剥离多媒体而完整缓存的上限
	DefaultMaxParse = 64 << 20
)

// Option 配置中间件
type Option func(*Middleware)

// WithLogger 设置输出日志器，默认 xlog.Named(DefaultLoggerName)
func WithLogger(l xlog.Logger) Option {
	return func(m *Middleware) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithObserver 设置指标观测器
func WithObserver(o xmetrics.Observer) Option {
	return func(m *Middleware) {
		m.observer = o
	}
}

// WithPaths 覆盖需要记录的路径集合（精确匹配）
func WithPaths(paths ...string) Option {
	return func(m *Middleware) {
		if len(paths) == 0 {
			return
		}
		m.paths = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			m.paths[p] = struct{}{}
		}
	}
}

// WithProgressEvery 设置流式进度日志的分块间隔，n <= 0 时忽略
func WithProgressEvery(n int) Option {
	return func(m *Middleware) {
		if n > 0 {
			m.progressEvery = n
		}
	}
}

// WithVerbose 开启详细模式：每个分块都输出进度，
// 非流式响应体不截断，原始分块以 DEBUG 级别输出。
func WithVerbose(enabled bool) Option {
	return func(m *Middleware) {
		m.verbose = enabled
	}
}

// WithMaxBody 设置请求体/非流式响应体最大捕获字节数，n <= 0 时忽略
func WithMaxBody(n int) Option {
	return func(m *Middleware) {
		if n > 0 {
			m.maxBody = n
		}
	}
}

// WithMaxParse 设置 JSON 请求体完整缓存的上限，n <= 0 时忽略。
// 超过上限的正文按原文截断输出，其中的 data URI 仍会被替换。
func WithMaxParse(n int) Option {
	return func(m *Middleware) {
		if n > 0 {
			m.maxParse = n
		}
	}
}

// WithBuffer 设置旁路通道容量，透传给 xtee.WithBuffer
func WithBuffer(n int) Option {
	return func(m *Middleware) {
		if n > 0 {
			m.buffer = n
		}
	}
}
