// Package xlog 基于 log/slog 的结构化日志库。
//
// # 两种使用方式
//
// 服务自身的日志通过 [Builder] 构建 [LoggerWithLevel]，强制 context 传递：
//
//	logger, cleanup, err := xlog.New().SetFormat("json").Build()
//	defer cleanup()
//	logger.Info(ctx, "plugin registered", slog.Int("methods", n))
//
// 宿主模块的日志通过 [Named] 获取模块级 [Handle]。Handle 的输出目标（sink）
// 可以在运行时整体替换，已持有 Handle 或其 *slog.Logger 的代码无需感知：
//
//	var logger = xlog.Named("vllm.v1.core.sched.scheduler")
//	logger.SetSinks(xlog.Sink{Name: "console", Handler: h})
//
// # 格式
//
//   - text / json: slog 内置格式
//   - pattern: [PatternHandler]，按模板输出单行文本，如
//     "2025-01-02 15:04:05.123 [app] [api-server] INFO [vllm.engine.run] [-] msg"
//
// # Context 注入
//
// text/json 格式下 [EnrichHandler] 把 ctx 中的 request_id 与 thread 追加为属性；
// pattern 格式直接在模板中引用它们。
//
// # 全局 Logger
//
// [Default] 是注册表中名为 [PluginLoggerName] 的 Handle，初始写到 stderr，
// 可以像宿主模块一样被重定向。包级函数 [Info] 等使用它。
package xlog
