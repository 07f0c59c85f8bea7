// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，支持具名句柄与 sink 替换
//   - xrotate: 日志文件轮转与可选的进程间写锁
//   - xsink: 按部署约定重定向模块 logger 的输出
//   - xtrace: 关联 ID 中间件与方法调用追踪
//   - xmetrics: 基于 OpenTelemetry 的操作观测
//
// 设计原则：
//   - 日志行格式由部署配置决定，调用方只关心消息与属性
//   - 观测失败只告警，不影响宿主的数据路径
package observability
