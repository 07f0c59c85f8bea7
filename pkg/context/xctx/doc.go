// Package xctx 在 context 中携带一次推理请求的日志字段。
//
//   - request_id: 关联 ID，来自 X-Request-Id 请求头或入口中间件生成
//   - thread: 执行单元名称，对应日志格式中的 [thread] 段
//
// 注入函数为 WithXxx(ctx, v)，读取函数 Xxx(ctx) 在缺失时返回零值。
// ValidRequestID 只供入口处判断外部输入，存取函数本身不校验。
package xctx
