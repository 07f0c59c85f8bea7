// Package xtrace 为宿主方法调用提供按 request_id 关联的调用日志。
//
// # 方法追踪
//
// Tracer 根据方法标识（"vllm.engine.LLMEngine:add_request"）在 xhost.Table 中定位
// 方法，找到名为 request_id/requestID（优先）或 req_id/reqID 的参数位置，
// 并用 reflect.MakeFunc 生成同类型的包装函数写回符号表。包装函数在调用前后
// 通过目标模块的 logger 输出：
//
//	[request_id=<id>] Start calling method `<module>.<Class>.<method>`
//	[request_id=<id>] End calling method `<module>.<Class>.<method>`
//
// 关联参数为空（nil、空字符串等）时不输出追踪日志，直接调用原函数。
// 原函数的返回值与 panic 原样传递。
//
// 安装过程的每一步都可能提前结束：符号表中没有该方法时记为 Skipped，
// 找不到关联参数时记为 Indeterminate，两者都以 ResolutionError 告警。
//
// 参数位置在安装阶段写入 IndexCache，安装结束后 Freeze，之后只读且无锁。
//
// # HTTP 关联 ID
//
// RequestIDMiddleware 读取请求头 X-Request-Id（缺失时生成 32 位十六进制 ID），
// 注入 context 并回写到响应头。
package xtrace
