// Package xbodylog 提供补全接口的请求/响应正文日志中间件。
//
// 只记录 /v1/chat/completions 与 /v1/completions 两个路径（可通过 WithPaths 调整）：
//
//   - 请求体在 handler 读取时被旁路捕获，读到 EOF 后以缩进 JSON 记录一次，
//     audio_url/image_url/video_url 多媒体分片替换为占位符；
//   - 响应经 xtee.Writer 旁路给观察 goroutine，客户端收到的字节不受影响；
//   - 流式响应（text/event-stream）按 SSE 解码并累计 content，每 N 个分块输出进度，
//     收到 [DONE] 后输出首尾截断的完整内容；
//   - 非流式响应结束后输出缩进 JSON 或 <binary_data>。
//
// 所有日志行都以 "[request_id=...]" 开头，关联 ID 取自响应头 X-Request-Id，
// 应把本中间件放在 xtrace.RequestIDMiddleware 内侧。
//
// 设计决策: 观察侧的任何失败只降级为日志，中间件从不改变响应内容或状态码。
package xbodylog
