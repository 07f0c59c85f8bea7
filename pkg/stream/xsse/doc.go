// Package xsse 增量解码 Server-Sent Events 响应体。
//
// Decoder 按到达顺序接收任意切分的字节块，只处理完整的行（"\n" 结尾，
// 容忍 CRLF），不完整的尾部保留到下一块。以 "data: " 开头的行是候选事件：
// 去除空白后为 "[DONE]" 时产生 EventDone，否则按 JSON 解析产生 EventData。
// 损坏的 JSON 或非 UTF-8 行被跳过，不会中断流。
//
// ExtractContent 从 OpenAI 风格的流式分块中取出增量文本；
// Decoder.Append 与 Decoder.Content 维护累积内容，二者相互独立，
// 调用方可以在任意时刻记录进度或最终内容。
//
// Decoder 不是并发安全的，一个响应使用一个 Decoder。
package xsse
