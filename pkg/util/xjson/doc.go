// Package xjson 提供日志输出用的 JSON 格式化函数。
//
// # 功能概览
//
//   - [PrettyE]: 将任意值序列化为缩进 JSON，返回 (string, error)
//   - [Pretty]: 便捷版本，失败时返回 "<marshal error: ...>" 标记
//   - [IndentRaw]: 对已有 JSON 字节重新缩进，保留原始字段顺序
//
// 与 encoding/json 默认行为不同，HTML 特殊字符（<, >, &）不做转义，
// 请求/响应体按原样出现在日志中。
package xjson
