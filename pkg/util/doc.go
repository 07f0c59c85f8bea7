// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件操作工具，目录创建、路径校验、原子写入
//   - xjson: JSON 格式化输出，支持保持键顺序的缩进
//
// 设计原则：
//   - 安全处理路径遍历
//   - 失败时返回带哨兵错误的包装错误
package util
