// Package xfile 提供日志文件与扫描产物落盘所需的路径工具。
//
// # 功能概览
//
//   - [EnsureDir]/[EnsureDirWithPerm]: 确保文件的父目录存在
//   - [MkdirAll]: 确保目录本身存在
//   - [SanitizeFilename]: 校验"纯文件名"（不含目录分隔符、不含 ".."）
//   - [Exists]: 判断路径是否存在
//
// 所有函数都拒绝包含空字节的路径（[ErrNullByte]）。
package xfile
