// Package xsink 把宿主模块的 logger 重定向到统一的输出目标。
//
// Reconfigurator 对每个模块名解析出 xlog.Handle，并用恰好两个 sink 整体替换
// 其输出：控制台与按大小轮转的日志文件。两个 sink 共用同一行模板和最小级别。
// 重复调用结果相同。
//
// 日志目录由 internal/deploy 按部署环境解析，进程内只创建一次；
// 目录不可用时告警并退化为仅控制台输出，不会让宿主进程失败。
package xsink
