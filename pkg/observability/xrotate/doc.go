// Package xrotate 提供按大小轮转的日志文件。
//
// 配置只有两项：轮转阈值与备份数，与推理服务日志插件的
// LOG_FILE_MAX_BYTES / LOG_FILE_BACKUP_COUNT 对应。阈值以字节给出，
// 底层 lumberjack 以 MB 计，[WithMaxBytes] 向上取整，实际轮转点可能略大于配置值。
//
// API server 与 engine 进程可能写同一个文件，[WithProcessLock] 让每次写入
// 持有 <filename>.lock 上的排他 flock。默认关闭。
package xrotate
