package xrotate

import "errors"

// NewLumberjack 的配置错误
var (
	ErrEmptyFilename     = errors.New("xrotate: filename is required")
	ErrInvalidMaxSize    = errors.New("xrotate: max size out of range")
	ErrInvalidMaxBackups = errors.New("xrotate: max backups out of range")
	ErrNoCleanupPolicy   = errors.New("xrotate: max backups must be positive")
)

var (
	// ErrClosed Close 之后的写入或轮转
	ErrClosed = errors.New("xrotate: rotator is closed")

	// ErrProcessLock 跨进程文件锁加锁或解锁失败
	ErrProcessLock = errors.New("xrotate: process lock failed")
)
