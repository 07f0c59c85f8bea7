package xrotate

import "io"

// Rotator 轮转中的日志文件，作为 slog handler 的输出目标
//
// 实现须并发安全。Close 之后 Write 与 Rotate 返回 [ErrClosed]。
type Rotator interface {
	io.WriteCloser

	// Rotate 立即把当前文件移为备份
	Rotate() error

	Filename() string
}
