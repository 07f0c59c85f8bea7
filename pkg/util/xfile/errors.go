package xfile

import "errors"

// 路径校验错误
var (
	ErrEmptyPath     = errors.New("xfile: path is required")
	ErrInvalidPath   = errors.New("xfile: invalid path") // 例如要求纯文件名却带目录
	ErrPathTraversal = errors.New("xfile: path traversal detected")
	ErrNullByte      = errors.New("xfile: path contains null byte")
)

// ErrInvalidPerm 目录权限缺少所有者执行位，创建后无法进入
var ErrInvalidPerm = errors.New("xfile: invalid directory permission")
