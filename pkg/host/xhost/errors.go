package xhost

import "errors"

var (
	// ErrNotFound 符号表中没有该标识
	ErrNotFound = errors.New("xhost: symbol not found")

	// ErrDuplicate 标识已注册
	ErrDuplicate = errors.New("xhost: symbol already registered")

	// ErrInvalidMethod 方法登记信息无效（空 ID、nil 或非函数、参数名数量不匹配）
	ErrInvalidMethod = errors.New("xhost: invalid method")

	// ErrInvalidLogger 模块名为空或句柄为 nil
	ErrInvalidLogger = errors.New("xhost: invalid logger")

	// ErrTypeMismatch 替换函数的类型与原函数不同
	ErrTypeMismatch = errors.New("xhost: function type mismatch")

	// ErrWrapped 方法已被替换过，Wrap 不再包装
	ErrWrapped = errors.New("xhost: method already wrapped")

	// ErrArgs Call 的实参数量或类型不匹配
	ErrArgs = errors.New("xhost: bad call arguments")
)
