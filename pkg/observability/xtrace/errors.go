package xtrace

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMethodID 方法标识格式不是 "module.Class:method"
	ErrInvalidMethodID = errors.New("xtrace: invalid method id")

	// ErrResolution 方法解析失败，安装被跳过
	ErrResolution = errors.New("xtrace: method resolution failed")

	// ErrNotFound 符号表中没有该方法（宿主版本不同）
	ErrNotFound = errors.New("xtrace: method not registered")

	// ErrNotFunc 符号表中的登记项不是函数
	ErrNotFunc = errors.New("xtrace: symbol is not a func")

	// ErrNoCorrelationParam 方法没有 request_id/req_id 参数
	ErrNoCorrelationParam = errors.New("xtrace: no correlation parameter")

	// ErrFrozen IndexCache 已冻结，拒绝写入
	ErrFrozen = errors.New("xtrace: index cache is frozen")
)

// ResolutionError 描述一次安装在哪个阶段、因何提前结束
//
// errors.Is 同时匹配 ErrResolution 与具体原因。
type ResolutionError struct {
	ID    string
	Stage string // "parse"、"resolve"、"index"、"install"
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("xtrace: %s %s: %v", e.Stage, e.ID, e.Err)
}

// Unwrap 返回 ErrResolution 与具体原因
func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Err}
}
