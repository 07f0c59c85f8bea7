package xartifact

import "errors"

var (
	// ErrInvalidRecord 产物内容无效（缺少包名、方法标识格式错误、JSON 损坏等）
	ErrInvalidRecord = errors.New("xartifact: invalid record")

	// ErrCodegen 生成注册文件失败
	ErrCodegen = errors.New("xartifact: codegen failed")
)
