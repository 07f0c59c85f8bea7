package xplugin

import "errors"

var (
	// ErrSettings 配置无效（如无法识别的日志级别）
	ErrSettings = errors.New("xplugin: invalid settings")

	// ErrNoRecord 未提供扫描产物
	ErrNoRecord = errors.New("xplugin: scan record is required")
)
