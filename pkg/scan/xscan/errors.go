package xscan

import "errors"

var (
	// ErrLoad 根目录无法加载
	ErrLoad = errors.New("xscan: load failed")

	// ErrDiscovery 单个包的发现失败（只用于告警，不会返回给调用方）
	ErrDiscovery = errors.New("xscan: discovery failed")
)
