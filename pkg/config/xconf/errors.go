package xconf

import "errors"

var (
	// ErrUnsupportedFormat 不支持的配置文件格式
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 读取配置源失败
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 配置文件解析失败
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 反序列化到结构体失败
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrNotWatchable 未配置文件，无法监视
	ErrNotWatchable = errors.New("xconf: config has no file to watch")
)
