package xlog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，与 slog.Level 兼容
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// ErrUnknownLevel 级别名无法识别
var ErrUnknownLevel = errors.New("xlog: unknown level")

// levelNames 可接受的级别名（小写）
//
// 推理服务的环境变量沿用 warning/critical/fatal 等写法，
// critical 与 fatal 没有对应的 slog 级别，按 ERROR 处理。
var levelNames = map[string]Level{
	"debug":    LevelDebug,
	"info":     LevelInfo,
	"warn":     LevelWarn,
	"warning":  LevelWarn,
	"error":    LevelError,
	"critical": LevelError,
	"fatal":    LevelError,
}

// String 标准级别返回大写名称，其余形如 "INFO+2"
func (l Level) String() string {
	return slog.Level(l).String()
}

// MarshalText 实现 encoding.TextMarshaler
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，koanf 解码配置时使用
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析级别名，大小写不敏感并忽略首尾空白
//
// 无法识别时返回 LevelInfo 与 ErrUnknownLevel。
func ParseLevel(s string) (Level, error) {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return LevelInfo, fmt.Errorf("%w %q", ErrUnknownLevel, s)
}
