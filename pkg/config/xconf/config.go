package xconf

import (
	"context"

	"github.com/knadh/koanf/v2"
)

// Format 配置文件格式
type Format string

const (
	// FormatYAML YAML 格式（.yaml/.yml）
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式（.json）
	FormatJSON Format = "json"
)

// Config 分层配置
type Config interface {
	// Client 返回当前 koanf 实例快照
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置反序列化到 target，path 为空表示全部
	Unmarshal(path string, target any) error

	// Reload 重新执行全部加载层，失败时保留旧配置
	Reload() error

	// Path 返回配置文件路径，未配置文件时为空
	Path() string

	// Format 返回配置文件格式，未配置文件时为空
	Format() Format

	// Watch 监视配置文件变更，变更时自动 Reload 并回调
	Watch(ctx context.Context, callback WatchCallback, opts ...WatchOption) (*Watcher, error)
}
