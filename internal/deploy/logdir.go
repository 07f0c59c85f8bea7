package deploy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/omeyang/xinfer/pkg/util/xfile"
)

// ErrLogDir 日志目录不可创建
var ErrLogDir = errors.New("deploy: log dir not creatable")

// Candidate 日志目录候选项：Marker 存在时使用 Dir。
type Candidate struct {
	Marker string
	Dir    string
}

// DefaultCandidates 默认候选项，按顺序探测
var DefaultCandidates = []Candidate{
	{Marker: "/workspace", Dir: "/workspace/logs"},
	{Marker: "/vllm-workspace", Dir: "/vllm-workspace/logs"},
}

// DefaultFallback 所有候选都不存在时使用的目录
func DefaultFallback() string {
	return filepath.Join(os.TempDir(), "logs")
}

// Resolve 返回第一个 Marker 存在的候选目录，都不存在时返回 fallback。
func Resolve(candidates []Candidate, fallback string) string {
	for _, c := range candidates {
		if xfile.Exists(c.Marker) {
			return c.Dir
		}
	}
	return fallback
}

// LogDir 进程级日志目录
//
// 目录路径在首次访问时探测，创建动作最多执行一次（结果被缓存，包括失败）。
// 零值不可用，使用 NewLogDir 创建；并发安全。
type LogDir struct {
	candidates []Candidate
	fallback   string

	path   func() string
	ensure func() (string, error)
}

// LogDirOption LogDir 配置选项
type LogDirOption func(*LogDir)

// WithCandidates 替换候选目录（测试或非标准挂载）
func WithCandidates(c ...Candidate) LogDirOption {
	return func(d *LogDir) {
		d.candidates = c
	}
}

// WithFallback 替换兜底目录
func WithFallback(dir string) LogDirOption {
	return func(d *LogDir) {
		if dir != "" {
			d.fallback = dir
		}
	}
}

// NewLogDir 创建 LogDir
func NewLogDir(opts ...LogDirOption) *LogDir {
	d := &LogDir{
		candidates: DefaultCandidates,
		fallback:   DefaultFallback(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.path = sync.OnceValue(func() string {
		return Resolve(d.candidates, d.fallback)
	})
	d.ensure = sync.OnceValues(func() (string, error) {
		dir := d.path()
		if err := xfile.MkdirAll(dir, xfile.DefaultDirPerm); err != nil {
			return dir, fmt.Errorf("%w: %s: %w", ErrLogDir, dir, err)
		}
		return dir, nil
	})
	return d
}

// Path 返回探测到的日志目录（不创建）
func (d *LogDir) Path() string {
	return d.path()
}

// Ensure 确保日志目录存在，返回目录路径
//
// 只在第一次调用时真正创建；之后返回缓存的结果。
func (d *LogDir) Ensure() (string, error) {
	return d.ensure()
}

var defaultLogDir = sync.OnceValue(func() *LogDir { return NewLogDir() })

// Default 返回进程级默认 LogDir
func Default() *LogDir {
	return defaultLogDir()
}
