package xrotate

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xinfer/pkg/util/xfile"
)

const (
	// DefaultMaxBytes 推理服务日志文件的默认轮转阈值（8 MiB）
	DefaultMaxBytes = 8388608

	// DefaultMaxBackups 默认保留的备份数
	DefaultMaxBackups = 5

	bytesPerMB = 1 << 20

	maxSizeMB  = 10240
	maxBackups = 1024
)

type config struct {
	sizeMB  int
	backups int
	lock    bool
	onError func(error)
}

// Option NewLumberjack 的选项
type Option func(*config)

// WithMaxBytes 轮转阈值，按 MB 向上取整；n <= 0 在校验时报 ErrInvalidMaxSize
func WithMaxBytes(n int64) Option {
	return func(c *config) {
		if n <= 0 {
			c.sizeMB = 0
			return
		}
		c.sizeMB = int(BytesToMB(n))
	}
}

// BytesToMB 字节数向上取整为 MB，至少为 1
func BytesToMB(n int64) int64 {
	if n <= bytesPerMB {
		return 1
	}
	return (n + bytesPerMB - 1) / bytesPerMB
}

// WithMaxBackups 保留的备份数，必须大于 0
func WithMaxBackups(n int) Option {
	return func(c *config) { c.backups = n }
}

// WithProcessLock 每次写入持有 <filename>.lock 上的排他 flock
func WithProcessLock(enable bool) Option {
	return func(c *config) { c.lock = enable }
}

// WithOnError 接收写路径之外的错误（目前只有解锁失败）
//
// 回调不得写回同一个 Rotator。
func WithOnError(fn func(error)) Option {
	return func(c *config) { c.onError = fn }
}

func (c *config) validate() error {
	switch {
	case c.sizeMB < 1 || c.sizeMB > maxSizeMB:
		return fmt.Errorf("%w: %d MB, want 1~%d", ErrInvalidMaxSize, c.sizeMB, maxSizeMB)
	case c.backups < 0 || c.backups > maxBackups:
		return fmt.Errorf("%w: %d, want 0~%d", ErrInvalidMaxBackups, c.backups, maxBackups)
	case c.backups == 0:
		// lumberjack 把 0 当作不限数量
		return ErrNoCleanupPolicy
	}
	return nil
}

type lumberjackRotator struct {
	out     *lumberjack.Logger
	lock    *flock.Flock
	onError func(error)
	closed  atomic.Bool
}

// NewLumberjack 打开按大小轮转的日志文件
//
// 父目录不存在时创建；文件本身在首次写入时创建。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	cfg := config{sizeMB: int(BytesToMB(DefaultMaxBytes)), backups: DefaultMaxBackups}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	path := filepath.Clean(filename)
	if err := xfile.EnsureDir(path); err != nil {
		return nil, err
	}
	r := &lumberjackRotator{
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.sizeMB,
			MaxBackups: cfg.backups,
			LocalTime:  true,
		},
		onError: cfg.onError,
	}
	if cfg.lock {
		r.lock = flock.New(path + ".lock")
	}
	return r, nil
}

func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	if r.lock != nil {
		if err := r.lock.Lock(); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrProcessLock, err)
		}
		defer r.release()
	}
	n, err := r.out.Write(p)
	return n, r.closedOr(err)
}

func (r *lumberjackRotator) release() {
	if err := r.lock.Unlock(); err != nil {
		r.reportError(fmt.Errorf("%w: %w", ErrProcessLock, err))
	}
}

// closedOr 与 Close 并发的写入或轮转统一报 ErrClosed
func (r *lumberjackRotator) closedOr(err error) error {
	if err != nil && r.closed.Load() {
		return ErrClosed
	}
	return err
}

func (r *lumberjackRotator) reportError(err error) {
	if err == nil || r.onError == nil {
		return
	}
	defer func() { _ = recover() }()
	r.onError(err)
}

// Close 只有第一次调用真正关闭，之后返回 ErrClosed
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	err := r.out.Close()
	if r.lock != nil {
		if lerr := r.lock.Close(); lerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrProcessLock, lerr)
		}
	}
	return err
}

func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	return r.closedOr(r.out.Rotate())
}

func (r *lumberjackRotator) Filename() string {
	return r.out.Filename
}
