package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 重载回调，err 非 nil 表示重载或监视失败（旧配置保持不变）
type WatchCallback func(cfg Config, err error)

// WatchOption 监视器选项
type WatchOption func(*Watcher)

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 配置文件监视器
type Watcher struct {
	cfg      *koanfConfig
	fsw      *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	filename string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	timer *time.Timer

	stopOnce sync.Once
	stopErr  error
}

func (c *koanfConfig) Watch(ctx context.Context, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if c.opts.File == "" {
		return nil, ErrNotWatchable
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	// 监视目录而不是文件：rename 保存会让文件级监视失效
	dir := filepath.Dir(c.opts.File)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch directory %s: %w", dir, err), fsw.Close())
	}

	w := &Watcher{
		cfg:      c,
		fsw:      fsw,
		callback: callback,
		debounce: DefaultDebounce,
		filename: filepath.Base(c.opts.File),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.ctx, w.cancel = context.WithCancel(ctx)

	go w.run()
	return w, nil
}

// Stop 停止监视；返回后不会再开始新的回调。可重复调用，
// 在回调中调用也不会死锁。需要等待监视循环退出时使用 Done。
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		w.cancel()
		w.stopErr = w.fsw.Close()

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.mu.Unlock()
	})
	return w.stopErr
}

// Done 监视循环退出后关闭
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.notify(fmt.Errorf("xconf: watch error: %w", err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Base(ev.Name) != w.filename {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if w.ctx.Err() != nil {
			return
		}
		w.notify(w.cfg.Reload())
	})
}

func (w *Watcher) notify(err error) {
	if w.callback == nil || w.ctx.Err() != nil {
		return
	}
	w.callback(w.cfg, err)
}
