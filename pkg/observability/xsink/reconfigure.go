package xsink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/omeyang/xinfer/internal/deploy"
	"github.com/omeyang/xinfer/pkg/host/xhost"
	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/observability/xrotate"
)

// ErrConfiguration 日志输出配置无效或日志目录不可用
var ErrConfiguration = errors.New("xsink: configuration error")

// Sink 名称
const (
	SinkConsole = "console"
	SinkFile    = "file"
)

// Reconfigurator 模块 logger 输出重定向器
//
// 控制台与文件 handler 在首次使用时创建，并由所有模块共享；
// 文件 handler 背后只有一个轮转器，Close 时关闭。
type Reconfigurator struct {
	table       *xhost.Table
	console     io.Writer
	logDir      *deploy.LogDir
	filename    string
	maxBytes    int64
	backups     int
	processLock bool
	pattern     string
	timeLayout  string
	appName     string
	level       *slog.LevelVar
	logger      xlog.Logger

	consoleHandler func() slog.Handler
	fileHandler    func() slog.Handler

	mu       sync.Mutex
	cleanups []func() error
}

// New 创建 Reconfigurator
func New(opts ...Option) (*Reconfigurator, error) {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelInfo)

	r := &Reconfigurator{
		console:  os.Stderr,
		filename: DefaultFilename,
		maxBytes: DefaultMaxBytes,
		backups:  DefaultBackupCount,
		appName:  DefaultAppName,
		level:    lv,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	if r.logDir == nil {
		r.logDir = deploy.Default()
	}
	r.logger = xlog.OrDefault(r.logger)
	r.consoleHandler = sync.OnceValue(r.buildConsole)
	r.fileHandler = sync.OnceValue(r.buildFile)
	return r, nil
}

func (r *Reconfigurator) validate() error {
	if r.filename == "" || filepath.Base(r.filename) != r.filename {
		return fmt.Errorf("%w: filename %q must be a bare file name", ErrConfiguration, r.filename)
	}
	if r.maxBytes <= 0 {
		return fmt.Errorf("%w: max bytes %d", ErrConfiguration, r.maxBytes)
	}
	if r.backups < 1 {
		return fmt.Errorf("%w: backup count %d", ErrConfiguration, r.backups)
	}
	return nil
}

// LevelVar 返回共享的最小级别
func (r *Reconfigurator) LevelVar() *slog.LevelVar {
	return r.level
}

// FilePath 返回文件 sink 的完整路径（不触发目录创建）
func (r *Reconfigurator) FilePath() string {
	return filepath.Join(r.logDir.Path(), r.filename)
}

func (r *Reconfigurator) patternOptions() xlog.PatternOptions {
	return xlog.PatternOptions{
		Template:   r.pattern,
		TimeLayout: r.timeLayout,
		AppName:    r.appName,
	}
}

func (r *Reconfigurator) buildConsole() slog.Handler {
	h, _, err := xlog.New().
		SetOutput(r.console).
		SetLevelVar(r.level).
		SetEnrich(false).
		SetPattern(r.patternOptions()).
		BuildHandler()
	if err != nil {
		// pattern 格式不会失败
		r.logger.Warn(context.Background(), "build console sink failed", xlog.Err(err))
		return nil
	}
	return h
}

// buildFile 文件 sink 不可用时返回 nil，调用方只挂控制台
func (r *Reconfigurator) buildFile() slog.Handler {
	ctx := context.Background()

	dir, err := r.logDir.Ensure()
	if err != nil {
		r.logger.Warn(ctx, "log dir unavailable, file sink disabled",
			xlog.Err(fmt.Errorf("%w: %w", ErrConfiguration, err)))
		return nil
	}

	path := filepath.Join(dir, r.filename)
	h, cleanup, err := xlog.New().
		SetRotation(path,
			xrotate.WithMaxBytes(r.maxBytes),
			xrotate.WithMaxBackups(r.backups),
			xrotate.WithProcessLock(r.processLock),
			xrotate.WithOnError(func(err error) {
				fmt.Fprintf(os.Stderr, "xsink: file sink %s: %v\n", path, err)
			}),
		).
		SetLevelVar(r.level).
		SetEnrich(false).
		SetPattern(r.patternOptions()).
		BuildHandler()
	if err != nil {
		r.logger.Warn(ctx, "open log file failed, file sink disabled",
			slog.String("path", path), xlog.Err(fmt.Errorf("%w: %w", ErrConfiguration, err)))
		return nil
	}

	r.mu.Lock()
	r.cleanups = append(r.cleanups, cleanup)
	r.mu.Unlock()
	return h
}

// Reconfigure 用控制台与文件两个 sink 替换模块 logger 的全部输出
//
// 幂等；失败只告警，不返回错误。
func (r *Reconfigurator) Reconfigure(ctx context.Context, name string) {
	r.Apply(r.resolve(ctx, name))
}

// Apply 直接替换句柄 h 的输出，返回被替换的旧 sink 列表
//
// 用于不在宿主表中的句柄，例如插件自身的诊断 logger。
func (r *Reconfigurator) Apply(h *xlog.Handle) []xlog.Sink {
	sinks := make([]xlog.Sink, 0, 2)
	if ch := r.consoleHandler(); ch != nil {
		sinks = append(sinks, xlog.Sink{Name: SinkConsole, Handler: ch})
	}
	if fh := r.fileHandler(); fh != nil {
		sinks = append(sinks, xlog.Sink{Name: SinkFile, Handler: fh})
	}
	return h.SetSinks(sinks...)
}

// ReconfigureAll 依次重定向 names 中的每个模块，返回处理的数量
//
// ctx 取消时停止，已处理的模块保持新配置。
func (r *Reconfigurator) ReconfigureAll(ctx context.Context, names []string) int {
	n := 0
	for _, name := range names {
		if ctx.Err() != nil {
			r.logger.Warn(ctx, "reconfiguration interrupted",
				slog.Int(xlog.KeyCount, n), xlog.Err(ctx.Err()))
			break
		}
		r.Reconfigure(ctx, name)
		n++
	}
	return n
}

func (r *Reconfigurator) resolve(ctx context.Context, name string) *xlog.Handle {
	if r.table != nil {
		if h, ok := r.table.Logger(name); ok {
			return h
		}
		r.logger.Warn(ctx, "module logger not registered in host table, using named logger",
			slog.String(xlog.KeyLogger, name))
	}
	return xlog.Named(name)
}

// Close 关闭文件 sink，之后不应再调用 Reconfigure
func (r *Reconfigurator) Close() error {
	r.mu.Lock()
	cleanups := r.cleanups
	r.cleanups = nil
	r.mu.Unlock()

	var errs []error
	for _, c := range cleanups {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
