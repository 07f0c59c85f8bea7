package xplugin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/omeyang/xinfer/pkg/config/xconf"
	"github.com/omeyang/xinfer/pkg/host/xhost"
	"github.com/omeyang/xinfer/pkg/middleware/xbodylog"
	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/observability/xsink"
	"github.com/omeyang/xinfer/pkg/observability/xtrace"
	"github.com/omeyang/xinfer/pkg/scan/xartifact"
)

// Plugin 注册结果
type Plugin struct {
	settings Settings
	logger   xlog.Logger
	level    *slog.LevelVar

	sink   *xsink.Reconfigurator
	own    *xlog.Handle
	ownOld []xlog.Sink
	tracer *xtrace.Tracer
	report xtrace.Report

	reconfigured []string
	middleware   func(http.Handler) http.Handler
}

// Register 按配置重定向模块 logger、安装方法追踪并准备 HTTP 中间件
//
// table 为 nil 时使用 xhost.Default。
func Register(ctx context.Context, settings Settings, table *xhost.Table, record *xartifact.Record, opts ...Option) (*Plugin, error) {
	if record == nil {
		return nil, ErrNoRecord
	}
	lvl, err := settings.LogLevel()
	if err != nil {
		return nil, err
	}
	if table == nil {
		table = xhost.Default
	}

	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	p := &Plugin{
		settings: settings,
		logger:   xlog.OrDefault(o.logger),
		level:    new(slog.LevelVar),
	}
	p.level.Set(slog.Level(lvl))

	if err := p.reconfigureLoggers(ctx, table, record, o); err != nil {
		return nil, err
	}
	if settings.TraceMethods {
		p.installTraces(ctx, table, record, o)
	}
	p.middleware = p.buildMiddleware(o)
	return p, nil
}

func (p *Plugin) reconfigureLoggers(ctx context.Context, table *xhost.Table, record *xartifact.Record, o *options) error {
	if p.settings.LogConfigPath != "" {
		p.logger.Warn(ctx, "LOG_CONFIG_PATH is set, skip log sink reconfiguration",
			slog.String("log_config_path", p.settings.LogConfigPath))
		return nil
	}

	sinkOpts := append(p.settings.sinkOptions(),
		xsink.WithTable(table),
		xsink.WithLevelVar(p.level),
		xsink.WithLogger(p.logger),
	)
	sink, err := xsink.New(append(sinkOpts, o.sinkOpts...)...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSettings, err)
	}
	p.sink = sink

	// 未注入 logger 时插件诊断与宿主模块写到同一位置
	if h, ok := p.logger.(*xlog.Handle); ok && o.logger == nil {
		p.own, p.ownOld = h, sink.Apply(h)
	}

	for _, root := range p.settings.RootModules {
		modules := record.LoggersUnder(root)
		if len(modules) == 0 {
			p.logger.Warn(ctx, "unsupported root module",
				slog.String("root", root),
				slog.String("package", record.PackageName))
			continue
		}
		n := sink.ReconfigureAll(ctx, modules)
		p.reconfigured = append(p.reconfigured, modules[:n]...)
	}
	p.logger.Info(ctx, "log sinks reconfigured",
		slog.Int(xlog.KeyCount, len(p.reconfigured)),
		slog.String("file", sink.FilePath()))
	return nil
}

func (p *Plugin) installTraces(ctx context.Context, table *xhost.Table, record *xartifact.Record, o *options) {
	p.tracer = xtrace.NewTracer(table,
		xtrace.WithLogger(p.logger),
		xtrace.WithObserver(o.observer),
	)
	p.report = p.tracer.InstallAll(ctx, record.MethodsWithRequestID)
	p.tracer.Freeze()
	p.logger.Info(ctx, "method traces installed",
		slog.Int("installed", len(p.report.Installed)),
		slog.Int("skipped", len(p.report.Skipped)),
		slog.Int("indeterminate", len(p.report.Indeterminate)))
}

func (p *Plugin) buildMiddleware(o *options) func(http.Handler) http.Handler {
	ridOpts := append([]xtrace.MiddlewareOption{xtrace.WithMiddlewareLogger(p.logger)}, o.ridOpts...)
	requestID := xtrace.RequestIDMiddleware(ridOpts...)
	if !p.settings.LogRequestResponse {
		return requestID
	}

	blOpts := []xbodylog.Option{
		xbodylog.WithObserver(o.observer),
		xbodylog.WithVerbose(p.settings.DebugLogResponse),
	}
	bodyLog := xbodylog.New(append(blOpts, o.bodyLogOpts...)...)
	return func(next http.Handler) http.Handler {
		return requestID(bodyLog.Handler(next))
	}
}

// Middleware 关联 ID 中间件包裹正文日志中间件（LOG_REQUEST_RESPONSE 开启时）
func (p *Plugin) Middleware(next http.Handler) http.Handler {
	return p.middleware(next)
}

// Settings 返回注册时使用的配置
func (p *Plugin) Settings() Settings {
	return p.settings
}

// Report 返回追踪安装结果，未开启追踪时为空
func (p *Plugin) Report() xtrace.Report {
	return p.report
}

// Tracer 返回方法追踪器，未开启追踪或已 Close 时为 nil
func (p *Plugin) Tracer() *xtrace.Tracer {
	return p.tracer
}

// Reconfigured 返回已重定向的模块
func (p *Plugin) Reconfigured() []string {
	return append([]string(nil), p.reconfigured...)
}

// LevelVar 返回 sink 共享的级别，修改后立即生效
func (p *Plugin) LevelVar() *slog.LevelVar {
	return p.level
}

// Watch 监视配置文件，文件中 log_level 变化时热更新共享级别。
// 其余字段的变化需要重新注册才会生效。
func (p *Plugin) Watch(ctx context.Context, cfg xconf.Config, opts ...xconf.WatchOption) (*xconf.Watcher, error) {
	return cfg.Watch(ctx, func(c xconf.Config, err error) {
		if err != nil {
			p.logger.Warn(ctx, "config reload failed, keep current level", xlog.Err(err))
			return
		}
		s, err := SettingsFrom(c)
		if err != nil {
			p.logger.Warn(ctx, "reloaded config is invalid, keep current level", xlog.Err(err))
			return
		}
		lvl, _ := s.LogLevel()
		if old := p.level.Level(); old != slog.Level(lvl) {
			p.level.Set(slog.Level(lvl))
			p.logger.Info(ctx, "log level changed",
				slog.String("from", xlog.Level(old).String()),
				slog.String("to", lvl.String()))
		}
	}, opts...)
}

// Close 还原本插件包装的方法，恢复插件诊断 logger 的原输出并关闭文件 sink
func (p *Plugin) Close() error {
	if p.tracer != nil {
		restored := p.tracer.Uninstall(context.Background())
		p.logger.Info(context.Background(), "method traces removed", slog.Int(xlog.KeyCount, len(restored)))
		p.tracer = nil
	}
	if p.own != nil {
		p.own.SetSinks(p.ownOld...)
		p.own = nil
	}
	if p.sink == nil {
		return nil
	}
	return p.sink.Close()
}
