package xscan

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/observability/xmetrics"
	"github.com/omeyang/xinfer/pkg/observability/xtrace"
)

// loadMode 扫描所需的最小加载模式
const loadMode = packages.NeedName | packages.NeedTypes | packages.NeedSyntax |
	packages.NeedTypesInfo | packages.NeedModule

// Result 一次扫描的结果，切片均升序去重
type Result struct {
	// ModulePath 根目录所属 Go module 路径
	ModulePath string
	// ModuleVersion module 版本，主 module 通常为空
	ModuleVersion string
	// Loggers 声明了模块 logger 的模块名
	Loggers []string
	// Methods 带关联 ID 参数的方法标识
	Methods []string
	// Params 方法标识 → 参数名（接收者为 "recv"）
	Params map[string][]string
	// Imports 模块名 → 包导入路径，只包含出现在 Loggers/Methods 中的模块
	Imports map[string]string
	// Skipped 因错误被跳过的包路径
	Skipped []string
	// Packages 实际扫描的包数
	Packages int
}

// Scanner 宿主源码扫描器，可并发复用
type Scanner struct {
	logger       xlog.Logger
	observer     xmetrics.Observer
	loggerTypes  map[string]struct{}
	ignoreInit   bool
	exportedOnly bool
	buildFlags   []string
	env          []string
}

// New 创建扫描器
func New(opts ...Option) *Scanner {
	s := &Scanner{ignoreInit: true, exportedOnly: true}
	WithLoggerTypes(DefaultLoggerTypes...)(s)
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = xlog.OrDefault(s.logger)
	return s
}

// ModuleName 包路径转模块名："a/b/c" → "a.b.c"
func ModuleName(pkgPath string) string {
	return strings.ReplaceAll(pkgPath, "/", ".")
}

// Loggers 返回 root 下声明了模块 logger 的模块名
func (s *Scanner) Loggers(ctx context.Context, root string) ([]string, error) {
	res, err := s.Scan(ctx, root)
	if err != nil {
		return nil, err
	}
	return res.Loggers, nil
}

// Methods 返回 root 下带关联 ID 参数的方法标识
func (s *Scanner) Methods(ctx context.Context, root string) ([]string, error) {
	res, err := s.Scan(ctx, root)
	if err != nil {
		return nil, err
	}
	return res.Methods, nil
}

// Scan 一次加载同时计算 logger 与方法
func (s *Scanner) Scan(ctx context.Context, root string) (res *Result, err error) {
	obs := xmetrics.Start(ctx, s.observer, xmetrics.Options{Component: "xscan", Operation: "scan"})
	defer func() {
		r := xmetrics.Result{Err: err}
		if res != nil {
			r.Items = int64(res.Packages)
		}
		obs.End(r)
	}()

	pkgs, err := s.load(ctx, root)
	if err != nil {
		return nil, err
	}

	res = &Result{Params: make(map[string][]string), Imports: make(map[string]string)}
	var failed []string
	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.ModulePath == "" && pkg.Module != nil {
			res.ModulePath = pkg.Module.Path
			res.ModuleVersion = pkg.Module.Version
		}
		if underAny(pkg.PkgPath, failed) {
			res.Skipped = append(res.Skipped, pkg.PkgPath)
			continue
		}
		if len(pkg.Errors) > 0 || pkg.Types == nil {
			failed = append(failed, pkg.PkgPath)
			res.Skipped = append(res.Skipped, pkg.PkgPath)
			s.logger.Warn(ctx, "skip package with errors",
				slog.String("package", pkg.PkgPath),
				xlog.Err(discoveryError(pkg)))
			continue
		}

		res.Packages++
		module := ModuleName(pkg.PkgPath)
		if s.hasLogger(pkg.Types) {
			res.Loggers = append(res.Loggers, module)
			res.Imports[module] = pkg.PkgPath
		}
		for id, params := range s.methods(ctx, module, pkg.Types) {
			res.Methods = append(res.Methods, id)
			res.Params[id] = params
			res.Imports[module] = pkg.PkgPath
		}
	}

	slices.Sort(res.Loggers)
	res.Loggers = slices.Compact(res.Loggers)
	slices.Sort(res.Methods)
	res.Methods = slices.Compact(res.Methods)
	slices.Sort(res.Skipped)
	return res, nil
}

func (s *Scanner) load(ctx context.Context, root string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        root,
		Env:        s.env,
		BuildFlags: s.buildFlags,
		Fset:       token.NewFileSet(),
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, root, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w: %s: no packages", ErrLoad, root)
	}
	// 目录本身不存在时 go list 报告为单个无路径的错误包
	if len(pkgs) == 1 && pkgs[0].PkgPath == "" && len(pkgs[0].Errors) > 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrLoad, root, pkgs[0].Errors[0].Msg)
	}

	slices.SortFunc(pkgs, func(a, b *packages.Package) int {
		return strings.Compare(a.PkgPath, b.PkgPath)
	})
	return pkgs, nil
}

// underAny 判断 path 是否位于某个失败包的子树中
func underAny(path string, roots []string) bool {
	for _, r := range roots {
		if path == r || strings.HasPrefix(path, r+"/") {
			return true
		}
	}
	return false
}

func discoveryError(pkg *packages.Package) error {
	errs := make([]error, 0, len(pkg.Errors))
	for _, e := range pkg.Errors {
		errs = append(errs, errors.New(e.Error()))
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no type information"))
	}
	return fmt.Errorf("%w: %s: %w", ErrDiscovery, pkg.PkgPath, errors.Join(errs...))
}

// =============================================================================
// Logger 识别
// =============================================================================

func (s *Scanner) hasLogger(pkg *types.Package) bool {
	v, ok := pkg.Scope().Lookup(LoggerVarName).(*types.Var)
	if !ok {
		return false
	}
	_, ok = s.loggerTypes[types.TypeString(v.Type(), nil)]
	return ok
}

// =============================================================================
// 方法识别
// =============================================================================

// methods 返回包内声明的、带关联 ID 参数的方法及其参数名
func (s *Scanner) methods(ctx context.Context, module string, pkg *types.Package) map[string][]string {
	out := make(map[string][]string)
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() || tn.Pkg() != pkg {
			continue
		}
		if s.exportedOnly && !tn.Exported() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		if named.TypeParams().Len() > 0 {
			s.logger.Debug(ctx, "skip generic type", slog.String("type", module+"."+name))
			continue
		}
		for m := range named.Methods() {
			if m.Pkg() != pkg || (s.exportedOnly && !m.Exported()) {
				continue
			}
			if s.ignoreInit && m.Name() == "Init" {
				continue
			}
			params, ok := correlated(m)
			if !ok {
				continue
			}
			out[module+"."+name+":"+m.Name()] = params
		}
	}
	return out
}

// correlated 返回方法参数名（接收者在前，记为 "recv"），
// 不含关联 ID 参数时返回 false。
func correlated(m *types.Func) ([]string, bool) {
	sig, ok := m.Type().(*types.Signature)
	if !ok {
		return nil, false
	}
	params := make([]string, 0, sig.Params().Len()+1)
	params = append(params, "recv")
	found := false
	for i := range sig.Params().Len() {
		name := sig.Params().At(i).Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}
		if xtrace.IsCorrelationParam(name) {
			found = true
		}
		params = append(params, name)
	}
	return params, found
}
