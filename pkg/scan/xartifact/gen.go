package xartifact

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/omeyang/xinfer/pkg/observability/xtrace"
)

// =============================================================================
// 注册文件生成
//
// 生成的文件把产物中的 logger 与方法登记到 xhost.Table。方法以方法表达式
// (*T).M 登记，接收者为第 0 个参数；logger 以 xlog.Named(模块名) 登记，
// 宿主模块只要通过同名句柄输出日志即可被 xsink 重定向。
// =============================================================================

// DefaultGenPackage 生成文件默认的包名
const DefaultGenPackage = "hostreg"

// GenOption 配置代码生成
type GenOption func(*genConfig)

type genConfig struct {
	pkg       string
	generator string
	source    string
}

// WithGenPackage 设置生成文件的包名
func WithGenPackage(name string) GenOption {
	return func(c *genConfig) {
		c.pkg = name
	}
}

// WithGenerator 设置文件头中的生成器名称
func WithGenerator(name string) GenOption {
	return func(c *genConfig) {
		c.generator = name
	}
}

// WithSource 设置文件头中的来源（通常为产物文件名）
func WithSource(name string) GenOption {
	return func(c *genConfig) {
		c.source = name
	}
}

type genImport struct {
	Alias string
	Path  string
}

type genMethod struct {
	ID     string
	Alias  string
	Type   string
	Method string
	Params string
}

type genData struct {
	Generator string
	Source    string
	Package   string
	Name      string
	Version   string
	Imports   []genImport
	Loggers   []string
	Methods   []genMethod
	Skipped   []string
}

var genTemplate = template.Must(template.New("hostreg").Parse(`// Code generated by {{.Generator}} from {{.Source}}; DO NOT EDIT.

package {{.Package}}

import (
	"errors"

	"github.com/omeyang/xinfer/pkg/host/xhost"
{{- if .Loggers}}
	"github.com/omeyang/xinfer/pkg/observability/xlog"
{{- end}}
{{range .Imports}}
	{{.Alias}} {{printf "%q" .Path}}
{{- end}}
)

// PackageName 扫描的宿主包
const PackageName = {{printf "%q" .Name}}

// PackageVersion 扫描的宿主版本
const PackageVersion = {{printf "%q" .Version}}

// Register 把宿主 logger 与带关联 ID 的方法登记到 t
func Register(t *xhost.Table) error {
	var errs []error
{{- range .Loggers}}
	errs = append(errs, t.RegisterLogger({{printf "%q" .}}, xlog.Named({{printf "%q" .}})))
{{- end}}
{{- range .Methods}}
	errs = append(errs, t.RegisterMethod(xhost.Method{
		ID:     {{printf "%q" .ID}},
		Func:   (*{{.Alias}}.{{.Type}}).{{.Method}},
		Params: {{.Params}},
	}))
{{- end}}
{{- range .Skipped}}
	// skipped: {{.}}
{{- end}}
	return errors.Join(errs...)
}
`))

// GenerateGo 生成宿主注册文件的 Go 源码（已 gofmt）。
// 未导出或缺少参数名的方法不会登记，以注释形式保留在 Register 末尾。
func GenerateGo(r *Record, opts ...GenOption) ([]byte, error) {
	cfg := genConfig{pkg: DefaultGenPackage, generator: "xinferscan", source: r.FileName()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !token.IsIdentifier(cfg.pkg) {
		return nil, fmt.Errorf("%w: invalid package name %q", ErrCodegen, cfg.pkg)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	data := genData{
		Generator: cfg.generator,
		Source:    cfg.source,
		Package:   cfg.pkg,
		Name:      r.PackageName,
		Version:   r.PackageVersion,
		Loggers:   r.ModulesWithLogger,
	}

	aliases := make(map[string]string)
	for _, id := range r.MethodsWithRequestID {
		desc, err := xtrace.ParseMethodID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCodegen, err)
		}
		params := r.Params(id)
		switch {
		case !token.IsExported(desc.Class) || !token.IsExported(desc.Method):
			data.Skipped = append(data.Skipped, id+" (unexported)")
			continue
		case len(params) == 0:
			data.Skipped = append(data.Skipped, id+" (no parameter names)")
			continue
		}
		path := r.ImportPath(desc.Module)
		if _, ok := aliases[path]; !ok {
			aliases[path] = ""
		}
		data.Methods = append(data.Methods, genMethod{
			ID:     id,
			Type:   desc.Class,
			Method: desc.Method,
			Params: stringSliceLit(params),
			Alias:  path,
		})
	}

	paths := make([]string, 0, len(aliases))
	for p := range aliases {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for i, p := range paths {
		aliases[p] = "p" + strconv.Itoa(i)
		data.Imports = append(data.Imports, genImport{Alias: aliases[p], Path: p})
	}
	for i := range data.Methods {
		data.Methods[i].Alias = aliases[data.Methods[i].Alias]
	}

	var buf bytes.Buffer
	if err := genTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodegen, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodegen, err)
	}
	return src, nil
}

func stringSliceLit(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}
