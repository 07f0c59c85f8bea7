package xartifact

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/omeyang/xinfer/pkg/observability/xtrace"
	"github.com/omeyang/xinfer/pkg/scan/xscan"
)

// UnknownVersion 无法确定宿主版本时使用的版本号
const UnknownVersion = "unknown"

// Record 扫描产物，加载后视为只读
type Record struct {
	PackageName          string              `json:"package_name"`
	PackageVersion       string              `json:"package_version"`
	ModulesWithLogger    []string            `json:"modules_with_logger"`
	MethodsWithRequestID []string            `json:"methods_with_request_id"`
	MethodParams         map[string][]string `json:"method_params,omitempty"`
	// Imports 模块名 → Go 导入路径，代码生成时使用
	Imports map[string]string `json:"imports,omitempty"`
}

// NormalizeVersion 版本号规范化："." 与 "-" → "_"，"+" → "___"
func NormalizeVersion(version string) string {
	return strings.NewReplacer(".", "_", "-", "_", "+", "___").Replace(version)
}

// FullName 返回 "<name>__v<规范化版本>"
func FullName(name, version string) string {
	return name + "__v" + NormalizeVersion(version)
}

// FileName 返回产物文件名 "<name>__v<规范化版本>.json"
func FileName(name, version string) string {
	return FullName(name, version) + ".json"
}

// FromScan 由扫描结果构建产物，version 为空时使用 UnknownVersion
func FromScan(name, version string, res *xscan.Result) *Record {
	if version == "" {
		version = UnknownVersion
	}
	r := &Record{PackageName: name, PackageVersion: version}
	if res != nil {
		r.ModulesWithLogger = slices.Clone(res.Loggers)
		r.MethodsWithRequestID = slices.Clone(res.Methods)
		if len(res.Params) > 0 {
			r.MethodParams = make(map[string][]string, len(res.Params))
			for id, params := range res.Params {
				r.MethodParams[id] = slices.Clone(params)
			}
		}
		if len(res.Imports) > 0 {
			r.Imports = maps.Clone(res.Imports)
		}
	}
	r.Normalize()
	return r
}

// FileName 返回本产物的文件名
func (r *Record) FileName() string {
	return FileName(r.PackageName, r.PackageVersion)
}

// Normalize 排序去重，nil 切片替换为空切片，JSON 中始终输出 []
func (r *Record) Normalize() {
	r.ModulesWithLogger = sortedUnique(r.ModulesWithLogger)
	r.MethodsWithRequestID = sortedUnique(r.MethodsWithRequestID)
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	if out == nil {
		return []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Validate 校验包名与方法标识
func (r *Record) Validate() error {
	if r.PackageName == "" {
		return fmt.Errorf("%w: package_name is empty", ErrInvalidRecord)
	}
	for _, m := range r.ModulesWithLogger {
		if m == "" {
			return fmt.Errorf("%w: empty module name", ErrInvalidRecord)
		}
	}
	for _, id := range r.MethodsWithRequestID {
		if _, err := xtrace.ParseMethodID(id); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
	}
	return nil
}

// Params 返回方法的参数名，未记录时返回 nil
func (r *Record) Params(id string) []string {
	return r.MethodParams[id]
}

// ImportPath 返回模块的导入路径。
// 产物未记录时按 "." → "/" 推导，对含点号的 module 路径（如域名）不可靠。
func (r *Record) ImportPath(module string) string {
	if p, ok := r.Imports[module]; ok {
		return p
	}
	return strings.ReplaceAll(module, ".", "/")
}

// LoggersUnder 返回根模块 root 下（含自身）的 logger 模块
func (r *Record) LoggersUnder(root string) []string {
	var out []string
	for _, m := range r.ModulesWithLogger {
		if UnderRoot(m, root) {
			out = append(out, m)
		}
	}
	return out
}

// UnderRoot 判断模块名 name 是否为 root 或其子模块
func UnderRoot(name, root string) bool {
	return name == root || strings.HasPrefix(name, root+".")
}
