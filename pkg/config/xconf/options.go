package xconf

import "strings"

// Options 配置加载选项
type Options struct {
	// Delim 键分隔符，默认 "."
	Delim string

	// Tag 结构体标签名，默认 "koanf"
	Tag string

	// Defaults 默认值结构体（按 Tag 标签取键），nil 表示无默认值
	Defaults any

	// File 配置文件路径，空表示不读文件
	File string

	// Env 参与覆盖的环境变量名，键名为其小写形式
	Env []string
}

// Option 配置选项函数
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Delim: ".",
		Tag:   "koanf",
	}
}

// WithDelim 设置键分隔符
func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

// WithTag 设置结构体标签名
func WithTag(tag string) Option {
	return func(o *Options) {
		if tag != "" {
			o.Tag = tag
		}
	}
}

// WithDefaults 设置默认值结构体
func WithDefaults(v any) Option {
	return func(o *Options) {
		o.Defaults = v
	}
}

// WithFile 设置配置文件路径
func WithFile(path string) Option {
	return func(o *Options) {
		o.File = strings.TrimSpace(path)
	}
}

// WithEnv 追加参与覆盖的环境变量名
func WithEnv(names ...string) Option {
	return func(o *Options) {
		o.Env = append(o.Env, names...)
	}
}
