package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// koanfConfig Config 的 koanf 实现
type koanfConfig struct {
	opts   *Options
	format Format
	env    map[string]struct{}

	k        atomic.Pointer[koanf.Koanf]
	reloadMu sync.Mutex // 并发 Reload 时后完成的不会被先开始的覆盖
}

// New 按 默认值 → 文件 → 环境变量 的顺序加载配置
func New(opts ...Option) (Config, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	c := &koanfConfig{opts: o, env: make(map[string]struct{}, len(o.Env))}
	for _, name := range o.Env {
		c.env[name] = struct{}{}
	}
	if o.File != "" {
		format, err := detectFormat(o.File)
		if err != nil {
			return nil, err
		}
		c.format = format
	}

	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// load 执行全部加载层，返回新的 koanf 实例
func (c *koanfConfig) load() (*koanf.Koanf, error) {
	k := koanf.New(c.opts.Delim)

	if c.opts.Defaults != nil {
		if err := k.Load(structs.Provider(c.opts.Defaults, c.opts.Tag), nil); err != nil {
			return nil, fmt.Errorf("%w: defaults: %w", ErrLoadFailed, err)
		}
	}

	if c.opts.File != "" {
		data, err := os.ReadFile(c.opts.File)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
		}
		if err := loadData(k, data, c.format); err != nil {
			return nil, err
		}
	}

	if len(c.env) > 0 {
		if err := k.Load(env.ProviderWithValue("", c.opts.Delim, c.envValue), nil); err != nil {
			return nil, fmt.Errorf("%w: env: %w", ErrLoadFailed, err)
		}
	}
	return k, nil
}

// envValue 只保留白名单中的非空变量，键名转小写
func (c *koanfConfig) envValue(key, value string) (string, any) {
	if _, ok := c.env[key]; !ok || value == "" {
		return "", nil
	}
	return strings.ToLower(key), value
}

func (c *koanfConfig) Client() *koanf.Koanf {
	return c.k.Load()
}

func (c *koanfConfig) Unmarshal(path string, target any) error {
	k := c.Client()
	if err := k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.Tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

func (c *koanfConfig) Reload() error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	k, err := c.load()
	if err != nil {
		return err
	}
	c.k.Store(k)
	return nil
}

func (c *koanfConfig) Path() string {
	return c.opts.File
}

func (c *koanfConfig) Format() Format {
	return c.format
}

// parsers 按扩展名选择解析器
var parsers = map[string]struct {
	format Format
	parser func() koanf.Parser
}{
	".yaml": {FormatYAML, func() koanf.Parser { return yaml.Parser() }},
	".yml":  {FormatYAML, func() koanf.Parser { return yaml.Parser() }},
	".json": {FormatJSON, func() koanf.Parser { return json.Parser() }},
}

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if p, ok := parsers[ext]; ok {
		return p.format, nil
	}
	return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
}

// loadData 空文件视为没有配置项
func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	for _, p := range parsers {
		if p.format == format {
			parser = p.parser()
			break
		}
	}
	if parser == nil {
		return ErrUnsupportedFormat
	}
	if len(data) == 0 {
		return nil
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
