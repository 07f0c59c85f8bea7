// Package xconf 基于 koanf 的分层配置加载。
//
// 加载顺序（后者覆盖前者）：
//
//  1. 默认值：带 koanf 标签的结构体（WithDefaults）
//  2. 配置文件：可选的 YAML/JSON 文件（WithFile），按扩展名识别格式
//  3. 环境变量：显式列出的变量名（WithEnv），键名为变量名小写
//
// 空值环境变量视为未设置。Unmarshal 使用 mapstructure 弱类型转换，
// 环境变量中的 "true"、"8388608"、"vllm,sglang" 可以直接解到 bool/int/[]string 字段。
//
// # 并发安全
//
// Reload 重新执行全部加载层后整体替换 koanf 实例；Client 返回的实例是快照，
// 重载后仍可使用但数据过期，需要最新值时应重新调用 Client。
//
// # 配置监视
//
// Watch 基于 fsnotify 监视配置文件所在目录，内置防抖，兼容编辑器的
// "写临时文件再 rename" 保存方式。只有配置了文件的 Config 才能监视。
package xconf
