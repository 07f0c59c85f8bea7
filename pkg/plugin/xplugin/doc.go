// Package xplugin 把扫描产物接入运行中的宿主。
//
// 注册流程：
//
//  1. 对产物中位于 LOG_ROOT_MODULES 之下的每个模块 logger，
//     替换为控制台 + 滚动文件两个 sink（设置 LOG_CONFIG_PATH 时跳过）；
//  2. 开启 TRACE_METHODS_WITH_REQUEST_ID 时，为产物中的每个方法安装调用追踪，
//     并冻结参数索引缓存；
//  3. Plugin.Middleware 组合关联 ID 中间件与（可选的）正文日志中间件。
//
// 注册过程中的任何失败都只告警，不会让宿主进程退出；
// 只有配置本身无效时 Register 才返回错误。
package xplugin
