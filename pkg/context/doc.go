// Package context 提供上下文相关的子包。
//
// 子包列表：
//   - xctx: 关联 ID 与执行线程名的注入/提取，以及对应的日志属性
//
// 设计原则：
//   - 所有请求级信息通过 context.Context 传递，不使用全局变量
//   - 读取缺失字段返回零值，不返回错误
package context
