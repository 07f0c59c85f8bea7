// Package xhost 提供宿主推理服务的静态符号表。
//
// 宿主各模块在构建期生成的注册文件中把 logger 句柄和可追踪方法登记到 Table，
// 插件通过模块名或方法标识在运行时定位它们，不依赖运行时反射遍历包。
//
// 方法以方法表达式登记（如 (*Scheduler).Schedule），接收者位于参数 0，
// Params 按相同顺序给出参数名，接收者记为 "recv"。
//
// 追踪器通过 Replace 把包装后的函数写回原槽位；之后经 Call 或 Lookup
// 调用到的都是包装后的版本，标识、参数名和函数类型保持不变。
// 槽位记住第一次被替换前的函数（Method.Original）：Wrap 拒绝再次包装，
// Restore 把槽位还原。
package xhost
