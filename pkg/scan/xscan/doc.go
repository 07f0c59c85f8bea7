// Package xscan 离线扫描宿主 Go 源码，找出声明了模块 logger 的包
// 以及带关联 ID 参数的方法。
//
// 扫描基于 golang.org/x/tools/go/packages 的类型信息，不执行宿主代码：
//
//	s := xscan.New(xscan.WithLogger(l))
//	res, err := s.Scan(ctx, "/src/vllm")
//
// 输出标识与运行期一致：包路径以 "." 连接作为模块名，方法标识为
// "<模块名>.<类型>:<方法>"。
//
// 设计决策: 单个包加载或类型检查失败时只告警并跳过其子树，
// 其余包照常扫描；只有根目录完全无法加载时才返回 ErrLoad。
package xscan
