// Package xmetrics 提供插件的指标接口。
//
// # 设计理念
//
// xmetrics 仅定义最小化接口：Observer/Observation/Attr，
// 业务代码只依赖接口；默认实现基于 OpenTelemetry metric API，
// 未配置 MeterProvider 时使用全局 provider（默认 noop）。
// 插件只产出指标，不产生 trace span。
//
// # 使用示例
//
//	obs, _ := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(mp))
//	o := xmetrics.Start(ctx, obs, xmetrics.Options{
//		Component: "xtrace",
//		Operation: "vllm.engine.LLMEngine:add_request",
//	})
//	defer o.End(xmetrics.Result{Err: err})
//
// # 指标命名
//
//   - xinfer.operation.total
//   - xinfer.operation.duration
//   - xinfer.operation.items（Result.Items > 0 时累加，如流式响应的分块数）
//   - xinfer.operation.active（进行中的操作数，只带 component/operation）
//
// 统一属性：component / operation / status。
package xmetrics
