// Package xartifact 定义扫描产物（scan artifact）及其工具：
// 文件名规则、JSON 读写、两个版本之间的差异，以及宿主注册文件的 Go 代码生成。
//
// 产物在构建期由 xinferscan 生成，运行期由 xplugin 只读加载一次。
// JSON 字段名与历史产物保持一致：
//
//	{
//	  "package_name": "vllm",
//	  "package_version": "0.9.1",
//	  "modules_with_logger": ["vllm.engine"],
//	  "methods_with_request_id": ["vllm.engine.Engine:Step"],
//	  "method_params": {"vllm.engine.Engine:Step": ["recv", "requestID"]}
//	}
package xartifact
