// Package deploy 提供部署环境相关的共享定义。
//
// 当前包含日志目录的探测与一次性创建（[LogDir]），供 xsink 的文件 sink 使用。
// 推理服务容器通常挂载 /workspace 或 /vllm-workspace 作为持久卷，
// 日志写到挂载卷下的 logs 目录；都不存在时退化到系统临时目录。
package deploy
