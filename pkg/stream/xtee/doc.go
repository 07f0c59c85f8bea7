// Package xtee 在不改变客户端所见字节的前提下旁路观察 HTTP 响应体。
//
// Writer 包装 http.ResponseWriter：每个块先写给真实客户端，再把副本投递到
// 有界 channel，由一个观察 goroutine 按顺序消费。channel 满时丢弃副本并把
// 本次观察标记为 lossy，不阻塞客户端。观察 goroutine 由 errgroup 管理，
// 请求 context 取消后停止。
//
// 调用方在 handler 返回后调用 Close，等待观察者处理完已投递的块。
package xtee
