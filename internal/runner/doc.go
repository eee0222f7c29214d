// Package runner 基于 errgroup 协调 xtsctl 内部多个长期运行任务的启动与关闭。
//
// 任一任务返回错误、主任务结束或收到监听的信号时，其余任务都会收到取消。
// Wait 会保留显式的取消原因，例如信号退出时返回 *SignalError。
package runner
