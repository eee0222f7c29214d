// Package observability 汇集 xtsdict 的可观测性子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，支持 lumberjack 文件轮转
//   - xmetrics: 存储操作指标，基于 OpenTelemetry metric API
package observability
