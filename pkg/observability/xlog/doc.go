// Package xlog 基于 log/slog 的结构化日志库。
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，后续 Set 操作被跳过）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xtsctl.log").
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// 未配置日志的组件使用 [Discard]，不产生任何输出。
//
// # 接口约定
//
// 所有方法第一个参数为 context.Context，属性只接受 slog.Attr。
// 派生 logger（With/WithGroup）共享父级的 LevelVar，[Leveler.SetLevel] 对整棵派生树生效。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)。
// Level 实现 encoding.TextMarshaler/TextUnmarshaler，可直接出现在 koanf 配置结构体中。
//
// # 便捷属性
//
// [Err]、[Component]、[Operation]、[Count]、[Key]、[Timestamp]。
package xlog
