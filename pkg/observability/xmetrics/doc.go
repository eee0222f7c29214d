// Package xmetrics 提供时间戳字典的指标接口。
//
// # 设计理念
//
// 业务代码只依赖 [Recorder] 接口；默认实现 [NoopRecorder] 不做任何事，
// [NewOTelRecorder] 基于 OpenTelemetry metric API，兼容主流可观测栈。
//
// # 使用示例
//
//	rec, err := xmetrics.NewOTelRecorder(
//		xmetrics.WithMeterProvider(mp),
//		xmetrics.WithComponent("session-cache"),
//	)
//	if err != nil {
//		return err
//	}
//	store, err := xtsmap.New[string, int](xtsmap.Bounded(1024), xtsmap.WithRecorder[string, int](rec))
//
// # 指标命名
//
//   - xtsdict.operation.total：操作次数，属性 component / operation / outcome
//   - xtsdict.entries：当前条目数（UpDownCounter），属性 component
//   - xtsdict.removed.total：批量或被动移除的条目数，属性 component / reason
//
// 所有记录方法在存储的临界区之外调用，不会放大锁持有时间。
package xmetrics
