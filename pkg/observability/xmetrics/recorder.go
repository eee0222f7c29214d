package xmetrics

import "context"

// Outcome 表示一次操作的结果。
type Outcome string

const (
	// OutcomeOK 表示操作生效。
	OutcomeOK Outcome = "ok"
	// OutcomeRejected 表示预期内的否定结果（键已存在、键不存在、比较值不匹配）。
	OutcomeRejected Outcome = "rejected"
)

// 移除原因。
const (
	ReasonCapacity = "capacity"
	ReasonPurge    = "purge"
	ReasonClear    = "clear"
)

// Recorder 定义存储指标的记录接口。
// 实现必须并发安全。
type Recorder interface {
	// RecordOp 记录一次操作及其结果。
	RecordOp(ctx context.Context, op string, outcome Outcome)

	// RecordEntries 记录条目数变化量。
	RecordEntries(ctx context.Context, delta int64)

	// RecordRemoved 记录非显式删除导致的条目移除（容量淘汰、时间清理、清空）。
	RecordRemoved(ctx context.Context, reason string, n int)
}

// NoopRecorder 是空实现。
type NoopRecorder struct{}

// RecordOp 空实现。
func (NoopRecorder) RecordOp(context.Context, string, Outcome) {}

// RecordEntries 空实现。
func (NoopRecorder) RecordEntries(context.Context, int64) {}

// RecordRemoved 空实现。
func (NoopRecorder) RecordRemoved(context.Context, string, int) {}

// OrNoop 在 r 为 nil 时返回 [NoopRecorder]。
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
