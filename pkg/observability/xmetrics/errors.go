package xmetrics

import "errors"

// NewOTelRecorder 返回的错误。
var (
	// ErrCreateInstrument 表示创建 OTel 指标仪表失败。
	ErrCreateInstrument = errors.New("xmetrics: create instrument failed")
)
