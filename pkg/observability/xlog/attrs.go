package xlog

import "log/slog"

// 常用属性 key。
const (
	KeyError     = "error"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyCount     = "count"
	KeyKey       = "key"
	KeyTimestamp = "ts"
)

// Err 创建错误属性。err 为 nil 时返回空属性（会被 slog 忽略）。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 创建计数属性
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Key 创建条目键属性，非字符串键通过 slog.Any 输出。
func Key(k any) slog.Attr {
	if s, ok := k.(string); ok {
		return slog.String(KeyKey, s)
	}
	return slog.Any(KeyKey, k)
}

// Timestamp 创建毫秒时间戳属性
func Timestamp(ms int64) slog.Attr {
	return slog.Int64(KeyTimestamp, ms)
}
