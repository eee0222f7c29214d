package xobsmap

import "github.com/omeyang/xtsdict/pkg/collections/xtsmap"

// AddEvent 表示新条目被插入。
type AddEvent[K comparable, V any] struct {
	Entry xtsmap.Entry[K, V]
}

// RemoveEvent 表示条目被删除或因容量被淘汰。
type RemoveEvent[K comparable, V any] struct {
	Entry xtsmap.Entry[K, V]
}

// UpdateEvent 表示条目被替换。New 的时间戳总是不早于 Old。
type UpdateEvent[K comparable, V any] struct {
	Old xtsmap.Entry[K, V]
	New xtsmap.Entry[K, V]
}

// 通道名，用于日志。
const (
	channelAdd         = "add"
	channelRemove      = "remove"
	channelUpdate      = "update"
	channelCountChange = "count_change"
	channelClear       = "clear"
)
