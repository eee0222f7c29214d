package xtsmap

import "time"

// Entry 是存储中的一条记录：键、值以及最近一次插入或替换的时间戳。
// Entry 不可变，更新会产生新的 Entry。
type Entry[K comparable, V any] struct {
	key       K
	value     V
	timestamp int64
	seq       uint64
}

// Key 返回条目的键。
func (e Entry[K, V]) Key() K { return e.key }

// Value 返回条目的值。
func (e Entry[K, V]) Value() V { return e.value }

// Timestamp 返回 Unix 毫秒时间戳。
func (e Entry[K, V]) Timestamp() int64 { return e.timestamp }

// Time 返回时间戳对应的 time.Time。
func (e Entry[K, V]) Time() time.Time { return time.UnixMilli(e.timestamp) }

// Seq 返回写入序号，同一毫秒内的先后顺序以此为准。
func (e Entry[K, V]) Seq() uint64 { return e.seq }

// Marker 返回条目在顺序索引中的标记。
func (e Entry[K, V]) Marker() TimestampedKey[K] {
	return TimestampedKey[K]{Timestamp: e.timestamp, Seq: e.seq, Key: e.key}
}

// TimestampedKey 是顺序索引中的标记。
type TimestampedKey[K comparable] struct {
	Timestamp int64
	Seq       uint64
	Key       K
}

// Before 报告 t 是否排在 o 之前。
func (t TimestampedKey[K]) Before(o TimestampedKey[K]) bool {
	if t.Timestamp != o.Timestamp {
		return t.Timestamp < o.Timestamp
	}
	return t.Seq < o.Seq
}
