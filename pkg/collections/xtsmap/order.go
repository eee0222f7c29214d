package xtsmap

import list "github.com/bahlo/generic-list-go"

// orderIndex 按 (Timestamp, Seq) 升序记录存活条目，头部最旧。
// 所有方法只能在 Store.mu 内调用。
type orderIndex[K comparable] struct {
	l *list.List[TimestampedKey[K]]
}

func newOrderIndex[K comparable]() *orderIndex[K] {
	return &orderIndex[K]{l: list.New[TimestampedKey[K]]()}
}

// append 在尾部追加标记并返回句柄。
func (o *orderIndex[K]) append(tk TimestampedKey[K]) *list.Element[TimestampedKey[K]] {
	return o.l.PushBack(tk)
}

func (o *orderIndex[K]) remove(m *list.Element[TimestampedKey[K]]) {
	o.l.Remove(m)
}

func (o *orderIndex[K]) oldest() *list.Element[TimestampedKey[K]] {
	return o.l.Front()
}

func (o *orderIndex[K]) len() int {
	return o.l.Len()
}

func (o *orderIndex[K]) reset() {
	o.l.Init()
}

// before 从头部扫描，返回时间戳严格小于 cutoff 的标记，遇到第一个 >= cutoff 即停止。
func (o *orderIndex[K]) before(cutoff int64) []*list.Element[TimestampedKey[K]] {
	var out []*list.Element[TimestampedKey[K]]
	for m := o.l.Front(); m != nil; m = m.Next() {
		if m.Value.Timestamp >= cutoff {
			break
		}
		out = append(out, m)
	}
	return out
}

func (o *orderIndex[K]) snapshot() []TimestampedKey[K] {
	out := make([]TimestampedKey[K], 0, o.l.Len())
	for m := o.l.Front(); m != nil; m = m.Next() {
		out = append(out, m.Value)
	}
	return out
}

func (o *orderIndex[K]) keys() []K {
	out := make([]K, 0, o.l.Len())
	for m := o.l.Front(); m != nil; m = m.Next() {
		out = append(out, m.Value.Key)
	}
	return out
}
