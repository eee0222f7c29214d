package xtsmap

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	list "github.com/bahlo/generic-list-go"

	"github.com/omeyang/xtsdict/internal/shardmap"
	"github.com/omeyang/xtsdict/pkg/observability/xlog"
	"github.com/omeyang/xtsdict/pkg/observability/xmetrics"
)

// 操作名，用于日志、指标与 InvariantError。
const (
	opNew              = "New"
	opTryAdd           = "try_add"
	opTryUpdate        = "try_update"
	opCompareAndUpdate = "compare_and_update"
	opAddOrUpdate      = "add_or_update"
	opTryRemove        = "try_remove"
	opClear            = "clear"
	opClearWithCap     = "ClearWithCapacity"
	opClearBefore      = "clear_before"
	opCheck            = "check_consistency"
)

// slot 是 map 中的槽位：当前条目及其顺序索引句柄。
// elem 只能在 Store.mu 内访问。
type slot[K comparable, V any] struct {
	entry Entry[K, V]
	elem  *list.Element[TimestampedKey[K]]
}

// Store 是带时间戳、按触碰顺序排列、容量有界的并发字典。
// 必须通过 [New] 创建，零值不可用。所有方法都是并发安全的。
type Store[K comparable, V any] struct {
	mu       sync.Mutex
	capacity atomic.Int64 // 见 Capacity.encode
	entries  *shardmap.Map[K, slot[K, V]]
	order    *orderIndex[K]
	stamp    stamper

	normalize func(K) K
	equal     func(a, b V) bool
	logger    xlog.Logger
	recorder  xmetrics.Recorder
	listener  Listener[K, V]
}

// New 创建存储。
//
// capacity 非法时返回包装 [ErrInvalidCapacity] 的 [*ArgumentError]；
// 种子数据超过容量返回 [ErrCapacityExceeded]；种子键归一化后重复返回 [ErrDuplicateKeyInSeed]；
// 分片数非法返回 [ErrInvalidShardCount]。
func New[K comparable, V any](capacity Capacity, opts ...Option[K, V]) (*Store[K, V], error) {
	if err := capacity.Validate(); err != nil {
		return nil, &ArgumentError{Op: opNew, Param: "capacity", Value: capacity, Err: err}
	}

	o := defaultOptions[K, V]()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if limit, ok := capacity.Limit(); ok && len(o.seed) > limit {
		return nil, &ArgumentError{Op: opNew, Param: "seed", Value: len(o.seed), Err: ErrCapacityExceeded}
	}

	entries, err := shardmap.New[K, slot[K, V]](o.shardCount)
	if err != nil {
		return nil, &ArgumentError{Op: opNew, Param: "shardCount", Value: o.shardCount, Err: ErrInvalidShardCount}
	}

	s := &Store[K, V]{
		entries:   entries,
		order:     newOrderIndex[K](),
		stamp:     stamper{clock: o.clock},
		normalize: o.normalize,
		equal:     o.equal,
		logger:    o.logger.With(xlog.Component(ComponentName)),
		recorder:  o.recorder,
		listener:  o.listener,
	}
	s.capacity.Store(capacity.encode())

	if len(o.seed) > 0 {
		if err := s.seed(o.seed); err != nil {
			return nil, err
		}
		s.recorder.RecordEntries(context.Background(), int64(len(o.seed)))
	}
	return s, nil
}

// seed 写入初始数据，不触发监听器。
func (s *Store[K, V]) seed(data map[K]V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range data {
		key := s.key(k)
		if s.entries.Contains(key) {
			return &ArgumentError{Op: opNew, Param: "seed", Value: key, Err: ErrDuplicateKeyInSeed}
		}
		s.insertLocked(opNew, key, v)
	}
	return nil
}

func (s *Store[K, V]) key(k K) K {
	if s.normalize == nil {
		return k
	}
	return s.normalize(k)
}

// Capacity 返回当前容量。
func (s *Store[K, V]) Capacity() Capacity {
	return decodeCapacity(s.capacity.Load())
}

// Len 返回当前条目数。
func (s *Store[K, V]) Len() int {
	return s.entries.Len()
}

// TryAdd 在键不存在时插入，返回是否插入。
//
// 键已存在时返回 false 且没有任何副作用。存储已满时，在同一临界区内先淘汰
// 最旧的条目再插入新条目，任何并发读取都不会观察到只完成了其中一步的状态。
func (s *Store[K, V]) TryAdd(key K, value V) bool {
	key = s.key(key)
	if s.entries.Contains(key) {
		s.recorder.RecordOp(context.Background(), opTryAdd, xmetrics.OutcomeRejected)
		return false
	}
	n, ok := s.tryAdd(key, value)
	if !ok {
		s.recorder.RecordOp(context.Background(), opTryAdd, xmetrics.OutcomeRejected)
		return false
	}
	s.dispatch(n)
	return true
}

func (s *Store[K, V]) tryAdd(key K, value V) (*notice[K, V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 快速检查与加锁之间可能有并发插入
	if s.entries.Contains(key) {
		return nil, false
	}
	n := &notice[K, V]{op: opTryAdd, before: s.entries.Len()}
	e := s.addLocked(n, key, value)
	n.added = &e
	n.after = s.entries.Len()
	return n, true
}

// TryUpdate 在键存在时替换值并刷新时间戳，返回是否替换。
// 更新会把键移动到顺序索引尾部，不检查容量。
func (s *Store[K, V]) TryUpdate(key K, value V) bool {
	return s.update(opTryUpdate, s.key(key), value, nil)
}

// CompareAndUpdate 在键存在且当前值等于 comparison 时替换值，返回是否替换。
// 值比较使用 [WithValueEqual] 设置的函数（默认 reflect.DeepEqual）。
func (s *Store[K, V]) CompareAndUpdate(key K, value, comparison V) bool {
	return s.update(opCompareAndUpdate, s.key(key), value, &comparison)
}

func (s *Store[K, V]) update(op string, key K, value V, comparison *V) bool {
	n, ok := s.updateLocked(op, key, value, comparison)
	if !ok {
		s.recorder.RecordOp(context.Background(), op, xmetrics.OutcomeRejected)
		return false
	}
	s.dispatch(n)
	return true
}

func (s *Store[K, V]) updateLocked(op string, key K, value V, comparison *V) (*notice[K, V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries.Load(key)
	if !ok {
		return nil, false
	}
	if comparison != nil && !s.equal(cur.entry.value, *comparison) {
		return nil, false
	}
	old, updated := s.replaceLocked(op, key, cur, value)
	size := s.entries.Len()
	return &notice[K, V]{op: op, oldOne: &old, newOne: &updated, before: size, after: size}, true
}

// AddOrUpdate 无条件写入：键不存在时走插入路径（可能淘汰最旧条目），
// 存在时走更新路径。返回写入后的条目，可用于读取实际时间戳。
func (s *Store[K, V]) AddOrUpdate(key K, value V) Entry[K, V] {
	key = s.key(key)
	n, e := s.addOrUpdateLocked(key, value)
	s.dispatch(n)
	return e
}

func (s *Store[K, V]) addOrUpdateLocked(key K, value V) (*notice[K, V], Entry[K, V]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &notice[K, V]{op: opAddOrUpdate, before: s.entries.Len()}
	if cur, ok := s.entries.Load(key); ok {
		old, updated := s.replaceLocked(opAddOrUpdate, key, cur, value)
		n.oldOne, n.newOne = &old, &updated
		n.after = n.before
		return n, updated
	}
	e := s.addLocked(n, key, value)
	n.added = &e
	n.after = s.entries.Len()
	return n, e
}

// TryRemove 删除键，返回被删除的值以及键是否存在。
func (s *Store[K, V]) TryRemove(key K) (V, bool) {
	key = s.key(key)
	var zero V
	if !s.entries.Contains(key) {
		s.recorder.RecordOp(context.Background(), opTryRemove, xmetrics.OutcomeRejected)
		return zero, false
	}
	n, ok := s.removeLocked(key)
	if !ok {
		s.recorder.RecordOp(context.Background(), opTryRemove, xmetrics.OutcomeRejected)
		return zero, false
	}
	s.dispatch(n)
	return n.removed[0].value, true
}

func (s *Store[K, V]) removeLocked(key K) (*notice[K, V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.entries.Len()
	cur, ok := s.entries.Delete(key)
	if !ok {
		return nil, false
	}
	s.order.remove(cur.elem)
	return &notice[K, V]{
		op:      opTryRemove,
		removed: []Entry[K, V]{cur.entry},
		before:  before,
		after:   s.entries.Len(),
	}, true
}

// Get 返回键对应的值。只读取 map，不获取顺序锁。
func (s *Store[K, V]) Get(key K) (V, bool) {
	cur, ok := s.entries.Load(s.key(key))
	if !ok {
		var zero V
		return zero, false
	}
	return cur.entry.value, true
}

// GetEntry 返回键对应的完整条目。只读取 map，不获取顺序锁。
func (s *Store[K, V]) GetEntry(key K) (Entry[K, V], bool) {
	cur, ok := s.entries.Load(s.key(key))
	return cur.entry, ok
}

// Contains 报告键是否存在。
func (s *Store[K, V]) Contains(key K) bool {
	return s.entries.Contains(s.key(key))
}

// Clear 清空存储，返回清空前的条目数。
// 即使存储为空，监听器也会收到 OnClear(0)。
func (s *Store[K, V]) Clear() int {
	n := s.clearLocked(opClear, nil)
	s.dispatch(n)
	return n.cleared
}

// ClearWithCapacity 清空存储并设置新的容量。
// capacity 非法时返回 [*ArgumentError]，存储保持不变。
func (s *Store[K, V]) ClearWithCapacity(capacity Capacity) error {
	if err := capacity.Validate(); err != nil {
		return &ArgumentError{Op: opClearWithCap, Param: "capacity", Value: capacity, Err: err}
	}
	n := s.clearLocked(opClear, &capacity)
	s.dispatch(n)
	return nil
}

func (s *Store[K, V]) clearLocked(op string, capacity *Capacity) *notice[K, V] {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.entries.Clear()
	s.order.reset()
	if capacity != nil {
		s.capacity.Store(capacity.encode())
	}
	return &notice[K, V]{op: op, clear: true, cleared: removed, before: removed, after: 0}
}

// ClearBeforeTime 移除时间戳早于 t 的条目，等价于 ClearBefore(t.UnixMilli())。
func (s *Store[K, V]) ClearBeforeTime(t time.Time) int {
	return s.ClearBefore(t.UnixMilli())
}

// ClearBefore 移除时间戳严格小于 cutoff（Unix 毫秒）的条目，返回实际移除的数量。
//
// 顺序索引有序，扫描从头部开始，遇到第一个 >= cutoff 的标记即停止。
// 即使没有条目被移除，监听器也会收到 OnClear(0)。
func (s *Store[K, V]) ClearBefore(cutoff int64) int {
	n, orphans := s.clearBeforeLocked(cutoff)
	if orphans > 0 {
		s.logger.Warn(context.Background(), "dropped orphaned order markers",
			xlog.Operation(opClearBefore), xlog.Count(orphans), xlog.Timestamp(cutoff))
	}
	if n.cleared > 0 {
		s.logger.Debug(context.Background(), "purged entries",
			xlog.Count(n.cleared), xlog.Timestamp(cutoff))
	}
	s.dispatch(n)
	return n.cleared
}

func (s *Store[K, V]) clearBeforeLocked(cutoff int64) (*notice[K, V], int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &notice[K, V]{op: opClearBefore, clear: true, before: s.entries.Len()}
	orphans := 0
	for _, m := range s.order.before(cutoff) {
		key := m.Value.Key
		cur, ok := s.entries.Load(key)
		// 槽位缺失或指向其他标记时，只丢弃该标记，不计入移除数
		if !ok || cur.elem != m {
			s.order.remove(m)
			orphans++
			continue
		}
		s.entries.Delete(key)
		s.order.remove(m)
		n.cleared++
	}
	n.after = s.entries.Len()
	return n, orphans
}

// Keys 返回当前所有键的快照，不保证顺序。
func (s *Store[K, V]) Keys() []K {
	return s.entries.Keys()
}

// AddedKeys 按最早触碰到最近触碰的顺序返回键。
func (s *Store[K, V]) AddedKeys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.keys()
}

// TimestampedKeys 按顺序索引返回带时间戳的标记，按 (Timestamp, Seq) 升序。
func (s *Store[K, V]) TimestampedKeys() []TimestampedKey[K] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.snapshot()
}

// Oldest 返回最旧的标记，即下一次容量淘汰的对象。存储为空时返回 false。
func (s *Store[K, V]) Oldest() (TimestampedKey[K], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.order.oldest()
	if m == nil {
		return TimestampedKey[K]{}, false
	}
	return m.Value, true
}

// CheckConsistency 校验 map 与顺序索引的条目数一致，不一致时 panic [*InvariantError]。
func (s *Store[K, V]) CheckConsistency() {
	s.mu.Lock()
	mapLen, orderLen := s.entries.Len(), s.order.len()
	s.mu.Unlock()
	if mapLen != orderLen {
		s.fatal(opCheck, fmt.Sprintf("order.len=%d, entries.len=%d", orderLen, mapLen))
	}
}

// addLocked 插入新条目，必须持有 s.mu 且键不存在。
// 有界且已满时，淘汰最旧条目与写入新条目通过一次 [shardmap.Map.Replace] 完成，
// 无锁读取（Len、Get、Contains）观察不到只淘汰未插入的中间状态。
func (s *Store[K, V]) addLocked(n *notice[K, V], key K, value V) Entry[K, V] {
	limit, bounded := decodeCapacity(s.capacity.Load()).Limit()
	if !bounded || s.order.len() < limit {
		return s.insertLocked(n.op, key, value)
	}
	m := s.order.oldest()
	if m == nil {
		s.fatalLocked(n.op, fmt.Sprintf("store full (limit=%d) but order index is empty", limit))
	}
	victimKey := m.Value.Key

	ts, seq := s.stamp.next()
	e := Entry[K, V]{key: key, value: value, timestamp: ts, seq: seq}
	elem := s.order.append(e.Marker())
	victim, ok := s.entries.Replace(victimKey, key, slot[K, V]{entry: e, elem: elem})
	if !ok {
		s.order.remove(elem)
		if !s.entries.Contains(victimKey) {
			s.fatalLocked(n.op, fmt.Sprintf("oldest marker %v has no entry", victimKey))
		}
		s.fatalLocked(n.op, fmt.Sprintf("insert collided on key %v", key))
	}
	s.order.remove(m)
	n.removed = append(n.removed, victim.entry)
	n.evicted = true
	return e
}

// insertLocked 以新时间戳插入条目并追加标记，必须持有 s.mu 且键不存在。
func (s *Store[K, V]) insertLocked(op string, key K, value V) Entry[K, V] {
	ts, seq := s.stamp.next()
	e := Entry[K, V]{key: key, value: value, timestamp: ts, seq: seq}
	elem := s.order.append(e.Marker())
	if !s.entries.Insert(key, slot[K, V]{entry: e, elem: elem}) {
		s.order.remove(elem)
		s.fatalLocked(op, fmt.Sprintf("insert collided on key %v", key))
	}
	return e
}

// replaceLocked 以新时间戳替换条目并把标记移到尾部，必须持有 s.mu。
func (s *Store[K, V]) replaceLocked(op string, key K, cur slot[K, V], value V) (old, updated Entry[K, V]) {
	ts, seq := s.stamp.next()
	updated = Entry[K, V]{key: key, value: value, timestamp: ts, seq: seq}
	elem := s.order.append(updated.Marker())
	if _, ok := s.entries.Swap(key, slot[K, V]{entry: updated, elem: elem}); !ok {
		s.order.remove(elem)
		s.fatalLocked(op, fmt.Sprintf("swap lost key %v", key))
	}
	s.order.remove(cur.elem)
	return cur.entry, updated
}

// fatalLocked 在持有 s.mu 时报告不变量破坏：先释放锁再 panic，
// 由调用方 defer 的 Unlock 配对，因此这里重新加锁。
func (s *Store[K, V]) fatalLocked(op, detail string) {
	s.mu.Unlock()
	defer s.mu.Lock()
	s.fatal(op, detail)
}

func (s *Store[K, V]) fatal(op, detail string) {
	err := &InvariantError{Op: op, Detail: detail}
	s.logger.Error(context.Background(), "invariant violated", xlog.Operation(op), xlog.Err(err))
	panic(err)
}

// dispatch 在锁外派发通知并记录指标。
func (s *Store[K, V]) dispatch(n *notice[K, V]) {
	ctx := context.Background()
	s.recorder.RecordOp(ctx, n.op, xmetrics.OutcomeOK)

	for _, e := range n.removed {
		if n.evicted {
			s.logger.Debug(ctx, "evicted oldest entry", xlog.Key(e.key), xlog.Timestamp(e.timestamp))
		}
		s.listener.OnRemove(e)
	}
	if n.evicted {
		s.recorder.RecordRemoved(ctx, xmetrics.ReasonCapacity, len(n.removed))
	}
	if n.added != nil {
		s.listener.OnAdd(*n.added)
	}
	if n.newOne != nil {
		s.listener.OnUpdate(*n.oldOne, *n.newOne)
	}
	if n.clear {
		reason := xmetrics.ReasonClear
		if n.op == opClearBefore {
			reason = xmetrics.ReasonPurge
		}
		s.recorder.RecordRemoved(ctx, reason, n.cleared)
		s.listener.OnClear(n.cleared)
	}
	if n.countChanged() {
		s.recorder.RecordEntries(ctx, int64(n.after-n.before))
		s.listener.OnCountChange(n.after)
	}
}
