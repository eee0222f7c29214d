package shardmap

import (
	"errors"
	"fmt"
	"hash/maphash"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultShardCount 默认分片数。
	DefaultShardCount = 32
	maxShardCount     = 1 << 16
)

// ErrInvalidShardCount 表示分片数不是正的 2 的幂或超过上限。
var ErrInvalidShardCount = errors.New("shardmap: invalid shard count")

// Map 是分片并发 map。零值不可用，必须通过 [New] 创建。
type Map[K comparable, V any] struct {
	shards []shard[K, V]
	mask   uint64
	hash   func(K) uint64
	count  atomic.Int64
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New 创建分片 map。shardCount 必须为 2 的幂且不超过 65536。
func New[K comparable, V any](shardCount int) (*Map[K, V], error) {
	if shardCount <= 0 || shardCount > maxShardCount || shardCount&(shardCount-1) != 0 {
		return nil, fmt.Errorf("%w: must be a positive power of 2 (max %d), got %d",
			ErrInvalidShardCount, maxShardCount, shardCount)
	}
	m := &Map[K, V]{
		shards: make([]shard[K, V], shardCount),
		mask:   uint64(shardCount - 1),
		hash:   hasherFor[K](),
	}
	for i := range m.shards {
		m.shards[i].items = make(map[K]V)
	}
	return m, nil
}

// hasherFor 按键类型选择哈希函数。
func hasherFor[K comparable]() func(K) uint64 {
	var zero K
	if _, ok := any(zero).(string); ok {
		return func(k K) uint64 {
			return xxhash.Sum64String(any(k).(string))
		}
	}
	seed := maphash.MakeSeed()
	return func(k K) uint64 {
		return maphash.Comparable(seed, k)
	}
}

func (m *Map[K, V]) shardOf(k K) *shard[K, V] {
	return &m.shards[m.hash(k)&m.mask]
}

// Load 读取 k 对应的值。
func (m *Map[K, V]) Load(k K) (v V, ok bool) {
	s := m.shardOf(k)
	s.mu.RLock()
	v, ok = s.items[k]
	s.mu.RUnlock()
	return v, ok
}

// Contains 报告 k 是否存在。
func (m *Map[K, V]) Contains(k K) bool {
	_, ok := m.Load(k)
	return ok
}

// Insert 仅在 k 不存在时写入，返回是否写入。
func (m *Map[K, V]) Insert(k K, v V) bool {
	s := m.shardOf(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[k]; exists {
		return false
	}
	s.items[k] = v
	m.count.Add(1)
	return true
}

// Swap 仅在 k 存在时替换值，返回旧值。
func (m *Map[K, V]) Swap(k K, v V) (old V, ok bool) {
	s := m.shardOf(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok = s.items[k]
	if !ok {
		return old, false
	}
	s.items[k] = v
	return old, true
}

// Delete 删除 k，返回被删除的值。
func (m *Map[K, V]) Delete(k K) (v V, ok bool) {
	s := m.shardOf(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok = s.items[k]
	if !ok {
		return v, false
	}
	delete(s.items, k)
	m.count.Add(-1)
	return v, true
}

// Replace 删除 oldKey 并写入 newKey，两步在同一组分片锁内完成，条目总数不变。
// oldKey 不存在或 newKey 已存在时不做任何修改并返回 false。
// 两个键落在不同分片时按分片下标顺序加锁。
func (m *Map[K, V]) Replace(oldKey, newKey K, v V) (old V, ok bool) {
	i, j := m.hash(oldKey)&m.mask, m.hash(newKey)&m.mask
	lo, hi := min(i, j), max(i, j)
	m.shards[lo].mu.Lock()
	defer m.shards[lo].mu.Unlock()
	if hi != lo {
		m.shards[hi].mu.Lock()
		defer m.shards[hi].mu.Unlock()
	}

	src, dst := &m.shards[i], &m.shards[j]
	old, ok = src.items[oldKey]
	if !ok {
		return old, false
	}
	if _, exists := dst.items[newKey]; exists {
		var zero V
		return zero, false
	}
	delete(src.items, oldKey)
	dst.items[newKey] = v
	return old, true
}

// Len 返回条目总数。
func (m *Map[K, V]) Len() int {
	return int(m.count.Load())
}

// Keys 返回所有键的快照，不保证顺序，也不保证跨分片原子性。
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Len())
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for k := range s.items {
			keys = append(keys, k)
		}
		s.mu.RUnlock()
	}
	return keys
}

// Range 依次遍历各分片，fn 返回 false 时停止。
// fn 在分片读锁内执行，严禁在 fn 中写入同一个 Map。
func (m *Map[K, V]) Range(fn func(k K, v V) bool) {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Clear 清空所有分片，返回清空前的条目数。
func (m *Map[K, V]) Clear() int {
	removed := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n := len(s.items)
		if n > 0 {
			clear(s.items)
			m.count.Add(int64(-n))
			removed += n
		}
		s.mu.Unlock()
	}
	return removed
}
