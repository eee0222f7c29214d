package xtsmap

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// manualClock 是可手动推进的时钟。
type manualClock struct {
	ms atomic.Int64
}

func newManualClock(startMs int64) *manualClock {
	c := &manualClock{}
	c.ms.Store(startMs)
	return c
}

func (c *manualClock) Now() time.Time { return time.UnixMilli(c.ms.Load()) }

func (c *manualClock) Advance(d time.Duration) { c.ms.Add(d.Milliseconds()) }

func (c *manualClock) Set(ms int64) { c.ms.Store(ms) }

const baseMs int64 = 1_700_000_000_000

func newTestStore(t *testing.T, capacity Capacity, opts ...Option[string, int]) (*Store[string, int], *manualClock) {
	t.Helper()
	clock := newManualClock(baseMs)
	opts = append([]Option[string, int]{WithClock[string, int](clock)}, opts...)
	s, err := New[string, int](capacity, opts...)
	require.NoError(t, err)
	return s, clock
}

// requireInvariants 校验 map 与顺序索引的所有不变量。
func requireInvariants[K comparable, V any](t *testing.T, s *Store[K, V]) {
	t.Helper()
	s.CheckConsistency()

	marks := s.TimestampedKeys()
	require.Len(t, marks, s.Len())
	for i := 1; i < len(marks); i++ {
		require.True(t, marks[i-1].Before(marks[i]), "order index not sorted at %d: %+v %+v", i, marks[i-1], marks[i])
	}
	for _, m := range marks {
		e, ok := s.GetEntry(m.Key)
		require.True(t, ok, "marker %v has no entry", m.Key)
		require.Equal(t, m, e.Marker())
	}
	if limit, ok := s.Capacity().Limit(); ok {
		require.LessOrEqual(t, s.Len(), limit)
	}
}

type event struct {
	kind  string
	key   string
	value int
	old   int
	count int
}

// recordingListener 按到达顺序记录通知。
type recordingListener struct {
	mu     sync.Mutex
	events []event
}

func (r *recordingListener) push(e event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingListener) OnAdd(e Entry[string, int]) {
	r.push(event{kind: "add", key: e.Key(), value: e.Value()})
}

func (r *recordingListener) OnRemove(e Entry[string, int]) {
	r.push(event{kind: "remove", key: e.Key(), value: e.Value()})
}

func (r *recordingListener) OnUpdate(old, updated Entry[string, int]) {
	r.push(event{kind: "update", key: updated.Key(), value: updated.Value(), old: old.Value()})
}

func (r *recordingListener) OnCountChange(count int) {
	r.push(event{kind: "count", count: count})
}

func (r *recordingListener) OnClear(removed int) {
	r.push(event{kind: "clear", count: removed})
}

func (r *recordingListener) take() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}
