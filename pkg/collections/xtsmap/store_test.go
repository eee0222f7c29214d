package xtsmap

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("unbounded", func(t *testing.T) {
		s, err := New[string, int](Unbounded())
		require.NoError(t, err)
		assert.False(t, s.Capacity().IsBounded())
		assert.Equal(t, 0, s.Len())
	})

	t.Run("zero capacity", func(t *testing.T) {
		_, err := New[string, int](Bounded(0))
		require.ErrorIs(t, err, ErrInvalidCapacity)

		var argErr *ArgumentError
		require.True(t, errors.As(err, &argErr))
		assert.Equal(t, ComponentName, argErr.Component())
		assert.Equal(t, "capacity", argErr.Param)
		assert.Contains(t, err.Error(), "xtsmap: invalid capacity")
	})

	t.Run("negative capacity", func(t *testing.T) {
		_, err := New[string, int](Bounded(-1))
		assert.ErrorIs(t, err, ErrInvalidCapacity)
	})

	t.Run("seed within capacity", func(t *testing.T) {
		s, err := New(Bounded(3), WithSeed(map[string]int{"a": 1, "b": 2, "c": 3}))
		require.NoError(t, err)
		assert.Equal(t, 3, s.Len())
		v, ok := s.Get("b")
		require.True(t, ok)
		assert.Equal(t, 2, v)
		requireInvariants(t, s)
	})

	t.Run("seed exceeds capacity", func(t *testing.T) {
		_, err := New(Bounded(1), WithSeed(map[string]int{"a": 1, "b": 2}))
		require.ErrorIs(t, err, ErrCapacityExceeded)
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, "seed", argErr.Param)
	})

	t.Run("seed collides after normalization", func(t *testing.T) {
		_, err := New(Unbounded(),
			WithSeed(map[string]int{"Key": 1, "KEY": 2}),
			WithKeyNormalizer[string, int](strings.ToLower),
		)
		assert.ErrorIs(t, err, ErrDuplicateKeyInSeed)
	})

	t.Run("invalid shard count", func(t *testing.T) {
		_, err := New(Unbounded(), WithShardCount[string, int](3))
		assert.ErrorIs(t, err, ErrInvalidShardCount)
	})

	t.Run("nil options ignored", func(t *testing.T) {
		s, err := New(Unbounded(),
			Option[string, int](nil),
			WithClock[string, int](nil),
			WithLogger[string, int](nil),
			WithRecorder[string, int](nil),
			WithListener[string, int](nil),
			WithValueEqual[string, int](nil),
		)
		require.NoError(t, err)
		assert.True(t, s.TryAdd("k", 1))
	})
}

func TestStore_CapacityOneEvicts(t *testing.T) {
	s, _ := newTestStore(t, Bounded(1))

	require.True(t, s.TryAdd("k1", 11))
	require.True(t, s.TryAdd("k2", 12))

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("k1")
	assert.False(t, ok, "k1 应被淘汰")
	v, ok := s.Get("k2")
	require.True(t, ok)
	assert.Equal(t, 12, v)
	requireInvariants(t, s)
}

func TestStore_CapacityTwoEvictsOldest(t *testing.T) {
	s, clock := newTestStore(t, Bounded(2))

	require.True(t, s.TryAdd("k1", 1))
	clock.Advance(time.Millisecond)
	require.True(t, s.TryAdd("k2", 2))
	clock.Advance(time.Millisecond)
	require.True(t, s.TryAdd("k3", 3))

	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Contains("k1"))
	assert.True(t, s.Contains("k2"))
	assert.True(t, s.Contains("k3"))
	assert.Equal(t, []string{"k2", "k3"}, s.AddedKeys())
	requireInvariants(t, s)
}

func TestStore_UpdateMovesKeyOutOfEvictionPath(t *testing.T) {
	s, clock := newTestStore(t, Bounded(2))

	s.TryAdd("k1", 1)
	clock.Advance(time.Millisecond)
	s.TryAdd("k2", 2)
	clock.Advance(time.Millisecond)
	require.True(t, s.TryUpdate("k1", 10))
	clock.Advance(time.Millisecond)
	require.True(t, s.TryAdd("k3", 3))

	assert.False(t, s.Contains("k2"), "更新后 k2 成为最旧条目")
	v, _ := s.Get("k1")
	assert.Equal(t, 10, v)
	assert.Equal(t, []string{"k1", "k3"}, s.AddedKeys())
}

func TestStore_TryAddDuplicate(t *testing.T) {
	s, clock := newTestStore(t, Unbounded())
	require.True(t, s.TryAdd("k", 1))
	before, _ := s.GetEntry("k")

	clock.Advance(time.Second)
	assert.False(t, s.TryAdd("k", 2))

	after, _ := s.GetEntry("k")
	assert.Equal(t, before, after, "重复 TryAdd 不应有副作用")
}

func TestStore_TryUpdate(t *testing.T) {
	s, clock := newTestStore(t, Bounded(5))
	assert.False(t, s.TryUpdate("missing", 1))

	s.TryAdd("k", 1)
	clock.Advance(5 * time.Millisecond)
	require.True(t, s.TryUpdate("k", 2))

	e, ok := s.GetEntry("k")
	require.True(t, ok)
	assert.Equal(t, 2, e.Value())
	assert.Equal(t, baseMs+5, e.Timestamp())
	assert.Equal(t, 1, s.Len())
	requireInvariants(t, s)
}

func TestStore_CompareAndUpdate(t *testing.T) {
	s, clock := newTestStore(t, Unbounded())
	s.TryAdd("k1", 11)
	clock.Advance(time.Millisecond)
	s.TryAdd("k2", 12)
	clock.Advance(time.Millisecond)

	assert.False(t, s.CompareAndUpdate("k1", 13, 99))
	v, _ := s.Get("k1")
	assert.Equal(t, 11, v)
	assert.Equal(t, []string{"k1", "k2"}, s.AddedKeys())

	assert.True(t, s.CompareAndUpdate("k1", 13, 11))
	v, _ = s.Get("k1")
	assert.Equal(t, 13, v)

	marks := s.TimestampedKeys()
	require.Len(t, marks, 2)
	assert.Equal(t, "k1", marks[len(marks)-1].Key, "k1 应移动到尾部")

	// 旧的比较值不再生效
	assert.False(t, s.CompareAndUpdate("k1", 14, 11))
	assert.False(t, s.CompareAndUpdate("missing", 1, 0))
	requireInvariants(t, s)
}

func TestStore_CompareAndUpdate_CustomEqual(t *testing.T) {
	type profile struct {
		Name string
		Tags []string
	}
	s, err := New(Unbounded(), WithSeed(map[string]profile{"u": {Name: "a", Tags: []string{"x"}}}))
	require.NoError(t, err)

	// 默认 reflect.DeepEqual 支持不可比较的值
	assert.True(t, s.CompareAndUpdate("u", profile{Name: "b"}, profile{Name: "a", Tags: []string{"x"}}))

	byName, err := New(Unbounded(),
		WithSeed(map[string]profile{"u": {Name: "a", Tags: []string{"x"}}}),
		WithValueEqual[string, profile](func(a, b profile) bool { return a.Name == b.Name }),
	)
	require.NoError(t, err)
	assert.True(t, byName.CompareAndUpdate("u", profile{Name: "c"}, profile{Name: "a"}))
}

func TestStore_AddOrUpdate(t *testing.T) {
	s, clock := newTestStore(t, Bounded(2))

	e := s.AddOrUpdate("k1", 1)
	assert.Equal(t, "k1", e.Key())
	assert.Equal(t, baseMs, e.Timestamp())

	clock.Advance(3 * time.Millisecond)
	e = s.AddOrUpdate("k1", 2)
	assert.Equal(t, 2, e.Value())
	assert.Equal(t, baseMs+3, e.Timestamp())
	got, _ := s.GetEntry("k1")
	assert.Equal(t, e, got)

	s.AddOrUpdate("k2", 3)
	s.AddOrUpdate("k3", 4) // 满，淘汰 k1
	assert.False(t, s.Contains("k1"))
	assert.Equal(t, 2, s.Len())
	requireInvariants(t, s)
}

func TestStore_TryRemove(t *testing.T) {
	s, _ := newTestStore(t, Unbounded())
	_, ok := s.TryRemove("missing")
	assert.False(t, ok)

	s.TryAdd("a", 1)
	s.TryAdd("b", 2)
	v, ok := s.TryRemove("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.False(t, s.Contains("a"))
	assert.Equal(t, []string{"b"}, s.AddedKeys())
	requireInvariants(t, s)
}

func TestStore_Clear(t *testing.T) {
	s, _ := newTestStore(t, Bounded(3))
	assert.Equal(t, 0, s.Clear())

	s.TryAdd("a", 1)
	s.TryAdd("b", 2)
	assert.Equal(t, 2, s.Clear())
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.AddedKeys())
	assert.Equal(t, Bounded(3), s.Capacity())
	requireInvariants(t, s)
}

func TestStore_ClearWithCapacity(t *testing.T) {
	s, _ := newTestStore(t, Bounded(3))
	s.TryAdd("a", 1)

	err := s.ClearWithCapacity(Bounded(0))
	require.ErrorIs(t, err, ErrInvalidCapacity)
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "ClearWithCapacity", argErr.Op)
	assert.Equal(t, 1, s.Len(), "非法容量不应修改状态")
	assert.Equal(t, Bounded(3), s.Capacity())

	require.NoError(t, s.ClearWithCapacity(Bounded(1)))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, Bounded(1), s.Capacity())
	s.TryAdd("x", 1)
	s.TryAdd("y", 2)
	assert.Equal(t, []string{"y"}, s.AddedKeys())

	require.NoError(t, s.ClearWithCapacity(Unbounded()))
	for i := range 10 {
		s.TryAdd(strconv.Itoa(i), i)
	}
	assert.Equal(t, 10, s.Len())
}

func TestStore_ClearBefore(t *testing.T) {
	s, clock := newTestStore(t, Unbounded())

	s.TryAdd("k1", 1)
	clock.Advance(10 * time.Millisecond)
	cutoff := clock.Now().UnixMilli()
	s.TryAdd("k2", 2)

	assert.Equal(t, 1, s.ClearBefore(cutoff))
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Contains("k1"))
	assert.True(t, s.Contains("k2"), "时间戳等于 cutoff 的条目应保留")
	assert.Equal(t, 0, s.ClearBefore(cutoff))
	requireInvariants(t, s)
}

func TestStore_ClearBefore_DenseTimestamps(t *testing.T) {
	s, clock := newTestStore(t, Unbounded())

	// 每个毫秒写入 3 个条目
	for ms := range 10 {
		for j := range 3 {
			s.TryAdd(strconv.Itoa(ms)+"-"+strconv.Itoa(j), ms)
		}
		clock.Advance(time.Millisecond)
	}
	removed := s.ClearBefore(baseMs + 4)
	assert.Equal(t, 12, removed)
	for _, m := range s.TimestampedKeys() {
		assert.GreaterOrEqual(t, m.Timestamp, baseMs+4)
	}
	assert.Equal(t, 18, s.Len())
	requireInvariants(t, s)
}

func TestStore_ClearBeforeTime(t *testing.T) {
	s, clock := newTestStore(t, Unbounded())
	s.TryAdd("old", 1)
	clock.Advance(time.Minute)
	s.TryAdd("new", 2)

	assert.Equal(t, 1, s.ClearBeforeTime(clock.Now().Add(-30*time.Second)))
	assert.Equal(t, []string{"new"}, s.AddedKeys())
}

func TestStore_KeysAndOldest(t *testing.T) {
	s, clock := newTestStore(t, Unbounded())
	_, ok := s.Oldest()
	assert.False(t, ok)

	for _, k := range []string{"c", "a", "b"} {
		s.TryAdd(k, 0)
		clock.Advance(time.Millisecond)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, s.Keys())
	assert.Equal(t, []string{"c", "a", "b"}, s.AddedKeys())

	oldest, ok := s.Oldest()
	require.True(t, ok)
	assert.Equal(t, "c", oldest.Key)
	assert.Equal(t, baseMs, oldest.Timestamp)
}

func TestStore_SameMillisecondTieBreak(t *testing.T) {
	s, _ := newTestStore(t, Bounded(3))
	for _, k := range []string{"x", "y", "z"} {
		s.TryAdd(k, 0)
	}
	marks := s.TimestampedKeys()
	for _, m := range marks {
		assert.Equal(t, baseMs, m.Timestamp)
	}
	assert.Equal(t, []string{"x", "y", "z"}, s.AddedKeys())

	// 同一毫秒内的淘汰仍按写入顺序
	s.TryAdd("w", 0)
	assert.Equal(t, []string{"y", "z", "w"}, s.AddedKeys())
	requireInvariants(t, s)
}

func TestStore_ClockGoesBackwards(t *testing.T) {
	s, clock := newTestStore(t, Unbounded())
	s.TryAdd("a", 1)
	clock.Set(baseMs - 1000)
	e := s.AddOrUpdate("b", 2)

	assert.Equal(t, baseMs, e.Timestamp(), "时间戳不应回退")
	requireInvariants(t, s)
}

func TestStore_KeyNormalizer(t *testing.T) {
	s, err := New(Unbounded(), WithKeyNormalizer[string, int](strings.ToLower))
	require.NoError(t, err)

	require.True(t, s.TryAdd("Alpha", 1))
	assert.False(t, s.TryAdd("ALPHA", 2))
	assert.True(t, s.Contains("alpha"))
	assert.True(t, s.TryUpdate("aLpHa", 3))

	e, ok := s.GetEntry("ALPHA")
	require.True(t, ok)
	assert.Equal(t, "alpha", e.Key())
	assert.Equal(t, 3, e.Value())

	v, ok := s.TryRemove("Alpha")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestStore_EntryAccessors(t *testing.T) {
	s, _ := newTestStore(t, Unbounded())
	e := s.AddOrUpdate("k", 7)
	assert.Equal(t, time.UnixMilli(baseMs), e.Time())
	assert.Equal(t, uint64(1), e.Seq())
	assert.Equal(t, TimestampedKey[string]{Timestamp: baseMs, Seq: 1, Key: "k"}, e.Marker())
}

func TestStore_RandomOperationsKeepInvariants(t *testing.T) {
	s, clock := newTestStore(t, Bounded(16))
	rng := rand.New(rand.NewPCG(1, 2))

	for i := range 2000 {
		key := "k" + strconv.Itoa(rng.IntN(40))
		switch rng.IntN(7) {
		case 0:
			s.TryAdd(key, i)
		case 1:
			s.TryUpdate(key, i)
		case 2:
			if v, ok := s.Get(key); ok {
				s.CompareAndUpdate(key, i, v)
			}
		case 3:
			s.AddOrUpdate(key, i)
		case 4:
			s.TryRemove(key)
		case 5:
			s.ClearBefore(clock.Now().UnixMilli() - int64(rng.IntN(20)))
		case 6:
			clock.Advance(time.Duration(rng.IntN(3)) * time.Millisecond)
		}
		if i%50 == 0 {
			requireInvariants(t, s)
		}
	}
	requireInvariants(t, s)
}

func TestStore_ConcurrentMutations(t *testing.T) {
	s, err := New[string, int](Bounded(64))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				key := strconv.Itoa((g*31 + i) % 100)
				switch i % 5 {
				case 0, 1:
					s.TryAdd(key, i)
				case 2:
					s.AddOrUpdate(key, i)
				case 3:
					s.TryRemove(key)
				case 4:
					s.Get(key)
					s.TimestampedKeys()
				}
			}
		}()
	}
	wg.Wait()
	requireInvariants(t, s)
}

func TestStore_EvictionInvisibleToReaders(t *testing.T) {
	for _, limit := range []int{1, 8} {
		t.Run(strconv.Itoa(limit), func(t *testing.T) {
			seed := make(map[string]int, limit)
			for i := range limit {
				seed["seed-"+strconv.Itoa(i)] = i
			}
			s, err := New(Bounded(limit), WithSeed(seed))
			require.NoError(t, err)

			var (
				stop       atomic.Bool
				underLimit atomic.Int64
				wg         sync.WaitGroup
			)
			wg.Add(1)
			go func() {
				defer wg.Done()
				for !stop.Load() {
					if s.Len() != limit {
						underLimit.Add(1)
					}
				}
			}()
			for i := range 20000 {
				key := "k" + strconv.Itoa(i)
				if i%2 == 0 {
					require.True(t, s.TryAdd(key, i))
				} else {
					s.AddOrUpdate(key, i)
				}
			}
			stop.Store(true)
			wg.Wait()

			assert.Zero(t, underLimit.Load(), "满载后淘汰与插入之间不应出现可见的空档")
			requireInvariants(t, s)
		})
	}
}

func TestStore_ConcurrentCompareAndUpdate(t *testing.T) {
	s, err := New(Unbounded(), WithSeed(map[string]int{"counter": 0}))
	require.NoError(t, err)

	const workers, perWorker = 8, 200
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				for {
					cur, _ := s.Get("counter")
					if s.CompareAndUpdate("counter", cur+1, cur) {
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	v, _ := s.Get("counter")
	assert.Equal(t, workers*perWorker, v)
}

func TestCapacity(t *testing.T) {
	assert.Equal(t, "unbounded", Unbounded().String())
	assert.Equal(t, "bounded(4)", Bounded(4).String())
	n, ok := Bounded(4).Limit()
	assert.Equal(t, 4, n)
	assert.True(t, ok)
	assert.Equal(t, Unbounded(), Capacity{})
	assert.Equal(t, Unbounded(), decodeCapacity(Unbounded().encode()))
	assert.Equal(t, Bounded(9), decodeCapacity(Bounded(9).encode()))

	tests := []struct {
		in      string
		want    Capacity
		wantErr bool
	}{
		{"", Unbounded(), false},
		{"Unbounded", Unbounded(), false},
		{" 12 ", Bounded(12), false},
		{"0", Capacity{}, true},
		{"-1", Capacity{}, true},
		{"many", Capacity{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCapacity(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCapacity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
