package xtsmap

import "time"

// Clock 提供当前时间。
type Clock interface {
	Now() time.Time
}

// ClockFunc 把函数适配为 Clock。
type ClockFunc func() time.Time

// Now 实现 Clock。
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// stamper 生成单调不减的 (timestamp, seq)。只能在 Store.mu 内调用。
type stamper struct {
	clock Clock
	last  int64
	seq   uint64
}

func (s *stamper) next() (int64, uint64) {
	now := s.clock.Now().UnixMilli()
	if now < s.last {
		now = s.last
	}
	s.last = now
	s.seq++
	return now, s.seq
}
