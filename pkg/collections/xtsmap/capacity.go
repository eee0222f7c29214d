package xtsmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Capacity 表示存储的容量上界。零值等价于 [Unbounded]。
type Capacity struct {
	limit   int
	bounded bool
}

// Unbounded 返回无上界容量。
func Unbounded() Capacity { return Capacity{} }

// Bounded 返回上界为 n 的容量。n 必须大于 0，否则在应用时返回 [ErrInvalidCapacity]。
func Bounded(n int) Capacity { return Capacity{limit: n, bounded: true} }

// Limit 返回上界以及是否有界。
func (c Capacity) Limit() (int, bool) { return c.limit, c.bounded }

// IsBounded 报告是否有界。
func (c Capacity) IsBounded() bool { return c.bounded }

// Validate 检查容量是否合法。
func (c Capacity) Validate() error {
	if c.bounded && c.limit <= 0 {
		return ErrInvalidCapacity
	}
	return nil
}

func (c Capacity) String() string {
	if !c.bounded {
		return "unbounded"
	}
	return "bounded(" + strconv.Itoa(c.limit) + ")"
}

// ParseCapacity 解析 "unbounded"（或空字符串）与正整数。
func ParseCapacity(s string) (Capacity, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "unbounded") {
		return Unbounded(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Capacity{}, fmt.Errorf("%w: %q", ErrInvalidCapacity, s)
	}
	c := Bounded(n)
	if err := c.Validate(); err != nil {
		return Capacity{}, fmt.Errorf("%w: %q", err, s)
	}
	return c, nil
}

// encode 将合法容量编码为 int64 以便原子存取，0 表示无界。
func (c Capacity) encode() int64 {
	if !c.bounded {
		return 0
	}
	return int64(c.limit)
}

func decodeCapacity(v int64) Capacity {
	if v <= 0 {
		return Unbounded()
	}
	return Bounded(int(v))
}
