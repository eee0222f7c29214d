package xtsmap

import (
	"errors"
	"fmt"
)

// ComponentName 是本包错误携带的组件标识。
const ComponentName = "xtsmap"

var (
	// ErrInvalidCapacity 表示容量不是 Unbounded 也不是正数。
	ErrInvalidCapacity = errors.New("xtsmap: invalid capacity")

	// ErrCapacityExceeded 表示种子数据条目数超过容量。
	ErrCapacityExceeded = errors.New("xtsmap: seed exceeds capacity")

	// ErrDuplicateKeyInSeed 表示种子数据在键归一化后出现重复键。
	ErrDuplicateKeyInSeed = errors.New("xtsmap: duplicate key in seed")

	// ErrInvalidShardCount 表示分片数不是正的 2 的幂。
	ErrInvalidShardCount = errors.New("xtsmap: invalid shard count")
)

// ArgumentError 表示构造参数或 ClearWithCapacity 参数无效。
// 返回该错误时存储状态未被修改。
type ArgumentError struct {
	// Op 触发错误的操作，如 "New"、"ClearWithCapacity"。
	Op string
	// Param 无效参数名。
	Param string
	// Value 无效参数值。
	Value any
	// Err 对应的哨兵错误。
	Err error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%v (op=%s, %s=%v)", e.Err, e.Op, e.Param, e.Value)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// Component 返回错误来源组件标识，固定为 [ComponentName]。
func (e *ArgumentError) Component() string { return ComponentName }

// InvariantError 表示 map 与顺序索引不一致。
// 以 panic 形式抛出，代表实现缺陷而非运行时条件。
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("xtsmap: invariant violated in %s: %s", e.Op, e.Detail)
}
