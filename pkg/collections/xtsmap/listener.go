package xtsmap

// Listener 接收存储的变更通知。
//
// 回调在存储临界区结束之后、变更方法返回之前同步调用，顺序固定为：
// OnRemove（含容量淘汰）→ OnAdd → OnUpdate → OnClear → OnCountChange。
// 回调观察到的状态至少与通知所描述的一样新，但其他 goroutine 可能已经继续修改。
//
// 实现必须并发安全。回调 panic 会传播给变更方法的调用方，
// 需要隔离订阅者错误的场景请使用 xobsmap.Bus。
type Listener[K comparable, V any] interface {
	// OnAdd 在新条目插入后调用。
	OnAdd(added Entry[K, V])
	// OnRemove 在条目被 TryRemove 删除或被容量淘汰后调用。
	OnRemove(removed Entry[K, V])
	// OnUpdate 在条目被替换后调用。
	OnUpdate(old, updated Entry[K, V])
	// OnCountChange 在操作改变条目总数后调用，count 为操作完成时的总数。
	OnCountChange(count int)
	// OnClear 在 Clear/ClearBefore 后调用，removed 为移除的条目数（可以为 0）。
	OnClear(removed int)
}

// NopListener 是空实现。
type NopListener[K comparable, V any] struct{}

func (NopListener[K, V]) OnAdd(Entry[K, V])                 {}
func (NopListener[K, V]) OnRemove(Entry[K, V])              {}
func (NopListener[K, V]) OnUpdate(Entry[K, V], Entry[K, V]) {}
func (NopListener[K, V]) OnCountChange(int)                 {}
func (NopListener[K, V]) OnClear(int)                       {}

// notice 记录一次变更需要在锁外派发的通知。
type notice[K comparable, V any] struct {
	op      string
	removed []Entry[K, V]
	evicted bool // removed 来自容量淘汰
	added   *Entry[K, V]
	oldOne  *Entry[K, V]
	newOne  *Entry[K, V]
	cleared int
	clear   bool
	before  int
	after   int
}

func (n *notice[K, V]) countChanged() bool { return n.before != n.after }
