package xobsmap

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xtsdict/pkg/collections/xtsmap"
	"github.com/omeyang/xtsdict/pkg/observability/xlog"
)

// ComponentName 是本包日志携带的组件标识。
const ComponentName = "xobsmap"

// BusOption 定义 Bus 的可选配置。
type BusOption func(*busOptions)

type busOptions struct {
	logger xlog.Logger
}

// WithBusLogger 设置记录订阅者 panic 的日志记录器，nil 忽略。
func WithBusLogger(logger xlog.Logger) BusOption {
	return func(o *busOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// guard 隔离订阅者 panic。
type guard struct {
	logger xlog.Logger
	panics atomic.Int64
}

func (g *guard) call(channel string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			g.panics.Add(1)
			g.logger.Error(context.Background(), "subscriber panic recovered",
				slog.String("channel", channel), slog.Any("panic", r))
		}
	}()
	fn()
}

type handler[T any] struct {
	sub *Subscription
	fn  func(T)
}

// channel 是单一事件类型的订阅者列表，写时复制，投递时无锁读取快照。
type channel[T any] struct {
	name  string
	subs  atomic.Pointer[[]handler[T]]
	guard *guard
}

func (c *channel[T]) publish(v T) {
	p := c.subs.Load()
	if p == nil {
		return
	}
	for _, h := range *p {
		if !h.sub.active() {
			continue
		}
		c.guard.call(c.name, func() { h.fn(v) })
	}
}

// add 与 remove 必须持有 Bus.mu。
func (c *channel[T]) add(h handler[T]) {
	var next []handler[T]
	if p := c.subs.Load(); p != nil {
		next = slices.Clone(*p)
	}
	next = append(next, h)
	c.subs.Store(&next)
}

func (c *channel[T]) remove(sub *Subscription) {
	p := c.subs.Load()
	if p == nil {
		return
	}
	next := slices.DeleteFunc(slices.Clone(*p), func(h handler[T]) bool { return h.sub == sub })
	c.subs.Store(&next)
}

// drain 清空列表并返回原有订阅，必须持有 Bus.mu。
func (c *channel[T]) drain() []*Subscription {
	p := c.subs.Swap(nil)
	if p == nil {
		return nil
	}
	out := make([]*Subscription, 0, len(*p))
	for _, h := range *p {
		out = append(out, h.sub)
	}
	return out
}

// Bus 是存储变更事件的总线，实现 [xtsmap.Listener]。
// 所有方法都是并发安全的。
type Bus[K comparable, V any] struct {
	mu     sync.Mutex
	closed atomic.Bool
	guard  *guard

	add    channel[AddEvent[K, V]]
	remove channel[RemoveEvent[K, V]]
	update channel[UpdateEvent[K, V]]
	count  channel[int]
	clear  channel[int]
}

var _ xtsmap.Listener[string, int] = (*Bus[string, int])(nil)

// NewBus 创建事件总线。
func NewBus[K comparable, V any](opts ...BusOption) *Bus[K, V] {
	o := busOptions{logger: xlog.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	g := &guard{logger: o.logger.With(xlog.Component(ComponentName))}
	b := &Bus[K, V]{guard: g}
	b.add = channel[AddEvent[K, V]]{name: channelAdd, guard: g}
	b.remove = channel[RemoveEvent[K, V]]{name: channelRemove, guard: g}
	b.update = channel[UpdateEvent[K, V]]{name: channelUpdate, guard: g}
	b.count = channel[int]{name: channelCountChange, guard: g}
	b.clear = channel[int]{name: channelClear, guard: g}
	return b
}

// subscribe 注册处理函数。总线已关闭时返回已完成的订阅。
func subscribe[T any](mu *sync.Mutex, closed *atomic.Bool, c *channel[T], fn func(T), opts []SubscribeOption) *Subscription {
	sub := newSubscription(c.guard, opts)
	if fn == nil {
		fn = func(T) {}
	}

	mu.Lock()
	if closed.Load() {
		mu.Unlock()
		sub.end(true)
		return sub
	}
	sub.detach = func() {
		mu.Lock()
		c.remove(sub)
		mu.Unlock()
	}
	c.add(handler[T]{sub: sub, fn: fn})
	mu.Unlock()
	return sub
}

// ObserveAdd 订阅插入事件。
func (b *Bus[K, V]) ObserveAdd(fn func(AddEvent[K, V]), opts ...SubscribeOption) *Subscription {
	return subscribe(&b.mu, &b.closed, &b.add, fn, opts)
}

// ObserveRemove 订阅删除事件，包括容量淘汰。
func (b *Bus[K, V]) ObserveRemove(fn func(RemoveEvent[K, V]), opts ...SubscribeOption) *Subscription {
	return subscribe(&b.mu, &b.closed, &b.remove, fn, opts)
}

// ObserveUpdate 订阅替换事件。
func (b *Bus[K, V]) ObserveUpdate(fn func(UpdateEvent[K, V]), opts ...SubscribeOption) *Subscription {
	return subscribe(&b.mu, &b.closed, &b.update, fn, opts)
}

// ObserveCountChange 订阅条目数变化，参数为操作完成时的条目数。
func (b *Bus[K, V]) ObserveCountChange(fn func(int), opts ...SubscribeOption) *Subscription {
	return subscribe(&b.mu, &b.closed, &b.count, fn, opts)
}

// ObserveClear 订阅清空事件，参数为移除的条目数（可以为 0）。
func (b *Bus[K, V]) ObserveClear(fn func(int), opts ...SubscribeOption) *Subscription {
	return subscribe(&b.mu, &b.closed, &b.clear, fn, opts)
}

// Panics 返回已恢复的订阅者 panic 次数。
func (b *Bus[K, V]) Panics() int64 {
	return b.guard.panics.Load()
}

// Closed 报告总线是否已关闭。
func (b *Bus[K, V]) Closed() bool {
	return b.closed.Load()
}

// Close 结束所有订阅，可重复调用。
func (b *Bus[K, V]) Close() {
	b.mu.Lock()
	if b.closed.Swap(true) {
		b.mu.Unlock()
		return
	}
	var subs []*Subscription
	subs = append(subs, b.add.drain()...)
	subs = append(subs, b.remove.drain()...)
	subs = append(subs, b.update.drain()...)
	subs = append(subs, b.count.drain()...)
	subs = append(subs, b.clear.drain()...)
	b.mu.Unlock()

	for _, s := range subs {
		s.end(true)
	}
}

// OnAdd 实现 xtsmap.Listener。
func (b *Bus[K, V]) OnAdd(e xtsmap.Entry[K, V]) {
	b.add.publish(AddEvent[K, V]{Entry: e})
}

// OnRemove 实现 xtsmap.Listener。
func (b *Bus[K, V]) OnRemove(e xtsmap.Entry[K, V]) {
	b.remove.publish(RemoveEvent[K, V]{Entry: e})
}

// OnUpdate 实现 xtsmap.Listener。
func (b *Bus[K, V]) OnUpdate(old, updated xtsmap.Entry[K, V]) {
	b.update.publish(UpdateEvent[K, V]{Old: old, New: updated})
}

// OnCountChange 实现 xtsmap.Listener。
func (b *Bus[K, V]) OnCountChange(count int) {
	b.count.publish(count)
}

// OnClear 实现 xtsmap.Listener。
func (b *Bus[K, V]) OnClear(removed int) {
	b.clear.publish(removed)
}
