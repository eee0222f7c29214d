package xobsmap

import (
	"context"
	"sync"

	"github.com/omeyang/xtsdict/pkg/collections/xtsmap"
	"github.com/omeyang/xtsdict/pkg/observability/xlog"
)

// Option 定义可观察存储的可选配置。
type Option[K comparable, V any] func(*options[K, V])

type options[K comparable, V any] struct {
	store  []xtsmap.Option[K, V]
	bus    []BusOption
	logger xlog.Logger
}

// WithStoreOptions 追加底层 xtsmap.Store 的配置。
// 其中的 xtsmap.WithListener 会被总线覆盖。
func WithStoreOptions[K comparable, V any](opts ...xtsmap.Option[K, V]) Option[K, V] {
	return func(o *options[K, V]) {
		o.store = append(o.store, opts...)
	}
}

// WithBusOptions 追加事件总线的配置。
func WithBusOptions[K comparable, V any](opts ...BusOption) Option[K, V] {
	return func(o *options[K, V]) {
		o.bus = append(o.bus, opts...)
	}
}

// WithLogger 同时设置存储与总线的日志记录器，nil 忽略。
func WithLogger[K comparable, V any](logger xlog.Logger) Option[K, V] {
	return func(o *options[K, V]) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Store 是带事件总线的 xtsmap.Store。
type Store[K comparable, V any] struct {
	*xtsmap.Store[K, V]

	bus       *Bus[K, V]
	logger    xlog.Logger
	closeOnce sync.Once
}

// New 创建可观察存储，错误与 [xtsmap.New] 相同。
func New[K comparable, V any](capacity xtsmap.Capacity, opts ...Option[K, V]) (*Store[K, V], error) {
	o := options[K, V]{logger: xlog.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	bus := NewBus[K, V](append([]BusOption{WithBusLogger(o.logger)}, o.bus...)...)
	storeOpts := append([]xtsmap.Option[K, V]{xtsmap.WithLogger[K, V](o.logger)}, o.store...)
	storeOpts = append(storeOpts, xtsmap.WithListener[K, V](bus))

	inner, err := xtsmap.New(capacity, storeOpts...)
	if err != nil {
		return nil, err
	}
	return &Store[K, V]{
		Store:  inner,
		bus:    bus,
		logger: o.logger.With(xlog.Component(ComponentName)),
	}, nil
}

// Bus 返回存储使用的事件总线。
func (s *Store[K, V]) Bus() *Bus[K, V] {
	return s.bus
}

// ObserveAdd 订阅插入事件。
func (s *Store[K, V]) ObserveAdd(fn func(AddEvent[K, V]), opts ...SubscribeOption) *Subscription {
	return s.bus.ObserveAdd(fn, opts...)
}

// ObserveRemove 订阅删除事件，包括容量淘汰。
func (s *Store[K, V]) ObserveRemove(fn func(RemoveEvent[K, V]), opts ...SubscribeOption) *Subscription {
	return s.bus.ObserveRemove(fn, opts...)
}

// ObserveUpdate 订阅替换事件。
func (s *Store[K, V]) ObserveUpdate(fn func(UpdateEvent[K, V]), opts ...SubscribeOption) *Subscription {
	return s.bus.ObserveUpdate(fn, opts...)
}

// ObserveCountChange 订阅条目数变化。
func (s *Store[K, V]) ObserveCountChange(fn func(int), opts ...SubscribeOption) *Subscription {
	return s.bus.ObserveCountChange(fn, opts...)
}

// ObserveClear 订阅清空事件。
func (s *Store[K, V]) ObserveClear(fn func(int), opts ...SubscribeOption) *Subscription {
	return s.bus.ObserveClear(fn, opts...)
}

// Close 关闭事件总线并记录最终条目数，可重复调用。
// 关闭后存储仍可读写，只是不再投递事件。
func (s *Store[K, V]) Close() {
	s.closeOnce.Do(func() {
		s.bus.Close()
		s.logger.Info(context.Background(), "observable store closed",
			xlog.Count(s.Len()), xlog.Operation("close"))
	})
}
