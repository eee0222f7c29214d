package xtsmap

import (
	"reflect"

	"github.com/omeyang/xtsdict/internal/shardmap"
	"github.com/omeyang/xtsdict/pkg/observability/xlog"
	"github.com/omeyang/xtsdict/pkg/observability/xmetrics"
)

// Option 定义 Store 可选配置函数类型。
type Option[K comparable, V any] func(*options[K, V])

type options[K comparable, V any] struct {
	seed       map[K]V
	normalize  func(K) K
	equal      func(a, b V) bool
	clock      Clock
	logger     xlog.Logger
	recorder   xmetrics.Recorder
	listener   Listener[K, V]
	shardCount int
}

func defaultOptions[K comparable, V any]() options[K, V] {
	return options[K, V]{
		equal:      func(a, b V) bool { return reflect.DeepEqual(a, b) },
		clock:      systemClock{},
		logger:     xlog.Discard(),
		recorder:   xmetrics.NoopRecorder{},
		listener:   NopListener[K, V]{},
		shardCount: shardmap.DefaultShardCount,
	}
}

// WithSeed 设置初始数据。
// 条目数超过有界容量时 New 返回 [ErrCapacityExceeded]；
// 键归一化后出现重复时返回 [ErrDuplicateKeyInSeed]。
func WithSeed[K comparable, V any](seed map[K]V) Option[K, V] {
	return func(o *options[K, V]) {
		o.seed = seed
	}
}

// WithKeyNormalizer 设置键归一化函数，用于自定义键相等语义（如大小写不敏感）。
// 所有操作在访问存储前都会先归一化键。
func WithKeyNormalizer[K comparable, V any](fn func(K) K) Option[K, V] {
	return func(o *options[K, V]) {
		o.normalize = fn
	}
}

// WithValueEqual 设置 CompareAndUpdate 使用的值比较函数。
// 默认使用 reflect.DeepEqual。
func WithValueEqual[K comparable, V any](fn func(a, b V) bool) Option[K, V] {
	return func(o *options[K, V]) {
		if fn != nil {
			o.equal = fn
		}
	}
}

// WithClock 设置时间源，nil 忽略。
func WithClock[K comparable, V any](clock Clock) Option[K, V] {
	return func(o *options[K, V]) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger 设置日志记录器，nil 忽略。
func WithLogger[K comparable, V any](logger xlog.Logger) Option[K, V] {
	return func(o *options[K, V]) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder 设置指标记录器，nil 忽略。
func WithRecorder[K comparable, V any](rec xmetrics.Recorder) Option[K, V] {
	return func(o *options[K, V]) {
		if rec != nil {
			o.recorder = rec
		}
	}
}

// WithListener 设置变更监听器，nil 忽略。
func WithListener[K comparable, V any](l Listener[K, V]) Option[K, V] {
	return func(o *options[K, V]) {
		if l != nil {
			o.listener = l
		}
	}
}

// WithShardCount 设置内部 map 的分片数，必须为 2 的幂，默认 32。
func WithShardCount[K comparable, V any](n int) Option[K, V] {
	return func(o *options[K, V]) {
		o.shardCount = n
	}
}
