package xobsmap

import "sync"

// Subscription 表示一次订阅。
type Subscription struct {
	done       chan struct{}
	once       sync.Once
	detach     func()
	onComplete func()
	guard      *guard
}

// SubscribeOption 定义订阅的可选配置。
type SubscribeOption func(*Subscription)

// WithOnComplete 设置总线关闭时调用的回调。Unsubscribe 不会触发该回调。
func WithOnComplete(fn func()) SubscribeOption {
	return func(s *Subscription) {
		s.onComplete = fn
	}
}

func newSubscription(g *guard, opts []SubscribeOption) *Subscription {
	s := &Subscription{done: make(chan struct{}), guard: g}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Unsubscribe 取消订阅，可重复调用。
// 可以在事件处理函数内调用，正在进行的投递不会再调用该订阅。
func (s *Subscription) Unsubscribe() {
	s.end(false)
}

// Done 返回在订阅结束（取消订阅或总线关闭）时关闭的通道。
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) active() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// end 结束订阅。onComplete 在 once 之外调用，回调内可以再次调用 Unsubscribe。
func (s *Subscription) end(complete bool) {
	first := false
	s.once.Do(func() {
		first = true
		if s.detach != nil {
			s.detach()
		}
		close(s.done)
	})
	if first && complete && s.onComplete != nil {
		s.guard.call(channelComplete, s.onComplete)
	}
}

const channelComplete = "complete"
