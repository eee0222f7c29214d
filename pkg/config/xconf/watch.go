package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/fsnotify/fsnotify"
)

// WatchCallback 在配置文件变更并 Reload 之后调用，err 非 nil 表示重载或监视失败，
// 此时 Source 保持旧内容。
type WatchCallback func(src *Source, err error)

// WatchOption 定义 Watcher 的可选配置。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce   time.Duration
	attempts   uint
	retryDelay time.Duration
}

// 默认监视参数。
const (
	DefaultDebounce      = 100 * time.Millisecond
	DefaultReloadRetries = 3
	DefaultRetryDelay    = 50 * time.Millisecond
)

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载。非正数忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithReloadRetry 设置重载失败（读取或解析错误）时的最大尝试次数与间隔。
// 编辑器非原子写入时，防抖后读到的可能是写了一半的文件。attempts 为 0 时忽略。
func WithReloadRetry(attempts uint, delay time.Duration) WatchOption {
	return func(o *watchOptions) {
		if attempts > 0 {
			o.attempts = attempts
		}
		if delay >= 0 {
			o.retryDelay = delay
		}
	}
}

// Watcher 监视配置文件并在变更后自动 Reload。
type Watcher struct {
	src      *Source
	fs       *fsnotify.Watcher
	callback WatchCallback
	opts     watchOptions
	ctx      context.Context // Close 时取消，中断重试
	cancel   context.CancelFunc

	mu      sync.Mutex
	timer   *time.Timer
	closed  bool
	pending sync.WaitGroup // 已触发但尚未结束的回调
}

// Watch 创建监视器。src 必须由 [Open] 创建。
// 调用 Run 开始监视，Close 释放资源。
func Watch(src *Source, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if src == nil || src.path == "" {
		return nil, ErrNotFromFile
	}
	o := watchOptions{debounce: DefaultDebounce, attempts: DefaultReloadRetries, retryDelay: DefaultRetryDelay}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	// 监视目录，编辑器保存时可能先删除再创建文件
	dir := filepath.Dir(src.path)
	if err := fs.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch directory %s: %w", dir, err), fs.Close())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{src: src, fs: fs, callback: callback, opts: o, ctx: ctx, cancel: cancel}, nil
}

// Run 阻塞处理文件事件，直到 ctx 结束或 Close 被调用。
// ctx 结束时返回 nil。
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()
	filename := filepath.Base(w.src.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) == filename && ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.notify(fmt.Errorf("xconf: watch error: %w", err))
		}
	}
}

// schedule 重置防抖计时器。
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	w.timer = time.AfterFunc(w.opts.debounce, func() {
		defer w.pending.Done()
		err := w.reload()
		if w.ctx.Err() != nil {
			return
		}
		w.notify(err)
	})
}

// reload 调用 Source.Reload，读取或解析失败时按配置重试。
func (w *Watcher) reload() error {
	return retry.New(
		retry.Context(w.ctx),
		retry.Attempts(w.opts.attempts),
		retry.Delay(w.opts.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrParseFailed) || errors.Is(err, ErrLoadFailed)
		}),
	).Do(w.src.Reload)
}

func (w *Watcher) notify(err error) {
	if w.callback != nil {
		w.callback(w.src, err)
	}
}

// Close 停止监视，可重复调用。返回后不会再有回调执行，
// 因此不能在回调中调用 Close。
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.cancel()
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.mu.Unlock()

	err := w.fs.Close()
	w.pending.Wait()
	return err
}
