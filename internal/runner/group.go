package runner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xtsdict/pkg/observability/xlog"
)

// Option 配置 Group。
type Option func(*Group)

// WithLogger 设置记录任务启停的日志记录器，nil 忽略。
func WithLogger(logger xlog.Logger) Option {
	return func(g *Group) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithName 设置 Group 名称，出现在日志的 group 字段中。
func WithName(name string) Option {
	return func(g *Group) {
		if name != "" {
			g.name = name
		}
	}
}

// Group 管理一组并发任务。Go、GoMain、Cancel 可并发调用，Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc

	logger xlog.Logger
	name   string
}

// NewGroup 创建 Group，返回的 context 在任一任务失败或 Cancel 时取消。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	g := &Group{logger: xlog.Discard(), name: "runner"}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	g.causeCtx, g.cancel = context.WithCancelCause(ctx)
	g.eg, g.ctx = errgroup.WithContext(g.causeCtx)
	return g, g.ctx
}

// Go 启动一个任务。任务返回非 nil 错误时取消其余任务。
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error { return g.exec(name, fn) })
}

// GoMain 启动主任务：无论成功与否，主任务结束后都会取消其余任务。
func (g *Group) GoMain(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		err := g.exec(name, fn)
		if err == nil {
			g.cancel(nil)
		}
		return err
	})
}

func (g *Group) exec(name string, fn func(ctx context.Context) error) error {
	if fn == nil {
		return ErrNilFunc
	}
	attrs := []slog.Attr{slog.String("group", g.name), slog.String("task", name)}
	g.logger.Debug(g.ctx, "task starting", attrs...)
	err := fn(g.ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		g.logger.Warn(g.ctx, "task exited with error", append(attrs, xlog.Err(err))...)
	} else {
		g.logger.Debug(g.ctx, "task stopped", attrs...)
	}
	return err
}

// WatchSignals 注册信号监听任务：收到任一信号时以 *SignalError 取消整个 Group。
func (g *Group) WatchSignals(signals ...os.Signal) {
	if len(signals) == 0 {
		return
	}
	g.eg.Go(func() error {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, signals...)
		defer signal.Stop(ch)

		select {
		case sig := <-ch:
			g.logger.Info(g.ctx, "received signal",
				slog.String("group", g.name), slog.String("signal", sig.String()))
			g.cancel(&SignalError{Signal: sig})
			return nil
		case <-g.ctx.Done():
			return g.ctx.Err()
		}
	})
}

// Cancel 取消所有任务。cause 非 nil 时 Wait 返回 cause。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Wait 等待所有任务结束并返回第一个错误。
// 因 Group 自身取消产生的 context.Canceled 被过滤，显式 cause 会保留。
func (g *Group) Wait() error {
	defer g.cancel(nil)
	err := g.eg.Wait()

	if g.causeCtx.Err() != nil && (err == nil || errors.Is(err, context.Canceled)) {
		if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
		return nil
	}
	return err
}
